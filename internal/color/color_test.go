package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var difficulties = []Difficulty{Easy, Medium, Hard}

func TestDeriveRanges(t *testing.T) {
	for _, d := range difficulties {
		for s := 0; s <= 0xFFFF; s++ {
			c := Derive(d, uint16(s))
			require.GreaterOrEqual(t, c.H, 0.0, "%s seed %#04x", d, s)
			require.Less(t, c.H, 360.0, "%s seed %#04x", d, s)
			require.GreaterOrEqual(t, c.S, 0.0)
			require.LessOrEqual(t, c.S, 100.0)
			require.GreaterOrEqual(t, c.V, 0.0)
			require.LessOrEqual(t, c.V, 100.0)
		}
	}
}

func TestDeriveZeroSeed(t *testing.T) {
	// Seed 0 is an ordinary input: all fields zero, no special casing.
	for _, d := range difficulties {
		assert.Equal(t, HSV{}, Derive(d, 0), d.String())
	}
}

func TestDeriveHardFixedPoint(t *testing.T) {
	// Seed 0x7F0F: hue field 0x7F=127, sat field 0x0, val field 0xF.
	// hue = (360/64)*127 mod 360 = 354.375, val = (100/16)*15 = 93.75.
	c := Derive(Hard, 0x7F0F)
	assert.Equal(t, 354.375, c.H)
	assert.Equal(t, 0.0, c.S)
	assert.Equal(t, 93.75, c.V)
}

func TestDeriveMediumFixedPoint(t *testing.T) {
	// Seed 0x7FAF: hue byte 0x7F/16=7, nibble 0xA/2=5 for BOTH sat and val.
	c := Derive(Medium, 0x7FAF)
	assert.Equal(t, 157.5, c.H)
	assert.Equal(t, 62.5, c.S)
	assert.Equal(t, 62.5, c.V)
}

func TestDeriveEasyFixedPoint(t *testing.T) {
	// Seed 0x7F0F: hue byte 0x7F/6=21, 60*21=1260 wraps to 180;
	// val nibble 0x0, sat nibble 0xF/4=3.
	c := Derive(Easy, 0x7F0F)
	assert.Equal(t, 180.0, c.H)
	assert.Equal(t, 75.0, c.S)
	assert.Equal(t, 0.0, c.V)
}

func TestMediumSaturationEqualsValue(t *testing.T) {
	// Medium reads bits 4–7 for both channels; they can never diverge.
	for s := 0; s <= 0xFFFF; s++ {
		c := Derive(Medium, uint16(s))
		require.Equal(t, c.S, c.V, "seed %#04x", s)
	}
}

func TestSteps(t *testing.T) {
	hue, sv := Steps(Easy)
	assert.Equal(t, 7, hue)
	assert.Equal(t, 5, sv)
	hue, sv = Steps(Medium)
	assert.Equal(t, 17, hue)
	assert.Equal(t, 9, sv)
	hue, sv = Steps(Hard)
	assert.Equal(t, 65, hue)
	assert.Equal(t, 17, sv)
}

// Every derivable target must be bit-identical to some slider grid point;
// scoring relies on exact float64 equality between the two paths.
func TestTargetsLandOnGuessGrid(t *testing.T) {
	for _, d := range difficulties {
		hue, sv := Steps(d)
		grid := make(map[HSV]struct{}, hue*sv*sv)
		for hi := 0; hi < hue; hi++ {
			for si := 0; si < sv; si++ {
				for vi := 0; vi < sv; vi++ {
					grid[FromSteps(d, hi, si, vi)] = struct{}{}
				}
			}
		}
		for s := 0; s <= 0xFFFF; s++ {
			c := Derive(d, uint16(s))
			_, ok := grid[c]
			require.True(t, ok, "%s seed %#04x derived %+v off the guess grid", d, s, c)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	for _, d := range difficulties {
		got, err := ParseDifficulty(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	got, err := ParseDifficulty("  HARD ")
	require.NoError(t, err)
	assert.Equal(t, Hard, got)
	_, err = ParseDifficulty("nightmare")
	assert.Error(t, err)
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#000000", HSV{}.Hex())
	assert.Equal(t, "#FFFFFF", HSV{H: 0, S: 0, V: 100}.Hex())
	assert.Equal(t, "#FF0000", HSV{H: 0, S: 100, V: 100}.Hex())
	assert.Equal(t, "#00FF00", HSV{H: 120, S: 100, V: 100}.Hex())
	assert.Equal(t, "#0000FF", HSV{H: 240, S: 100, V: 100}.Hex())
}
