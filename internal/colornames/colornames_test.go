package colornames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/hueguess/apps/go-server/internal/color"
)

func TestInitEmbedded(t *testing.T) {
	require.NoError(t, Init())
	assert.Greater(t, Stats(), 0)
}

func TestNameAchromatic(t *testing.T) {
	assert.Equal(t, "black", Name(color.HSV{H: 200, S: 100, V: 0}))
	assert.Equal(t, "white", Name(color.HSV{H: 200, S: 0, V: 100}))
	assert.Equal(t, "gray", Name(color.HSV{H: 200, S: 0, V: 50}))
}

func TestNameHueBuckets(t *testing.T) {
	cases := map[float64]string{
		0:   "red",
		30:  "orange",
		60:  "yellow",
		120: "green",
		180: "cyan",
		240: "blue",
		280: "purple",
		320: "magenta",
		350: "red",
	}
	for hue, want := range cases {
		assert.Equal(t, want, Name(color.HSV{H: hue, S: 100, V: 100}), "hue %v", hue)
	}
}
