// apps/go-server/internal/color/color.go
//
// Deterministic seed → HSV color derivation for the color-guessing game.
// Responsibilities:
//   - Difficulty enum with per-difficulty bit-field layouts and slider grids.
//   - Derive: map (difficulty, 16-bit seed) onto a discrete HSV color.
//   - FromSteps: map slider step indices onto the SAME discrete grid, so a
//     guess and a target at the same grid point compare exactly equal as
//     float64 — scoring uses exact equality on all three components.
//
// Notes:
//   - The mask/shift pairs define the visible color grid; they must not be
//     "simplified". In particular Medium reads bits 4–7 for both saturation
//     and value, and Easy's hue byte divides by 6 giving 0–42 before the
//     modulo wrap. Changing any of it changes which seeds map to which color.

package color

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Difficulty selects the width of the discrete color grid.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// String returns the lowercase name used in API payloads.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseDifficulty maps an API string onto a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return Easy, errors.New("unknown difficulty: " + s)
	}
}

// HSV is a color triple: hue in [0,360), saturation and value in [0,100].
// Pure value; derived, never mutated in place.
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// Steps reports the slider step counts (hue, satVal) for a difficulty.
// Counts include both endpoints; the top hue step wraps back to 0.
func Steps(d Difficulty) (hue, satVal int) {
	switch d {
	case Easy:
		return 7, 5
	case Medium:
		return 17, 9
	default:
		return 65, 17
	}
}

// Derive maps a seed onto the difficulty's color grid. Pure, total over all
// 16-bit seeds; seed 0 is an ordinary input (all fields zero).
//
// Field layout per difficulty (bit 0 = least significant):
//   Hard:   hue bits 8–14 (0–127, 64 distinct after wrap), sat bits 4–7,
//           val bits 0–3.
//   Medium: hue byte 8–15 compressed /16 to 0–15; bits 4–7 feed BOTH sat and
//           val after /2 (bits 0–3 unused).
//   Easy:   hue byte 8–15 divided /6 to 0–42 then wrapped; val bits 4–7 /4;
//           sat bits 0–3 /4.
func Derive(d Difficulty, s uint16) HSV {
	switch d {
	case Easy:
		hf := ((s & 0xFF00) >> 8) / 6
		return HSV{
			H: math.Mod(360.0/6*float64(hf), 360),
			S: 100.0 / 4 * float64((s&0xF)/4),
			V: 100.0 / 4 * float64(((s&0xF0)>>4)/4),
		}
	case Medium:
		hf := ((s & 0xFF00) >> 8) / 16
		nib := (s & 0xF0) >> 4
		return HSV{
			H: math.Mod(360.0/16*float64(hf), 360),
			S: 100.0 / 8 * float64(nib/2),
			V: 100.0 / 8 * float64(nib/2),
		}
	default: // Hard
		return HSV{
			H: math.Mod(360.0/64*float64((s&0x7F00)>>8), 360),
			S: 100.0 / 16 * float64((s&0xF0)>>4),
			V: 100.0 / 16 * float64(s&0xF),
		}
	}
}

// FromSteps maps slider indices onto the same grid Derive targets land on.
// Indices are expected in [0, Steps(d)); the arithmetic mirrors Derive term
// for term so equal grid points are bit-identical float64 values.
func FromSteps(d Difficulty, hueStep, satStep, valStep int) HSV {
	switch d {
	case Easy:
		return HSV{
			H: math.Mod(360.0/6*float64(hueStep), 360),
			S: 100.0 / 4 * float64(satStep),
			V: 100.0 / 4 * float64(valStep),
		}
	case Medium:
		return HSV{
			H: math.Mod(360.0/16*float64(hueStep), 360),
			S: 100.0 / 8 * float64(satStep),
			V: 100.0 / 8 * float64(valStep),
		}
	default:
		return HSV{
			H: math.Mod(360.0/64*float64(hueStep), 360),
			S: 100.0 / 16 * float64(satStep),
			V: 100.0 / 16 * float64(valStep),
		}
	}
}

// RGB converts to 8-bit RGB for swatch rendering.
func (c HSV) RGB() (r, g, b uint8) {
	h := c.H
	s := c.S / 100
	v := c.V / 100

	chroma := v * s
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - chroma

	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = chroma, x, 0
	case h < 120:
		rf, gf, bf = x, chroma, 0
	case h < 180:
		rf, gf, bf = 0, chroma, x
	case h < 240:
		rf, gf, bf = 0, x, chroma
	case h < 300:
		rf, gf, bf = x, 0, chroma
	default:
		rf, gf, bf = chroma, 0, x
	}
	return uint8(math.Round((rf + m) * 255)),
		uint8(math.Round((gf + m) * 255)),
		uint8(math.Round((bf + m) * 255))
}

// Hex returns the swatch color as "#RRGGBB".
func (c HSV) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}
