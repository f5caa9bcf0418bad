package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextKnownValues(t *testing.T) {
	// Hand-computed: (s*65521 ^ twist[s&3]) & 0xFFFF.
	cases := []struct {
		in, out uint16
	}{
		{0x0000, 32771},  // 0*65521 ^ 32771
		{0x0001, 49130},  // 0xFFF1 ^ 0x401B
		{0xFFFF, 0x2AF4}, // low bits of 0xFFF0000F ^ 0x2AFB
	}
	for _, c := range cases {
		assert.Equal(t, c.out, Next(c.in), "Next(%#04x)", c.in)
	}
}

func TestNextDeterministic(t *testing.T) {
	for s := 0; s <= 0xFFFF; s++ {
		require.Equal(t, Next(uint16(s)), Next(uint16(s)))
	}
}

func TestNextSustainedPlay(t *testing.T) {
	// 10k steps from a handful of starting points; two parallel walks must
	// agree at every step (bit-exact replay is the whole point).
	for _, start := range []uint16{0, 1, 0x7F0F, 0xFFFF, 12345} {
		a, b := start, start
		for i := 0; i < 10000; i++ {
			a = Next(a)
			b = Next(b)
			require.Equal(t, a, b)
		}
	}
}

func TestFromTimeTruncates(t *testing.T) {
	t0 := time.UnixMilli(1_000_000)
	t1 := t0.Add(65536 * time.Millisecond)
	assert.Equal(t, FromTime(t0), FromTime(t1))
	assert.NotEqual(t, FromTime(t0), FromTime(t0.Add(time.Millisecond)))
}
