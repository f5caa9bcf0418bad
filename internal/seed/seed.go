// apps/go-server/internal/seed/seed.go
//
// Pseudo-random seed stream for the color game.
// Responsibilities:
//   - Step a 16-bit seed to its successor (fast, low-quality, fully
//     reproducible — the game needs bit-exact replay, not statistical quality).
//   - Derive an initial seed from a wall-clock instant.
//
// Notes:
//   - Every result is masked back to 16 bits; the raw multiply can exceed
//     the seed width on any practical integer size.

package seed

import "time"

// mult is an odd constant so the low bits keep churning under truncation.
const mult = 65521

// twist constants XORed into the product; picked by the two low bits of the
// seed as it was BEFORE the multiply.
var twist = [4]uint32{32771, 16411, 14009, 11003}

// Next maps a seed to its successor. Pure and total over all 16-bit inputs.
func Next(s uint16) uint16 {
	t := twist[s&0x3]
	return uint16((uint32(s)*mult ^ t) & 0xFFFF)
}

// FromTime truncates a wall-clock instant to a 16-bit starting seed.
// Any time source is acceptable; only reproducibility after this point matters.
func FromTime(t time.Time) uint16 {
	return uint16(t.UnixMilli() & 0xFFFF)
}
