package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// RoundsPerRun is how many rounds a daily run lasts.
const RoundsPerRun = 10

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SeedFor returns the deterministic 16-bit starting seed for a date using
// HMAC(salt, YYYY-MM-DD). Every player guesses the same color sequence.
func SeedFor(date time.Time, salt string) uint16 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint16(sum[:2])
}
