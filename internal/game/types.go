// apps/go-server/internal/game/types.go
//
// Core type definitions for the color-guessing engine.
// Defines:
//   - Round: one guess-and-reveal cycle with a fixed target color.
//   - Session: cumulative score/guess tally at a fixed difficulty.
//   - Play: server-side aggregate binding a Session to its active Round.

package game

import (
	"time"

	"github.com/robalobadob/hueguess/apps/go-server/internal/color"
)

// Round is one guess-and-reveal cycle. It is replaced, never mutated, when
// the player advances.
type Round struct {
	Target   color.HSV // The color the player is guessing.
	Seed     uint16    // Carried seed, already advanced for the NEXT round.
	Checking bool      // True once the guess was submitted and revealed.
}

// Session is the cumulative tally across rounds. Guessed and Score only ever
// increase, by at most 1 per guess, and Score ≤ Guessed always holds.
type Session struct {
	Guessed    int              // Total guesses submitted.
	Score      int              // Exact matches among them.
	Difficulty color.Difficulty // Fixed at session start.
	Seed       uint16           // Seed the FIRST round was derived from (kept for history display).
}

// Play binds a session to its active round for one player. Owned by the HTTP
// layer and the store; the pure engine functions below never retain it.
type Play struct {
	ID        string    // Random hex identifier.
	Session   Session   // Cumulative tally.
	Round     Round     // Round currently in progress.
	RoundNum  int       // 1-based count of rounds started.
	MaxRounds int       // Round limit (daily mode); 0 means unlimited.
	StartedAt time.Time // For elapsed-time reporting in daily mode.
}
