// apps/go-server/internal/game/engine.go
//
// Round/session state machine for the color-guessing game.
// Responsibilities:
//   - Start rounds: derive the target color from the current seed and carry
//     the stepped seed forward for the round after it.
//   - Check guesses: exact-equality comparison against the target, tally
//     bookkeeping (Guessed always +1, Score +1 only on a full match).
//   - Advance rounds: Guessing → Checking → next round's Guessing.
//
// Notes:
//   - StartRound/CheckGuess/AdvanceRound are pure over their explicit inputs;
//     callers thread Session/Round values through them.
//   - Protocol violations (checking twice, advancing early) leave state
//     unchanged and return a sentinel error. They never panic.
//   - Session.Seed stays at the value the first round was derived from; only
//     Round.Seed moves through the generator sequence. Observed behavior of
//     the game this was ported from; kept as-is.

package game

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/robalobadob/hueguess/apps/go-server/internal/color"
	"github.com/robalobadob/hueguess/apps/go-server/internal/seed"
)

var (
	// ErrAlreadyChecking is returned by CheckGuess when the round's guess was
	// already submitted. State is left unchanged.
	ErrAlreadyChecking = errors.New("round already checked")

	// ErrNotChecking is returned by AdvanceRound before a guess was checked.
	ErrNotChecking = errors.New("round not checked yet")

	// ErrFinished is returned by Play.Next once a round-limited play is done.
	ErrFinished = errors.New("play finished")
)

// NewSession starts a zero tally at the given difficulty and starting seed.
func NewSession(d color.Difficulty, s uint16) Session {
	return Session{Difficulty: d, Seed: s}
}

// StartRound derives the round's target from the seed and steps the seed once
// so the round already carries the value for its successor. Never fails.
func StartRound(d color.Difficulty, s uint16) Round {
	return Round{
		Target: color.Derive(d, s),
		Seed:   seed.Next(s),
	}
}

// CheckGuess transitions the round to Checking and updates the tally.
// Score increments only when all three components match the target exactly;
// both the target and the guess come from the same discretized grid
// arithmetic, so float64 equality is well defined here.
//
// Calling it on an already-checked round is a caller error: the inputs are
// returned unchanged alongside ErrAlreadyChecking.
func CheckGuess(sess Session, r Round, guess color.HSV) (Session, Round, bool, error) {
	if r.Checking {
		return sess, r, false, ErrAlreadyChecking
	}
	r.Checking = true
	sess.Guessed++
	correct := guess.H == r.Target.H && guess.S == r.Target.S && guess.V == r.Target.V
	if correct {
		sess.Score++
	}
	return sess, r, correct, nil
}

// AdvanceRound replaces a checked round with the next one, derived from the
// carried seed. Valid only in the Checking state; otherwise the round is
// returned unchanged with ErrNotChecking.
func AdvanceRound(sess Session, r Round) (Round, error) {
	if !r.Checking {
		return r, ErrNotChecking
	}
	return StartRound(sess.Difficulty, r.Seed), nil
}

// NewPlay creates a Play with its first round started. maxRounds of 0 means
// unlimited play.
func NewPlay(d color.Difficulty, s uint16, maxRounds int) *Play {
	return &Play{
		ID:        randomID(),
		Session:   NewSession(d, s),
		Round:     StartRound(d, s),
		RoundNum:  1,
		MaxRounds: maxRounds,
		StartedAt: time.Now(),
	}
}

// Check applies CheckGuess to the play's state.
func (p *Play) Check(guess color.HSV) (bool, error) {
	sess, r, correct, err := CheckGuess(p.Session, p.Round, guess)
	if err != nil {
		return false, err
	}
	p.Session, p.Round = sess, r
	return correct, nil
}

// Next advances to the following round, honoring the round limit.
func (p *Play) Next() error {
	if p.Finished() {
		return ErrFinished
	}
	r, err := AdvanceRound(p.Session, p.Round)
	if err != nil {
		return err
	}
	p.Round = r
	p.RoundNum++
	return nil
}

// Finished reports whether a round-limited play has checked its last round.
func (p *Play) Finished() bool {
	return p.MaxRounds > 0 && p.RoundNum >= p.MaxRounds && p.Round.Checking
}

// randomID returns a compact 16-hex-char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
