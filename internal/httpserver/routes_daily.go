// apps/go-server/internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes four endpoints under /daily:
//   - POST /daily/new         → start a daily run (creates or reuses session)
//   - POST /daily/guess       → submit a guess for the current daily round
//   - POST /daily/next        → advance to the next daily round
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each user plays once per day (enforced by DB + in-memory session).
// Every player gets the SAME color sequence: the starting seed is derived
// from date + salt, and the run is a fixed number of rounds at Hard.
// Runs are held in memory during play and persisted to DB on completion.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/hueguess/apps/go-server/internal/color"
	"github.com/robalobadob/hueguess/apps/go-server/internal/daily"
	"github.com/robalobadob/hueguess/apps/go-server/internal/game"
)

// dailyDifficulty is fixed so every player guesses on the same grid.
const dailyDifficulty = color.Hard

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailyRun // active runs keyed by userID|date
	mu       sync.Mutex           // guards sessions
}

// dailyRun holds transient in-memory state for an in-progress daily run.
type dailyRun struct {
	Play     *game.Play
	UserID   string
	Date     string
	Seed     uint16
	Start    time.Time
	Recorded bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     getEnv("DAILY_SALT", "local_dev_salt"),
		sessions: make(map[string]*dailyRun),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Post("/next", dd.handleNext)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// dateKeyNow returns today's date key and the day's deterministic seed.
func (d *dailyServer) dateKeyNow() (date string, sd uint16) {
	now := time.Now().UTC()
	return daily.DateKey(now), daily.SeedFor(now, d.salt)
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) (string, bool) {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID, true
	}
	return d.srv.ensureAnonID(w, r), true
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	PlayID     string `json:"playId"`
	Date       string `json:"date"`
	Rounds     int    `json:"rounds"`
	HueSteps   int    `json:"hueSteps"`
	SatValStep int    `json:"satValSteps"`
	Played     bool   `json:"played"`
}

// handleNew creates or reuses a daily run for the current date.
// - If user already has a DB row for today → return Played=true.
// - Otherwise create/reuse an in-memory run and return PlayID.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid, ok := d.userIDWithAnon(w, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	date, sd := d.dateKeyNow()

	// Check if already played (persisted in DB).
	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{Date: date, Rounds: daily.RoundsPerRun, Played: true})
		return
	}

	hue, sv := color.Steps(dailyDifficulty)

	// Reuse or create run in memory.
	key := uid + "|" + date
	d.mu.Lock()
	if run, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dailyNewRes{
			PlayID: run.Play.ID, Date: date, Rounds: daily.RoundsPerRun,
			HueSteps: hue, SatValStep: sv, Played: run.Recorded,
		})
		return
	}
	run := &dailyRun{
		Play:   game.NewPlay(dailyDifficulty, sd, daily.RoundsPerRun),
		UserID: uid,
		Date:   date,
		Seed:   sd,
		Start:  time.Now(),
	}
	d.sessions[key] = run
	d.mu.Unlock()

	_ = json.NewEncoder(w).Encode(dailyNewRes{
		PlayID: run.Play.ID, Date: date, Rounds: daily.RoundsPerRun,
		HueSteps: hue, SatValStep: sv, Played: false,
	})
}

// -----------------------------------------------------------------------------
// /daily/guess

// dailyGuessReq is the request payload for /daily/guess.
type dailyGuessReq struct {
	PlayID  string `json:"playId"`
	HueStep int    `json:"hueStep"`
	SatStep int    `json:"satStep"`
	ValStep int    `json:"valStep"`
}

// dailyGuessRes is the response payload for /daily/guess.
type dailyGuessRes struct {
	Correct bool      `json:"correct"`
	Target  *colorRes `json:"target,omitempty"`
	Round   int       `json:"round"`
	Score   int       `json:"score"`
	State   string    `json:"state"` // in_progress | done | locked
}

// findRun looks up the caller's run for today and checks the play ID.
func (d *dailyServer) findRun(uid, date, playID string) *dailyRun {
	d.mu.Lock()
	defer d.mu.Unlock()
	run, ok := d.sessions[uid+"|"+date]
	if !ok || run.Play.ID != playID {
		return nil
	}
	return run
}

// handleGuess checks a guess for the caller's daily run.
// - Rejects if no run for today or the run is already recorded.
// - Validates step indices against the daily grid.
// - Persists the result to DB once the final round is checked.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid, ok := d.userIDWithAnon(w, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	date, _ := d.dateKeyNow()
	run := d.findRun(uid, date, p.PlayID)
	if run == nil {
		http.Error(w, "no session", http.StatusConflict)
		return
	}

	hue, sv := color.Steps(dailyDifficulty)
	if p.HueStep < 0 || p.HueStep >= hue || p.SatStep < 0 || p.SatStep >= sv ||
		p.ValStep < 0 || p.ValStep >= sv {
		http.Error(w, "step out of range", http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	if run.Recorded {
		d.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dailyGuessRes{State: "locked", Score: run.Play.Session.Score, Round: run.Play.RoundNum})
		return
	}
	guess := color.FromSteps(dailyDifficulty, p.HueStep, p.SatStep, p.ValStep)
	correct, err := run.Play.Check(guess)
	if err != nil {
		d.mu.Unlock()
		http.Error(w, "already checked", http.StatusConflict)
		return
	}
	done := run.Play.Finished()
	if done {
		run.Recorded = true
	}
	target := revealColor(run.Play.Round.Target)
	score := run.Play.Session.Score
	roundNum := run.Play.RoundNum
	d.mu.Unlock()

	state := "in_progress"
	if done {
		state = "done"
		elapsed := int(time.Since(run.Start).Milliseconds())
		_ = d.store.InsertResult(r.Context(), daily.Result{
			UserID: uid, Date: date, Seed: int(run.Seed),
			Score: score, Rounds: daily.RoundsPerRun, ElapsedMs: elapsed,
		})
	}
	_ = json.NewEncoder(w).Encode(dailyGuessRes{
		Correct: correct, Target: &target, Round: roundNum, Score: score, State: state,
	})
}

// -----------------------------------------------------------------------------
// /daily/next

// dailyNextReq is the request payload for /daily/next.
type dailyNextReq struct {
	PlayID string `json:"playId"`
}

// dailyNextRes is the response payload for /daily/next.
type dailyNextRes struct {
	Round int    `json:"round"`
	State string `json:"state"` // in_progress | done
}

// handleNext advances the caller's daily run to its next round.
func (d *dailyServer) handleNext(w http.ResponseWriter, r *http.Request) {
	uid, ok := d.userIDWithAnon(w, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var p dailyNextReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	date, _ := d.dateKeyNow()
	run := d.findRun(uid, date, p.PlayID)
	if run == nil {
		http.Error(w, "no session", http.StatusConflict)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if run.Recorded {
		_ = json.NewEncoder(w).Encode(dailyNextRes{Round: run.Play.RoundNum, State: "done"})
		return
	}
	if err := run.Play.Next(); err != nil {
		http.Error(w, "not checked", http.StatusConflict)
		return
	}
	_ = json.NewEncoder(w).Encode(dailyNextRes{Round: run.Play.RoundNum, State: "in_progress"})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date, _ = d.dateKeyNow()
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
