// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the hueguess backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Play endpoints (optional auth): POST /play/new, POST /play/guess,
//     POST /play/next, GET /play/state.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /plays/mine.
//   - JWT + cookie handling, anonymous session cookie, user CRUD helpers.
//   - Database persistence for plays and user stats.
//
// Notes:
//   - The core engine stays pure; this layer owns the driving loop: it holds
//     the Play aggregate, feeds seeds/difficulties in, and ships colors back.
//   - Guesses arrive as slider step indices, never raw floats, so the guess
//     is computed through the same grid arithmetic as the target and exact
//     equality scoring stays robust.
//   - CORS is origin-aware and credentials-enabled (so cookies work).

package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/hueguess/apps/go-server/internal/color"
	"github.com/robalobadob/hueguess/apps/go-server/internal/colornames"
	"github.com/robalobadob/hueguess/apps/go-server/internal/game"
	"github.com/robalobadob/hueguess/apps/go-server/internal/seed"
	"github.com/robalobadob/hueguess/apps/go-server/internal/store"
)

// Server bundles router, in-memory play store, and DB handle.
type Server struct {
	r     *chi.Mux
	store store.Store
	db    *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), store: st, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"hueguess-go","endpoints":["/health","POST /play/new","POST /play/guess","POST /play/next","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Play endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/play/new", s.handleNewPlay)
	s.r.With(s.withOptionalAuth()).Post("/play/guess", s.handleGuess)
	s.r.With(s.withOptionalAuth()).Post("/play/next", s.handleNext)
	s.r.With(s.withOptionalAuth()).Get("/play/state", s.handleState)

	// Daily Challenge — OPTIONAL AUTH (guests can play; result persisted on completion)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Debug: seed → color derivation table
	s.r.Get("/debug/derive", s.handleDebugDerive)

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ PLAY ---------------------------------------

// colorRes is a revealed color in API responses: raw HSV plus swatch helpers.
type colorRes struct {
	H    float64 `json:"h"`
	S    float64 `json:"s"`
	V    float64 `json:"v"`
	Hex  string  `json:"hex"`
	Name string  `json:"name"`
}

func revealColor(c color.HSV) colorRes {
	return colorRes{H: c.H, S: c.S, V: c.V, Hex: c.Hex(), Name: colornames.Name(c)}
}

// newPlayReq/Res payloads for POST /play/new.
type newPlayReq struct {
	Difficulty string `json:"difficulty"` // "easy" | "medium" | "hard"
	Seed       *int   `json:"seed"`       // optional fixed starting seed (testing)
}
type newPlayRes struct {
	PlayID     string `json:"playId"`
	Difficulty string `json:"difficulty"`
	HueSteps   int    `json:"hueSteps"`
	SatValStep int    `json:"satValSteps"`
	Round      int    `json:"round"`
}

// handleNewPlay creates a new in-memory play and persists a DB "owner" row
// (either user_id or anonymous_id) for history/stats.
func (s *Server) handleNewPlay(w http.ResponseWriter, r *http.Request) {
	var req newPlayReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	diff, err := color.ParseDifficulty(req.Difficulty)
	if err != nil && req.Difficulty != "" {
		http.Error(w, `{"error":"bad_difficulty"}`, http.StatusBadRequest)
		return
	}

	// Starting seed: time-derived by default, fixed when the client pins one.
	start := seed.FromTime(time.Now())
	if req.Seed != nil {
		start = uint16(*req.Seed & 0xFFFF)
	}

	p := game.NewPlay(diff, start, 0)
	if err := s.store.Save(r.Context(), p); err != nil {
		log.Error().Err(err).Msg("save play")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	// Persist owner row; the target colors stay server-side only.
	now := time.Now().UTC().Format(time.RFC3339)
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		_, err := s.db.Exec(`INSERT INTO plays (id, user_id, difficulty, mode, started_at, status, rounds, score)
		                     VALUES (?,?,?,?,?,?,0,0)`, p.ID, me.ID, diff.String(), "free", now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("playId", p.ID).Msg("insert user play row")
		}
	} else {
		anon := s.ensureAnonID(w, r)
		_, err := s.db.Exec(`INSERT INTO plays (id, anonymous_id, difficulty, mode, started_at, status, rounds, score)
		                     VALUES (?,?,?,?,?,?,0,0)`, p.ID, anon, diff.String(), "free", now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("playId", p.ID).Msg("insert anon play row")
		}
	}

	hue, sv := color.Steps(diff)
	_ = json.NewEncoder(w).Encode(newPlayRes{
		PlayID: p.ID, Difficulty: diff.String(), HueSteps: hue, SatValStep: sv, Round: p.RoundNum,
	})
}

// guessReq/Res payloads for POST /play/guess.
type guessReq struct {
	PlayID  string `json:"playId"`
	HueStep int    `json:"hueStep"`
	SatStep int    `json:"satStep"`
	ValStep int    `json:"valStep"`
}
type guessRes struct {
	Correct bool     `json:"correct"`
	Target  colorRes `json:"target"` // revealed after the check
	Score   int      `json:"score"`
	Guessed int      `json:"guessed"`
}

// handleGuess checks a guess against an in-memory play, persists progress,
// and updates user stats in a best-effort transaction.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	p, err := s.store.Get(r.Context(), req.PlayID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	hue, sv := color.Steps(p.Session.Difficulty)
	if req.HueStep < 0 || req.HueStep >= hue || req.SatStep < 0 || req.SatStep >= sv ||
		req.ValStep < 0 || req.ValStep >= sv {
		http.Error(w, `{"error":"step_out_of_range"}`, http.StatusBadRequest)
		return
	}

	guess := color.FromSteps(p.Session.Difficulty, req.HueStep, req.SatStep, req.ValStep)
	correct, err := p.Check(guess)
	if errors.Is(err, game.ErrAlreadyChecking) {
		http.Error(w, `{"error":"already_checked"}`, http.StatusConflict)
		return
	}
	if err := s.store.Save(r.Context(), p); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	// Persist counters/history (best effort, non-fatal if it fails)
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	ownerClause := `anonymous_id=?`
	ownerArg := any(s.ensureAnonID(w, r))
	if me != nil {
		ownerClause = `user_id=?`
		ownerArg = any(me.ID)
	}

	tx, _ := s.db.Begin()
	defer func() { _ = tx.Rollback() }()

	inc := 0
	if correct {
		inc = 1
	}
	if _, err := tx.Exec(`UPDATE plays SET rounds = rounds + 1, score = score + ? WHERE id=? AND `+ownerClause,
		inc, p.ID, ownerArg); err != nil {
		log.Warn().Err(err).Msg("update play counters")
	}
	if me != nil {
		if err := s.bumpStats(tx, me.ID, correct); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
		}
	}
	_ = tx.Commit()

	_ = json.NewEncoder(w).Encode(guessRes{
		Correct: correct,
		Target:  revealColor(p.Round.Target),
		Score:   p.Session.Score,
		Guessed: p.Session.Guessed,
	})
}

// nextReq/Res payloads for POST /play/next.
type nextReq struct {
	PlayID string `json:"playId"`
}
type nextRes struct {
	Round int `json:"round"`
}

// handleNext replaces a checked round with a fresh one.
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	var req nextReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	p, err := s.store.Get(r.Context(), req.PlayID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err := p.Next(); err != nil {
		http.Error(w, `{"error":"not_checked"}`, http.StatusConflict)
		return
	}
	if err := s.store.Save(r.Context(), p); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(nextRes{Round: p.RoundNum})
}

// stateRes is returned by GET /play/state.
type stateRes struct {
	Difficulty string    `json:"difficulty"`
	Round      int       `json:"round"`
	Score      int       `json:"score"`
	Guessed    int       `json:"guessed"`
	Checking   bool      `json:"checking"`
	Target     *colorRes `json:"target,omitempty"` // present only while checking
}

// handleState reports the current play state. The target is included only in
// the Checking phase, after the reveal.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Get(r.Context(), r.URL.Query().Get("playId"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	res := stateRes{
		Difficulty: p.Session.Difficulty.String(),
		Round:      p.RoundNum,
		Score:      p.Session.Score,
		Guessed:    p.Session.Guessed,
		Checking:   p.Round.Checking,
	}
	if p.Round.Checking {
		c := revealColor(p.Round.Target)
		res.Target = &c
	}
	_ = json.NewEncoder(w).Encode(res)
}

// ------------------------------ DEBUG --------------------------------------

// deriveRow is one row of the debug derivation table.
type deriveRow struct {
	Seed int `json:"seed"`
	colorRes
}

// handleDebugDerive dumps the color sequence a seed produces. Handy for
// checking the generator against a client without playing through rounds.
func (s *Server) handleDebugDerive(w http.ResponseWriter, r *http.Request) {
	diff, err := color.ParseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil && r.URL.Query().Get("difficulty") != "" {
		http.Error(w, `{"error":"bad_difficulty"}`, http.StatusBadRequest)
		return
	}
	sd, _ := strconv.Atoi(r.URL.Query().Get("seed"))
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	if count <= 0 {
		count = 8
	}
	if count > 64 {
		count = 64
	}

	cur := uint16(sd & 0xFFFF)
	rows := make([]deriveRow, 0, count)
	for i := 0; i < count; i++ {
		rows = append(rows, deriveRow{Seed: int(cur), colorRes: revealColor(color.Derive(diff, cur))})
		cur = seed.Next(cur)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"difficulty": diff.String(), "rows": rows})
}

// ------------------------------- AUTH --------------------------------------

// Request payloads for signup/login.
type signupReq struct{ Username, Password string }
type loginReq struct{ Username, Password string }

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /plays/mine).
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	// Current user (gated)
	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(me)
	})

	// Stats (gated)
	s.r.With(s.requireAuth()).Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		u, err := s.findUserByID(me.ID)
		if err != nil {
			http.Error(w, `{"error":"not_found"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           u.ID,
			"roundsPlayed": u.RoundsPlayed,
			"correct":      u.Correct,
			"streak":       u.Streak,
		})
	})

	// Recent plays (gated)
	s.r.With(s.requireAuth()).Get("/plays/mine", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		rows, err := s.db.Query(`SELECT id, difficulty, mode, status, rounds, score, started_at, COALESCE(finished_at,'')
		                         FROM plays WHERE user_id=? ORDER BY started_at DESC LIMIT 50`, me.ID)
		if err != nil {
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		type playRow struct {
			ID         string `json:"id"`
			Difficulty string `json:"difficulty"`
			Mode       string `json:"mode"`
			Status     string `json:"status"`
			Rounds     int    `json:"rounds"`
			Score      int    `json:"score"`
			StartedAt  string `json:"startedAt"`
			FinishedAt string `json:"finishedAt,omitempty"`
		}
		out := []playRow{}
		for rows.Next() {
			var pr playRow
			if err := rows.Scan(&pr.ID, &pr.Difficulty, &pr.Mode, &pr.Status, &pr.Rounds, &pr.Score, &pr.StartedAt, &pr.FinishedAt); err == nil {
				out = append(out, pr)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
}

// handleSignup creates a new user, signs a JWT, sets auth cookie, and claims anon history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.createUser(body.Username, body.Password)
	if err != nil {
		if err.Error() == "username taken" {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	// Attach any anonymous plays to the new account
	s.claimAnonPlays(s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates user, sets cookie, and claims anon history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.findUserByUsername(strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	s.claimAnonPlays(s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// --------------------------- optional auth ---------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				claims := jwt.MapClaims{}
				if t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
				}); err == nil && t.Valid {
					if id, _ := claims["id"].(string); id != "" {
						if u, err := s.findUserByID(id); err == nil {
							ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: u.ID, Username: u.Username})
							r = r.WithContext(ctx)
						}
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

const anonCookieName = "hueguess_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
// Used to associate guest plays with a stable identifier.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("NODE_ENV") == "production",
		SameSite: func() http.SameSite {
			if os.Getenv("NODE_ENV") == "production" {
				return http.SameSiteNoneMode
			}
			return http.SameSiteLaxMode
		}(),
		Expires: time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// claimAnonPlays transfers any anonymous plays to a user account after auth.
func (s *Server) claimAnonPlays(anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := s.db.Exec(`UPDATE plays SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon plays")
	}
}

// ------------------------ auth helpers & users -----------------------------

// userRow matches the users table shape.
type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	RoundsPlayed int
	Correct      int
	Streak       int
}

// createUser validates input, checks uniqueness, hashes password, and inserts a new user.
func (s *Server) createUser(username, pw string) (*userRow, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = s.db.QueryRow(`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, errors.New("username taken")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	id := genID()
	if _, err := s.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, string(h), now); err != nil {
		return nil, err
	}
	return &userRow{ID: id, Username: username, PasswordHash: string(h), CreatedAt: mustParse(now)}, nil
}

// findUserByUsername/ID load a user row or return an error if missing.
func (s *Server) findUserByUsername(username string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, rounds_played, correct, streak
	                      FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}
func (s *Server) findUserByID(id string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, rounds_played, correct, streak
	                      FROM users WHERE id=?`, id)
	return scanUser(row)
}

// scanUser converts a *sql.Row into a userRow.
func scanUser(row *sql.Row) (*userRow, error) {
	var u userRow
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.RoundsPlayed, &u.Correct, &u.Streak); err != nil {
		return nil, err
	}
	u.CreatedAt = mustParse(created)
	return &u, nil
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// normalizeUsername trims whitespace; adjust here if you want stricter rules.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8–100 chars")
	}
	return nil
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}

// bumpStats increments rounds played; updates correct-guess count and streak
// based on the check result (within tx).
func (s *Server) bumpStats(tx *sql.Tx, userID string, correct bool) error {
	var rp, cg, streak int
	row := tx.QueryRow(`SELECT rounds_played, correct, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&rp, &cg, &streak); err != nil {
		return err
	}
	rp++
	if correct {
		cg++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.Exec(`UPDATE users SET rounds_played=?, correct=?, streak=? WHERE id=?`, rp, cg, streak, userID)
	return err
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and a configurable expiry (JWT_EXPIRES_DAYS; default 14).
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev_secret_change_me"
	}
	days := 14
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "hueguess_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	name := getEnv("COOKIE_NAME", "hueguess_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "hueguess_token")); err == nil {
		return c.Value
	}
	return ""
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			username, _ := claims["username"].(string)
			if id == "" || username == "" {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure user still exists
			if _, err := s.findUserByID(id); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: id, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
