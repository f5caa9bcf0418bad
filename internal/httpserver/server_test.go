// apps/go-server/internal/httpserver/server_test.go
//
// End-to-end handler tests against an httptest server with in-memory SQLite.
// The cookie jar matters: the anonymous-ID cookie ties guest requests to one
// player, and the auth cookie carries the JWT after signup.

package httpserver

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/hueguess/apps/go-server/internal/color"
	"github.com/robalobadob/hueguess/apps/go-server/internal/daily"
	"github.com/robalobadob/hueguess/apps/go-server/internal/seed"
	"github.com/robalobadob/hueguess/apps/go-server/internal/store"
)

const testSchema = `
CREATE TABLE users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL,
	rounds_played INTEGER NOT NULL DEFAULT 0,
	correct INTEGER NOT NULL DEFAULT 0,
	streak INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE plays (
	id TEXT PRIMARY KEY,
	user_id TEXT REFERENCES users(id),
	anonymous_id TEXT,
	difficulty TEXT NOT NULL,
	mode TEXT NOT NULL DEFAULT 'free',
	started_at TEXT NOT NULL,
	finished_at TEXT,
	status TEXT NOT NULL DEFAULT 'playing',
	rounds INTEGER NOT NULL DEFAULT 0,
	score INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE daily_results (
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	seed INTEGER NOT NULL,
	score INTEGER NOT NULL,
	rounds INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	UNIQUE(user_id, date)
);
`

// newTestServer wires a full Server against in-memory SQLite and returns a
// client with a cookie jar so anon/auth cookies persist across requests.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	t.Setenv("DAILY_SALT", "test_salt")

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	srv := New(store.NewMemoryStore(), db)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return ts, &http.Client{Jar: jar}
}

// postJSON posts body and decodes the JSON response into out (if non-nil).
func postJSON(t *testing.T, c *http.Client, url string, body any, out any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := c.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func getJSON(t *testing.T, c *http.Client, url string, out any) *http.Response {
	t.Helper()
	res, err := c.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

// stepsFor inverts a grid target back to its slider indices. Exact because
// targets always land on the grid.
func stepsFor(d color.Difficulty, c color.HSV) (hi, si, vi int) {
	switch d {
	case color.Easy:
		return int(math.Round(c.H / 60)), int(math.Round(c.S / 25)), int(math.Round(c.V / 25))
	case color.Medium:
		return int(math.Round(c.H / 22.5)), int(math.Round(c.S / 12.5)), int(math.Round(c.V / 12.5))
	default:
		return int(math.Round(c.H / 5.625)), int(math.Round(c.S / 6.25)), int(math.Round(c.V / 6.25))
	}
}

func TestHealth(t *testing.T) {
	ts, c := newTestServer(t)
	var out map[string]bool
	res := getJSON(t, c, ts.URL+"/health", &out)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, out["ok"])
}

func TestFreePlayFlow(t *testing.T) {
	ts, c := newTestServer(t)

	pinned := 0x7F0F
	var created newPlayRes
	res := postJSON(t, c, ts.URL+"/play/new", map[string]any{"difficulty": "hard", "seed": pinned}, &created)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, created.PlayID)
	assert.Equal(t, 65, created.HueSteps)
	assert.Equal(t, 17, created.SatValStep)
	assert.Equal(t, 1, created.Round)

	// Target for seed 0x7F0F at hard is known: 354.375 / 0 / 93.75.
	target := color.Derive(color.Hard, uint16(pinned))
	hi, si, vi := stepsFor(color.Hard, target)
	require.Equal(t, 63, hi)
	require.Equal(t, 0, si)
	require.Equal(t, 15, vi)

	var checked guessRes
	res = postJSON(t, c, ts.URL+"/play/guess", map[string]any{
		"playId": created.PlayID, "hueStep": hi, "satStep": si, "valStep": vi,
	}, &checked)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, checked.Correct)
	assert.Equal(t, 1, checked.Score)
	assert.Equal(t, 1, checked.Guessed)
	assert.Equal(t, target.H, checked.Target.H)
	assert.Equal(t, target.Hex(), checked.Target.Hex)

	// Guessing an already-checked round is a protocol violation.
	res = postJSON(t, c, ts.URL+"/play/guess", map[string]any{
		"playId": created.PlayID, "hueStep": 0, "satStep": 0, "valStep": 0,
	}, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// Advance and verify the next round came from the carried seed.
	var advanced nextRes
	res = postJSON(t, c, ts.URL+"/play/next", map[string]any{"playId": created.PlayID}, &advanced)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 2, advanced.Round)

	var state stateRes
	res = getJSON(t, c, ts.URL+"/play/state?playId="+created.PlayID, &state)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, state.Checking)
	assert.Nil(t, state.Target)
	assert.Equal(t, 1, state.Score)

	// The second round's target must match deriving from the stepped seed.
	carried := seed.Next(uint16(pinned))
	target2 := color.Derive(color.Hard, carried)
	hi, si, vi = stepsFor(color.Hard, target2)
	res = postJSON(t, c, ts.URL+"/play/guess", map[string]any{
		"playId": created.PlayID, "hueStep": hi, "satStep": si, "valStep": vi,
	}, &checked)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, checked.Correct)
	assert.Equal(t, 2, checked.Score)
}

func TestAdvanceBeforeCheckRejected(t *testing.T) {
	ts, c := newTestServer(t)
	var created newPlayRes
	postJSON(t, c, ts.URL+"/play/new", map[string]any{"difficulty": "easy"}, &created)
	res := postJSON(t, c, ts.URL+"/play/next", map[string]any{"playId": created.PlayID}, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestGuessStepOutOfRange(t *testing.T) {
	ts, c := newTestServer(t)
	var created newPlayRes
	postJSON(t, c, ts.URL+"/play/new", map[string]any{"difficulty": "easy"}, &created)
	res := postJSON(t, c, ts.URL+"/play/guess", map[string]any{
		"playId": created.PlayID, "hueStep": 7, "satStep": 0, "valStep": 0,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDebugDerive(t *testing.T) {
	ts, c := newTestServer(t)
	var out struct {
		Difficulty string `json:"difficulty"`
		Rows       []struct {
			Seed int     `json:"seed"`
			H    float64 `json:"h"`
			Hex  string  `json:"hex"`
			Name string  `json:"name"`
		} `json:"rows"`
	}
	res := getJSON(t, c, ts.URL+"/debug/derive?difficulty=hard&seed=32527&count=4", &out)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "hard", out.Difficulty)
	require.Len(t, out.Rows, 4)
	assert.Equal(t, 32527, out.Rows[0].Seed)
	assert.Equal(t, 354.375, out.Rows[0].H)
	assert.Equal(t, int(seed.Next(32527)), out.Rows[1].Seed)
	assert.NotEmpty(t, out.Rows[0].Name)
}

func TestAuthAndStatsFlow(t *testing.T) {
	ts, c := newTestServer(t)

	res := postJSON(t, c, ts.URL+"/auth/signup", map[string]string{
		"Username": "tester_1", "Password": "hunter2hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var me authUser
	res = getJSON(t, c, ts.URL+"/auth/me", &me)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "tester_1", me.Username)

	// A correct guess while signed in bumps the persisted stats.
	var created newPlayRes
	pinned := 0x7F0F
	postJSON(t, c, ts.URL+"/play/new", map[string]any{"difficulty": "hard", "seed": pinned}, &created)
	target := color.Derive(color.Hard, uint16(pinned))
	hi, si, vi := stepsFor(color.Hard, target)
	postJSON(t, c, ts.URL+"/play/guess", map[string]any{
		"playId": created.PlayID, "hueStep": hi, "satStep": si, "valStep": vi,
	}, nil)

	var stats struct {
		RoundsPlayed int `json:"roundsPlayed"`
		Correct      int `json:"correct"`
		Streak       int `json:"streak"`
	}
	res = getJSON(t, c, ts.URL+"/stats/me", &stats)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, stats.RoundsPlayed)
	assert.Equal(t, 1, stats.Correct)
	assert.Equal(t, 1, stats.Streak)

	var plays []map[string]any
	res = getJSON(t, c, ts.URL+"/plays/mine", &plays)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, plays, 1)
	assert.Equal(t, "hard", plays[0]["difficulty"])

	// Logged out, gated routes refuse.
	postJSON(t, c, ts.URL+"/auth/logout", map[string]string{}, nil)
	res = getJSON(t, c, ts.URL+"/stats/me", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestDailyFullRun(t *testing.T) {
	ts, c := newTestServer(t)

	var created dailyNewRes
	res := postJSON(t, c, ts.URL+"/daily/new", map[string]string{}, &created)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.False(t, created.Played)
	require.NotEmpty(t, created.PlayID)
	assert.Equal(t, daily.RoundsPerRun, created.Rounds)

	// The daily sequence is deterministic from date + salt, so the test can
	// play a perfect run.
	cur := daily.SeedFor(time.Now().UTC(), "test_salt")
	for round := 1; round <= daily.RoundsPerRun; round++ {
		target := color.Derive(color.Hard, cur)
		hi, si, vi := stepsFor(color.Hard, target)
		var checked dailyGuessRes
		res = postJSON(t, c, ts.URL+"/daily/guess", map[string]any{
			"playId": created.PlayID, "hueStep": hi, "satStep": si, "valStep": vi,
		}, &checked)
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.True(t, checked.Correct, "round %d", round)
		require.Equal(t, round, checked.Score)

		if round < daily.RoundsPerRun {
			require.Equal(t, "in_progress", checked.State)
			var adv dailyNextRes
			res = postJSON(t, c, ts.URL+"/daily/next", map[string]any{"playId": created.PlayID}, &adv)
			require.Equal(t, http.StatusOK, res.StatusCode)
			require.Equal(t, round+1, adv.Round)
		} else {
			require.Equal(t, "done", checked.State)
		}
		cur = seed.Next(cur)
	}

	// A second /daily/new the same day reports the run as played.
	var again dailyNewRes
	res = postJSON(t, c, ts.URL+"/daily/new", map[string]string{}, &again)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, again.Played)

	// And the leaderboard shows the perfect score.
	var lb lbRes
	res = getJSON(t, c, ts.URL+"/daily/leaderboard", &lb)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, lb.Top, 1)
	assert.Equal(t, daily.RoundsPerRun, lb.Top[0].Score)
}
