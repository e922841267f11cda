package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbomb-backend/internal/dictionary"
	"github.com/DoyleJ11/wordbomb-backend/internal/engine"
	"github.com/DoyleJ11/wordbomb-backend/internal/hub"
	"github.com/DoyleJ11/wordbomb-backend/internal/lobby"
	"github.com/DoyleJ11/wordbomb-backend/internal/store"
	wire "github.com/DoyleJ11/wordbomb-backend/pkg/types"
)

func newRouter(t *testing.T, archive store.Archive) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dict, err := dictionary.New([]string{"PLANET"}, []string{"LAN"}, dictionary.Options{})
	require.NoError(t, err)
	game := engine.NewGame([]string{"Lato", "Biny"}, engine.Rules{
		StartingLives: 3,
		TimerLength:   10 * time.Second,
		TickInterval:  200 * time.Millisecond,
		SequenceMin:   2,
		SequenceMax:   4,
	}, dict, dict)

	h := hub.NewHub(ctx, zap.NewNop())
	lb := lobby.NewLobby(ctx, game, h)
	return SetupRoutes(lb, h, archive, Options{Origins: []string{"localhost:*"}, HistoryLimit: 5})
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestGetState_BeforeStart(t *testing.T) {
	h := newRouter(t, store.NewMemory())

	rec := do(t, h, http.MethodGet, "/get_state")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var s wire.StateSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Len(t, s.Teams, 2)
	assert.NotNil(t, s.Spectators)
	assert.Equal(t, [2]int{2, 4}, s.SequenceLength)
	assert.Equal(t, 10.0, s.TimerLength)
	assert.Equal(t, 0.2, s.PauseTime)
	assert.Equal(t, engine.NoTurn, s.CurrentTurn)
	assert.False(t, s.Running)
}

func TestStart_ThenAlreadyRunning(t *testing.T) {
	h := newRouter(t, store.NewMemory())

	var res wire.StartResponse
	rec := do(t, h, http.MethodPost, "/start")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, msgStarted, res.Message)
	assert.True(t, res.Running)

	rec = do(t, h, http.MethodPost, "/start")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, msgAlreadyRunning, res.Message)

	var s wire.StateSnapshot
	rec = do(t, h, http.MethodGet, "/get_state")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.True(t, s.Running)
	assert.Equal(t, 0, s.CurrentTurn)
	assert.Equal(t, "LAN", s.CurrentSequence)
	assert.Equal(t, 1, s.Round)
}

func TestHistory(t *testing.T) {
	archive := store.NewMemory()
	for i, winner := range []string{"Lato", "Biny", "Lato"} {
		require.NoError(t, archive.RecordGame(context.Background(), store.GameRecord{Winner: winner, Rounds: i + 1}))
	}
	h := newRouter(t, archive)

	var games []store.GameRecord
	rec := do(t, h, http.MethodGet, "/history?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games, 2)
	assert.Equal(t, 3, games[0].Rounds)

	rec = do(t, h, http.MethodGet, "/history")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	assert.Len(t, games, 3)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/history?limit=zero").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/history?limit=-1").Code)
}

func TestHistory_EmptyIsArray(t *testing.T) {
	rec := do(t, newRouter(t, store.NewMemory()), http.MethodGet, "/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHealthzAndMethods(t *testing.T) {
	h := newRouter(t, store.NewMemory())
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/start").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/lobbies").Code)
}

func TestCORS(t *testing.T) {
	h := newRouter(t, store.NewMemory())

	req := httptest.NewRequest(http.MethodOptions, "/start", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed("http://localhost:3000", []string{"localhost:*"}))
	assert.True(t, originAllowed("https://game.example:8443", []string{"*"}))
	assert.False(t, originAllowed("https://game.example", nil))
	assert.False(t, originAllowed("https://evil.example", []string{"localhost:*"}))
}
