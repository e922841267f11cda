package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbomb-backend/internal/lobby"
	"github.com/DoyleJ11/wordbomb-backend/internal/store"
	"github.com/DoyleJ11/wordbomb-backend/internal/types"
	wire "github.com/DoyleJ11/wordbomb-backend/pkg/types"
)

const (
	msgStarted        = "Game started!"
	msgAlreadyRunning = "Game is already running!"

	maxHistory   = 100
	lobbyTimeout = 2 * time.Second
)

// GetState serves GET /get_state.
func GetState(lb *lobby.Lobby) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), lobbyTimeout)
		defer cancel()

		reply := make(chan lobby.View, 1)
		if err := lb.Send(ctx, lobby.GetState{Reply: reply}); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, types.Snapshot(v.State))
		case <-ctx.Done():
			http.Error(w, "lobby did not answer", http.StatusServiceUnavailable)
		}
	}
}

// Start serves POST /start. Starting a running game is not an error.
func Start(lb *lobby.Lobby) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), lobbyTimeout)
		defer cancel()

		reply := make(chan lobby.StartResult, 1)
		if err := lb.Send(ctx, lobby.Start{Reply: reply}); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		select {
		case res := <-reply:
			msg := msgStarted
			if !res.Started {
				msg = msgAlreadyRunning
			}
			writeJSON(w, http.StatusOK, wire.StartResponse{Message: msg, Running: res.View.State.Running})
		case <-ctx.Done():
			http.Error(w, "lobby did not answer", http.StatusServiceUnavailable)
		}
	}
}

// History serves GET /history?limit=N, newest game first.
func History(archive store.Archive, defaultLimit int, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(n, maxHistory)
		}

		games, err := archive.RecentGames(r.Context(), limit)
		if err != nil {
			log.Error("list games", zap.Error(err))
			http.Error(w, "failed to list games", http.StatusInternalServerError)
			return
		}
		if games == nil {
			games = []store.GameRecord{}
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
