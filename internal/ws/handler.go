package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/wordbomb-backend/internal/engine"
	"github.com/DoyleJ11/wordbomb-backend/internal/hub"
	"github.com/DoyleJ11/wordbomb-backend/internal/lobby"
	"github.com/DoyleJ11/wordbomb-backend/internal/types"
	wire "github.com/DoyleJ11/wordbomb-backend/pkg/types"
)

var ErrBadJSON = errors.New("bad json")
var ErrUnknownType = errors.New("unknown type")
var ErrMissingField = errors.New("missing field")

const outboxSize = 32

type Options struct {
	// OriginPatterns are passed to websocket.Accept; empty means same-origin only.
	OriginPatterns []string
	Log            *zap.Logger
}

func Handler(lb *lobby.Lobby, h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Info("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		clientID := uuid.NewString()
		clog := log.With(zap.String("client", clientID))

		out := make(chan types.ServerMessage, outboxSize)
		defer h.Remove(clientID)
		if err := join(ctx, lb, clientID, out); err != nil {
			clog.Warn("join failed", zap.Error(err))
			return
		}
		clog.Debug("client connected")

		// Writer goroutine
		go func() {
			defer cancel()
			for msg := range out {
				wctx, wcancel := context.WithTimeout(ctx, 3*time.Second)
				err := wsjson.Write(wctx, conn, msg)
				wcancel()
				if err != nil {
					clog.Debug("write failed", zap.Error(err))
					return
				}
			}
			// Hub closed the outbox: slow client or shutdown.
			conn.Close(websocket.StatusGoingAway, "closing")
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					clog.Debug("client disconnected")
				default:
					clog.Debug("read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				h.Notify(clientID, ErrBadJSON)
				continue
			}

			cmd, err := ToEngineCommand(cm)
			if err != nil {
				h.Notify(clientID, err)
				continue
			}

			reply := make(chan error, 1)
			if err := lb.Send(ctx, lobby.FromClient{ClientID: clientID, Cmd: cmd, Reply: reply}); err != nil {
				return
			}
			select {
			case err := <-reply:
				// Invalid words are already broadcast as invalid_word.
				if err != nil && !errors.Is(err, engine.ErrInvalidWord) {
					h.Notify(clientID, err)
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

// join registers out with the hub through the lobby, which also queues the
// current spectator and team lists ahead of any later broadcast.
func join(ctx context.Context, lb *lobby.Lobby, clientID string, out chan types.ServerMessage) error {
	reply := make(chan error, 1)
	if err := lb.Send(ctx, lobby.Join{ClientID: clientID, Outbox: out, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ToEngineCommand validates a client frame. Frames with missing fields never
// reach the lobby.
func ToEngineCommand(m types.ClientMessage) (engine.Command, error) {
	switch m.Type {
	case wire.ClientJoinGame:
		if err := requireFields(m, "name"); err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Type: engine.CmdJoinGame, Player: m.Name}, nil

	case wire.ClientLeaveGame:
		if err := requireFields(m, "name", "team"); err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Type: engine.CmdLeaveGame, Player: m.Name, Affiliation: m.Team}, nil

	case wire.ClientJoinTeam:
		if err := requireFields(m, "name", "team"); err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Type: engine.CmdJoinTeam, Player: m.Name, Team: m.Team}, nil

	case wire.ClientSubmitWord:
		if err := requireFields(m, "team", "player", "word"); err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Type: engine.CmdSubmitWord, Team: m.Team, Player: m.Player, Word: m.Word}, nil

	default:
		return engine.Command{}, fmt.Errorf("%w %q", ErrUnknownType, m.Type)
	}
}

func requireFields(m types.ClientMessage, fields ...string) error {
	for _, f := range fields {
		var v string
		switch f {
		case "name":
			v = m.Name
		case "team":
			v = m.Team
		case "player":
			v = m.Player
		case "word":
			v = m.Word
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f)
		}
	}
	return nil
}
