package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/wordbomb-backend/internal/dictionary"
	"github.com/DoyleJ11/wordbomb-backend/internal/engine"
	"github.com/DoyleJ11/wordbomb-backend/internal/hub"
	"github.com/DoyleJ11/wordbomb-backend/internal/lobby"
	"github.com/DoyleJ11/wordbomb-backend/internal/types"
	wire "github.com/DoyleJ11/wordbomb-backend/pkg/types"
)

func TestToEngineCommand(t *testing.T) {
	cases := []struct {
		name    string
		in      types.ClientMessage
		want    engine.Command
		wantErr error
	}{
		{
			name: "join game",
			in:   types.ClientMessage{Type: wire.ClientJoinGame, Name: "ann"},
			want: engine.Command{Type: engine.CmdJoinGame, Player: "ann"},
		},
		{
			name: "leave game",
			in:   types.ClientMessage{Type: wire.ClientLeaveGame, Name: "ann", Team: "spectators"},
			want: engine.Command{Type: engine.CmdLeaveGame, Player: "ann", Affiliation: "spectators"},
		},
		{
			name: "join team",
			in:   types.ClientMessage{Type: wire.ClientJoinTeam, Name: "ann", Team: "Lato"},
			want: engine.Command{Type: engine.CmdJoinTeam, Player: "ann", Team: "Lato"},
		},
		{
			name: "submit word",
			in:   types.ClientMessage{Type: wire.ClientSubmitWord, Team: "Lato", Player: "ann", Word: "planet"},
			want: engine.Command{Type: engine.CmdSubmitWord, Team: "Lato", Player: "ann", Word: "planet"},
		},
		{
			name:    "join game without name",
			in:      types.ClientMessage{Type: wire.ClientJoinGame},
			wantErr: ErrMissingField,
		},
		{
			name:    "join team blank team",
			in:      types.ClientMessage{Type: wire.ClientJoinTeam, Name: "ann", Team: "  "},
			wantErr: ErrMissingField,
		},
		{
			name:    "submit without word",
			in:      types.ClientMessage{Type: wire.ClientSubmitWord, Team: "Lato", Player: "ann"},
			wantErr: ErrMissingField,
		},
		{
			name:    "unknown type",
			in:      types.ClientMessage{Type: "start_game"},
			wantErr: ErrUnknownType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToEngineCommand(tc.in)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func newGateway(t *testing.T) (*lobby.Lobby, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dict, err := dictionary.New([]string{"PLANET", "ISLAND"}, []string{"LAN"}, dictionary.Options{})
	require.NoError(t, err)
	game := engine.NewGame([]string{"Lato", "Biny"}, engine.Rules{
		StartingLives: 3,
		TimerLength:   time.Minute,
		TickInterval:  10 * time.Millisecond,
	}, dict, dict)

	h := hub.NewHub(ctx, zap.NewNop())
	return lobby.NewLobby(ctx, game, h), h
}

func newServer(t *testing.T) (*httptest.Server, *lobby.Lobby) {
	t.Helper()
	lb, h := newGateway(t)
	srv := httptest.NewServer(Handler(lb, h, Options{Log: zap.NewNop()}))
	t.Cleanup(srv.Close)
	return srv, lb
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var m types.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &m))
	return m
}

// readUntil skips frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) types.ServerMessage {
	t.Helper()
	for range 10 {
		if m := read(t, conn); m.Type == typ {
			return m
		}
	}
	t.Fatalf("no %s frame", typ)
	return types.ServerMessage{}
}

func write(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, v))
}

func TestHandler_InitialSync(t *testing.T) {
	srv, _ := newServer(t)
	conn := dial(t, srv)

	first := read(t, conn)
	assert.Equal(t, wire.EventSpectators, first.Type)
	require.NotNil(t, first.Spectators)
	assert.Empty(t, *first.Spectators)

	second := read(t, conn)
	assert.Equal(t, wire.EventTeams, second.Type)
	require.Len(t, second.Teams, 2)
	assert.Equal(t, "Lato", second.Teams[0].Name)
	assert.Equal(t, 3, second.Teams[0].Lives)
}

func TestHandler_JoinTeamIsBroadcast(t *testing.T) {
	srv, _ := newServer(t)
	a := dial(t, srv)
	b := dial(t, srv)
	for _, c := range []*websocket.Conn{a, b} {
		read(t, c)
		read(t, c)
	}

	write(t, a, types.ClientMessage{Type: wire.ClientJoinTeam, Name: "ann", Team: "Biny"})

	for _, c := range []*websocket.Conn{a, b} {
		m := readUntil(t, c, wire.EventTeams)
		require.Len(t, m.Teams, 2)
		assert.Equal(t, []string{"ann"}, m.Teams[1].Players)
	}
}

func TestHandler_ErrorFramesGoToSender(t *testing.T) {
	srv, _ := newServer(t)
	conn := dial(t, srv)
	read(t, conn)
	read(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	m := read(t, conn)
	assert.Equal(t, wire.EventError, m.Type)
	assert.Equal(t, ErrBadJSON.Error(), m.Error)

	write(t, conn, types.ClientMessage{Type: wire.ClientSubmitWord, Team: "Lato", Player: "ann"})
	m = read(t, conn)
	assert.Equal(t, wire.EventError, m.Type)
	assert.Contains(t, m.Error, "word")

	write(t, conn, types.ClientMessage{Type: wire.ClientSubmitWord, Team: "Lato", Player: "ann", Word: "planet"})
	m = read(t, conn)
	assert.Equal(t, wire.EventError, m.Type)
	assert.Equal(t, engine.ErrGameNotRunning.Error(), m.Error)
}

func TestHandler_InvalidWordBroadcastNotErrored(t *testing.T) {
	srv, lb := newServer(t)
	conn := dial(t, srv)
	read(t, conn)
	read(t, conn)

	reply := make(chan lobby.StartResult, 1)
	require.NoError(t, lb.Send(context.Background(), lobby.Start{Reply: reply}))
	require.True(t, (<-reply).Started)
	readUntil(t, conn, wire.EventGameStarted)

	write(t, conn, types.ClientMessage{Type: wire.ClientSubmitWord, Team: "Lato", Player: "ann", Word: "zebra"})
	m := read(t, conn)
	assert.Equal(t, wire.EventInvalidWord, m.Type)
	assert.Equal(t, "ZEBRA", m.Word)
	assert.Equal(t, string(engine.ReasonNotInDictionary), m.Reason)

	// The next frame is the reply to this one, not an error for the bad word.
	write(t, conn, types.ClientMessage{Type: wire.ClientJoinGame, Name: "ann"})
	m = read(t, conn)
	assert.NotEqual(t, wire.EventError, m.Type)
}

func next(t *testing.T, ch <-chan types.ServerMessage) types.ServerMessage {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.True(t, ok, "outbox closed")
		return m
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for frame")
		return types.ServerMessage{}
	}
}

// A broadcast landing while a client joins is seen either in its initial
// lists or as a later frame, never lost in between.
func TestJoin_OrderedWithBroadcasts(t *testing.T) {
	lb, _ := newGateway(t)

	early := make(chan types.ServerMessage, 8)
	late := make(chan types.ServerMessage, 8)
	lb.Inbox() <- lobby.Join{ClientID: "early", Outbox: early}
	lb.Inbox() <- lobby.FromClient{ClientID: "other", Cmd: engine.Command{Type: engine.CmdJoinGame, Player: "zed"}}
	lb.Inbox() <- lobby.Join{ClientID: "late", Outbox: late}

	m := next(t, early)
	assert.Equal(t, wire.EventSpectators, m.Type)
	assert.Empty(t, *m.Spectators)
	assert.Equal(t, wire.EventTeams, next(t, early).Type)
	m = next(t, early)
	assert.Equal(t, wire.EventSpectators, m.Type)
	assert.Equal(t, []string{"zed"}, *m.Spectators)

	m = next(t, late)
	assert.Equal(t, wire.EventSpectators, m.Type)
	assert.Equal(t, []string{"zed"}, *m.Spectators)
	assert.Equal(t, wire.EventTeams, next(t, late).Type)

	lb.Inbox() <- lobby.FromClient{ClientID: "other", Cmd: engine.Command{Type: engine.CmdJoinTeam, Player: "zed", Team: "Lato"}}
	for _, ch := range []chan types.ServerMessage{early, late} {
		m = next(t, ch)
		assert.Equal(t, wire.EventSpectators, m.Type)
		assert.Empty(t, *m.Spectators)
		m = next(t, ch)
		assert.Equal(t, wire.EventTeams, m.Type)
		assert.Equal(t, []string{"zed"}, m.Teams[0].Players)
	}
}
