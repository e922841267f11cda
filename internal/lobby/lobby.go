package lobby

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbomb-backend/internal/engine"
	"github.com/DoyleJ11/wordbomb-backend/internal/store"
	"github.com/DoyleJ11/wordbomb-backend/internal/types"
)

var ErrLobbyClosed = errors.New("lobby closed")
var ErrNoSubscriber = errors.New("publisher does not accept subscribers")

// Publisher receives every batch of events the game emits, in order.
type Publisher interface {
	Publish(events []engine.Event)
}

// Subscriber attaches a client to the same stream Publish feeds.
type Subscriber interface {
	Subscribe(clientID string, outbox chan types.ServerMessage, initial []engine.Event)
}

type Recorder interface {
	RecordGame(ctx context.Context, rec store.GameRecord) error
}

type Msg interface{ isLobbyMsg() }

// FromClient applies a player command. Reply, if set, receives the
// command's error (nil on success) and must have room for one value.
type FromClient struct {
	ClientID string
	Cmd      engine.Command
	Reply    chan error
}

func (FromClient) isLobbyMsg() {}

// Join registers a client's outbox and seeds it with the current spectator
// and team lists in one step, so no broadcast can fall between the two.
type Join struct {
	ClientID string
	Outbox   chan types.ServerMessage
	Reply    chan error
}

func (Join) isLobbyMsg() {}

type Start struct {
	Reply chan StartResult
}

func (Start) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// TimerFired is sent by the countdown armed for Round.
type TimerFired struct {
	Round int
	from  *Countdown // nil when sent from outside the lobby
}

func (TimerFired) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type View struct {
	Version int
	Armed   bool
	State   engine.Snapshot
}

type StartResult struct {
	Started bool
	View    View
}

// Lobby owns the game. Every mutation happens on its loop goroutine, which
// is what makes a valid submission and a timer expiry for the same round
// mutually exclusive.
type Lobby struct {
	inbox     chan Msg
	game      *engine.Game
	version   int
	pub       Publisher
	rec       Recorder
	log       *zap.Logger
	timer     *Countdown
	startedAt time.Time
	now       func() time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

type Option func(*Lobby)

func WithRecorder(r Recorder) Option { return func(l *Lobby) { l.rec = r } }

func WithLogger(log *zap.Logger) Option { return func(l *Lobby) { l.log = log } }

func NewLobby(parent context.Context, game *engine.Game, pub Publisher, opts ...Option) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		inbox:  make(chan Msg, 64), // Small buffer
		game:   game,
		pub:    pub,
		log:    zap.NewNop(),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	go l.loop()
	return l
}

// Expose the inbox so the gateway and tests can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the loop has stopped.
func (l *Lobby) Done() <-chan struct{} { return l.done }

// Send delivers m unless the lobby has shut down.
func (l *Lobby) Send(ctx context.Context, m Msg) error {
	select {
	case <-l.done:
		return ErrLobbyClosed
	default:
	}

	select {
	case l.inbox <- m:
		return nil
	case <-l.done:
		return ErrLobbyClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case FromClient:
				events, err := l.game.Apply(msg.Cmd)
				if err != nil {
					l.log.Info("command rejected",
						zap.String("client", msg.ClientID),
						zap.String("command", string(msg.Cmd.Type)),
						zap.String("team", msg.Cmd.Team),
						zap.String("player", msg.Cmd.Player),
						zap.Error(err))
				}
				l.commit(events)
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case Join:
				err := l.join(msg.ClientID, msg.Outbox)
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case Start:
				events, err := l.game.Start()
				if err != nil {
					l.log.Info("start ignored", zap.Error(err))
				}
				l.commit(events)
				msg.Reply <- StartResult{Started: err == nil, View: l.view()}

			case TimerFired:
				if l.timer == nil || msg.Round != l.timer.Round || msg.Round != l.game.Round ||
					(msg.from != nil && msg.from != l.timer) {
					l.log.Debug("dropping stale timer", zap.Int("round", msg.Round), zap.Int("current", l.game.Round))
					break
				}
				l.timer = nil
				events, err := l.game.Apply(engine.Command{Type: engine.CmdTimeoutAdvance})
				if err != nil {
					l.log.Warn("timeout on stopped game", zap.Error(err))
				}
				l.commit(events)

			case GetState:
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// commit publishes events, bumps the version and brings the timer in line
// with the game's current round.
func (l *Lobby) commit(events []engine.Event) {
	if len(events) == 0 {
		return
	}
	l.version++

	for _, ev := range events {
		switch ev.Type {
		case engine.EvtGameStarted:
			l.startedAt = l.now()
			l.log.Info("game started", zap.Int("teams", len(ev.Teams)))
		case engine.EvtTurnChanged:
			l.log.Debug("turn changed",
				zap.String("team", ev.Team.Name),
				zap.String("sequence", ev.Sequence),
				zap.Int("round", l.game.Round))
		case engine.EvtTimeout:
			l.log.Info("turn timed out", zap.String("team", ev.Team.Name), zap.Int("lives", ev.Team.Lives))
		case engine.EvtGameOver:
			l.log.Info("game over", zap.String("winner", ev.Team.Name))
			l.archive(ev.Team.Name)
		}
	}

	l.syncTimer()
	l.pub.Publish(events)
}

func (l *Lobby) join(clientID string, outbox chan types.ServerMessage) error {
	sub, ok := l.pub.(Subscriber)
	if !ok {
		return ErrNoSubscriber
	}
	sub.Subscribe(clientID, outbox, []engine.Event{
		{Type: engine.EvtSpectators, Spectators: l.game.SpectatorSnapshot()},
		{Type: engine.EvtTeams, Teams: l.game.TeamSnapshots()},
	})
	l.log.Debug("client joined", zap.String("client", clientID))
	return nil
}

func (l *Lobby) syncTimer() {
	if !l.game.Running {
		l.stopTimer()
		return
	}
	if l.timer != nil && l.timer.Round == l.game.Round {
		return
	}
	l.stopTimer()

	c := NewCountdown(l.game.Round, l.game.Rules.TimerLength, l.game.Rules.TickInterval)
	l.timer = c
	go c.Run(l.ctx, func() {
		select {
		case l.inbox <- TimerFired{Round: c.Round, from: c}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) stopTimer() {
	if l.timer != nil {
		l.timer.Cancel()
		l.timer = nil
	}
}

func (l *Lobby) archive(winner string) {
	if l.rec == nil {
		return
	}

	rec := store.GameRecord{
		Winner:     winner,
		WordsUsed:  len(l.game.UsedWords),
		Rounds:     l.game.Round,
		StartedAt:  l.startedAt,
		FinishedAt: l.now(),
	}
	for _, t := range l.game.TeamSnapshots() {
		rec.Teams = append(rec.Teams, store.TeamResult{Name: t.Name, Lives: t.Lives, Players: t.Players})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.rec.RecordGame(ctx, rec); err != nil {
			l.log.Error("archive game", zap.Error(err))
		}
	}()
}

func (l *Lobby) view() View {
	return View{
		Version: l.version,
		Armed:   l.timer != nil,
		State:   l.game.Snapshot(),
	}
}

func (l *Lobby) shutdown() {
	l.stopTimer()
	l.cancel()
}
