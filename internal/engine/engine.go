package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/DoyleJ11/wordbomb-backend/internal/dictionary"
	wire "github.com/DoyleJ11/wordbomb-backend/pkg/types"
)

var ErrGameAlreadyRunning = errors.New("game already running")
var ErrGameNotRunning = errors.New("game not running")
var ErrNotCurrentTurn = errors.New("not the current team's turn")
var ErrUnknownTeam = errors.New("unknown team")
var ErrInvalidWord = errors.New("invalid word")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrUnknownAffiliation = errors.New("unknown affiliation")

// NoTurn is the turn index before the first advance of a game.
const NoTurn = -1

// Spectators is the affiliation name used by leave commands for the spectator list.
const Spectators = "spectators"

type Reason string

const (
	ReasonValid             Reason = "valid"
	ReasonNotInDictionary   Reason = "not_in_dictionary"
	ReasonSequenceNotInWord Reason = "sequence_not_in_word"
	ReasonWordAlreadyUsed   Reason = "word_already_used"
)

type InvalidWordError struct {
	Word   string
	Reason Reason
}

func (e *InvalidWordError) Error() string {
	return fmt.Sprintf("invalid word %q: %s", e.Word, e.Reason)
}

func (e *InvalidWordError) Is(target error) bool { return target == ErrInvalidWord }

// Lexicon answers dictionary membership. Implementations must be safe for
// concurrent reads.
type Lexicon interface {
	Contains(word string) bool
}

type SequencePool interface {
	RandomSequence() string
}

type Rules struct {
	StartingLives  int
	TimerLength    time.Duration
	TickInterval   time.Duration
	SequenceMin    int
	SequenceMax    int
	SkipEliminated bool
}

// State is the turn state of one game.
type State struct {
	Turn      int
	Sequence  string
	Failures  int
	UsedWords map[string]bool
	Running   bool
	// Round counts advances since the last reset; each round owns one timer arming.
	Round int
}

// Game is the authoritative session: teams, spectators, turn state and rules.
// It is not safe for concurrent use; the lobby serializes every call.
type Game struct {
	Teams      []*Team
	Spectators []string
	Rules      Rules
	State

	lexicon Lexicon
	pool    SequencePool
}

type CommandType string

const (
	CmdJoinGame       CommandType = "JoinGame"
	CmdLeaveGame      CommandType = "LeaveGame"
	CmdJoinTeam       CommandType = "JoinTeam"
	CmdSubmitWord     CommandType = "SubmitWord"
	CmdStartGame      CommandType = "StartGame"
	CmdTimeoutAdvance CommandType = "TimeoutAdvance"
)

/*
	CmdJoinGame       -> EvtSpectators (+ EvtTeams if the player left a team)
	CmdLeaveGame      -> EvtSpectators | EvtTeams
	CmdJoinTeam       -> (EvtSpectators) -> EvtTeams
	CmdSubmitWord     -> EvtInvalidWord
	                  |  EvtValidWord -> EvtTurnChanged
	CmdStartGame      -> EvtTurnChanged -> EvtGameStarted
	CmdTimeoutAdvance -> EvtTimeout -> EvtGameOver | EvtTurnChanged
*/

type Command struct {
	Type        CommandType
	Player      string
	Team        string
	Word        string
	Affiliation string
}

type EventType string

const (
	EvtSpectators  EventType = wire.EventSpectators
	EvtTeams       EventType = wire.EventTeams
	EvtTurnChanged EventType = wire.EventTurnChange
	EvtGameStarted EventType = wire.EventGameStarted
	EvtValidWord   EventType = wire.EventValidWord
	EvtInvalidWord EventType = wire.EventInvalidWord
	EvtTimeout     EventType = wire.EventTimeout
	EvtGameOver    EventType = wire.EventGameOver
)

// Event is an outbound notification. Team and Teams are copies, safe to hand
// to other goroutines.
type Event struct {
	Type       EventType
	Team       *Team
	Teams      []Team
	Spectators []string
	Player     string
	Word       string
	Reason     Reason
	Sequence   string
}

func NewGame(teamNames []string, rules Rules, lexicon Lexicon, pool SequencePool) *Game {
	g := &Game{
		Rules:   rules,
		lexicon: lexicon,
		pool:    pool,
	}
	for _, name := range teamNames {
		g.Teams = append(g.Teams, NewTeam(name, rules.StartingLives))
	}
	g.Reset()
	return g
}

func (g *Game) Apply(cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdJoinGame:
		return g.JoinGame(cmd.Player), nil
	case CmdLeaveGame:
		return g.Leave(cmd.Player, cmd.Affiliation)
	case CmdJoinTeam:
		return g.JoinTeam(cmd.Team, cmd.Player)
	case CmdSubmitWord:
		events, err := g.SubmitWord(cmd.Team, cmd.Player, cmd.Word)
		if err != nil {
			return events, err
		}
		// A valid word closes the round.
		return append(events, g.Advance()...), nil
	case CmdStartGame:
		return g.Start()
	case CmdTimeoutAdvance:
		return g.Timeout()
	default:
		return nil, ErrUnsupportedCommand
	}
}

// Reset re-arms the game for a fresh start. Rosters are kept.
func (g *Game) Reset() {
	for _, t := range g.Teams {
		t.Lives = g.Rules.StartingLives
		t.Alive = t.Lives > 0
	}
	g.State = State{
		Turn:      NoTurn,
		UsedWords: map[string]bool{},
	}
}

func (g *Game) Start() ([]Event, error) {
	if g.Running {
		return nil, ErrGameAlreadyRunning
	}
	g.Reset()
	return g.Advance(), nil
}

// Advance is the only place the turn index and sequence change.
func (g *Game) Advance() []Event {
	g.Turn = g.nextTurn()
	if !(0 < g.Failures && g.Failures < len(g.Teams)) {
		g.Sequence = dictionary.Normalize(g.pool.RandomSequence())
	}
	g.Round++

	events := []Event{{
		Type:     EvtTurnChanged,
		Team:     g.Teams[g.Turn].snapshot(),
		Sequence: g.Sequence,
	}}

	if !g.Running {
		g.Running = true
		events = append(events, Event{Type: EvtGameStarted, Teams: g.TeamSnapshots()})
	}
	return events
}

func (g *Game) SubmitWord(teamName, player, word string) ([]Event, error) {
	if !g.Running {
		return nil, ErrGameNotRunning
	}
	team := g.Team(teamName)
	if team == nil {
		return nil, ErrUnknownTeam
	}
	if g.CurrentTeam() != team {
		return nil, ErrNotCurrentTurn
	}

	w := dictionary.Normalize(word)
	if reason := g.check(w); reason != ReasonValid {
		return []Event{{
			Type:   EvtInvalidWord,
			Team:   team.snapshot(),
			Player: player,
			Word:   w,
			Reason: reason,
		}}, &InvalidWordError{Word: w, Reason: reason}
	}

	g.UsedWords[w] = true
	g.Failures = 0
	return []Event{{
		Type:   EvtValidWord,
		Team:   team.snapshot(),
		Player: player,
		Word:   w,
		Reason: ReasonValid,
	}}, nil
}

func (g *Game) check(word string) Reason {
	switch {
	case !g.lexicon.Contains(word):
		return ReasonNotInDictionary
	case !strings.Contains(word, g.Sequence):
		return ReasonSequenceNotInWord
	case g.UsedWords[word]:
		return ReasonWordAlreadyUsed
	default:
		return ReasonValid
	}
}

// Timeout penalizes the team whose turn expired and either ends the game or
// advances to the next turn.
func (g *Game) Timeout() ([]Event, error) {
	if !g.Running {
		return nil, ErrGameNotRunning
	}

	team := g.CurrentTeam()
	team.LoseLife()
	g.Failures++

	events := []Event{{
		Type:  EvtTimeout,
		Team:  team.snapshot(),
		Teams: g.TeamSnapshots(),
	}}

	if last, ok := g.OneTeamRemaining(); ok {
		g.Running = false
		return append(events, Event{Type: EvtGameOver, Team: last.snapshot()}), nil
	}
	return append(events, g.Advance()...), nil
}

// OneTeamRemaining returns the only alive team. ok is false when zero or
// several teams are alive.
func (g *Game) OneTeamRemaining() (*Team, bool) {
	var alive *Team
	for _, t := range g.Teams {
		if !t.Alive {
			continue
		}
		if alive != nil {
			return nil, false
		}
		alive = t
	}
	return alive, alive != nil
}

func (g *Game) Team(name string) *Team {
	for _, t := range g.Teams {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// CurrentTeam returns nil when no turn is in progress.
func (g *Game) CurrentTeam() *Team {
	if g.Turn < 0 || g.Turn >= len(g.Teams) {
		return nil
	}
	return g.Teams[g.Turn]
}

func (g *Game) TeamSnapshots() []Team {
	out := make([]Team, len(g.Teams))
	for i, t := range g.Teams {
		out[i] = *t.snapshot()
	}
	return out
}

func (g *Game) SpectatorSnapshot() []string {
	return slices.Clone(g.Spectators)
}
