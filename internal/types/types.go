package types

import (
	"github.com/DoyleJ11/wordbomb-backend/internal/engine"
	wire "github.com/DoyleJ11/wordbomb-backend/pkg/types"
)

type ClientMessage struct {
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
	Team   string `json:"team,omitempty"`
	Player string `json:"player,omitempty"`
	Word   string `json:"word,omitempty"`
}

type ServerMessage struct {
	Type       string      `json:"type"`
	Spectators *[]string   `json:"spectators,omitempty"`
	Teams      []wire.Team `json:"teams,omitempty"`
	Team       *wire.Team  `json:"team,omitempty"`
	NextTeam   *wire.Team  `json:"next_team,omitempty"`
	Sequence   string      `json:"sequence,omitempty"`
	Player     string      `json:"player,omitempty"`
	Word       string      `json:"word,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func ErrorMessage(err error) ServerMessage {
	return ServerMessage{Type: wire.EventError, Error: err.Error()}
}

// FromEvent renders an engine event as the frame clients receive.
func FromEvent(ev engine.Event) ServerMessage {
	m := ServerMessage{
		Type:   string(ev.Type),
		Player: ev.Player,
		Word:   ev.Word,
		Reason: string(ev.Reason),
	}

	switch ev.Type {
	case engine.EvtSpectators:
		s := ev.Spectators
		if s == nil {
			s = []string{}
		}
		m.Spectators = &s
	case engine.EvtTurnChanged:
		m.NextTeam = TeamOf(ev.Team)
		m.Sequence = ev.Sequence
	default:
		m.Team = TeamOf(ev.Team)
	}

	if ev.Teams != nil {
		m.Teams = TeamsOf(ev.Teams)
	}
	return m
}

func TeamOf(t *engine.Team) *wire.Team {
	if t == nil {
		return nil
	}
	w := wire.Team{Name: t.Name, Lives: t.Lives, Players: t.Players, Alive: t.Alive}
	if w.Players == nil {
		w.Players = []string{}
	}
	return &w
}

func TeamsOf(teams []engine.Team) []wire.Team {
	out := make([]wire.Team, len(teams))
	for i := range teams {
		out[i] = *TeamOf(&teams[i])
	}
	return out
}

// Snapshot renders the GET /get_state body.
func Snapshot(s engine.Snapshot) wire.StateSnapshot {
	spectators := s.Spectators
	if spectators == nil {
		spectators = []string{}
	}
	return wire.StateSnapshot{
		Teams:           TeamsOf(s.Teams),
		Spectators:      spectators,
		SequenceLength:  [2]int{s.Rules.SequenceMin, s.Rules.SequenceMax},
		TimerLength:     s.Rules.TimerLength.Seconds(),
		PauseTime:       s.Rules.TickInterval.Seconds(),
		CurrentTurn:     s.Turn,
		CurrentSequence: s.Sequence,
		Running:         s.Running,
		Round:           s.Round,
		WordsUsed:       len(s.UsedWords),
	}
}
