package engine

import "maps"

// Snapshot is a deep copy of a game, safe to read from any goroutine.
type Snapshot struct {
	Teams      []Team
	Spectators []string
	Rules      Rules
	State
}

func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Teams:      g.TeamSnapshots(),
		Spectators: g.SpectatorSnapshot(),
		Rules:      g.Rules,
		State:      g.State,
	}
	s.UsedWords = maps.Clone(g.UsedWords)
	if s.Spectators == nil {
		s.Spectators = []string{}
	}
	return s
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func FindEvent(events []Event, eventType EventType) (Event, bool) {
	for _, event := range events {
		if event.Type == eventType {
			return event, true
		}
	}
	return Event{}, false
}
