package engine

import "slices"

type Team struct {
	Name    string   `json:"name"`
	Lives   int      `json:"lives"`
	Players []string `json:"players"`
	Alive   bool     `json:"alive"`
}

func NewTeam(name string, lives int) *Team {
	return &Team{Name: name, Lives: lives, Players: []string{}, Alive: lives > 0}
}

// AddPlayer reports whether the player was added; false if already a member.
func (t *Team) AddPlayer(player string) bool {
	if slices.Contains(t.Players, player) {
		return false
	}
	t.Players = append(t.Players, player)
	return true
}

func (t *Team) RemovePlayer(player string) bool {
	i := slices.Index(t.Players, player)
	if i < 0 {
		return false
	}
	t.Players = slices.Delete(t.Players, i, i+1)
	return true
}

func (t *Team) LoseLife() {
	if t.Lives > 0 {
		t.Lives--
	}
	t.Alive = t.Lives > 0
}

func (t *Team) snapshot() *Team {
	c := *t
	c.Players = slices.Clone(t.Players)
	if c.Players == nil {
		c.Players = []string{}
	}
	return &c
}

// JoinGame places the player in the spectator list, leaving any team.
func (g *Game) JoinGame(player string) []Event {
	var events []Event
	if g.leaveTeams(player, nil) {
		events = append(events, Event{Type: EvtTeams, Teams: g.TeamSnapshots()})
	}
	if !slices.Contains(g.Spectators, player) {
		g.Spectators = append(g.Spectators, player)
	}
	return append(events, Event{Type: EvtSpectators, Spectators: g.SpectatorSnapshot()})
}

// JoinTeam moves the player into the named team, removing them from the
// spectators and every other team.
func (g *Game) JoinTeam(teamName, player string) ([]Event, error) {
	team := g.Team(teamName)
	if team == nil {
		return nil, ErrUnknownTeam
	}

	var events []Event
	if g.removeSpectator(player) {
		events = append(events, Event{Type: EvtSpectators, Spectators: g.SpectatorSnapshot()})
	}
	g.leaveTeams(player, team)
	team.AddPlayer(player)

	return append(events, Event{Type: EvtTeams, Teams: g.TeamSnapshots()}), nil
}

// Leave removes the player from the given affiliation: Spectators or a team name.
func (g *Game) Leave(player, affiliation string) ([]Event, error) {
	if affiliation == Spectators || affiliation == "spectator" {
		g.removeSpectator(player)
		return []Event{{Type: EvtSpectators, Spectators: g.SpectatorSnapshot()}}, nil
	}

	team := g.Team(affiliation)
	if team == nil {
		return nil, ErrUnknownAffiliation
	}
	team.RemovePlayer(player)
	return []Event{{Type: EvtTeams, Teams: g.TeamSnapshots()}}, nil
}

func (g *Game) removeSpectator(player string) bool {
	i := slices.Index(g.Spectators, player)
	if i < 0 {
		return false
	}
	g.Spectators = slices.Delete(g.Spectators, i, i+1)
	return true
}

func (g *Game) leaveTeams(player string, except *Team) bool {
	removed := false
	for _, t := range g.Teams {
		if t == except {
			continue
		}
		if t.RemovePlayer(player) {
			removed = true
		}
	}
	return removed
}
