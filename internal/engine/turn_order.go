package engine

// nextTurn returns the index of the team that plays after the current one.
// Rotation is plain wrap-around; eliminated teams keep their slot unless
// SkipEliminated is set.
func (g *Game) nextTurn() int {
	n := len(g.Teams)
	next := (g.Turn + 1) % n
	if g.Turn == NoTurn {
		next = 0
	}
	if !g.Rules.SkipEliminated {
		return next
	}

	for range n {
		if g.Teams[next].Alive {
			return next
		}
		next = (next + 1) % n
	}
	return next
}
