package types

// Client -> Server frames. Every frame is a JSON object with a "type" field.
//
// join_game:   { name }
// leave_game:  { name, team }          team is a team name or "spectators"
// join_team:   { name, team }
// submit_word: { team, player, word }
const (
	ClientJoinGame   = "join_game"
	ClientLeaveGame  = "leave_game"
	ClientJoinTeam   = "join_team"
	ClientSubmitWord = "submit_word"
)

// Server -> Client frames, broadcast to every connection.
//
// spectators:   { spectators: string[] }
// teams:        { teams: Team[] }
// turn_change:  { next_team: Team, sequence }
// game_started: { teams: Team[] }
// valid_word:   { team: Team, player, word, reason: "valid" }
// invalid_word: { team: Team, player, word, reason }
// timeout:      { team: Team, teams: Team[] }
// game_over:    { team: Team }
//
// error is sent only to the connection whose frame was rejected:
// error:        { error }
const (
	EventSpectators  = "spectators"
	EventTeams       = "teams"
	EventTurnChange  = "turn_change"
	EventGameStarted = "game_started"
	EventValidWord   = "valid_word"
	EventInvalidWord = "invalid_word"
	EventTimeout     = "timeout"
	EventGameOver    = "game_over"
	EventError       = "error"
)
