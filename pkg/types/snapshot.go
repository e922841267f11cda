package types

type Team struct {
	Name    string   `json:"name"`
	Lives   int      `json:"lives"`
	Players []string `json:"players"`
	Alive   bool     `json:"alive"`
}

// StateSnapshot is the body of GET /get_state.
// timer_length and pause_time are in seconds; current_turn is -1 before the first turn.
type StateSnapshot struct {
	Teams           []Team   `json:"teams"`
	Spectators      []string `json:"spectators"`
	SequenceLength  [2]int   `json:"sequence_length"`
	TimerLength     float64  `json:"timer_length"`
	PauseTime       float64  `json:"pause_time"`
	CurrentTurn     int      `json:"current_turn"`
	CurrentSequence string   `json:"current_sequence"`
	Running         bool     `json:"running"`
	Round           int      `json:"round"`
	WordsUsed       int      `json:"words_used"`
}

// StartResponse is the body of POST /start.
type StartResponse struct {
	Message string `json:"message"`
	Running bool   `json:"running"`
}
