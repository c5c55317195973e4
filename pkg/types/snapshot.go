package types

// Snapshot is the JSON view of one peer's session.
//
//	board: one string per row, top row first; 'R' red, 'Y' yellow, '.' empty
//	phase: "awaiting_local_move" | "awaiting_remote_move"
//	winner: "red" | "yellow" | "" (no winner yet, or a draw)
type Snapshot struct {
	GameID       string   `json:"game_id"`
	Version      int      `json:"version"`
	Color        string   `json:"color"`
	Phase        string   `json:"phase"`
	MyTurn       bool     `json:"my_turn"`
	Rows         int      `json:"rows"`
	Columns      int      `json:"columns"`
	WinRun       int      `json:"win_run"`
	Board        []string `json:"board"`
	LegalColumns []int    `json:"legal_columns"`
	Terminal     bool     `json:"terminal"`
	Winner       string   `json:"winner,omitempty"`
	Draw         bool     `json:"draw"`
}
