package types

// Client -> Peer (WebSocket text frames, JSON)
//
// Drop:
//   column: number
//
// Restart: {}
//
// Forfeit: {}

// Peer -> Client
//
// StateSnapshot:
//   version: number
//   state: Snapshot
//
// GameOver:
//   state: Snapshot
//   winner: "red" | "yellow" | "" (draw)
//
// Restart / TurnSwap:
//   state: Snapshot
//   remote: boolean // true when the opponent asked for it
//
// Error:
//   code: "bad_json" | "unknown_type" | "not_your_turn" | "column_full" | "bad_column" | "session_closed" | "internal"
//   error: string

const (
	TypeDrop          = "Drop"
	TypeRestart       = "Restart"
	TypeForfeit       = "Forfeit"
	TypeStateSnapshot = "StateSnapshot"
	TypeGameOver      = "GameOver"
	TypeTurnSwap      = "TurnSwap"
	TypeError         = "Error"
)

// Error codes carried by Error messages and HTTP error bodies.
const (
	CodeBadJSON       = "bad_json"
	CodeUnknownType   = "unknown_type"
	CodeNotYourTurn   = "not_your_turn"
	CodeColumnFull    = "column_full"
	CodeBadColumn     = "bad_column"
	CodeSessionClosed = "session_closed"
	CodeInternal      = "internal"
)
