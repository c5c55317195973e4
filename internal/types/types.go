package types

import "github.com/DoyleJ11/connect-four/pkg/types"

type ClientMessage struct {
	Type   string `json:"type"`
	Column *int   `json:"column,omitempty"`
}

type ServerMessage struct {
	Type    string          `json:"type"` // "StateSnapshot" | "GameOver" | "Restart" | "TurnSwap" | "Error"
	Version int             `json:"version,omitempty"`
	State   *types.Snapshot `json:"state,omitempty"`
	Winner  string          `json:"winner,omitempty"`
	Remote  bool            `json:"remote,omitempty"`
	Code    string          `json:"code,omitempty"`
	Error   string          `json:"error,omitempty"`
}
