package session

import (
	"github.com/DoyleJ11/connect-four/internal/engine"
	"github.com/DoyleJ11/connect-four/pkg/types"
)

func (v View) Snapshot() types.Snapshot {
	snap := types.Snapshot{
		GameID:       v.GameID,
		Version:      v.Version,
		Color:        v.Color.String(),
		Phase:        string(v.Phase),
		MyTurn:       v.MyTurn(),
		Rows:         v.Config.Rows,
		Columns:      v.Config.Columns,
		WinRun:       v.Config.WinRun,
		Board:        v.Rows,
		LegalColumns: v.LegalColumns,
		Terminal:     v.Terminal,
		Draw:         v.Draw,
	}
	if v.Winner != engine.Empty {
		snap.Winner = v.Winner.String()
	}
	return snap
}
