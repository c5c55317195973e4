package session

import (
	"github.com/DoyleJ11/connect-four/internal/engine"
	"github.com/DoyleJ11/connect-four/internal/protocol"
)

type Msg interface{ isSessionMsg() }

// Act asks the session to perform a local action. Reply must be buffered.
type Act struct {
	Action protocol.Message
	Reply  chan error
}

func (Act) isSessionMsg() {}

// Remote carries what the receive pump read off the channel.
type Remote struct {
	Msg protocol.Message
	Err error
}

func (Remote) isSessionMsg() {}

// Join registers Outbox for events. Reply is answered once the client is
// registered, or with ErrSessionClosed if the session stopped first.
type Join struct {
	ClientID string
	Outbox   chan Event // where this client wants to receive events
	Reply    chan error
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type EventType string

const (
	EvtSnapshot EventType = "Snapshot"
	EvtGameOver EventType = "GameOver"
	EvtRestart  EventType = "Restart"
	EvtTurnSwap EventType = "TurnSwap"
)

type Event struct {
	Type EventType
	View View
	// Remote is set when the opponent caused the event.
	Remote bool
	// Winner is Empty for a draw. Only meaningful on EvtGameOver.
	Winner engine.Cell
}

// View is a copy of the session state, safe to hold outside the loop.
type View struct {
	GameID       string
	Version      int
	Color        engine.Cell
	Phase        engine.Phase
	Config       engine.Config
	Cells        [][]engine.Cell
	Rows         []string
	LegalColumns []int
	Terminal     bool
	Winner       engine.Cell
	Draw         bool
}

func (v View) MyTurn() bool { return v.Phase == engine.PhaseAwaitingLocalMove }
