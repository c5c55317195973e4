package engine

type Phase string

const (
	PhaseAwaitingLocalMove  Phase = "awaiting_local_move"
	PhaseAwaitingRemoteMove Phase = "awaiting_remote_move"
)

// The hosting peer plays red and moves first.
const FirstMover = Red

// InitialPhase returns the phase a peer playing color starts in.
func InitialPhase(color Cell) Phase {
	if color == FirstMover {
		return PhaseAwaitingLocalMove
	}
	return PhaseAwaitingRemoteMove
}

func Opposite(color Cell) Cell {
	switch color {
	case Red:
		return Yellow
	case Yellow:
		return Red
	default:
		return Empty
	}
}
