package session

import (
	"errors"

	"github.com/DoyleJ11/connect-four/internal/engine"
	"github.com/DoyleJ11/connect-four/pkg/types"
)

// ErrorCode maps an error from a local action to the code clients see.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotYourTurn):
		return types.CodeNotYourTurn
	case errors.Is(err, engine.ErrColumnFull):
		return types.CodeColumnFull
	case errors.Is(err, engine.ErrColumnOutOfRange):
		return types.CodeBadColumn
	case errors.Is(err, ErrSessionClosed):
		return types.CodeSessionClosed
	default:
		return types.CodeInternal
	}
}
