package main

import (
	"context"
	"errors"

	"github.com/DoyleJ11/connect-four/internal/config"
	"github.com/DoyleJ11/connect-four/internal/protocol"
	"github.com/DoyleJ11/connect-four/internal/session"
	"github.com/DoyleJ11/connect-four/internal/transport"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitConfig   = 2
	exitListen   = 7
	exitReceive  = 8
	exitAccept   = 9
	exitConnect  = 10
	exitSend     = 11
	exitProtocol = 12
)

func exitCode(err error) int {
	// An interrupted process is not a failure.
	if err == nil || errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return exitOK
	}
	if errors.Is(err, config.ErrInvalidConfig) {
		return exitConfig
	}
	if errors.Is(err, protocol.ErrMalformedMessage) || errors.Is(err, session.ErrDesync) {
		return exitProtocol
	}

	var terr *transport.TransportError
	if errors.As(err, &terr) {
		switch terr.Op {
		case transport.OpListen:
			return exitListen
		case transport.OpAccept:
			return exitAccept
		case transport.OpConnect:
			return exitConnect
		case transport.OpSend:
			return exitSend
		case transport.OpReceive:
			return exitReceive
		}
	}
	return exitFailure
}
