package transport

import (
	"net"

	"go.uber.org/zap"
)

// Pipe returns two in-process channels wired to each other. Writes block
// until the other side reads, so each side needs an active reader.
func Pipe(log *zap.Logger) (*Conn, *Conn) {
	if log == nil {
		log = zap.NewNop()
	}
	a, b := net.Pipe()
	return NewConn(a, log.Named("pipe-a")), NewConn(b, log.Named("pipe-b"))
}
