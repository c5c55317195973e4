package transport

import "fmt"

type Op string

const (
	OpListen  Op = "listen"
	OpAccept  Op = "accept"
	OpConnect Op = "connect"
	OpSend    Op = "send"
	OpReceive Op = "receive"
)

// TransportError reports a connection setup or stream I/O failure. There is
// no recovery from one: the session that sees it is over.
type TransportError struct {
	Op   Op
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
