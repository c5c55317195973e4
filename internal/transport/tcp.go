package transport

import (
	"context"
	"net"

	"go.uber.org/zap"
)

// Listener is the host side: it accepts a single opponent.
type Listener struct {
	ln  net.Listener
	log *zap.Logger
}

func Listen(ctx context.Context, addr string, log *zap.Logger) (*Listener, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, &TransportError{Op: OpListen, Addr: addr, Err: err}
	}
	log.Info("waiting for opponent to connect", zap.String("addr", ln.Addr().String()))
	return &Listener{ln: ln, log: log}, nil
}

func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Accept waits for one inbound connection and closes the listener. Cancelling
// ctx aborts the wait.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	stop := context.AfterFunc(ctx, func() { l.ln.Close() })
	defer stop()
	defer l.ln.Close()

	conn, err := l.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &TransportError{Op: OpAccept, Addr: l.ln.Addr().String(), Err: err}
	}
	l.log.Info("opponent connected", zap.String("remote", conn.RemoteAddr().String()))
	return NewConn(conn, l.log), nil
}

func (l *Listener) Close() error { return l.ln.Close() }

// Host listens on addr and returns once an opponent has connected.
func Host(ctx context.Context, addr string, log *zap.Logger) (*Conn, error) {
	l, err := Listen(ctx, addr, log)
	if err != nil {
		return nil, err
	}
	return l.Accept(ctx)
}

// Dial is the guest side.
func Dial(ctx context.Context, addr string, log *zap.Logger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &TransportError{Op: OpConnect, Addr: addr, Err: err}
	}
	log.Info("connected to host", zap.String("remote", conn.RemoteAddr().String()))
	return NewConn(conn, log), nil
}
