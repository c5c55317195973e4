// Package transport connects exactly two peers with a message-framed,
// full-duplex byte stream.
package transport

import (
	"errors"
	"net"
	"sync"

	"github.com/DoyleJ11/connect-four/internal/protocol"
	"go.uber.org/zap"
)

// TurnChannel carries protocol messages between the two peers. Receive
// blocks until a whole message arrives; Send and Receive may run at the same
// time from different goroutines.
type TurnChannel interface {
	Send(m protocol.Message) error
	Receive() (protocol.Message, error)
	Close() error
}

// Conn is a TurnChannel over a net.Conn.
type Conn struct {
	conn   net.Conn
	reader *protocol.Reader
	log    *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewConn(conn net.Conn, log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}
	return &Conn{
		conn:   conn,
		reader: protocol.NewReader(conn),
		log:    log.With(zap.String("remote", remoteAddr(conn))),
	}
}

func (c *Conn) Send(m protocol.Message) error {
	frame, err := protocol.Encode(m)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	_, err = c.conn.Write(frame)
	c.writeMu.Unlock()
	if err != nil {
		return &TransportError{Op: OpSend, Addr: remoteAddr(c.conn), Err: err}
	}
	c.log.Debug("sent message", zap.Stringer("msg", m))
	return nil
}

func (c *Conn) Receive() (protocol.Message, error) {
	m, err := c.reader.Read()
	if err != nil {
		if errors.Is(err, protocol.ErrMalformedMessage) {
			return protocol.Message{}, err
		}
		return protocol.Message{}, &TransportError{Op: OpReceive, Addr: remoteAddr(c.conn), Err: err}
	}
	c.log.Debug("received message", zap.Stringer("msg", m))
	return m, nil
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
		c.log.Info("connection closed")
	})
	return c.closeErr
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
