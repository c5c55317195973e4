// Package protocol implements the turn messages exchanged between two peers.
//
// A message is a decimal integer in ASCII followed by a single 0x00 byte.
// Non-negative values drop a chip in that column, -1 restarts the game and
// -2 hands the turn to the other peer without moving.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var ErrMalformedMessage = errors.New("malformed message")

const (
	codeRestart = -1
	codeForfeit = -2

	terminator = 0x00

	// MaxPayload bounds the digits read before a terminator must appear.
	MaxPayload = 20
)

type Kind string

const (
	KindColumnDrop  Kind = "column_drop"
	KindRestart     Kind = "restart"
	KindForfeitTurn Kind = "forfeit_turn"
)

type Message struct {
	Kind   Kind
	Column int
}

func ColumnDrop(column int) Message { return Message{Kind: KindColumnDrop, Column: column} }
func Restart() Message              { return Message{Kind: KindRestart} }
func ForfeitTurn() Message          { return Message{Kind: KindForfeitTurn} }

func (m Message) String() string {
	if m.Kind == KindColumnDrop {
		return fmt.Sprintf("%s(%d)", m.Kind, m.Column)
	}
	return string(m.Kind)
}

// Code returns the integer carried on the wire for m.
func (m Message) Code() (int, error) {
	switch m.Kind {
	case KindColumnDrop:
		if m.Column < 0 {
			return 0, fmt.Errorf("%w: negative column %d", ErrMalformedMessage, m.Column)
		}
		return m.Column, nil
	case KindRestart:
		return codeRestart, nil
	case KindForfeitTurn:
		return codeForfeit, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrMalformedMessage, m.Kind)
	}
}

func FromCode(code int) (Message, error) {
	switch {
	case code >= 0:
		return ColumnDrop(code), nil
	case code == codeRestart:
		return Restart(), nil
	case code == codeForfeit:
		return ForfeitTurn(), nil
	default:
		return Message{}, fmt.Errorf("%w: unknown control value %d", ErrMalformedMessage, code)
	}
}

// Encode returns the framed bytes for m, terminator included.
func Encode(m Message) ([]byte, error) {
	code, err := m.Code()
	if err != nil {
		return nil, err
	}
	buf := strconv.AppendInt(nil, int64(code), 10)
	return append(buf, terminator), nil
}

// Decode parses one frame. The trailing terminator is optional.
func Decode(frame []byte) (Message, error) {
	if n := len(frame); n > 0 && frame[n-1] == terminator {
		frame = frame[:n-1]
	}
	if len(frame) == 0 {
		return Message{}, fmt.Errorf("%w: empty payload", ErrMalformedMessage)
	}
	code, err := strconv.Atoi(string(frame))
	if err != nil {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformedMessage, frame)
	}
	return FromCode(code)
}

// Write writes m to w with a single Write call.
func Write(w io.Writer, m Message) error {
	frame, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// Reader reads frames off a byte stream.
type Reader struct {
	br *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Read blocks until a whole frame has arrived. A stream that ends inside a
// frame yields io.ErrUnexpectedEOF; one that ends between frames yields io.EOF.
func (r *Reader) Read() (Message, error) {
	payload := make([]byte, 0, 4)
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(payload) > 0 {
				return Message{}, io.ErrUnexpectedEOF
			}
			return Message{}, err
		}
		if b == terminator {
			return Decode(payload)
		}
		if len(payload) == MaxPayload {
			return Message{}, fmt.Errorf("%w: no terminator within %d bytes", ErrMalformedMessage, MaxPayload)
		}
		payload = append(payload, b)
	}
}
