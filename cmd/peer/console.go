package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/DoyleJ11/connect-four/internal/engine"
	"github.com/DoyleJ11/connect-four/internal/session"
)

// errQuit ends the process without an error status.
var errQuit = errors.New("quit")

// console drives a session from a terminal: one command per line, the board
// printed after every change.
type console struct {
	sess *session.Session
	in   io.Reader
	out  io.Writer
}

func newConsole(sess *session.Session, in io.Reader, out io.Writer) *console {
	return &console{sess: sess, in: in, out: out}
}

func (c *console) run(ctx context.Context) error {
	events := make(chan session.Event, 64)
	if err := c.sess.Subscribe(ctx, "console", events); err != nil {
		if errors.Is(err, session.ErrSessionClosed) {
			return nil
		}
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		input := bufio.NewScanner(c.in)
		for input.Scan() {
			select {
			case lines <- input.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				// The session ended; whoever watches it reports why.
				return nil
			}
			c.show(ev)

		case line, ok := <-lines:
			if !ok {
				return errQuit
			}
			if err := c.command(ctx, line); err != nil {
				return err
			}
		}
	}
}

// command runs one line of input. Only quitting or a failure of the session
// itself is returned; bad input is reported and the loop goes on.
func (c *console) command(ctx context.Context, line string) error {
	line = strings.ToLower(strings.TrimSpace(line))
	var err error
	switch line {
	case "":
		return nil
	case "q":
		return errQuit
	case "r":
		err = c.sess.Restart(ctx)
	case "f":
		err = c.sess.Forfeit(ctx)
	default:
		col, convErr := strconv.Atoi(line)
		if convErr != nil {
			fmt.Fprintln(c.out, "Unknown command. Enter a column number, r, f or q.")
			return nil
		}
		err = c.sess.Drop(ctx, col)
	}

	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotYourTurn):
		fmt.Fprintln(c.out, "Not your turn. Waiting for opponent...")
	case errors.Is(err, engine.ErrColumnFull):
		fmt.Fprintln(c.out, "Column is full. Try again.")
	case errors.Is(err, engine.ErrColumnOutOfRange):
		fmt.Fprintln(c.out, "Bad column. Try again.")
	case errors.Is(err, session.ErrSessionClosed):
		return nil
	default:
		return err
	}
	return nil
}

func (c *console) show(ev session.Event) {
	v := ev.View
	switch ev.Type {
	case session.EvtSnapshot:
		fmt.Fprintln(c.out)
		for _, row := range v.Rows {
			fmt.Fprintln(c.out, row)
		}
		for col := 0; col < v.Config.Columns; col++ {
			fmt.Fprint(c.out, col%10)
		}
		fmt.Fprintln(c.out)
		if v.MyTurn() {
			fmt.Fprintf(c.out, "Your move (%s): column, r to restart, f to pass, q to quit\n", v.Color)
		} else {
			fmt.Fprintln(c.out, "Waiting for opponent...")
		}
	case session.EvtGameOver:
		if ev.Winner == engine.Empty {
			fmt.Fprintln(c.out, "Game over: draw.")
		} else {
			fmt.Fprintf(c.out, "Game over: %s wins.\n", ev.Winner)
		}
	case session.EvtRestart:
		if ev.Remote {
			fmt.Fprintln(c.out, "Opponent restarted the game.")
		} else {
			fmt.Fprintln(c.out, "Game restarted.")
		}
	case session.EvtTurnSwap:
		if ev.Remote {
			fmt.Fprintln(c.out, "Opponent passed the turn.")
		} else {
			fmt.Fprintln(c.out, "You passed the turn.")
		}
	}
}
