package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/connect-four/internal/engine"
	"github.com/DoyleJ11/connect-four/internal/protocol"
	"github.com/DoyleJ11/connect-four/internal/transport"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotYourTurn = errors.New("not your turn")
var ErrSessionClosed = errors.New("session closed")
var ErrDesync = errors.New("peers out of sync")
var ErrInvalidColor = errors.New("session color must be red or yellow")

// Session is one peer's side of a game. A single goroutine owns the board;
// local actions and messages from the opponent both go through its inbox.
type Session struct {
	inbox chan Msg
	ch    transport.TurnChannel
	log   *zap.Logger

	board    *engine.Board
	color    engine.Cell
	phase    engine.Phase
	notified bool // game over already announced for this game
	gameID   uuid.UUID
	version  int
	clients  map[string]chan Event

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// New starts the session loop and the receive pump on ch. The session owns
// ch from here on and closes it when it stops.
func New(parent context.Context, ch transport.TurnChannel, color engine.Cell, cfg engine.Config, log *zap.Logger) (*Session, error) {
	if color != engine.Red && color != engine.Yellow {
		return nil, ErrInvalidColor
	}
	board, err := engine.NewBoard(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:   make(chan Msg, 64),
		ch:      ch,
		log:     log.With(zap.Stringer("color", color)),
		board:   board,
		color:   color,
		phase:   engine.InitialPhase(color),
		gameID:  uuid.New(),
		clients: make(map[string]chan Event),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.log.Info("session started", zap.Stringer("game_id", s.gameID), zap.String("phase", string(s.phase)))

	go s.loop()
	go s.receiveLoop()
	return s, nil
}

func (s *Session) loop() {
	defer s.shutdown()
	for {
		select {
		case <-s.ctx.Done():
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Act:
				msg.Reply <- s.applyLocal(msg.Action)

			case Remote:
				if err := s.applyRemote(msg); err != nil {
					s.fail(err)
				}

			case Join:
				if old, ok := s.clients[msg.ClientID]; ok && old != msg.Outbox {
					close(old) // replaced by the new subscription
				}
				s.clients[msg.ClientID] = msg.Outbox
				s.send(msg.ClientID, msg.Outbox, Event{Type: EvtSnapshot, View: s.view()})
				msg.Reply <- nil

			case Leave:
				delete(s.clients, msg.ClientID)

			case GetState:
				msg.Reply <- s.view()

			case Shutdown:
				return
			}
			if s.err != nil {
				return
			}
		}
	}
}

// receiveLoop blocks on the channel and hands every result to the loop. It
// stops after the first error.
func (s *Session) receiveLoop() {
	for {
		m, err := s.ch.Receive()
		select {
		case s.inbox <- Remote{Msg: m, Err: err}:
		case <-s.ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) applyLocal(action protocol.Message) error {
	if s.err != nil {
		return ErrSessionClosed
	}
	if s.phase != engine.PhaseAwaitingLocalMove {
		return ErrNotYourTurn
	}

	switch action.Kind {
	case protocol.KindColumnDrop:
		if _, err := s.board.Drop(action.Column, s.color); err != nil {
			return err
		}
	case protocol.KindRestart, protocol.KindForfeitTurn:
	default:
		return fmt.Errorf("%w: unknown action %q", protocol.ErrMalformedMessage, action.Kind)
	}

	if err := s.ch.Send(action); err != nil {
		s.fail(err)
		return err
	}
	s.phase = engine.PhaseAwaitingRemoteMove
	s.log.Debug("local action", zap.Stringer("action", action), zap.Stringer("game_id", s.gameID))
	s.afterAction(action, false)
	return nil
}

func (s *Session) applyRemote(msg Remote) error {
	if msg.Err != nil {
		return msg.Err
	}
	m := msg.Msg
	if s.phase != engine.PhaseAwaitingRemoteMove {
		s.log.Warn("opponent acted out of turn", zap.Stringer("msg", m), zap.Stringer("game_id", s.gameID))
	}

	if m.Kind == protocol.KindColumnDrop {
		_, err := s.board.Drop(m.Column, engine.Opposite(s.color))
		switch {
		case err == nil:
		case errors.Is(err, engine.ErrColumnFull):
			// Replaying into a full column leaves the board as it is.
			s.log.Warn("opponent dropped into a full column",
				zap.Int("column", m.Column), zap.Stringer("game_id", s.gameID))
		default:
			return fmt.Errorf("%w: %w", ErrDesync, err)
		}
	}

	s.phase = engine.PhaseAwaitingLocalMove
	s.log.Debug("remote action", zap.Stringer("action", m), zap.Stringer("game_id", s.gameID))
	s.afterAction(m, true)
	return nil
}

// afterAction publishes the result of an applied action and fires the game
// over notification once per game.
func (s *Session) afterAction(action protocol.Message, remote bool) {
	var note EventType
	switch action.Kind {
	case protocol.KindRestart:
		s.newGame()
		note = EvtRestart
	case protocol.KindForfeitTurn:
		note = EvtTurnSwap
	}

	s.version++
	view := s.view()
	s.broadcast(Event{Type: EvtSnapshot, View: view, Remote: remote})
	if note != "" {
		s.log.Info("notification", zap.String("type", string(note)), zap.Bool("remote", remote))
		s.broadcast(Event{Type: note, View: view, Remote: remote})
	}

	if view.Terminal && !s.notified {
		s.notified = true
		s.log.Info("game over",
			zap.Stringer("game_id", s.gameID),
			zap.Stringer("winner", view.Winner),
			zap.Bool("draw", view.Draw))
		s.broadcast(Event{Type: EvtGameOver, View: view, Remote: remote, Winner: view.Winner})
	}
}

func (s *Session) newGame() {
	s.board.Reset()
	s.notified = false
	s.gameID = uuid.New()
	s.log.Info("board reset", zap.Stringer("game_id", s.gameID))
}

func (s *Session) view() View {
	return View{
		GameID:       s.gameID.String(),
		Version:      s.version,
		Color:        s.color,
		Phase:        s.phase,
		Config:       s.board.Config(),
		Cells:        s.board.Cells(),
		Rows:         s.board.Rows(),
		LegalColumns: s.board.LegalColumns(),
		Terminal:     s.board.IsTerminal(),
		Winner:       s.board.Winner(),
		Draw:         s.board.IsDraw(),
	}
}

func (s *Session) fail(err error) {
	if s.err == nil {
		s.err = err
		s.log.Error("session failed", zap.Error(err))
	}
}

func (s *Session) broadcast(ev Event) {
	for id, ch := range s.clients {
		s.send(id, ch, ev)
	}
}

func (s *Session) send(id string, ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
		// Client is slow/full - drop them.
		s.log.Warn("dropping slow subscriber", zap.String("client_id", id))
		close(ch)
		delete(s.clients, id)
	}
}

func (s *Session) shutdown() {
	s.drainInbox()
	for id, ch := range s.clients {
		close(ch) // no more events
		delete(s.clients, id)
	}
	s.cancel()
	s.ch.Close()
	s.log.Info("session stopped", zap.Error(s.err))
	close(s.done)
}

// drainInbox answers requests still queued behind the message that stopped
// the loop. Requests posted after this see done closed instead.
func (s *Session) drainInbox() {
	for {
		select {
		case m := <-s.inbox:
			switch msg := m.(type) {
			case Act:
				msg.Reply <- ErrSessionClosed
			case Join:
				msg.Reply <- ErrSessionClosed
			}
		default:
			return
		}
	}
}

func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the error that ended the session, or nil while it runs or if it
// was shut down on request.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
