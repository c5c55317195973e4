package session

import (
	"context"

	"github.com/DoyleJ11/connect-four/internal/protocol"
)

func (s *Session) Drop(ctx context.Context, column int) error {
	return s.act(ctx, protocol.ColumnDrop(column))
}

func (s *Session) Restart(ctx context.Context) error {
	return s.act(ctx, protocol.Restart())
}

func (s *Session) Forfeit(ctx context.Context) error {
	return s.act(ctx, protocol.ForfeitTurn())
}

func (s *Session) act(ctx context.Context, action protocol.Message) error {
	reply := make(chan error, 1)
	if err := s.post(ctx, Act{Action: action, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		// The loop answers before it exits, so a reply may still be waiting.
		select {
		case err := <-reply:
			return err
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.post(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		select {
		case v := <-reply:
			return v, nil
		default:
			return View{}, ErrSessionClosed
		}
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Subscribe registers outbox for events. The current snapshot is delivered
// first. Once Subscribe returns nil the session closes outbox when it drops
// the subscriber, replaces it under the same clientID, or stops.
func (s *Session) Subscribe(ctx context.Context, clientID string, outbox chan Event) error {
	reply := make(chan error, 1)
	if err := s.post(ctx, Join{ClientID: clientID, Outbox: outbox, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Unsubscribe(ctx context.Context, clientID string) error {
	return s.post(ctx, Leave{ClientID: clientID})
}

// Close stops the session and waits for it to release the channel.
func (s *Session) Close() {
	select {
	case s.inbox <- Shutdown{}:
	case <-s.done:
	}
	<-s.done
}

func (s *Session) post(ctx context.Context, m Msg) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
