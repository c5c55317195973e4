package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/connect-four/internal/session"
	"github.com/DoyleJ11/connect-four/internal/types"
	pub "github.com/DoyleJ11/connect-four/pkg/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// localOrigins lets browser pages served from this machine connect. Requests
// without an Origin header, or from the same host, are always accepted.
var localOrigins = []string{"localhost:*", "127.0.0.1:*"}

// Handler streams session events to a websocket client and accepts Drop,
// Restart and Forfeit commands from it.
func Handler(sess *session.Session, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: localOrigins,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		clog := log.With(zap.String("client_id", clientID))

		out := make(chan session.Event, 16)
		if err := sess.Subscribe(r.Context(), clientID, out); err != nil {
			conn.Close(websocket.StatusGoingAway, "session closed")
			return
		}
		clog.Info("ws client joined")
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = sess.Unsubscribe(ctx, clientID)
			clog.Info("ws client left")
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case ev, ok := <-out:
					if !ok {
						// Dropped as a slow subscriber, or the session ended.
						conn.Close(websocket.StatusGoingAway, "session closed")
						return
					}
					if err := write(writeCtx, conn, toServerMessage(ev)); err != nil {
						clog.Debug("ws write failed", zap.Error(err))
					}
				case <-writeCtx.Done():
					return
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("ws read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(r.Context(), conn, errorMessage(pub.CodeBadJSON, "bad json"))
				continue
			}

			if err := dispatch(r.Context(), sess, cm); err != nil {
				code := session.ErrorCode(err)
				switch {
				case errors.Is(err, errUnknownType):
					code = pub.CodeUnknownType
				case errors.Is(err, errMissingColumn):
					code = pub.CodeBadColumn
				}
				_ = write(r.Context(), conn, errorMessage(code, err.Error()))
			}
		}
	}
}

var errUnknownType = errors.New("unknown message type")
var errMissingColumn = errors.New("drop needs a column")

func dispatch(ctx context.Context, sess *session.Session, m types.ClientMessage) error {
	switch m.Type {
	case pub.TypeDrop:
		if m.Column == nil {
			return errMissingColumn
		}
		return sess.Drop(ctx, *m.Column)
	case pub.TypeRestart:
		return sess.Restart(ctx)
	case pub.TypeForfeit:
		return sess.Forfeit(ctx)
	default:
		return errUnknownType
	}
}

func toServerMessage(ev session.Event) types.ServerMessage {
	snap := ev.View.Snapshot()
	msg := types.ServerMessage{Version: ev.View.Version, State: &snap, Remote: ev.Remote}
	switch ev.Type {
	case session.EvtSnapshot:
		msg.Type = pub.TypeStateSnapshot
	case session.EvtGameOver:
		msg.Type = pub.TypeGameOver
		msg.Winner = snap.Winner
	case session.EvtRestart:
		msg.Type = pub.TypeRestart
	case session.EvtTurnSwap:
		msg.Type = pub.TypeTurnSwap
	}
	return msg
}

func errorMessage(code, text string) types.ServerMessage {
	return types.ServerMessage{Type: pub.TypeError, Code: code, Error: text}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
