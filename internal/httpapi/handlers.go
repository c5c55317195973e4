package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/DoyleJ11/connect-four/internal/session"
	"github.com/DoyleJ11/connect-four/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func State(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := sess.State(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v.Snapshot())
	}
}

func Drop(sess *session.Session, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		col, err := strconv.Atoi(chi.URLParam(r, "column"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Code: types.CodeBadColumn, Error: "column must be a number"})
			return
		}
		act(w, r, sess, log, "drop", func(ctx context.Context) error { return sess.Drop(ctx, col) })
	}
}

func Restart(sess *session.Session, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act(w, r, sess, log, "restart", sess.Restart)
	}
}

func Forfeit(sess *session.Session, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		act(w, r, sess, log, "forfeit", sess.Forfeit)
	}
}

// act runs a local action and answers with the resulting snapshot.
func act(w http.ResponseWriter, r *http.Request, sess *session.Session, log *zap.Logger, name string, do func(context.Context) error) {
	if err := do(r.Context()); err != nil {
		log.Debug("action rejected", zap.String("action", name), zap.Error(err))
		writeError(w, err)
		return
	}
	v, err := sess.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, v.Snapshot())
}

func statusFor(code string) int {
	switch code {
	case types.CodeNotYourTurn, types.CodeColumnFull:
		return http.StatusConflict
	case types.CodeBadColumn:
		return http.StatusBadRequest
	case types.CodeSessionClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := session.ErrorCode(err)
	writeJSON(w, statusFor(code), errorBody{Code: code, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
