package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/connect-four/internal/session"
	"github.com/DoyleJ11/connect-four/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRoutes builds the local control surface for one peer's session.
func SetupRoutes(sess *session.Session, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/state", State(sess))
	r.Post("/drop/{column}", Drop(sess, log))
	r.Post("/restart", Restart(sess, log))
	r.Post("/forfeit", Forfeit(sess, log))
	r.Get("/ws", ws.Handler(sess, log.Named("ws")))
	return r
}
