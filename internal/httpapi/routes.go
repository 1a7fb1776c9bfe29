package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/card-arena-backend/internal/hub"
	"github.com/DoyleJ11/card-arena-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, gate *AdminGate, opts ws.Options, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, opts, log))

	r.Route("/admin", func(r chi.Router) {
		r.Use(gate.Middleware)
		r.Post("/prune", Prune(h, log))
		r.Post("/clean", FullClean(h, log))
		r.Get("/sessions", ListSessions(h))
		r.Post("/sessions/{id}/bots", AddBot(h, log))
	})

	return r
}
