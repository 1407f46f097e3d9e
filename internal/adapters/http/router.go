package http

import (
	"context"
	"net/http"

	"github.com/fixkg/backend/internal/adapters/notify"
	"github.com/fixkg/backend/internal/application"
	"github.com/go-chi/chi/v5"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	service *application.Service
	hub     *notify.Hub
	checks  map[string]ReadinessCheck
}

func NewHandler(service *application.Service, hub *notify.Hub, checks map[string]ReadinessCheck) *Handler {
	return &Handler{service: service, hub: hub, checks: checks}
}

// NewRouter registers the public auth routes, the push channel and health probes.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	r.Get("/ws", handler.pushChannel)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register-user", handler.register)
		r.Post("/login-user", handler.login)
		r.Post("/verify-code", handler.verifyCode)
		r.Post("/verify-request", handler.verifyRequest)
		r.Post("/refresh", handler.refresh)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Get("/me", handler.me)
		})
	})

	return r
}
