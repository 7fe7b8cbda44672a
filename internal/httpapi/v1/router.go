// Package v1 wires the HTTP surface of the ledger service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"context"
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ledgerd/internal/service/auth"
	"ledgerd/internal/service/movement"
	"ledgerd/internal/service/refdata"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	authSvc     auth.Service
	refdataSvc  refdata.Service
	movementSvc movement.Service
	ready       ReadyChecker
	log         *slog.Logger
	rt          *chi.Mux
}

// ReadyChecker is implemented by storage backends that can verify
// connectivity; nil means always ready (memory backend).
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// New constructs the HTTP server with routes and middleware. ready may be
// nil. The logger is used by request/response logging and panic recovery.
func New(authSvc auth.Service, refdataSvc refdata.Service, movementSvc movement.Service, ready ReadyChecker, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		authSvc:     authSvc,
		refdataSvc:  refdataSvc,
		movementSvc: movementSvc,
		ready:       ready,
		rt:          r,
		log:         logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches per-route middleware.
func (s *Server) routes() {
	// Auth (unauthenticated)
	s.rt.Post("/v1/auth/register", s.register)
	s.rt.Post("/v1/auth/login", s.login)

	// Everything below requires a bearer token.
	s.rt.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		// Reference data
		r.Get("/v1/reference", s.getReference)
		r.Post("/v1/accounts", s.postAccount)
		r.Post("/v1/categories", s.postCategory)
		r.Post("/v1/payment-methods", s.postPaymentMethod)
		// Movements
		r.Post("/v1/movements", s.postMovement)
		r.Get("/v1/movements", s.listMovements)
		r.Delete("/v1/movements/{id}", s.deleteMovement)
		r.Get("/v1/balance", s.getBalance)
	})

	// Operational endpoints (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
