package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// Handler is the HTTP adapter entrypoint for line-item orchestration use-cases.
// Keeping only application dependencies here preserves clean adapter boundaries.
type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service, verifier ports.TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

// NewRouter registers M47 HTTP routes and middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/lineitems/v1", func(r chi.Router) {
		r.Get("/items/stalled", handler.listStalled)
		r.Get("/items/{line_item_id}", handler.getStatus)
		r.Get("/items/{line_item_id}/readiness", handler.checkReadiness)
		r.Get("/invoices/{invoice_id}/items", handler.listByInvoice)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/items", handler.createLineItem)
			r.Post("/events", handler.submitEvent)
		})
	})

	return r
}
