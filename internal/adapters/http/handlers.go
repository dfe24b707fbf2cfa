package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeMissingBearerError(r.Context(), w, "authenticate_caller")
			return
		}

		claims, err := h.verifier.ParseAndValidate(raw)
		if err != nil {
			writeMappedError(r.Context(), w, "authenticate_caller", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyCaller, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) createLineItem(w http.ResponseWriter, r *http.Request) {
	var req application.CreateLineItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_line_item", err)
		return
	}

	resp, err := h.service.CreateLineItem(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_line_item", err)
		return
	}

	caller, _ := callerFromContext(r.Context())
	httpLogger().InfoContext(r.Context(), "line item created",
		"operation", "create_line_item",
		"outcome", "success",
		"caller_service_id", caller.ServiceID,
		"line_item_id", resp.LineItemID,
		"request_id", requestIDFromContext(r.Context()),
	)
	writeSuccess(w, http.StatusCreated, resp)
}

func (h *Handler) submitEvent(w http.ResponseWriter, r *http.Request) {
	var envelope eventEnvelope
	if err := decodeBody(r, &envelope); err != nil {
		writeValidationError(r.Context(), w, "submit_event", err)
		return
	}

	event, err := envelope.toDomainEvent()
	if err != nil {
		writeValidationError(r.Context(), w, "submit_event", err)
		return
	}

	result, err := h.service.Process(r.Context(), event)
	if err != nil {
		writeMappedError(r.Context(), w, "submit_event", err)
		return
	}

	caller, _ := callerFromContext(r.Context())
	httpLogger().InfoContext(r.Context(), "event processed",
		"operation", "submit_event",
		"outcome", "success",
		"caller_service_id", caller.ServiceID,
		"event", envelope.Type,
		"line_item_id", envelope.LineItemID,
		"applied", result.Applied,
		"request_id", requestIDFromContext(r.Context()),
	)
	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "line_item_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "get_status", errors.New("line_item_id must be a UUID"))
		return
	}

	snapshot, err := h.service.GetStatus(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "get_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, snapshot)
}

func (h *Handler) checkReadiness(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "line_item_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "check_readiness", errors.New("line_item_id must be a UUID"))
		return
	}

	required := domain.Status(strings.TrimSpace(r.URL.Query().Get("status")))
	readiness, err := h.service.CheckReadiness(r.Context(), id, required)
	if err != nil {
		writeMappedError(r.Context(), w, "check_readiness", err)
		return
	}
	writeSuccess(w, http.StatusOK, readiness)
}

func (h *Handler) listStalled(w http.ResponseWriter, r *http.Request) {
	idleMinutes := parseIntDefault(r.URL.Query().Get("idle_minutes"), 30)
	if idleMinutes <= 0 {
		writeValidationError(r.Context(), w, "list_stalled", errors.New("idle_minutes must be positive"))
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 100)

	cutoff := time.Now().UTC().Add(-time.Duration(idleMinutes) * time.Minute)
	items, err := h.service.ListStalled(r.Context(), cutoff, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "list_stalled", err)
		return
	}

	snapshots := make([]domain.StatusSnapshot, 0, len(items))
	for _, item := range items {
		snapshots = append(snapshots, item.Snapshot())
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"idle_minutes": idleMinutes,
		"items":        snapshots,
	})
}

func (h *Handler) listByInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(chi.URLParam(r, "invoice_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "list_by_invoice", errors.New("invoice_id must be a UUID"))
		return
	}

	items, err := h.service.ListByInvoice(r.Context(), invoiceID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_by_invoice", err)
		return
	}

	snapshots := make([]domain.StatusSnapshot, 0, len(items))
	for _, item := range items {
		snapshots = append(snapshots, item.Snapshot())
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"invoice_id": invoiceID,
		"items":      snapshots,
	})
}
