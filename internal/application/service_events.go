package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// eventSpec maps one event case to the statuses it may originate from and
// the status it targets. Informational events validate their source status
// but leave the row untouched.
type eventSpec struct {
	sources       []domain.Status
	target        domain.Status
	informational bool
}

// specFor derives the event's transition spec. The edges here are exactly
// the transition table's; the per-event view exists so step 4 of Process can
// reject stale or out-of-order events without consulting the target.
func specFor(event domain.Event) eventSpec {
	switch ev := event.(type) {
	case domain.LineItemAdded:
		return eventSpec{sources: []domain.Status{domain.StatusNew}, informational: true}
	case domain.Validated:
		if ev.Verdict == domain.VerdictApproved {
			return eventSpec{sources: []domain.Status{domain.StatusNew}, target: domain.StatusAwaitingMatch}
		}
		return eventSpec{sources: []domain.Status{domain.StatusNew}, target: domain.StatusValidationRejected}
	case domain.MatchMiss:
		return eventSpec{sources: []domain.Status{domain.StatusAwaitingMatch}, target: domain.StatusAwaitingIngest}
	case domain.WebIngested:
		return eventSpec{sources: []domain.Status{domain.StatusAwaitingIngest}, target: domain.StatusAwaitingMatch}
	case domain.Matched:
		return eventSpec{sources: []domain.Status{domain.StatusAwaitingMatch}, target: domain.StatusMatched}
	case domain.PriceValidated:
		return eventSpec{sources: []domain.Status{domain.StatusMatched}, target: domain.StatusPriceValidated}
	case domain.NeedsExplanation:
		return eventSpec{sources: []domain.Status{domain.StatusPriceValidated}, target: domain.StatusNeedsExplanation}
	case domain.ExplanationSubmitted:
		return eventSpec{sources: []domain.Status{domain.StatusNeedsExplanation}, informational: true}
	case domain.ReadyForSubmission:
		return eventSpec{
			sources: []domain.Status{domain.StatusPriceValidated, domain.StatusNeedsExplanation},
			target:  domain.StatusReadyForSubmission,
		}
	case domain.Denied:
		return eventSpec{
			sources: []domain.Status{
				domain.StatusAwaitingMatch,
				domain.StatusAwaitingIngest,
				domain.StatusMatched,
				domain.StatusPriceValidated,
				domain.StatusNeedsExplanation,
			},
			target: domain.StatusDenied,
		}
	default:
		return eventSpec{}
	}
}

func statusIn(s domain.Status, set []domain.Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

// Process applies one domain event to its line item under the lock/CAS
// protocol. Business rejections come back as Result{Applied: false} with a
// reason; only store failures surface as errors. The lock is released before
// return regardless of outcome.
func (s *Service) Process(ctx context.Context, event domain.Event) (Result, error) {
	if event == nil {
		return Result{Reason: "nil event"}, nil
	}
	lineItemID := event.ItemID()
	if lineItemID == uuid.Nil {
		return Result{Reason: "missing line item id"}, nil
	}

	token, err := s.locks.acquire(ctx, lineItemID, string(event.Kind()))
	if err != nil {
		return Result{}, err
	}
	if token == "" {
		// The acquire is a conditional write, so zero rows can mean either a
		// held lock or a row that does not exist. Tell them apart here.
		if _, err := s.items.GetByID(ctx, lineItemID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Result{Reason: "line item not found"}, nil
			}
			return Result{}, fmt.Errorf("load line item: %w", err)
		}
		// Another attempt is mid-transition; the emitter may retry later.
		return Result{Reason: "line item is busy"}, nil
	}
	defer s.locks.release(ctx, lineItemID, token)

	item, err := s.items.GetByID(ctx, lineItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Result{Reason: "line item not found"}, nil
		}
		return Result{}, fmt.Errorf("load line item: %w", err)
	}

	spec := specFor(event)
	if len(spec.sources) == 0 {
		return Result{From: item.Status, To: item.Status, Reason: "unknown event kind"}, nil
	}
	if !statusIn(item.Status, spec.sources) {
		// Stale, duplicated or out-of-order delivery; tolerated as a no-op.
		s.logger.InfoContext(ctx, "event not applicable to current status",
			"operation", "process_event",
			"outcome", "rejected",
			"line_item_id", lineItemID,
			"event", string(event.Kind()),
			"status", string(item.Status),
		)
		return Result{
			From:   item.Status,
			To:     item.Status,
			Reason: fmt.Sprintf("event %s is not applicable from status %s", event.Kind(), item.Status),
		}, nil
	}

	if spec.informational {
		// No status change; accept the event and run its cascade.
		s.cascades.AfterEvent(event, item.Status)
		return Result{Applied: true, From: item.Status, To: item.Status, Reason: "no status change"}, nil
	}

	change := ports.StatusChange{Status: spec.target, At: s.nowFn()}
	if matched, ok := event.(domain.Matched); ok {
		canonicalID := matched.CanonicalItemID
		confidence := matched.Confidence
		change.CanonicalItemID = &canonicalID
		change.MatchConfidence = &confidence
	}

	applied, err := s.items.CompareAndSwapStatus(ctx, lineItemID,
		ports.StatusGuard{Status: item.Status, LockToken: token}, change)
	if err != nil {
		return Result{}, fmt.Errorf("compare and swap status: %w", err)
	}
	if !applied {
		return Result{From: item.Status, To: item.Status, Reason: "conditional write lost"}, nil
	}

	s.logger.InfoContext(ctx, "status transition applied",
		"operation", "process_event",
		"outcome", "success",
		"line_item_id", lineItemID,
		"event", string(event.Kind()),
		"from", string(item.Status),
		"to", string(spec.target),
	)

	s.afterTransition(ctx, event, domain.StatusTransition{
		LineItemID: lineItemID,
		From:       item.Status,
		To:         spec.target,
		Reason:     string(event.Kind()),
		Metadata:   transitionMetadata(event),
	})

	return Result{Applied: true, From: item.Status, To: spec.target}, nil
}

// transitionMetadata extracts the event fields worth keeping on the audit
// record beyond the from/to pair.
func transitionMetadata(event domain.Event) map[string]string {
	switch ev := event.(type) {
	case domain.Validated:
		return map[string]string{
			"verdict": string(ev.Verdict),
			"score":   strconv.FormatFloat(ev.Score, 'f', -1, 64),
		}
	case domain.WebIngested:
		return map[string]string{"sources_count": strconv.Itoa(ev.SourcesCount)}
	case domain.Matched:
		return map[string]string{
			"canonical_item_id": ev.CanonicalItemID,
			"confidence":        strconv.FormatFloat(ev.Confidence, 'f', -1, 64),
		}
	case domain.PriceValidated:
		return map[string]string{"validated": strconv.FormatBool(ev.Validated)}
	case domain.NeedsExplanation:
		if ev.Reason != "" {
			return map[string]string{"reason": ev.Reason}
		}
	case domain.Denied:
		if ev.Reason != "" {
			return map[string]string{"reason": ev.Reason}
		}
	}
	return nil
}

// afterTransition runs the committed-write side effects: cache invalidation,
// the audit outbox record, and the cascade call. All are best effort; the
// transition never rolls back.
func (s *Service) afterTransition(ctx context.Context, event domain.Event, transition domain.StatusTransition) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, transition.LineItemID); err != nil {
			s.logger.WarnContext(ctx, "status cache invalidation failed",
				"operation", "invalidate_snapshot",
				"outcome", "failure",
				"line_item_id", transition.LineItemID,
				"error", err,
			)
		}
	}

	if s.outbox != nil {
		record := map[string]any{
			"line_item_id": transition.LineItemID,
			"from":         transition.From,
			"to":           transition.To,
			"event":        transition.Reason,
		}
		if len(transition.Metadata) > 0 {
			record["metadata"] = transition.Metadata
		}
		payload, err := json.Marshal(record)
		if err == nil {
			err = s.outbox.Enqueue(ctx, ports.OutboxEvent{
				EventID:      uuid.New(),
				EventType:    "lineitem.transition.applied",
				PartitionKey: transition.LineItemID.String(),
				Payload:      payload,
				OccurredAt:   s.nowFn(),
			})
		}
		if err != nil {
			s.logger.WarnContext(ctx, "transition outbox enqueue failed",
				"operation", "enqueue_transition",
				"outcome", "failure",
				"line_item_id", transition.LineItemID,
				"error", err,
			)
		}
	}

	s.cascades.AfterEvent(event, transition.To)
}
