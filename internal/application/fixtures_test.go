package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// fakeLineItemStore is an in-memory LineItemRepository honoring the same
// conditional-write contract as the Postgres adapter: lock acquisition only
// where no token is set, guarded status writes only where status and token
// both still match.
type fakeLineItemStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.LineItem
}

func newFakeLineItemStore() *fakeLineItemStore {
	return &fakeLineItemStore{items: make(map[uuid.UUID]*domain.LineItem)}
}

func (s *fakeLineItemStore) seed(item domain.LineItem) domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.LineItemID == uuid.Nil {
		item.LineItemID = uuid.New()
	}
	stored := item
	s.items[item.LineItemID] = &stored
	return stored
}

func (s *fakeLineItemStore) Create(_ context.Context, params ports.CreateLineItemParams) (domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := domain.LineItem{
		LineItemID: uuid.New(),
		InvoiceID:  params.InvoiceID,
		Status:     domain.StatusNew,
		RawName:    params.RawName,
		LineType:   params.LineType,
		Unit:       params.Unit,
		Quantity:   params.Quantity,
		UnitPrice:  params.UnitPrice,
		Currency:   params.Currency,
		CreatedAt:  params.CreatedAt,
		UpdatedAt:  params.CreatedAt,
	}
	s.items[item.LineItemID] = &item
	return item, nil
}

func (s *fakeLineItemStore) GetByID(_ context.Context, lineItemID uuid.UUID) (domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[lineItemID]
	if !ok {
		return domain.LineItem{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *fakeLineItemStore) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LineItem, 0)
	for _, item := range s.items {
		if item.InvoiceID == invoiceID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *fakeLineItemStore) AcquireLock(_ context.Context, lineItemID uuid.UUID, token string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[lineItemID]
	if !ok {
		return false, nil
	}
	if item.LockToken != nil {
		return false, nil
	}
	item.LockToken = &token
	item.LockedAt = &at
	return true, nil
}

func (s *fakeLineItemStore) ReleaseLock(_ context.Context, lineItemID uuid.UUID, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[lineItemID]
	if !ok || item.LockToken == nil || *item.LockToken != token {
		return false, nil
	}
	item.LockToken = nil
	item.LockedAt = nil
	return true, nil
}

func (s *fakeLineItemStore) ReleaseExpiredLocks(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var released int64
	for _, item := range s.items {
		if item.LockToken != nil && item.LockedAt != nil && item.LockedAt.Before(olderThan) {
			item.LockToken = nil
			item.LockedAt = nil
			released++
		}
	}
	return released, nil
}

func (s *fakeLineItemStore) CompareAndSwapStatus(_ context.Context, lineItemID uuid.UUID, expected ports.StatusGuard, next ports.StatusChange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[lineItemID]
	if !ok {
		return false, nil
	}
	if item.Status != expected.Status {
		return false, nil
	}
	if item.LockToken == nil || *item.LockToken != expected.LockToken {
		return false, nil
	}
	item.Status = next.Status
	item.UpdatedAt = next.At
	if next.CanonicalItemID != nil {
		canonicalID := *next.CanonicalItemID
		item.CanonicalItemID = &canonicalID
	}
	if next.MatchConfidence != nil {
		confidence := *next.MatchConfidence
		item.MatchConfidence = &confidence
	}
	return true, nil
}

func (s *fakeLineItemStore) ListStalled(_ context.Context, notUpdatedSince time.Time, limit int) ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LineItem, 0)
	for _, item := range s.items {
		if item.Status.IsTerminal() {
			continue
		}
		if item.UpdatedAt.Before(notUpdatedSince) {
			out = append(out, *item)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (o *fakeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

func (o *fakeOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (o *fakeOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }

func (o *fakeOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (o *fakeOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (o *fakeOutbox) enqueued() []ports.OutboxEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]ports.OutboxEvent, len(o.events))
	copy(out, o.events)
	return out
}

type fakeCache struct {
	mu          sync.Mutex
	snapshots   map[uuid.UUID]domain.StatusSnapshot
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{snapshots: make(map[uuid.UUID]domain.StatusSnapshot)}
}

func (c *fakeCache) Get(_ context.Context, lineItemID uuid.UUID) (*domain.StatusSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.snapshots[lineItemID]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (c *fakeCache) Put(_ context.Context, snapshot domain.StatusSnapshot, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[snapshot.LineItemID] = snapshot
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, lineItemID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, lineItemID)
	c.invalidated++
	return nil
}

// fakeTriggers records cascade calls across all four stage ports.
type fakeTriggers struct {
	mu            sync.Mutex
	preValidate   []uuid.UUID
	priceChecks   []string
	ruleChecks    []uuid.UUID
	explanations  []string
	failNextPrice error
}

func (f *fakeTriggers) ValidateContent(_ context.Context, lineItemID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preValidate = append(f.preValidate, lineItemID)
	return nil
}

func (f *fakeTriggers) ValidatePrice(_ context.Context, _ uuid.UUID, canonicalItemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceChecks = append(f.priceChecks, canonicalItemID)
	if f.failNextPrice != nil {
		err := f.failNextPrice
		f.failNextPrice = nil
		return err
	}
	return nil
}

func (f *fakeTriggers) EvaluateRules(_ context.Context, lineItemID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ruleChecks = append(f.ruleChecks, lineItemID)
	return nil
}

func (f *fakeTriggers) VerifyExplanation(_ context.Context, _ uuid.UUID, explanationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.explanations = append(f.explanations, explanationID)
	return nil
}

func (f *fakeTriggers) priceCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.priceChecks)
}

func (f *fakeTriggers) preValidateCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.preValidate)
}

func (f *fakeTriggers) ruleCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ruleChecks)
}

func (f *fakeTriggers) explanationCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.explanations)
}

type fixture struct {
	service  *Service
	store    *fakeLineItemStore
	outbox   *fakeOutbox
	cache    *fakeCache
	triggers *fakeTriggers
}

func newFixture() *fixture {
	store := newFakeLineItemStore()
	outbox := &fakeOutbox{}
	statusCache := newFakeCache()
	triggers := &fakeTriggers{}

	svc := NewService(Dependencies{
		Logger:       slog.Default(),
		Items:        store,
		Outbox:       outbox,
		Cache:        statusCache,
		PreValidator: triggers,
		Pricer:       triggers,
		Rules:        triggers,
		Explanations: triggers,
	})

	return &fixture{
		service:  svc,
		store:    store,
		outbox:   outbox,
		cache:    statusCache,
		triggers: triggers,
	}
}

func (f *fixture) seedItem(status domain.Status) domain.LineItem {
	now := time.Now().UTC()
	return f.store.seed(domain.LineItem{
		InvoiceID: uuid.New(),
		Status:    status,
		RawName:   "2x4 lumber stud",
		LineType:  domain.LineTypeMaterial,
		Unit:      "each",
		Currency:  "USD",
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (f *fixture) drain() {
	f.service.cascades.Wait()
}
