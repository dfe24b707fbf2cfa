package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// Config holds the orchestrator's tunable behavior.
type Config struct {
	// SnapshotTTL bounds how long a cached status snapshot may serve reads.
	SnapshotTTL time.Duration
	// CascadeTimeout bounds each fire-and-forget cascade call.
	CascadeTimeout time.Duration
}

// Service is the line-item status orchestrator: event dispatcher, lock
// manager, cascade trigger and status query API behind one application type.
// All status mutation in the system funnels through Process.
type Service struct {
	cfg      Config
	logger   *slog.Logger
	items    ports.LineItemRepository
	outbox   ports.OutboxRepository
	cache    ports.StatusCache
	locks    *lockManager
	cascades *CascadeRunner
	nowFn    func() time.Time
}

type Dependencies struct {
	Config       Config
	Logger       *slog.Logger
	Items        ports.LineItemRepository
	Outbox       ports.OutboxRepository
	Cache        ports.StatusCache
	PreValidator ports.PreValidateTrigger
	Pricer       ports.PricerTrigger
	Rules        ports.RuleTrigger
	Explanations ports.ExplanationTrigger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "orchestrator", "layer", "application")

	cfg := deps.Config
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 15 * time.Second
	}
	if cfg.CascadeTimeout <= 0 {
		cfg.CascadeTimeout = 10 * time.Second
	}

	nowFn := func() time.Time { return time.Now().UTC() }
	return &Service{
		cfg:    cfg,
		logger: logger,
		items:  deps.Items,
		outbox: deps.Outbox,
		cache:  deps.Cache,
		locks: &lockManager{
			items:  deps.Items,
			logger: logger,
			nowFn:  nowFn,
		},
		cascades: NewCascadeRunner(logger, CascadeTriggers{
			PreValidator: deps.PreValidator,
			Pricer:       deps.Pricer,
			Rules:        deps.Rules,
			Explanations: deps.Explanations,
		}, cfg.CascadeTimeout),
		nowFn: nowFn,
	}
}

// DrainCascades blocks until in-flight cascade calls finish or ctx expires.
// Called on shutdown so committed transitions do not lose their side calls.
func (s *Service) DrainCascades(ctx context.Context) error {
	return s.cascades.Drain(ctx)
}
