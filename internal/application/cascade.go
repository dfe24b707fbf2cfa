package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M47-invoice-validation-service/internal/ports"
)

// CascadeTriggers bundles the next-stage entry points. A nil trigger means
// the stage is wired elsewhere; its cascade is skipped with a log line.
type CascadeTriggers struct {
	PreValidator ports.PreValidateTrigger
	Pricer       ports.PricerTrigger
	Rules        ports.RuleTrigger
	Explanations ports.ExplanationTrigger
}

// CascadeRunner invokes pipeline-stage entry points after committed
// transitions. Calls are fire-and-forget relative to the dispatcher's caller:
// each runs on its own goroutine with its own deadline and logs its own
// outcome. A failed cascade never affects the already-committed transition.
type CascadeRunner struct {
	logger   *slog.Logger
	triggers CascadeTriggers
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewCascadeRunner(logger *slog.Logger, triggers CascadeTriggers, timeout time.Duration) *CascadeRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CascadeRunner{
		logger:   logger.With("module", "cascade", "layer", "application"),
		triggers: triggers,
		timeout:  timeout,
	}
}

// AfterEvent fires the cascade matching the accepted event, if any.
// to is the item's status after the event (unchanged for informational ones).
func (c *CascadeRunner) AfterEvent(event domain.Event, to domain.Status) {
	switch ev := event.(type) {
	case domain.LineItemAdded:
		if c.triggers.PreValidator == nil {
			c.skip(ev.ItemID().String(), "pre_validate")
			return
		}
		c.fire("pre_validate", func(ctx context.Context) error {
			return c.triggers.PreValidator.ValidateContent(ctx, ev.ItemID())
		})
	case domain.Matched:
		if to != domain.StatusMatched || ev.CanonicalItemID == "" {
			return
		}
		if c.triggers.Pricer == nil {
			c.skip(ev.ItemID().String(), "validate_price")
			return
		}
		c.fire("validate_price", func(ctx context.Context) error {
			return c.triggers.Pricer.ValidatePrice(ctx, ev.ItemID(), ev.CanonicalItemID)
		})
	case domain.PriceValidated:
		if to != domain.StatusPriceValidated || !ev.Validated {
			return
		}
		if c.triggers.Rules == nil {
			c.skip(ev.ItemID().String(), "evaluate_rules")
			return
		}
		c.fire("evaluate_rules", func(ctx context.Context) error {
			return c.triggers.Rules.EvaluateRules(ctx, ev.ItemID())
		})
	case domain.ExplanationSubmitted:
		if c.triggers.Explanations == nil {
			c.skip(ev.ItemID().String(), "verify_explanation")
			return
		}
		c.fire("verify_explanation", func(ctx context.Context) error {
			return c.triggers.Explanations.VerifyExplanation(ctx, ev.ItemID(), ev.ExplanationID)
		})
	}
}

// fire runs one cascade call detached from the request context. The
// dispatcher's caller has already been answered when this runs.
func (c *CascadeRunner) fire(operation string, call func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := call(ctx); err != nil {
			c.logger.ErrorContext(ctx, "cascade call failed",
				"operation", operation,
				"outcome", "failure",
				"error", err,
			)
			return
		}
		c.logger.InfoContext(ctx, "cascade call completed",
			"operation", operation,
			"outcome", "success",
		)
	}()
}

func (c *CascadeRunner) skip(lineItemID, operation string) {
	c.logger.WarnContext(context.Background(), "cascade trigger not configured",
		"operation", operation,
		"outcome", "skipped",
		"line_item_id", lineItemID,
	)
}

// Drain waits for in-flight cascade calls, bounded by ctx.
func (c *CascadeRunner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until all in-flight cascade calls finish.
func (c *CascadeRunner) Wait() {
	c.wg.Wait()
}
