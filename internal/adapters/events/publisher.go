package events

import (
	"context"
	"log/slog"
)

// LoggingPublisher is the no-broker fallback: transition events land in the
// structured log stream instead of a queue. Used when AMQP is not configured.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger.With("module", "events.publisher", "layer", "adapter")}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	p.logger.InfoContext(ctx, "published event", "event_type", eventType, "payload", string(payload))
	return nil
}
