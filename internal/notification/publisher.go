// Package notification turns lifecycle events into buyer/seller emails:
// the publisher enqueues events to Kafka best-effort, the worker consumes
// them and renders one static HTML template per event kind.
package notification

import (
	"context"
	"log/slog"

	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/messaging"
)

// Topic is the Kafka topic notification events travel on.
const Topic = "notification.requested"

// Publisher enqueues notification events. Semantics are enqueue-or-drop:
// with no producer configured events are dropped at debug level, and
// publish failures are dropped at error level. Callers never block on
// delivery and never see an error.
type Publisher struct {
	producer *messaging.Producer
	logger   *slog.Logger
}

func NewPublisher(producer *messaging.Producer, logger *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.NotificationEvent) error {
	if p.producer == nil {
		p.logger.Debug("notification dropped, kafka not configured", "kind", ev.Kind, "order_id", ev.OrderID)
		return nil
	}

	if err := p.producer.Publish(ctx, ev.OrderID, ev); err != nil {
		p.logger.Error("failed to publish notification", "error", err, "kind", ev.Kind, "order_id", ev.OrderID)
	}
	return nil
}
