package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

// EmailSender is the slice of the email client the worker needs.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Worker consumes notification events and delivers emails at most once:
// malformed payloads, unknown kinds and send failures are logged and
// dropped, never retried, so a bad message cannot wedge the consumer.
type Worker struct {
	email  EmailSender
	logger *slog.Logger
}

func NewWorker(email EmailSender, logger *slog.Logger) *Worker {
	return &Worker{email: email, logger: logger}
}

func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	var ev domain.NotificationEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		w.logger.Error("failed to unmarshal notification event", "error", err)
		return nil
	}

	rendered, ok := Render(ev)
	if !ok {
		w.logger.Warn("no template for notification kind", "kind", ev.Kind, "order_id", ev.OrderID)
		return nil
	}

	if err := w.email.Send(ctx, ev.To, rendered.Subject, rendered.HTML); err != nil {
		w.logger.Error("failed to send notification email", "error", err, "kind", ev.Kind, "order_id", ev.OrderID)
		return nil
	}

	w.logger.Info("notification email sent", "kind", ev.Kind, "to", ev.To, "order_id", ev.OrderID)
	return nil
}
