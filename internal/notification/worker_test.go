package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

type fakeSender struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to      string
	subject string
	html    string
}

func (f *fakeSender) Send(_ context.Context, to, subject, html string) error {
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, html: html})
	return f.err
}

func newTestWorker(sender *fakeSender) *Worker {
	return NewWorker(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWorkerDeliversEmail(t *testing.T) {
	sender := &fakeSender{}
	w := newTestWorker(sender)

	payload, _ := json.Marshal(domain.NotificationEvent{
		Kind:      domain.NotifyRequestApproved,
		To:        "fan@example.com",
		BuyerName: "Mila",
		StarName:  "Novak",
	})

	if err := w.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	if sender.sent[0].to != "fan@example.com" {
		t.Errorf("to = %q, want fan@example.com", sender.sent[0].to)
	}
	if sender.sent[0].subject != "Novak accepted your video request" {
		t.Errorf("subject = %q", sender.sent[0].subject)
	}
}

func TestWorkerDropsMalformedPayload(t *testing.T) {
	sender := &fakeSender{}
	w := newTestWorker(sender)

	if err := w.Handle(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("malformed payloads must be dropped, got error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("malformed payload must not send email")
	}
}

func TestWorkerDropsUnknownKind(t *testing.T) {
	sender := &fakeSender{}
	w := newTestWorker(sender)

	payload, _ := json.Marshal(domain.NotificationEvent{Kind: "payment.settled", To: "fan@example.com"})
	if err := w.Handle(context.Background(), payload); err != nil {
		t.Fatalf("unknown kinds must be dropped, got error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("unknown kind must not send email")
	}
}

func TestWorkerSwallowsSendFailure(t *testing.T) {
	// At-most-once: a failed send must not surface an error, or the
	// consumer would stall and redeliver.
	sender := &fakeSender{err: errors.New("rate limited")}
	w := newTestWorker(sender)

	payload, _ := json.Marshal(domain.NotificationEvent{
		Kind: domain.NotifyVideoReady,
		To:   "fan@example.com",
	})
	if err := w.Handle(context.Background(), payload); err != nil {
		t.Fatalf("send failures must be swallowed, got error: %v", err)
	}
}
