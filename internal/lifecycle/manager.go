// Package lifecycle validates and applies order status transitions for the
// three order kinds, producing their side effects: timestamp stamping,
// download token issuance, stock restore and buyer notifications.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

// ErrNotFound covers both a missing order and an order owned by another
// seller, so the API never leaks which orders exist across tenants.
var ErrNotFound = errors.New("order not found")

// InvalidTransitionError names both statuses so the API can surface them.
type InvalidTransitionError struct {
	From, To domain.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %q to %q", e.From, e.To)
}

var ErrInvalidTransition = errors.New("invalid transition")

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

const tokenTTL = 7 * 24 * time.Hour

// Order is the slice of an order record the manager needs to validate and
// describe a transition.
type Order struct {
	ID          string
	SellerID    string
	Status      domain.Status
	BuyerName   string
	BuyerEmail  string
	StarName    string
	ProductName string
	VariantName string
	VariantID   *string
	Quantity    int
}

// Update is the mutation applied on a successful transition. The store must
// stamp the status-appropriate timestamp column and guard the write with
// the expected current status.
type Update struct {
	FromStatus     domain.Status
	Status         domain.Status
	At             time.Time
	TrackingNumber *string
	DownloadToken  *string
	TokenExpiresAt *time.Time
}

// Orders abstracts the per-kind order repositories.
type Orders interface {
	// Lifecycle loads the transition-relevant slice of an order, or
	// ErrNotFound.
	Lifecycle(ctx context.Context, kind domain.OrderKind, id string) (Order, error)
	// Apply persists the update in one statement conditioned on
	// Update.FromStatus; it returns ErrNotFound if the row moved away from
	// that status concurrently.
	Apply(ctx context.Context, kind domain.OrderKind, id string, u Update) error
}

type Inventory interface {
	Reserve(ctx context.Context, variantID string, quantity int) error
	Release(ctx context.Context, variantID string, quantity int) error
}

type Publisher interface {
	Publish(ctx context.Context, ev domain.NotificationEvent) error
}

type Request struct {
	Kind           domain.OrderKind
	OrderID        string
	SellerID       string
	Status         domain.Status
	TrackingNumber *string
}

type Result struct {
	ID             string
	Status         domain.Status
	DownloadToken  string
	TokenExpiresAt *time.Time
}

type Manager struct {
	orders      Orders
	inventory   Inventory
	publisher   Publisher
	downloadURL func(orderID, token string) string
	logger      *slog.Logger
	now         func() time.Time
}

func NewManager(orders Orders, inv Inventory, pub Publisher, downloadURL func(orderID, token string) string, logger *slog.Logger) *Manager {
	return &Manager{
		orders:      orders,
		inventory:   inv,
		publisher:   pub,
		downloadURL: downloadURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Transition validates the requested status change against the kind's
// table and applies it. The actor must be the order's owning seller;
// anything else reads as not found. On success the matching notification
// is published best-effort and never affects the outcome.
func (m *Manager) Transition(ctx context.Context, req Request) (Result, error) {
	order, err := m.orders.Lifecycle(ctx, req.Kind, req.OrderID)
	if err != nil {
		return Result{}, fmt.Errorf("load order: %w", err)
	}

	if order.SellerID != req.SellerID {
		return Result{}, ErrNotFound
	}

	if !domain.CanTransition(req.Kind, order.Status, req.Status) {
		return Result{}, &InvalidTransitionError{From: order.Status, To: req.Status}
	}

	now := m.now().UTC()
	update := Update{
		FromStatus: order.Status,
		Status:     req.Status,
		At:         now,
	}

	result := Result{ID: order.ID, Status: req.Status}

	if req.Kind == domain.KindMerch && req.Status == domain.StatusShipped {
		update.TrackingNumber = req.TrackingNumber
	}

	if req.Kind == domain.KindDigital && req.Status == domain.StatusCompleted {
		token := uuid.NewString()
		expiry := now.Add(tokenTTL)
		update.DownloadToken = &token
		update.TokenExpiresAt = &expiry
		result.DownloadToken = token
		result.TokenExpiresAt = &expiry
	}

	// A merch cancellation restores stock before the order goes terminal.
	// If the row then moves away from us concurrently, the release is
	// compensated so the ledger stays balanced.
	restoring := req.Kind == domain.KindMerch && req.Status == domain.StatusCancelled && order.VariantID != nil
	if restoring {
		if err := m.inventory.Release(ctx, *order.VariantID, order.Quantity); err != nil {
			return Result{}, fmt.Errorf("release stock for variant %s: %w", *order.VariantID, err)
		}
	}

	if err := m.orders.Apply(ctx, req.Kind, req.OrderID, update); err != nil {
		if restoring {
			if resErr := m.inventory.Reserve(ctx, *order.VariantID, order.Quantity); resErr != nil {
				m.logger.Error("failed to re-reserve stock after aborted cancellation",
					"error", resErr, "variant_id", *order.VariantID, "order_id", order.ID)
			}
		}
		return Result{}, fmt.Errorf("apply transition: %w", err)
	}

	m.notify(ctx, req, order, result)

	return result, nil
}

func (m *Manager) notify(ctx context.Context, req Request, order Order, result Result) {
	ev, ok := m.eventFor(req, order, result)
	if !ok {
		return
	}

	if m.publisher == nil {
		m.logger.Debug("notification skipped, no publisher configured", "kind", ev.Kind, "order_id", order.ID)
		return
	}

	if err := m.publisher.Publish(ctx, ev); err != nil {
		m.logger.Error("failed to publish notification", "error", err, "kind", ev.Kind, "order_id", order.ID)
	}
}

func (m *Manager) eventFor(req Request, order Order, result Result) (domain.NotificationEvent, bool) {
	ev := domain.NotificationEvent{
		To:          order.BuyerEmail,
		OrderID:     order.ID,
		BuyerName:   order.BuyerName,
		StarName:    order.StarName,
		ProductName: order.ProductName,
		VariantName: order.VariantName,
		Quantity:    order.Quantity,
		Timestamp:   m.now().UTC(),
	}

	switch {
	case req.Kind == domain.KindVideo && req.Status == domain.StatusApproved:
		ev.Kind = domain.NotifyRequestApproved
	case req.Kind == domain.KindVideo && req.Status == domain.StatusRejected:
		ev.Kind = domain.NotifyRequestRejected
	case req.Kind == domain.KindVideo && req.Status == domain.StatusCompleted:
		ev.Kind = domain.NotifyVideoReady
	case req.Kind == domain.KindMerch && req.Status == domain.StatusConfirmed:
		ev.Kind = domain.NotifyMerchOrderConfirmed
	case req.Kind == domain.KindMerch && req.Status == domain.StatusShipped:
		ev.Kind = domain.NotifyMerchOrderShipped
		if req.TrackingNumber != nil {
			ev.TrackingNumber = *req.TrackingNumber
		}
	case req.Kind == domain.KindDigital && req.Status == domain.StatusConfirmed:
		ev.Kind = domain.NotifyDigitalOrderConfirmed
	case req.Kind == domain.KindDigital && req.Status == domain.StatusCompleted:
		ev.Kind = domain.NotifyDigitalOrderCompleted
		ev.DownloadURL = m.downloadURL(order.ID, result.DownloadToken)
		ev.ExpiresAt = result.TokenExpiresAt
	default:
		// Cancellations and deliveries do not email the buyer.
		return domain.NotificationEvent{}, false
	}

	return ev, true
}
