package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeOrders struct {
	order    Order
	loadErr  error
	applyErr error

	appliedKind domain.OrderKind
	appliedID   string
	applied     *Update
}

func (f *fakeOrders) Lifecycle(_ context.Context, _ domain.OrderKind, _ string) (Order, error) {
	return f.order, f.loadErr
}

func (f *fakeOrders) Apply(_ context.Context, kind domain.OrderKind, id string, u Update) error {
	f.appliedKind = kind
	f.appliedID = id
	f.applied = &u
	return f.applyErr
}

type fakeInventory struct {
	releasedVariant  string
	releasedQuantity int
	reservedVariant  string
	reservedQuantity int
	releaseErr       error
	reserveErr       error
}

func (f *fakeInventory) Release(_ context.Context, variantID string, quantity int) error {
	f.releasedVariant = variantID
	f.releasedQuantity = quantity
	return f.releaseErr
}

func (f *fakeInventory) Reserve(_ context.Context, variantID string, quantity int) error {
	f.reservedVariant = variantID
	f.reservedQuantity = quantity
	return f.reserveErr
}

type fakePublisher struct {
	events []domain.NotificationEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev domain.NotificationEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func testOrder(kind domain.OrderKind, status domain.Status) Order {
	return Order{
		ID:         gofakeit.UUID(),
		SellerID:   gofakeit.UUID(),
		Status:     status,
		BuyerName:  gofakeit.Name(),
		BuyerEmail: gofakeit.Email(),
		StarName:   gofakeit.Name(),
	}
}

func newTestManager(o *fakeOrders, inv *fakeInventory, pub *fakePublisher, now time.Time) *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	downloadURL := func(orderID, token string) string {
		return "https://api.example.com/api/digital-orders/" + orderID + "/download?token=" + token
	}
	m := NewManager(o, inv, pub, downloadURL, logger)
	m.now = func() time.Time { return now }
	return m
}

func TestTransitionApprovesVideoOrder(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fo := &fakeOrders{order: testOrder(domain.KindVideo, domain.StatusPending)}
	pub := &fakePublisher{}
	m := newTestManager(fo, &fakeInventory{}, pub, now)

	result, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindVideo,
		OrderID:  fo.order.ID,
		SellerID: fo.order.SellerID,
		Status:   domain.StatusApproved,
	})
	require.NoError(t, err)

	assert.Equal(t, fo.order.ID, result.ID)
	assert.Equal(t, domain.StatusApproved, result.Status)
	require.NotNil(t, fo.applied)
	assert.Equal(t, domain.StatusPending, fo.applied.FromStatus)
	assert.Equal(t, domain.StatusApproved, fo.applied.Status)
	assert.Equal(t, now, fo.applied.At)

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.NotifyRequestApproved, pub.events[0].Kind)
	assert.Equal(t, fo.order.BuyerEmail, pub.events[0].To)
}

func TestTransitionRejectsInvalidMove(t *testing.T) {
	fo := &fakeOrders{order: testOrder(domain.KindVideo, domain.StatusPending)}
	m := newTestManager(fo, &fakeInventory{}, &fakePublisher{}, time.Now())

	_, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindVideo,
		OrderID:  fo.order.ID,
		SellerID: fo.order.SellerID,
		Status:   domain.StatusCompleted,
	})

	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.StatusPending, invalid.From)
	assert.Equal(t, domain.StatusCompleted, invalid.To)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Nil(t, fo.applied, "invalid transitions must not be persisted")
}

func TestTransitionHidesForeignOrders(t *testing.T) {
	fo := &fakeOrders{order: testOrder(domain.KindVideo, domain.StatusPending)}
	m := newTestManager(fo, &fakeInventory{}, &fakePublisher{}, time.Now())

	_, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindVideo,
		OrderID:  fo.order.ID,
		SellerID: gofakeit.UUID(),
		Status:   domain.StatusApproved,
	})

	assert.ErrorIs(t, err, ErrNotFound, "foreign orders must read as not found, not forbidden")
	assert.Nil(t, fo.applied)
}

func TestTransitionIssuesDownloadToken(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fo := &fakeOrders{order: testOrder(domain.KindDigital, domain.StatusConfirmed)}
	pub := &fakePublisher{}
	m := newTestManager(fo, &fakeInventory{}, pub, now)

	result, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindDigital,
		OrderID:  fo.order.ID,
		SellerID: fo.order.SellerID,
		Status:   domain.StatusCompleted,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.DownloadToken)
	require.NotNil(t, result.TokenExpiresAt)
	assert.Equal(t, now.Add(7*24*time.Hour), *result.TokenExpiresAt)

	require.NotNil(t, fo.applied)
	require.NotNil(t, fo.applied.DownloadToken)
	assert.Equal(t, result.DownloadToken, *fo.applied.DownloadToken)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, domain.NotifyDigitalOrderCompleted, ev.Kind)
	assert.Contains(t, ev.DownloadURL, fo.order.ID)
	assert.Contains(t, ev.DownloadURL, result.DownloadToken)
	require.NotNil(t, ev.ExpiresAt)
	assert.Equal(t, *result.TokenExpiresAt, *ev.ExpiresAt)
}

func TestTransitionRecordsTrackingNumber(t *testing.T) {
	fo := &fakeOrders{order: testOrder(domain.KindMerch, domain.StatusConfirmed)}
	pub := &fakePublisher{}
	m := newTestManager(fo, &fakeInventory{}, pub, time.Now())

	tracking := "RR123456785RS"
	_, err := m.Transition(context.Background(), Request{
		Kind:           domain.KindMerch,
		OrderID:        fo.order.ID,
		SellerID:       fo.order.SellerID,
		Status:         domain.StatusShipped,
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)

	require.NotNil(t, fo.applied)
	require.NotNil(t, fo.applied.TrackingNumber)
	assert.Equal(t, tracking, *fo.applied.TrackingNumber)

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.NotifyMerchOrderShipped, pub.events[0].Kind)
	assert.Equal(t, tracking, pub.events[0].TrackingNumber)
}

func TestTransitionRestoresStockOnMerchCancel(t *testing.T) {
	variantID := gofakeit.UUID()
	order := testOrder(domain.KindMerch, domain.StatusPending)
	order.VariantID = &variantID
	order.Quantity = 3

	fo := &fakeOrders{order: order}
	inv := &fakeInventory{}
	pub := &fakePublisher{}
	m := newTestManager(fo, inv, pub, time.Now())

	_, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindMerch,
		OrderID:  order.ID,
		SellerID: order.SellerID,
		Status:   domain.StatusCancelled,
	})
	require.NoError(t, err)

	assert.Equal(t, variantID, inv.releasedVariant)
	assert.Equal(t, 3, inv.releasedQuantity)
	assert.Empty(t, inv.reservedVariant, "a committed cancel must not take stock back")
	assert.Empty(t, pub.events, "cancellations do not email the buyer")
}

func TestTransitionCancelReleasesBeforeCommit(t *testing.T) {
	// Stock must already be back before the order reads as cancelled, so a
	// failed restore never strands the units on a terminal order.
	variantID := gofakeit.UUID()
	order := testOrder(domain.KindMerch, domain.StatusPending)
	order.VariantID = &variantID
	order.Quantity = 4

	fo := &fakeOrders{order: order}
	inv := &fakeInventory{releaseErr: errors.New("connection reset")}
	m := newTestManager(fo, inv, &fakePublisher{}, time.Now())

	_, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindMerch,
		OrderID:  order.ID,
		SellerID: order.SellerID,
		Status:   domain.StatusCancelled,
	})

	require.Error(t, err)
	assert.Nil(t, fo.applied, "the order must stay cancellable when the restore fails")
}

func TestTransitionSkipsRestoreWithoutVariant(t *testing.T) {
	fo := &fakeOrders{order: testOrder(domain.KindMerch, domain.StatusPending)}
	inv := &fakeInventory{}
	m := newTestManager(fo, inv, &fakePublisher{}, time.Now())

	_, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindMerch,
		OrderID:  fo.order.ID,
		SellerID: fo.order.SellerID,
		Status:   domain.StatusCancelled,
	})
	require.NoError(t, err)
	assert.Empty(t, inv.releasedVariant)
}

func TestTransitionConcurrentConflictReadsAsNotFound(t *testing.T) {
	// A second cancel of the same order loses the conditional update; its
	// early release is taken back so the net stock movement is zero.
	variantID := gofakeit.UUID()
	order := testOrder(domain.KindMerch, domain.StatusPending)
	order.VariantID = &variantID
	order.Quantity = 2

	fo := &fakeOrders{order: order, applyErr: ErrNotFound}
	inv := &fakeInventory{}
	m := newTestManager(fo, inv, &fakePublisher{}, time.Now())

	_, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindMerch,
		OrderID:  order.ID,
		SellerID: order.SellerID,
		Status:   domain.StatusCancelled,
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, variantID, inv.reservedVariant, "the losing cancel must compensate its release")
	assert.Equal(t, inv.releasedQuantity, inv.reservedQuantity)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	fo := &fakeOrders{order: testOrder(domain.KindVideo, domain.StatusPending)}
	m := newTestManager(fo, &fakeInventory{}, &fakePublisher{}, time.Now())

	_, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindVideo,
		OrderID:  fo.order.ID,
		SellerID: fo.order.SellerID,
		Status:   domain.Status("teleported"),
	})

	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.Status("teleported"), invalid.To)
	assert.Nil(t, fo.applied)
}

func TestTransitionPublishFailureDoesNotFail(t *testing.T) {
	fo := &fakeOrders{order: testOrder(domain.KindVideo, domain.StatusApproved)}
	pub := &fakePublisher{err: errors.New("broker unreachable")}
	m := newTestManager(fo, &fakeInventory{}, pub, time.Now())

	result, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindVideo,
		OrderID:  fo.order.ID,
		SellerID: fo.order.SellerID,
		Status:   domain.StatusCompleted,
	})

	require.NoError(t, err, "notification delivery is best-effort")
	assert.Equal(t, domain.StatusCompleted, result.Status)
}

func TestTransitionDeliveredIsSilent(t *testing.T) {
	fo := &fakeOrders{order: testOrder(domain.KindMerch, domain.StatusShipped)}
	pub := &fakePublisher{}
	m := newTestManager(fo, &fakeInventory{}, pub, time.Now())

	_, err := m.Transition(context.Background(), Request{
		Kind:     domain.KindMerch,
		OrderID:  fo.order.ID,
		SellerID: fo.order.SellerID,
		Status:   domain.StatusDelivered,
	})
	require.NoError(t, err)
	assert.Empty(t, pub.events)
}
