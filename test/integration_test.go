//go:build integration

package test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viveo-rs/viveo-backend/internal/catalog"
	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/inventory"
	"github.com/viveo-rs/viveo-backend/internal/lifecycle"
	"github.com/viveo-rs/viveo-backend/internal/orders"
)

type fixture struct {
	db        *sql.DB
	catalog   *catalog.Repository
	inventory *inventory.Repository
	video     *orders.VideoOrderRepository
	merch     *orders.MerchOrderRepository
	digital   *orders.DigitalOrderRepository
	manager   *lifecycle.Manager

	celebrityID string
}

func newFixture(ctx context.Context, t *testing.T) *fixture {
	t.Helper()

	db := SetupPostgres(ctx, t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		db:        db,
		catalog:   catalog.NewRepository(db),
		inventory: inventory.NewRepository(db),
		video:     orders.NewVideoOrderRepository(db),
		merch:     orders.NewMerchOrderRepository(db),
		digital:   orders.NewDigitalOrderRepository(db),
	}
	f.manager = lifecycle.NewManager(
		orders.NewLifecycleStore(f.video, f.merch, f.digital),
		f.inventory,
		nil,
		func(orderID, token string) string {
			return fmt.Sprintf("http://localhost:8080/api/digital-orders/%s/download?token=%s", orderID, token)
		},
		logger,
	)

	f.celebrityID = f.seedCelebrity(ctx, t)
	return f
}

func (f *fixture) seedCelebrity(ctx context.Context, t *testing.T) string {
	t.Helper()

	profileID := uuid.NewString()
	_, err := f.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name) VALUES ($1, $2, $3)
	`, profileID, gofakeit.Email(), gofakeit.Name())
	require.NoError(t, err)

	celebrityID := uuid.NewString()
	_, err = f.db.ExecContext(ctx, `
		INSERT INTO celebrities (id, profile_id, name, slug, price)
		VALUES ($1, $2, $3, $4, $5)
	`, celebrityID, profileID, gofakeit.Name(), uuid.NewString(), int64(500000))
	require.NoError(t, err)

	return celebrityID
}

func (f *fixture) seedVariant(ctx context.Context, t *testing.T, stock int) (productID, variantID string) {
	t.Helper()

	productID = uuid.NewString()
	_, err := f.db.ExecContext(ctx, `
		INSERT INTO products (id, celebrity_id, name, slug, price)
		VALUES ($1, $2, $3, $4, $5)
	`, productID, f.celebrityID, gofakeit.ProductName(), uuid.NewString(), int64(250000))
	require.NoError(t, err)

	variantID = uuid.NewString()
	_, err = f.db.ExecContext(ctx, `
		INSERT INTO product_variants (id, product_id, name, stock)
		VALUES ($1, $2, 'M', $3)
	`, variantID, productID, stock)
	require.NoError(t, err)

	return productID, variantID
}

func (f *fixture) seedDigitalProduct(ctx context.Context, t *testing.T) string {
	t.Helper()

	id := uuid.NewString()
	_, err := f.db.ExecContext(ctx, `
		INSERT INTO digital_products (id, celebrity_id, name, slug, price, file_path, file_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, f.celebrityID, gofakeit.ProductName(), uuid.NewString(), int64(99900),
		f.celebrityID+"/guide.pdf", "guide.pdf")
	require.NoError(t, err)

	return id
}

func (f *fixture) createMerchOrder(ctx context.Context, t *testing.T, productID, variantID string, quantity int) *domain.MerchOrder {
	t.Helper()

	order := &domain.MerchOrder{
		BuyerID:         uuid.NewString(),
		CelebrityID:     f.celebrityID,
		ProductID:       productID,
		VariantID:       &variantID,
		Quantity:        quantity,
		UnitPrice:       250000,
		TotalPrice:      int64(quantity) * 250000,
		BuyerName:       gofakeit.Name(),
		BuyerEmail:      gofakeit.Email(),
		ShippingName:    gofakeit.Name(),
		ShippingAddress: gofakeit.Street(),
		ShippingCity:    gofakeit.City(),
		ShippingPostal:  gofakeit.Zip(),
	}
	require.NoError(t, f.merch.Create(ctx, order))
	return order
}

func TestReserveIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)
	_, variantID := f.seedVariant(ctx, t, 3)

	require.NoError(t, f.inventory.Reserve(ctx, variantID, 2))

	err := f.inventory.Reserve(ctx, variantID, 2)
	var stockErr *inventory.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.ErrorIs(t, err, inventory.ErrOutOfStock)

	require.NoError(t, f.inventory.Release(ctx, variantID, 2))
	require.NoError(t, f.inventory.Reserve(ctx, variantID, 2))

	stock, err := f.inventory.Stock(ctx, variantID)
	require.NoError(t, err)
	assert.Equal(t, 1, stock)
}

func TestReserveLastUnitAdmitsOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)
	_, variantID := f.seedVariant(ctx, t, 1)

	const buyers = 8
	results := make([]error, buyers)

	var wg sync.WaitGroup
	for i := range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.inventory.Reserve(ctx, variantID, 1)
		}()
	}
	wg.Wait()

	won := 0
	for _, err := range results {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, inventory.ErrOutOfStock)
	}
	assert.Equal(t, 1, won)

	stock, err := f.inventory.Stock(ctx, variantID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)
	productID, variantID := f.seedVariant(ctx, t, 5)

	require.NoError(t, f.inventory.Reserve(ctx, variantID, 2))
	order := f.createMerchOrder(ctx, t, productID, variantID, 2)

	result, err := f.manager.Transition(ctx, lifecycle.Request{
		Kind:     domain.KindMerch,
		OrderID:  order.ID,
		SellerID: f.celebrityID,
		Status:   domain.StatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, result.Status)

	stock, err := f.inventory.Stock(ctx, variantID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock)

	// The status guard makes a second cancel read as not found, so stock
	// is never restored twice.
	_, err = f.manager.Transition(ctx, lifecycle.Request{
		Kind:     domain.KindMerch,
		OrderID:  order.ID,
		SellerID: f.celebrityID,
		Status:   domain.StatusCancelled,
	})
	require.ErrorIs(t, err, lifecycle.ErrNotFound)

	stock, err = f.inventory.Stock(ctx, variantID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock)
}

func TestMerchShipmentFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)
	productID, variantID := f.seedVariant(ctx, t, 5)
	order := f.createMerchOrder(ctx, t, productID, variantID, 1)

	_, err := f.manager.Transition(ctx, lifecycle.Request{
		Kind: domain.KindMerch, OrderID: order.ID, SellerID: f.celebrityID,
		Status: domain.StatusConfirmed,
	})
	require.NoError(t, err)

	tracking := "PE123456789RS"
	_, err = f.manager.Transition(ctx, lifecycle.Request{
		Kind: domain.KindMerch, OrderID: order.ID, SellerID: f.celebrityID,
		Status: domain.StatusShipped, TrackingNumber: &tracking,
	})
	require.NoError(t, err)

	row, err := f.merch.GetForBuyer(ctx, order.ID, order.BuyerID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, domain.StatusShipped, row.Status)
	require.NotNil(t, row.TrackingNumber)
	assert.Equal(t, tracking, *row.TrackingNumber)
}

func TestVideoOrderRejectsSkippedStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)

	videoTypeID := uuid.NewString()
	_, err := f.db.ExecContext(ctx, `
		INSERT INTO video_types (id, celebrity_id, title) VALUES ($1, $2, 'Birthday greeting')
	`, videoTypeID, f.celebrityID)
	require.NoError(t, err)

	order := &domain.VideoOrder{
		BuyerID:       uuid.NewString(),
		CelebrityID:   f.celebrityID,
		VideoTypeID:   videoTypeID,
		BuyerName:     gofakeit.Name(),
		BuyerEmail:    gofakeit.Email(),
		RecipientName: gofakeit.FirstName(),
		Instructions:  gofakeit.Sentence(8),
		Price:         500000,
		Deadline:      time.Now().UTC().Add(72 * time.Hour),
	}
	require.NoError(t, f.video.Create(ctx, order))

	_, err = f.manager.Transition(ctx, lifecycle.Request{
		Kind: domain.KindVideo, OrderID: order.ID, SellerID: f.celebrityID,
		Status: domain.StatusCompleted,
	})
	var invalid *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.StatusPending, invalid.From)
	assert.Equal(t, domain.StatusCompleted, invalid.To)

	// A foreign seller cannot even learn the order exists.
	_, err = f.manager.Transition(ctx, lifecycle.Request{
		Kind: domain.KindVideo, OrderID: order.ID, SellerID: uuid.NewString(),
		Status: domain.StatusApproved,
	})
	require.ErrorIs(t, err, lifecycle.ErrNotFound)
}

func TestDigitalOrderDownloadToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)
	productID := f.seedDigitalProduct(ctx, t)

	order := &domain.DigitalOrder{
		BuyerID:     uuid.NewString(),
		CelebrityID: f.celebrityID,
		ProductID:   productID,
		Price:       99900,
		BuyerName:   gofakeit.Name(),
		BuyerEmail:  gofakeit.Email(),
	}
	require.NoError(t, f.digital.Create(ctx, order))

	_, err := f.manager.Transition(ctx, lifecycle.Request{
		Kind: domain.KindDigital, OrderID: order.ID, SellerID: f.celebrityID,
		Status: domain.StatusConfirmed,
	})
	require.NoError(t, err)

	result, err := f.manager.Transition(ctx, lifecycle.Request{
		Kind: domain.KindDigital, OrderID: order.ID, SellerID: f.celebrityID,
		Status: domain.StatusCompleted,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.DownloadToken)
	require.NotNil(t, result.TokenExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), *result.TokenExpiresAt, time.Minute)

	download, err := f.digital.GetDownload(ctx, order.ID, result.DownloadToken)
	require.NoError(t, err)
	require.NotNil(t, download)
	assert.Equal(t, "guide.pdf", download.FileName)

	require.NoError(t, f.digital.IncrementDownloadCounts(ctx, download.OrderID, download.ProductID))
	download, err = f.digital.GetDownload(ctx, order.ID, result.DownloadToken)
	require.NoError(t, err)
	require.NotNil(t, download)
	assert.Equal(t, 1, download.DownloadCount)

	// A wrong token reads the same as a missing order.
	download, err = f.digital.GetDownload(ctx, order.ID, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, download)
}

func TestProductLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)

	product := &domain.Product{
		CelebrityID: f.celebrityID,
		Name:        "Signed Jersey 2026",
		Description: gofakeit.Sentence(6),
		Price:       250000,
	}
	require.NoError(t, f.catalog.CreateProduct(ctx, product))
	assert.Equal(t, "signed-jersey-2026", product.Slug)
	assert.True(t, product.IsActive)

	variant := &domain.ProductVariant{ProductID: product.ID, Name: "M", Stock: 10}
	require.NoError(t, f.catalog.AddVariant(ctx, variant))

	listed, err := f.catalog.ListProducts(ctx, catalog.ProductFilter{Search: "Jersey"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 1, listed[0].VariantCount)
	assert.Equal(t, 10, listed[0].TotalStock)

	detail, err := f.catalog.ProductBySlug(ctx, product.Slug)
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Len(t, detail.Variants, 1)
	assert.Equal(t, "M", detail.Variants[0].Name)

	// A second product with the same name gets a suffixed slug.
	twin := &domain.Product{CelebrityID: f.celebrityID, Name: "Signed Jersey 2026", Price: 250000}
	require.NoError(t, f.catalog.CreateProduct(ctx, twin))
	assert.NotEqual(t, product.Slug, twin.Slug)
	assert.Contains(t, twin.Slug, "signed-jersey-2026-")

	// The stock written here is what the order ledger starts from.
	newStock := 3
	updated, err := f.catalog.UpdateVariant(ctx, variant.ID, product.ID, catalog.VariantUpdate{Stock: &newStock})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 3, updated.Stock)

	stock, err := f.inventory.Stock(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stock)

	// Deactivating hides the product from the store but not the dashboard.
	inactive := false
	require.NoError(t, f.catalog.UpdateProduct(ctx, product.ID, f.celebrityID, catalog.ProductUpdate{IsActive: &inactive}))

	detail, err = f.catalog.ProductBySlug(ctx, product.Slug)
	require.NoError(t, err)
	assert.Nil(t, detail)

	mine, err := f.catalog.ListProductsForCelebrity(ctx, f.celebrityID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	// A foreign seller cannot edit the product.
	err = f.catalog.UpdateProduct(ctx, product.ID, uuid.NewString(), catalog.ProductUpdate{IsActive: &inactive})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestVariantDeleteBlockedByOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)
	productID, variantID := f.seedVariant(ctx, t, 5)

	require.NoError(t, f.inventory.Reserve(ctx, variantID, 1))
	f.createMerchOrder(ctx, t, productID, variantID, 1)

	err := f.catalog.DeleteVariant(ctx, variantID, productID)
	require.ErrorIs(t, err, catalog.ErrVariantHasOrders)

	spare := &domain.ProductVariant{ProductID: productID, Name: "L", Stock: 2}
	require.NoError(t, f.catalog.AddVariant(ctx, spare))
	require.NoError(t, f.catalog.DeleteVariant(ctx, spare.ID, productID))

	err = f.catalog.DeleteVariant(ctx, spare.ID, productID)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAvailabilityUpsert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)

	require.NoError(t, f.catalog.UpsertAvailability(ctx, f.celebrityID, []catalog.SlotUpdate{
		{DayOfWeek: 1, Available: true, MaxRequests: 5},
		{DayOfWeek: 5, Available: false, MaxRequests: 0},
	}))

	slots, err := f.catalog.AvailabilityFor(ctx, f.celebrityID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 1, slots[0].DayOfWeek)
	assert.True(t, slots[0].Available)
	assert.Equal(t, 5, slots[0].MaxRequests)
	assert.Equal(t, 5, slots[1].DayOfWeek)
	assert.False(t, slots[1].Available)

	// Writing the same weekday again updates in place.
	require.NoError(t, f.catalog.UpsertAvailability(ctx, f.celebrityID, []catalog.SlotUpdate{
		{DayOfWeek: 1, Available: false, MaxRequests: 2},
	}))

	slots, err = f.catalog.AvailabilityFor(ctx, f.celebrityID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.False(t, slots[0].Available)
	assert.Equal(t, 2, slots[0].MaxRequests)
}

func TestDigitalProductHiddenUntilFileUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(ctx, t)

	product := &domain.DigitalProduct{
		CelebrityID: f.celebrityID,
		Name:        "Training Plan",
		Price:       99900,
	}
	require.NoError(t, f.catalog.CreateDigitalProduct(ctx, product))

	listed, err := f.catalog.ListDigitalProducts(ctx, catalog.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed, "a product without a file is not sellable yet")

	mine, err := f.catalog.ListDigitalProductsForCelebrity(ctx, f.celebrityID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, f.catalog.SetDigitalFile(ctx, product.ID, f.celebrityID, catalog.DigitalFile{
		Path: f.celebrityID + "/" + product.ID + "/plan.pdf",
		Name: "plan.pdf",
		Type: "PDF",
		Size: 1 << 20,
	}))

	listed, err = f.catalog.ListDigitalProducts(ctx, catalog.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "PDF", listed[0].FileType)

	detail, err := f.catalog.DigitalProductBySlug(ctx, product.Slug)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "plan.pdf", detail.FileName)

	err = f.catalog.SetDigitalFile(ctx, product.ID, uuid.NewString(), catalog.DigitalFile{Path: "x", Name: "x", Type: "X"})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}
