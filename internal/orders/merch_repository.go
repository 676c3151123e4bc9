package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/viveo-rs/viveo-backend/internal/domain"
	"github.com/viveo-rs/viveo-backend/internal/lifecycle"
)

type MerchOrderRepository struct {
	db *sql.DB
}

func NewMerchOrderRepository(db *sql.DB) *MerchOrderRepository {
	return &MerchOrderRepository{db: db}
}

func (r *MerchOrderRepository) Create(ctx context.Context, order *domain.MerchOrder) error {
	order.ID = uuid.New().String()
	order.Status = domain.StatusPending
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO merch_orders (id, buyer_id, celebrity_id, product_id, product_variant_id,
			quantity, unit_price, total_price, buyer_name, buyer_email, buyer_phone,
			shipping_name, shipping_address, shipping_city, shipping_postal, shipping_note,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
	`, order.ID, order.BuyerID, order.CelebrityID, order.ProductID, order.VariantID,
		order.Quantity, order.UnitPrice, order.TotalPrice, order.BuyerName, order.BuyerEmail, order.BuyerPhone,
		order.ShippingName, order.ShippingAddress, order.ShippingCity, order.ShippingPostal, order.ShippingNote,
		order.Status, order.CreatedAt)
	return err
}

// MerchOrderRow is the buyer-facing listing of a merch order.
type MerchOrderRow struct {
	ID             string        `json:"id"`
	ProductName    string        `json:"product_name"`
	ProductSlug    string        `json:"product_slug"`
	VariantName    *string       `json:"variant_name,omitempty"`
	CelebrityName  string        `json:"celebrity_name"`
	CelebritySlug  string        `json:"celebrity_slug"`
	Quantity       int           `json:"quantity"`
	UnitPrice      int64         `json:"unit_price"`
	TotalPrice     int64         `json:"total_price"`
	Status         domain.Status `json:"status"`
	ShippingCity   string        `json:"shipping_city"`
	TrackingNumber *string       `json:"tracking_number,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

const merchOrderRowQuery = `
	SELECT mo.id, p.name, p.slug, pv.name, c.name, c.slug,
		mo.quantity, mo.unit_price, mo.total_price, mo.status,
		mo.shipping_city, mo.tracking_number, mo.created_at
	FROM merch_orders mo
	JOIN products p ON p.id = mo.product_id
	LEFT JOIN product_variants pv ON pv.id = mo.product_variant_id
	JOIN celebrities c ON c.id = mo.celebrity_id`

func scanMerchOrderRow(s interface{ Scan(...any) error }) (MerchOrderRow, error) {
	var row MerchOrderRow
	err := s.Scan(&row.ID, &row.ProductName, &row.ProductSlug, &row.VariantName,
		&row.CelebrityName, &row.CelebritySlug, &row.Quantity, &row.UnitPrice,
		&row.TotalPrice, &row.Status, &row.ShippingCity, &row.TrackingNumber, &row.CreatedAt)
	return row, err
}

func (r *MerchOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]MerchOrderRow, error) {
	rows, err := r.db.QueryContext(ctx, merchOrderRowQuery+`
		WHERE mo.buyer_id = $1
		ORDER BY mo.created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []MerchOrderRow{}
	for rows.Next() {
		row, err := scanMerchOrderRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (r *MerchOrderRepository) GetForBuyer(ctx context.Context, id, buyerID string) (*MerchOrderRow, error) {
	row, err := scanMerchOrderRow(r.db.QueryRowContext(ctx, merchOrderRowQuery+`
		WHERE mo.id = $1 AND mo.buyer_id = $2
	`, id, buyerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// SellerMerchOrderRow is the dashboard view of a merch order, with the
// shipping details a seller needs to fulfil it.
type SellerMerchOrderRow struct {
	ID              string        `json:"id"`
	ProductName     string        `json:"product_name"`
	VariantName     *string       `json:"variant_name,omitempty"`
	BuyerName       string        `json:"buyer_name"`
	Quantity        int           `json:"quantity"`
	TotalPrice      int64         `json:"total_price"`
	Status          domain.Status `json:"status"`
	ShippingName    string        `json:"shipping_name"`
	ShippingAddress string        `json:"shipping_address"`
	ShippingCity    string        `json:"shipping_city"`
	ShippingPostal  string        `json:"shipping_postal"`
	ShippingNote    string        `json:"shipping_note"`
	TrackingNumber  *string       `json:"tracking_number,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (r *MerchOrderRepository) ListForCelebrity(ctx context.Context, celebrityID string, status domain.Status) ([]SellerMerchOrderRow, error) {
	query := `
		SELECT mo.id, p.name, pv.name, mo.buyer_name, mo.quantity, mo.total_price, mo.status,
			mo.shipping_name, mo.shipping_address, mo.shipping_city, mo.shipping_postal,
			mo.shipping_note, mo.tracking_number, mo.created_at
		FROM merch_orders mo
		JOIN products p ON p.id = mo.product_id
		LEFT JOIN product_variants pv ON pv.id = mo.product_variant_id
		WHERE mo.celebrity_id = $1`
	args := []any{celebrityID}

	if status != "" {
		query += ` AND mo.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY mo.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []SellerMerchOrderRow{}
	for rows.Next() {
		var row SellerMerchOrderRow
		if err := rows.Scan(&row.ID, &row.ProductName, &row.VariantName, &row.BuyerName,
			&row.Quantity, &row.TotalPrice, &row.Status, &row.ShippingName, &row.ShippingAddress,
			&row.ShippingCity, &row.ShippingPostal, &row.ShippingNote, &row.TrackingNumber,
			&row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (r *MerchOrderRepository) Lifecycle(ctx context.Context, id string) (lifecycle.Order, error) {
	var o lifecycle.Order
	var variantName *string
	err := r.db.QueryRowContext(ctx, `
		SELECT mo.id, mo.celebrity_id, mo.status, mo.buyer_name, mo.buyer_email,
			c.name, p.name, pv.name, mo.product_variant_id, mo.quantity
		FROM merch_orders mo
		JOIN celebrities c ON c.id = mo.celebrity_id
		JOIN products p ON p.id = mo.product_id
		LEFT JOIN product_variants pv ON pv.id = mo.product_variant_id
		WHERE mo.id = $1
	`, id).Scan(&o.ID, &o.SellerID, &o.Status, &o.BuyerName, &o.BuyerEmail,
		&o.StarName, &o.ProductName, &variantName, &o.VariantID, &o.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o, lifecycle.ErrNotFound
		}
		return o, err
	}
	if variantName != nil {
		o.VariantName = *variantName
	}
	return o, nil
}

func (r *MerchOrderRepository) Apply(ctx context.Context, id string, u lifecycle.Update) error {
	var confirmedAt, shippedAt, deliveredAt *time.Time
	switch u.Status {
	case domain.StatusConfirmed:
		confirmedAt = &u.At
	case domain.StatusShipped:
		shippedAt = &u.At
	case domain.StatusDelivered:
		deliveredAt = &u.At
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE merch_orders
		SET status = $1, updated_at = $2,
			confirmed_at = COALESCE($3, confirmed_at),
			shipped_at = COALESCE($4, shipped_at),
			delivered_at = COALESCE($5, delivered_at),
			tracking_number = COALESCE($6, tracking_number)
		WHERE id = $7 AND status = $8
	`, u.Status, u.At, confirmedAt, shippedAt, deliveredAt, u.TrackingNumber, id, u.FromStatus)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}
