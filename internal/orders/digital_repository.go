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

type DigitalOrderRepository struct {
	db *sql.DB
}

func NewDigitalOrderRepository(db *sql.DB) *DigitalOrderRepository {
	return &DigitalOrderRepository{db: db}
}

func (r *DigitalOrderRepository) Create(ctx context.Context, order *domain.DigitalOrder) error {
	order.ID = uuid.New().String()
	order.Status = domain.StatusPending
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO digital_orders (id, buyer_id, celebrity_id, digital_product_id, price,
			buyer_name, buyer_email, buyer_phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, order.ID, order.BuyerID, order.CelebrityID, order.ProductID, order.Price,
		order.BuyerName, order.BuyerEmail, order.BuyerPhone, order.Status, order.CreatedAt)
	return err
}

// DigitalOrderRow is the buyer-facing listing of a digital order.
type DigitalOrderRow struct {
	ID             string        `json:"id"`
	ProductName    string        `json:"product_name"`
	ProductSlug    string        `json:"product_slug"`
	CelebrityName  string        `json:"celebrity_name"`
	CelebritySlug  string        `json:"celebrity_slug"`
	FileType       string        `json:"file_type"`
	FileSize       int64         `json:"file_size"`
	Price          int64         `json:"price"`
	Status         domain.Status `json:"status"`
	DownloadToken  *string       `json:"download_token,omitempty"`
	TokenExpiresAt *time.Time    `json:"download_token_expires_at,omitempty"`
	DownloadCount  int           `json:"download_count"`
	CreatedAt      time.Time     `json:"created_at"`
}

const digitalOrderRowQuery = `
	SELECT do_.id, dp.name, dp.slug, c.name, c.slug, dp.file_type, dp.file_size,
		do_.price, do_.status, do_.download_token, do_.download_token_expires_at,
		do_.download_count, do_.created_at
	FROM digital_orders do_
	JOIN digital_products dp ON dp.id = do_.digital_product_id
	JOIN celebrities c ON c.id = do_.celebrity_id`

func scanDigitalOrderRow(s interface{ Scan(...any) error }) (DigitalOrderRow, error) {
	var row DigitalOrderRow
	err := s.Scan(&row.ID, &row.ProductName, &row.ProductSlug, &row.CelebrityName, &row.CelebritySlug,
		&row.FileType, &row.FileSize, &row.Price, &row.Status, &row.DownloadToken,
		&row.TokenExpiresAt, &row.DownloadCount, &row.CreatedAt)
	return row, err
}

func (r *DigitalOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]DigitalOrderRow, error) {
	rows, err := r.db.QueryContext(ctx, digitalOrderRowQuery+`
		WHERE do_.buyer_id = $1
		ORDER BY do_.created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []DigitalOrderRow{}
	for rows.Next() {
		row, err := scanDigitalOrderRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (r *DigitalOrderRepository) GetForBuyer(ctx context.Context, id, buyerID string) (*DigitalOrderRow, error) {
	row, err := scanDigitalOrderRow(r.db.QueryRowContext(ctx, digitalOrderRowQuery+`
		WHERE do_.id = $1 AND do_.buyer_id = $2
	`, id, buyerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// SellerDigitalOrderRow is the dashboard view of a digital order.
type SellerDigitalOrderRow struct {
	ID          string        `json:"id"`
	ProductName string        `json:"product_name"`
	BuyerName   string        `json:"buyer_name"`
	Price       int64         `json:"price"`
	Status      domain.Status `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (r *DigitalOrderRepository) ListForCelebrity(ctx context.Context, celebrityID string, status domain.Status) ([]SellerDigitalOrderRow, error) {
	query := `
		SELECT do_.id, dp.name, do_.buyer_name, do_.price, do_.status, do_.created_at
		FROM digital_orders do_
		JOIN digital_products dp ON dp.id = do_.digital_product_id
		WHERE do_.celebrity_id = $1`
	args := []any{celebrityID}

	if status != "" {
		query += ` AND do_.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY do_.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []SellerDigitalOrderRow{}
	for rows.Next() {
		var row SellerDigitalOrderRow
		if err := rows.Scan(&row.ID, &row.ProductName, &row.BuyerName, &row.Price, &row.Status, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (r *DigitalOrderRepository) Lifecycle(ctx context.Context, id string) (lifecycle.Order, error) {
	var o lifecycle.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT do_.id, do_.celebrity_id, do_.status, do_.buyer_name, do_.buyer_email, c.name, dp.name
		FROM digital_orders do_
		JOIN celebrities c ON c.id = do_.celebrity_id
		JOIN digital_products dp ON dp.id = do_.digital_product_id
		WHERE do_.id = $1
	`, id).Scan(&o.ID, &o.SellerID, &o.Status, &o.BuyerName, &o.BuyerEmail, &o.StarName, &o.ProductName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o, lifecycle.ErrNotFound
		}
		return o, err
	}
	return o, nil
}

func (r *DigitalOrderRepository) Apply(ctx context.Context, id string, u lifecycle.Update) error {
	var confirmedAt, completedAt *time.Time
	switch u.Status {
	case domain.StatusConfirmed:
		confirmedAt = &u.At
	case domain.StatusCompleted:
		completedAt = &u.At
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE digital_orders
		SET status = $1, updated_at = $2,
			confirmed_at = COALESCE($3, confirmed_at),
			completed_at = COALESCE($4, completed_at),
			download_token = COALESCE($5, download_token),
			download_token_expires_at = COALESCE($6, download_token_expires_at)
		WHERE id = $7 AND status = $8
	`, u.Status, u.At, confirmedAt, completedAt, u.DownloadToken, u.TokenExpiresAt, id, u.FromStatus)
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

// Download is the slice of a completed digital order needed to serve a
// token-gated download.
type Download struct {
	OrderID        string
	ProductID      string
	FilePath       string
	FileName       string
	TokenExpiresAt time.Time
	DownloadCount  int
}

// GetDownload resolves a token-gated download: the order must match the
// token and be completed. Expiry is checked by the caller so it can
// answer with a dedicated expired response.
func (r *DigitalOrderRepository) GetDownload(ctx context.Context, id, token string) (*Download, error) {
	d := &Download{}
	err := r.db.QueryRowContext(ctx, `
		SELECT do_.id, dp.id, dp.file_path, dp.file_name, do_.download_token_expires_at, do_.download_count
		FROM digital_orders do_
		JOIN digital_products dp ON dp.id = do_.digital_product_id
		WHERE do_.id = $1 AND do_.download_token = $2 AND do_.status = $3
	`, id, token, domain.StatusCompleted).Scan(&d.OrderID, &d.ProductID, &d.FilePath, &d.FileName,
		&d.TokenExpiresAt, &d.DownloadCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// IncrementDownloadCounts bumps the counters on both the order and the
// product. Best-effort; the caller logs and moves on.
func (r *DigitalOrderRepository) IncrementDownloadCounts(ctx context.Context, orderID, productID string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE digital_orders SET download_count = download_count + 1 WHERE id = $1
	`, orderID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE digital_products SET download_count = download_count + 1 WHERE id = $1
	`, productID)
	return err
}
