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

type VideoOrderRepository struct {
	db *sql.DB
}

func NewVideoOrderRepository(db *sql.DB) *VideoOrderRepository {
	return &VideoOrderRepository{db: db}
}

func (r *VideoOrderRepository) Create(ctx context.Context, order *domain.VideoOrder) error {
	order.ID = uuid.New().String()
	order.Status = domain.StatusPending
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, celebrity_id, video_type_id, buyer_name, buyer_email,
			recipient_name, instructions, price, status, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`, order.ID, order.BuyerID, order.CelebrityID, order.VideoTypeID, order.BuyerName, order.BuyerEmail,
		order.RecipientName, order.Instructions, order.Price, order.Status, order.Deadline, order.CreatedAt)
	return err
}

// VideoOrderRow is a buyer-facing listing of a video order with the
// celebrity and video type joined in.
type VideoOrderRow struct {
	ID             string        `json:"id"`
	CelebrityName  string        `json:"celebrity_name"`
	CelebritySlug  string        `json:"celebrity_slug"`
	CelebrityImage string        `json:"celebrity_image"`
	VideoType      string        `json:"video_type"`
	Occasion       string        `json:"occasion"`
	RecipientName  string        `json:"recipient_name"`
	Instructions   string        `json:"instructions"`
	Price          int64         `json:"price"`
	Status         domain.Status `json:"status"`
	Deadline       time.Time     `json:"deadline"`
	VideoPath      *string       `json:"video_path,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (r *VideoOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]VideoOrderRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, c.name, c.slug, c.image, vt.title, vt.occasion,
			o.recipient_name, o.instructions, o.price, o.status, o.deadline, o.video_path, o.created_at
		FROM orders o
		JOIN celebrities c ON c.id = o.celebrity_id
		JOIN video_types vt ON vt.id = o.video_type_id
		WHERE o.buyer_id = $1
		ORDER BY o.created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []VideoOrderRow{}
	for rows.Next() {
		var row VideoOrderRow
		if err := rows.Scan(&row.ID, &row.CelebrityName, &row.CelebritySlug, &row.CelebrityImage,
			&row.VideoType, &row.Occasion, &row.RecipientName, &row.Instructions,
			&row.Price, &row.Status, &row.Deadline, &row.VideoPath, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (r *VideoOrderRepository) GetForBuyer(ctx context.Context, id, buyerID string) (*VideoOrderRow, error) {
	row := &VideoOrderRow{}
	err := r.db.QueryRowContext(ctx, `
		SELECT o.id, c.name, c.slug, c.image, vt.title, vt.occasion,
			o.recipient_name, o.instructions, o.price, o.status, o.deadline, o.video_path, o.created_at
		FROM orders o
		JOIN celebrities c ON c.id = o.celebrity_id
		JOIN video_types vt ON vt.id = o.video_type_id
		WHERE o.id = $1 AND o.buyer_id = $2
	`, id, buyerID).Scan(&row.ID, &row.CelebrityName, &row.CelebritySlug, &row.CelebrityImage,
		&row.VideoType, &row.Occasion, &row.RecipientName, &row.Instructions,
		&row.Price, &row.Status, &row.Deadline, &row.VideoPath, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

// RequestRow is the seller dashboard view of an incoming video request.
type RequestRow struct {
	ID            string        `json:"id"`
	BuyerName     string        `json:"buyer_name"`
	VideoType     string        `json:"video_type"`
	Occasion      string        `json:"occasion"`
	RecipientName string        `json:"recipient_name"`
	Instructions  string        `json:"instructions"`
	Price         int64         `json:"price"`
	Status        domain.Status `json:"status"`
	Deadline      time.Time     `json:"deadline"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (r *VideoOrderRepository) ListForCelebrity(ctx context.Context, celebrityID string, status domain.Status) ([]RequestRow, error) {
	query := `
		SELECT o.id, o.buyer_name, vt.title, vt.occasion, o.recipient_name, o.instructions,
			o.price, o.status, o.deadline, o.created_at
		FROM orders o
		JOIN video_types vt ON vt.id = o.video_type_id
		WHERE o.celebrity_id = $1`
	args := []any{celebrityID}

	if status != "" {
		query += ` AND o.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY o.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []RequestRow{}
	for rows.Next() {
		var row RequestRow
		if err := rows.Scan(&row.ID, &row.BuyerName, &row.VideoType, &row.Occasion, &row.RecipientName,
			&row.Instructions, &row.Price, &row.Status, &row.Deadline, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (r *VideoOrderRepository) Lifecycle(ctx context.Context, id string) (lifecycle.Order, error) {
	var o lifecycle.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT o.id, o.celebrity_id, o.status, o.buyer_name, o.buyer_email, c.name, vt.title
		FROM orders o
		JOIN celebrities c ON c.id = o.celebrity_id
		JOIN video_types vt ON vt.id = o.video_type_id
		WHERE o.id = $1
	`, id).Scan(&o.ID, &o.SellerID, &o.Status, &o.BuyerName, &o.BuyerEmail, &o.StarName, &o.ProductName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o, lifecycle.ErrNotFound
		}
		return o, err
	}
	return o, nil
}

func (r *VideoOrderRepository) Apply(ctx context.Context, id string, u lifecycle.Update) error {
	var completedAt *time.Time
	if u.Status == domain.StatusCompleted {
		completedAt = &u.At
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = $2, completed_at = COALESCE($3, completed_at)
		WHERE id = $4 AND status = $5
	`, u.Status, u.At, completedAt, id, u.FromStatus)
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

// SetVideoPath records the uploaded video's storage path for a request
// owned by the given celebrity.
func (r *VideoOrderRepository) SetVideoPath(ctx context.Context, id, celebrityID, path string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET video_path = $1, updated_at = $2
		WHERE id = $3 AND celebrity_id = $4
	`, path, time.Now().UTC(), id, celebrityID)
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
