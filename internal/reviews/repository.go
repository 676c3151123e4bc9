package reviews

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OrderForReview is the slice of a video order needed to authorize a
// review submission.
type OrderForReview struct {
	ID          string
	BuyerID     string
	CelebrityID string
	Status      domain.Status
}

func (r *Repository) OrderForReview(ctx context.Context, orderID string) (*OrderForReview, error) {
	o := &OrderForReview{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, buyer_id, celebrity_id, status FROM orders WHERE id = $1
	`, orderID).Scan(&o.ID, &o.BuyerID, &o.CelebrityID, &o.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// AuthorName returns the reviewer's display name, or empty when the
// profile is gone.
func (r *Repository) AuthorName(ctx context.Context, profileID string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `
		SELECT full_name FROM profiles WHERE id = $1
	`, profileID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}

// ExistsForOrder enforces the at-most-one-review-per-order rule by
// existence check, matching how the source system does it.
func (r *Repository) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE order_id = $1)
	`, orderID).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(ctx context.Context, review *domain.Review) error {
	review.ID = uuid.New().String()
	review.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, order_id, author_id, celebrity_id, rating, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, review.ID, review.OrderID, review.AuthorID, review.CelebrityID, review.Rating, review.Text, review.CreatedAt)
	return err
}

func (r *Repository) ListForCelebrity(ctx context.Context, celebrityID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rv.id, rv.order_id, rv.author_id, pr.full_name, rv.celebrity_id, rv.rating, rv.text, rv.created_at
		FROM reviews rv
		JOIN profiles pr ON pr.id = rv.author_id
		WHERE rv.celebrity_id = $1
		ORDER BY rv.created_at DESC
	`, celebrityID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.OrderID, &rv.AuthorID, &rv.AuthorName, &rv.CelebrityID,
			&rv.Rating, &rv.Text, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}

	return out, rows.Err()
}

// RefreshCelebrityRating recomputes the cached average rating and review
// count after a new review lands.
func (r *Repository) RefreshCelebrityRating(ctx context.Context, celebrityID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE celebrities c
		SET rating = COALESCE(sub.avg_rating, 0), review_count = sub.cnt
		FROM (
			SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS cnt
			FROM reviews WHERE celebrity_id = $1
		) sub
		WHERE c.id = $1
	`, celebrityID)
	return err
}
