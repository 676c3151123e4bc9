package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrVariantNotFound = errors.New("product variant not found")

// ErrOutOfStock is the sentinel wrapped by StockError; callers match it
// with errors.Is without caring how much stock was left.
var ErrOutOfStock = errors.New("out of stock")

// StockError reports a failed reservation. Available distinguishes a
// sold-out variant from a partially stocked one in user-facing messages.
type StockError struct {
	Available int
}

func (e *StockError) Error() string {
	if e.Available == 0 {
		return "variant is sold out"
	}
	return fmt.Sprintf("only %d left in stock", e.Available)
}

func (e *StockError) Unwrap() error { return ErrOutOfStock }

// Store guards the per-variant stock counter.
type Store interface {
	Stock(ctx context.Context, variantID string) (int, error)
	Reserve(ctx context.Context, variantID string, quantity int) error
	Release(ctx context.Context, variantID string, quantity int) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Stock(ctx context.Context, variantID string) (int, error) {
	var stock int
	err := r.db.QueryRowContext(ctx, `
		SELECT stock FROM product_variants WHERE id = $1
	`, variantID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrVariantNotFound
		}
		return 0, err
	}
	return stock, nil
}

// Reserve decrements stock by quantity in a single conditional statement,
// so two concurrent purchases of the last unit admit at most one winner
// and stock can never go negative.
func (r *Repository) Reserve(ctx context.Context, variantID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE product_variants
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
	`, variantID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		available, err := r.Stock(ctx, variantID)
		if err != nil {
			return err
		}
		return &StockError{Available: available}
	}

	return nil
}

// Release restores stock after a merch order cancellation.
func (r *Repository) Release(ctx context.Context, variantID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE product_variants
		SET stock = stock + $2
		WHERE id = $1
	`, variantID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrVariantNotFound
	}

	return nil
}
