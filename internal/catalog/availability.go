package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

func (r *Repository) AvailabilityFor(ctx context.Context, celebrityID string) ([]domain.AvailabilitySlot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, celebrity_id, day_of_week, available, max_requests
		FROM availability_slots
		WHERE celebrity_id = $1
		ORDER BY day_of_week
	`, celebrityID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.AvailabilitySlot{}
	for rows.Next() {
		var s domain.AvailabilitySlot
		if err := rows.Scan(&s.ID, &s.CelebrityID, &s.DayOfWeek, &s.Available, &s.MaxRequests); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

// SlotUpdate is one weekday's desired availability.
type SlotUpdate struct {
	DayOfWeek   int
	Available   bool
	MaxRequests int
}

// UpsertAvailability writes the given slots in one transaction, keyed on
// (celebrity, weekday). Days not mentioned keep their current rows.
func (r *Repository) UpsertAvailability(ctx context.Context, celebrityID string, slots []SlotUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range slots {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO availability_slots (id, celebrity_id, day_of_week, available, max_requests)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (celebrity_id, day_of_week)
			DO UPDATE SET available = EXCLUDED.available, max_requests = EXCLUDED.max_requests
		`, uuid.New().String(), celebrityID, s.DayOfWeek, s.Available, s.MaxRequests)
		if err != nil {
			return fmt.Errorf("upsert slot for day %d: %w", s.DayOfWeek, err)
		}
	}

	return tx.Commit()
}
