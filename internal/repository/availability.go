package repository

import (
	"context"
	"errors"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

const availabilityTable = "availability"

// AvailabilityRepository handles blackout dates
type AvailabilityRepository struct {
	db database.Database
}

// NewAvailabilityRepository creates a new availability repository
func NewAvailabilityRepository(db database.Database) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create records a blackout date
func (r *AvailabilityRepository) Create(ctx context.Context, a *model.Availability) error {
	created, err := insert(ctx, r.db, availabilityTable, ensureID(&a.ID), map[string]interface{}{
		"user_id": a.UserID,
		"date":    a.Date,
		"reason":  strOrNil(a.Reason),
	})
	if err != nil {
		return err
	}
	a.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves a blackout by ID
func (r *AvailabilityRepository) GetByID(ctx context.Context, id string) (*model.Availability, error) {
	return selectOne[model.Availability](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": availabilityTable, "rid": id})
}

// ListByUser returns a user's blackouts from a date on
func (r *AvailabilityRepository) ListByUser(ctx context.Context, userID, from string) ([]*model.Availability, error) {
	return selectAll[model.Availability](ctx, r.db,
		"SELECT * FROM availability WHERE user_id = $user_id AND date >= $from ORDER BY date",
		map[string]interface{}{"user_id": userID, "from": from})
}

// ListByDate returns everyone unavailable on a date
func (r *AvailabilityRepository) ListByDate(ctx context.Context, date string) ([]*model.Availability, error) {
	return selectAll[model.Availability](ctx, r.db,
		"SELECT * FROM availability WHERE date = $date",
		map[string]interface{}{"date": date})
}

// IsUnavailable reports whether a user blocked out a date
func (r *AvailabilityRepository) IsUnavailable(ctx context.Context, userID, date string) (bool, error) {
	raw, err := r.db.QueryOne(ctx,
		"SELECT count() FROM availability WHERE user_id = $user_id AND date = $date GROUP ALL",
		map[string]interface{}{"user_id": userID, "date": date})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return extractCount(raw) > 0, nil
}

// Delete deletes a blackout
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.db, availabilityTable, id)
}
