package repository

import (
	"context"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

const rotationTable = "leader_rotation"

// RotationRepository handles leader rotation membership.
//
// Active members hold positions 1..n with an empty tombstone. A removed member keeps
// its row with position NONE and tombstone set to its own id, which takes it
// out of the unique (service_type_id, position, tombstone) index.
type RotationRepository struct {
	db database.Database
}

// NewRotationRepository creates a new rotation repository
func NewRotationRepository(db database.Database) *RotationRepository {
	return &RotationRepository{db: db}
}

// GetByID retrieves a membership by ID
func (r *RotationRepository) GetByID(ctx context.Context, id string) (*model.RotationMember, error) {
	return selectOne[model.RotationMember](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": rotationTable, "rid": id})
}

// GetByUser finds a user's membership for a service type, active or not
func (r *RotationRepository) GetByUser(ctx context.Context, serviceTypeID, userID string) (*model.RotationMember, error) {
	return selectOne[model.RotationMember](ctx, r.db,
		"SELECT * FROM leader_rotation WHERE service_type_id = $service_type_id AND user_id = $user_id LIMIT 1",
		map[string]interface{}{"service_type_id": serviceTypeID, "user_id": userID})
}

// ListActive returns active members in rotation order
func (r *RotationRepository) ListActive(ctx context.Context, serviceTypeID string) ([]*model.RotationMember, error) {
	return selectAll[model.RotationMember](ctx, r.db,
		"SELECT * FROM leader_rotation WHERE service_type_id = $service_type_id AND active = true ORDER BY position",
		map[string]interface{}{"service_type_id": serviceTypeID})
}

// ListActiveByUser returns every active membership of a user
func (r *RotationRepository) ListActiveByUser(ctx context.Context, userID string) ([]*model.RotationMember, error) {
	return selectAll[model.RotationMember](ctx, r.db,
		"SELECT * FROM leader_rotation WHERE user_id = $user_id AND active = true ORDER BY service_type_id",
		map[string]interface{}{"user_id": userID})
}

// Create appends a member at m.Position
func (r *RotationRepository) Create(ctx context.Context, m *model.RotationMember) error {
	m.Active = true
	created, err := insert(ctx, r.db, rotationTable, ensureID(&m.ID), map[string]interface{}{
		"service_type_id": m.ServiceTypeID,
		"user_id":         m.UserID,
		"position":        intOrNil(m.Position),
		"active":          true,
		"tombstone":       "",
	})
	if err != nil {
		return err
	}
	m.CreatedOn, m.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// Reactivate brings a removed member back at position
func (r *RotationRepository) Reactivate(ctx context.Context, id string, position int) error {
	return r.db.Execute(ctx, `
		UPDATE type::record($tb, $rid) SET
			active = true,
			position = $position,
			tombstone = '',
			deleted_on = NONE,
			updated_on = time::now()`,
		map[string]interface{}{"tb": rotationTable, "rid": id, "position": position})
}

// Remove soft-deletes a member and renumbers the rest in one transaction
func (r *RotationRepository) Remove(ctx context.Context, id string, remaining []string) error {
	return database.NewBatch().
		Add(`UPDATE type::record($tb, $rid) SET
				active = false,
				position = NONE,
				tombstone = $rid,
				deleted_on = time::now(),
				updated_on = time::now()`,
			map[string]interface{}{"tb": rotationTable, "rid": id}).
		Renumber(rotationTable, remaining).
		Execute(ctx, r.db)
}

// Reorder assigns positions 1..n to ids in order
func (r *RotationRepository) Reorder(ctx context.Context, ids []string) error {
	return database.NewBatch().Renumber(rotationTable, ids).Execute(ctx, r.db)
}
