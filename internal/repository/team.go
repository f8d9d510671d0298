package repository

import (
	"context"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

const (
	instrumentTable        = "instrument"
	assignmentTable        = "assignment"
	defaultAssignmentTable = "default_assignment"
)

// InstrumentRepository handles instrument data access
type InstrumentRepository struct {
	db database.Database
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(db database.Database) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

func instrumentFields(i *model.Instrument) map[string]interface{} {
	return map[string]interface{}{
		"name":          i.Name,
		"category":      strOrNil(i.Category),
		"display_order": i.DisplayOrder,
	}
}

// Create creates an instrument
func (r *InstrumentRepository) Create(ctx context.Context, i *model.Instrument) error {
	created, err := insert(ctx, r.db, instrumentTable, ensureID(&i.ID), instrumentFields(i))
	if err != nil {
		return err
	}
	i.CreatedOn, i.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// GetByID retrieves an instrument by ID
func (r *InstrumentRepository) GetByID(ctx context.Context, id string) (*model.Instrument, error) {
	return selectOne[model.Instrument](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": instrumentTable, "rid": id})
}

// GetByName finds an instrument by exact name
func (r *InstrumentRepository) GetByName(ctx context.Context, name string) (*model.Instrument, error) {
	return selectOne[model.Instrument](ctx, r.db,
		"SELECT * FROM instrument WHERE name = $name LIMIT 1",
		map[string]interface{}{"name": name})
}

// List returns instruments in display order
func (r *InstrumentRepository) List(ctx context.Context) ([]*model.Instrument, error) {
	return selectAll[model.Instrument](ctx, r.db, "SELECT * FROM instrument ORDER BY display_order, name", nil)
}

// Update updates an instrument
func (r *InstrumentRepository) Update(ctx context.Context, i *model.Instrument) error {
	updated, err := patch(ctx, r.db, instrumentTable, i.ID, instrumentFields(i))
	if err != nil {
		return err
	}
	i.UpdatedOn = updated.UpdatedOn
	return nil
}

// Delete deletes an instrument
func (r *InstrumentRepository) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.db, instrumentTable, id)
}

// AssignmentRepository handles assignment data access
type AssignmentRepository struct {
	db database.Database
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db database.Database) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func assignmentFields(a *model.Assignment) map[string]interface{} {
	return map[string]interface{}{
		"worship_set_id": a.WorshipSetID,
		"instrument_id":  a.InstrumentID,
		"user_id":        a.UserID,
		"service_date":   a.ServiceDate,
		"status":         string(a.Status),
		"notes":          strOrNil(a.Notes),
		"responded_on":   datetimeOrNil(a.RespondedOn),
	}
}

// Create creates an assignment
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	if a.Status == "" {
		a.Status = model.AssignmentStatusPending
	}
	created, err := insert(ctx, r.db, assignmentTable, ensureID(&a.ID), assignmentFields(a))
	if err != nil {
		return err
	}
	a.CreatedOn, a.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// CreateMany creates assignments in one transaction
func (r *AssignmentRepository) CreateMany(ctx context.Context, as []*model.Assignment) error {
	batch := database.NewBatch()
	for _, a := range as {
		if a.Status == "" {
			a.Status = model.AssignmentStatusPending
		}
		batch.Add(insertStatement(assignmentTable, ensureID(&a.ID), assignmentFields(a)))
	}
	return batch.Execute(ctx, r.db)
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	return selectOne[model.Assignment](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": assignmentTable, "rid": id})
}

// ListBySet returns a set's assignments
func (r *AssignmentRepository) ListBySet(ctx context.Context, setID string) ([]*model.Assignment, error) {
	return selectAll[model.Assignment](ctx, r.db,
		"SELECT * FROM assignment WHERE worship_set_id = $set_id ORDER BY created_on",
		map[string]interface{}{"set_id": setID})
}

// ListByUser returns a user's assignments from a date on
func (r *AssignmentRepository) ListByUser(ctx context.Context, userID, from string) ([]*model.Assignment, error) {
	return selectAll[model.Assignment](ctx, r.db,
		"SELECT * FROM assignment WHERE user_id = $user_id AND service_date >= $from ORDER BY service_date",
		map[string]interface{}{"user_id": userID, "from": from})
}

// ListPending returns unanswered assignments in a date window, leaving out
// those on cancelled services.
func (r *AssignmentRepository) ListPending(ctx context.Context, from, to string) ([]*model.Assignment, error) {
	return selectAll[model.Assignment](ctx, r.db, `
		SELECT * FROM assignment
		WHERE status = 'pending'
			AND service_date >= $from AND service_date <= $to
			AND worship_set_id NOTINSIDE (SELECT VALUE meta::id(id) FROM worship_set WHERE service_status = 'cancelled')
		ORDER BY service_date`,
		map[string]interface{}{"from": from, "to": to})
}

// Update updates an assignment
func (r *AssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	updated, err := patch(ctx, r.db, assignmentTable, a.ID, assignmentFields(a))
	if err != nil {
		return err
	}
	a.UpdatedOn = updated.UpdatedOn
	return nil
}

// Delete deletes an assignment
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.db, assignmentTable, id)
}

// DefaultAssignmentRepository handles standing assignments
type DefaultAssignmentRepository struct {
	db database.Database
}

// NewDefaultAssignmentRepository creates a new default assignment repository
func NewDefaultAssignmentRepository(db database.Database) *DefaultAssignmentRepository {
	return &DefaultAssignmentRepository{db: db}
}

// GetByID retrieves a default assignment by ID
func (r *DefaultAssignmentRepository) GetByID(ctx context.Context, id string) (*model.DefaultAssignment, error) {
	return selectOne[model.DefaultAssignment](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": defaultAssignmentTable, "rid": id})
}

// ListByType returns the defaults of a service type
func (r *DefaultAssignmentRepository) ListByType(ctx context.Context, serviceTypeID string) ([]*model.DefaultAssignment, error) {
	return selectAll[model.DefaultAssignment](ctx, r.db,
		"SELECT * FROM default_assignment WHERE service_type_id = $service_type_id ORDER BY created_on",
		map[string]interface{}{"service_type_id": serviceTypeID})
}

// Replace deletes the type's defaults and writes the new ones atomically
func (r *DefaultAssignmentRepository) Replace(ctx context.Context, serviceTypeID string, defaults []*model.DefaultAssignment) error {
	batch := database.NewBatch().Add(
		"DELETE default_assignment WHERE service_type_id = $service_type_id",
		map[string]interface{}{"service_type_id": serviceTypeID},
	)
	for _, d := range defaults {
		d.ServiceTypeID = serviceTypeID
		batch.Add(insertStatement(defaultAssignmentTable, ensureID(&d.ID), map[string]interface{}{
			"service_type_id": d.ServiceTypeID,
			"instrument_id":   d.InstrumentID,
			"user_id":         d.UserID,
		}))
	}
	return batch.Execute(ctx, r.db)
}

// Delete deletes a default assignment
func (r *DefaultAssignmentRepository) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.db, defaultAssignmentTable, id)
}
