package repository

import (
	"context"
	"strings"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

const (
	serviceTypeTable = "service_type"
	serviceTable     = "service"
)

// ServiceTypeRepository handles service type data access
type ServiceTypeRepository struct {
	db database.Database
}

// NewServiceTypeRepository creates a new service type repository
func NewServiceTypeRepository(db database.Database) *ServiceTypeRepository {
	return &ServiceTypeRepository{db: db}
}

func serviceTypeFields(st *model.ServiceType) map[string]interface{} {
	return map[string]interface{}{
		"name":               st.Name,
		"description":        strOrNil(st.Description),
		"default_weekday":    intOrNil(st.DefaultWeekday),
		"default_start_time": strOrNil(st.DefaultStartTime),
		"active":             st.Active,
	}
}

// Create creates a new service type
func (r *ServiceTypeRepository) Create(ctx context.Context, st *model.ServiceType) error {
	created, err := insert(ctx, r.db, serviceTypeTable, ensureID(&st.ID), serviceTypeFields(st))
	if err != nil {
		return err
	}
	st.CreatedOn, st.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// GetByID retrieves a service type by ID
func (r *ServiceTypeRepository) GetByID(ctx context.Context, id string) (*model.ServiceType, error) {
	return selectOne[model.ServiceType](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": serviceTypeTable, "rid": id})
}

// List returns service types by name
func (r *ServiceTypeRepository) List(ctx context.Context, includeInactive bool) ([]*model.ServiceType, error) {
	query := "SELECT * FROM service_type WHERE active = true ORDER BY name"
	if includeInactive {
		query = "SELECT * FROM service_type ORDER BY name"
	}
	return selectAll[model.ServiceType](ctx, r.db, query, nil)
}

// Update updates a service type
func (r *ServiceTypeRepository) Update(ctx context.Context, st *model.ServiceType) error {
	updated, err := patch(ctx, r.db, serviceTypeTable, st.ID, serviceTypeFields(st))
	if err != nil {
		return err
	}
	st.UpdatedOn = updated.UpdatedOn
	return nil
}

// Delete removes a service type together with its rotation and default
// assignments.
func (r *ServiceTypeRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"service_type_id": id}
	return database.NewBatch().
		Add("DELETE leader_rotation WHERE service_type_id = $service_type_id", vars).
		Add("DELETE default_assignment WHERE service_type_id = $service_type_id", vars).
		Add("DELETE type::record('service_type', $service_type_id)", vars).
		Execute(ctx, r.db)
}

// CalendarRepository handles service occurrence data access
type CalendarRepository struct {
	db database.Database
}

// NewCalendarRepository creates a new calendar repository
func NewCalendarRepository(db database.Database) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func serviceFields(svc *model.Service) map[string]interface{} {
	return map[string]interface{}{
		"service_type_id": svc.ServiceTypeID,
		"date":            svc.Date,
		"start_time":      strOrNil(svc.StartTime),
		"title":           strOrNil(svc.Title),
		"notes":           strOrNil(svc.Notes),
		"status":          string(svc.Status),
	}
}

// Create creates a service
func (r *CalendarRepository) Create(ctx context.Context, svc *model.Service) error {
	if svc.Status == "" {
		svc.Status = model.ServiceStatusScheduled
	}
	created, err := insert(ctx, r.db, serviceTable, ensureID(&svc.ID), serviceFields(svc))
	if err != nil {
		return err
	}
	svc.CreatedOn, svc.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// CreateMany creates services in one transaction.
func (r *CalendarRepository) CreateMany(ctx context.Context, svcs []*model.Service) error {
	batch := database.NewBatch()
	for _, svc := range svcs {
		if svc.Status == "" {
			svc.Status = model.ServiceStatusScheduled
		}
		batch.Add(insertStatement(serviceTable, ensureID(&svc.ID), serviceFields(svc)))
	}
	return batch.Execute(ctx, r.db)
}

// GetByID retrieves a service by ID
func (r *CalendarRepository) GetByID(ctx context.Context, id string) (*model.Service, error) {
	return selectOne[model.Service](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": serviceTable, "rid": id})
}

// List returns services matching filter ordered by date and start time.
func (r *CalendarRepository) List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	var where []string
	vars := map[string]interface{}{}
	if filter.From != "" {
		where = append(where, "date >= $from")
		vars["from"] = filter.From
	}
	if filter.To != "" {
		where = append(where, "date <= $to")
		vars["to"] = filter.To
	}
	if filter.ServiceTypeID != "" {
		where = append(where, "service_type_id = $service_type_id")
		vars["service_type_id"] = filter.ServiceTypeID
	}

	query := "SELECT * FROM service"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, start_time"
	return selectAll[model.Service](ctx, r.db, query, vars)
}

// Update updates a service
func (r *CalendarRepository) Update(ctx context.Context, svc *model.Service) error {
	updated, err := patch(ctx, r.db, serviceTable, svc.ID, serviceFields(svc))
	if err != nil {
		return err
	}
	svc.UpdatedOn = updated.UpdatedOn
	return nil
}

// Delete deletes a service
func (r *CalendarRepository) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.db, serviceTable, id)
}
