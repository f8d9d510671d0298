package memstore

import (
	"context"
	"sort"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// InstrumentRepo implements service.InstrumentRepository.
type InstrumentRepo struct{ s *Store }

func (r *InstrumentRepo) nameTaken(name, except string) bool {
	for _, inst := range r.s.instruments.rows {
		if inst.ID != except && lower(inst.Name) == lower(name) {
			return true
		}
	}
	return false
}

func (r *InstrumentRepo) Create(_ context.Context, inst *model.Instrument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(inst.Name, "") {
		return database.ErrDuplicate
	}
	now := r.s.now()
	inst.CreatedOn, inst.UpdatedOn = now, now
	r.s.instruments.put(ensureID(&inst.ID), inst)
	return nil
}

func (r *InstrumentRepo) GetByID(_ context.Context, id string) (*model.Instrument, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.instruments.get(id), nil
}

func (r *InstrumentRepo) GetByName(_ context.Context, name string) (*model.Instrument, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.s.instruments.filter(func(inst *model.Instrument) bool { return lower(inst.Name) == lower(name) })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *InstrumentRepo) List(_ context.Context) ([]*model.Instrument, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.s.instruments.filter(nil)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *InstrumentRepo) Update(_ context.Context, inst *model.Instrument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.instruments.has(inst.ID) {
		return database.ErrNotFound
	}
	if r.nameTaken(inst.Name, inst.ID) {
		return database.ErrDuplicate
	}
	inst.UpdatedOn = r.s.now()
	r.s.instruments.put(inst.ID, inst)
	return nil
}

func (r *InstrumentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.instruments.delete(id)
	return nil
}

// AssignmentRepo implements service.AssignmentRepository.
type AssignmentRepo struct{ s *Store }

func (r *AssignmentRepo) create(a *model.Assignment) error {
	for _, existing := range r.s.assignments.rows {
		if existing.WorshipSetID == a.WorshipSetID && existing.InstrumentID == a.InstrumentID && existing.UserID == a.UserID {
			return database.ErrDuplicate
		}
	}
	if a.Status == "" {
		a.Status = model.AssignmentStatusPending
	}
	now := r.s.now()
	a.CreatedOn, a.UpdatedOn = now, now
	r.s.assignments.put(ensureID(&a.ID), a)
	return nil
}

func (r *AssignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.create(a)
}

func (r *AssignmentRepo) CreateMany(_ context.Context, as []*model.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range as {
		if err := r.create(a); err != nil {
			return err
		}
	}
	return nil
}

func (r *AssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.assignments.get(id), nil
}

func (r *AssignmentRepo) ListBySet(_ context.Context, setID string) ([]*model.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.assignments.filter(func(a *model.Assignment) bool { return a.WorshipSetID == setID }), nil
}

func (r *AssignmentRepo) ListByUser(_ context.Context, userID, from string) ([]*model.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.s.assignments.filter(func(a *model.Assignment) bool { return a.UserID == userID && a.ServiceDate >= from })
	sort.SliceStable(out, func(i, j int) bool { return out[i].ServiceDate < out[j].ServiceDate })
	return out, nil
}

func (r *AssignmentRepo) ListPending(_ context.Context, from, to string) ([]*model.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.s.assignments.filter(func(a *model.Assignment) bool {
		return a.Status == model.AssignmentStatusPending && a.ServiceDate >= from && a.ServiceDate <= to &&
			!r.s.setCancelled(a.WorshipSetID)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ServiceDate < out[j].ServiceDate })
	return out, nil
}

func (r *AssignmentRepo) Update(_ context.Context, a *model.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.assignments.has(a.ID) {
		return database.ErrNotFound
	}
	a.UpdatedOn = r.s.now()
	r.s.assignments.put(a.ID, a)
	return nil
}

func (r *AssignmentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assignments.delete(id)
	return nil
}

// DefaultAssignmentRepo implements service.DefaultAssignmentRepository.
type DefaultAssignmentRepo struct{ s *Store }

func (r *DefaultAssignmentRepo) GetByID(_ context.Context, id string) (*model.DefaultAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.defaults.get(id), nil
}

func (r *DefaultAssignmentRepo) ListByType(_ context.Context, serviceTypeID string) ([]*model.DefaultAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.defaults.filter(func(d *model.DefaultAssignment) bool { return d.ServiceTypeID == serviceTypeID }), nil
}

func (r *DefaultAssignmentRepo) Replace(_ context.Context, serviceTypeID string, defaults []*model.DefaultAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	for _, d := range defaults {
		if seen[d.InstrumentID] {
			return database.ErrDuplicate
		}
		seen[d.InstrumentID] = true
	}
	for id, d := range r.s.defaults.rows {
		if d.ServiceTypeID == serviceTypeID {
			r.s.defaults.delete(id)
		}
	}
	now := r.s.now()
	for _, d := range defaults {
		d.ServiceTypeID = serviceTypeID
		d.CreatedOn, d.UpdatedOn = now, now
		r.s.defaults.put(ensureID(&d.ID), d)
	}
	return nil
}

func (r *DefaultAssignmentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.defaults.delete(id)
	return nil
}

// AvailabilityRepo implements service.AvailabilityRepository.
type AvailabilityRepo struct{ s *Store }

func (r *AvailabilityRepo) Create(_ context.Context, a *model.Availability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.availability.rows {
		if existing.UserID == a.UserID && existing.Date == a.Date {
			return database.ErrDuplicate
		}
	}
	a.CreatedOn = r.s.now()
	r.s.availability.put(ensureID(&a.ID), a)
	return nil
}

func (r *AvailabilityRepo) GetByID(_ context.Context, id string) (*model.Availability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.availability.get(id), nil
}

func (r *AvailabilityRepo) ListByUser(_ context.Context, userID, from string) ([]*model.Availability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.s.availability.filter(func(a *model.Availability) bool { return a.UserID == userID && a.Date >= from })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *AvailabilityRepo) ListByDate(_ context.Context, date string) ([]*model.Availability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.availability.filter(func(a *model.Availability) bool { return a.Date == date }), nil
}

func (r *AvailabilityRepo) IsUnavailable(_ context.Context, userID, date string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.availability.rows {
		if a.UserID == userID && a.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (r *AvailabilityRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.availability.delete(id)
	return nil
}
