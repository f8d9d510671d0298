package memstore

import (
	"context"
	"sort"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// ServiceTypeRepo implements service.ServiceTypeRepository.
type ServiceTypeRepo struct{ s *Store }

func (r *ServiceTypeRepo) nameTaken(name, except string) bool {
	for _, st := range r.s.serviceTypes.rows {
		if st.ID != except && lower(st.Name) == lower(name) {
			return true
		}
	}
	return false
}

func (r *ServiceTypeRepo) Create(_ context.Context, st *model.ServiceType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(st.Name, "") {
		return database.ErrDuplicate
	}
	now := r.s.now()
	st.CreatedOn, st.UpdatedOn = now, now
	r.s.serviceTypes.put(ensureID(&st.ID), st)
	return nil
}

func (r *ServiceTypeRepo) GetByID(_ context.Context, id string) (*model.ServiceType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.serviceTypes.get(id), nil
}

func (r *ServiceTypeRepo) List(_ context.Context, includeInactive bool) ([]*model.ServiceType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	types := r.s.serviceTypes.filter(func(st *model.ServiceType) bool { return includeInactive || st.Active })
	sort.SliceStable(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

func (r *ServiceTypeRepo) Update(_ context.Context, st *model.ServiceType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.serviceTypes.has(st.ID) {
		return database.ErrNotFound
	}
	if r.nameTaken(st.Name, st.ID) {
		return database.ErrDuplicate
	}
	st.UpdatedOn = r.s.now()
	r.s.serviceTypes.put(st.ID, st)
	return nil
}

func (r *ServiceTypeRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.serviceTypes.delete(id)
	for mid, m := range r.s.rotation.rows {
		if m.ServiceTypeID == id {
			r.s.rotation.delete(mid)
		}
	}
	for did, d := range r.s.defaults.rows {
		if d.ServiceTypeID == id {
			r.s.defaults.delete(did)
		}
	}
	return nil
}

// CalendarRepo implements service.CalendarRepository.
type CalendarRepo struct{ s *Store }

func (r *CalendarRepo) create(svc *model.Service) {
	if svc.Status == "" {
		svc.Status = model.ServiceStatusScheduled
	}
	now := r.s.now()
	svc.CreatedOn, svc.UpdatedOn = now, now
	r.s.services.put(ensureID(&svc.ID), svc)
}

func (r *CalendarRepo) Create(_ context.Context, svc *model.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.create(svc)
	return nil
}

func (r *CalendarRepo) CreateMany(_ context.Context, svcs []*model.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, svc := range svcs {
		r.create(svc)
	}
	return nil
}

func (r *CalendarRepo) GetByID(_ context.Context, id string) (*model.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.services.get(id), nil
}

func (r *CalendarRepo) List(_ context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svcs := r.s.services.filter(func(svc *model.Service) bool {
		if filter.From != "" && svc.Date < filter.From {
			return false
		}
		if filter.To != "" && svc.Date > filter.To {
			return false
		}
		return filter.ServiceTypeID == "" || svc.ServiceTypeID == filter.ServiceTypeID
	})
	sort.SliceStable(svcs, func(i, j int) bool {
		if svcs[i].Date != svcs[j].Date {
			return svcs[i].Date < svcs[j].Date
		}
		return derefString(svcs[i].StartTime) < derefString(svcs[j].StartTime)
	})
	return svcs, nil
}

func (r *CalendarRepo) Update(_ context.Context, svc *model.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.services.has(svc.ID) {
		return database.ErrNotFound
	}
	svc.UpdatedOn = r.s.now()
	r.s.services.put(svc.ID, svc)
	return nil
}

func (r *CalendarRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.services.delete(id)
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
