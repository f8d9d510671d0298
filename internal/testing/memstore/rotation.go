package memstore

import (
	"context"
	"sort"
	"strconv"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// RotationRepo implements service.RotationRepository. Active members keep
// unique positions per service type; removed members keep their row.
type RotationRepo struct{ s *Store }

func (r *RotationRepo) positionTaken(serviceTypeID string, pos int, except string) bool {
	for _, m := range r.s.rotation.rows {
		if m.ID != except && m.Active && m.ServiceTypeID == serviceTypeID && m.Position != nil && *m.Position == pos {
			return true
		}
	}
	return false
}

func (r *RotationRepo) GetByID(_ context.Context, id string) (*model.RotationMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.rotation.get(id), nil
}

func (r *RotationRepo) GetByUser(_ context.Context, serviceTypeID, userID string) (*model.RotationMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.s.rotation.filter(func(m *model.RotationMember) bool {
		return m.ServiceTypeID == serviceTypeID && m.UserID == userID
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *RotationRepo) ListActive(_ context.Context, serviceTypeID string) ([]*model.RotationMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := r.s.rotation.filter(func(m *model.RotationMember) bool {
		return m.ServiceTypeID == serviceTypeID && m.Active
	})
	sort.SliceStable(members, func(i, j int) bool { return posOf(members[i]) < posOf(members[j]) })
	return members, nil
}

func (r *RotationRepo) ListActiveByUser(_ context.Context, userID string) ([]*model.RotationMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := r.s.rotation.filter(func(m *model.RotationMember) bool {
		return m.UserID == userID && m.Active
	})
	sort.SliceStable(members, func(i, j int) bool { return members[i].ServiceTypeID < members[j].ServiceTypeID })
	return members, nil
}

func (r *RotationRepo) Create(_ context.Context, m *model.RotationMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.Position != nil && r.positionTaken(m.ServiceTypeID, *m.Position, "") {
		return database.ErrDuplicate
	}
	m.Active = true
	now := r.s.now()
	m.CreatedOn, m.UpdatedOn = now, now
	r.s.rotation.put(ensureID(&m.ID), m)
	return nil
}

func (r *RotationRepo) Reactivate(_ context.Context, id string, position int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.s.rotation.ptr(id)
	if m == nil {
		return database.ErrNotFound
	}
	if r.positionTaken(m.ServiceTypeID, position, id) {
		return database.ErrDuplicate
	}
	m.Active = true
	m.Position = &position
	m.DeletedOn = nil
	m.UpdatedOn = r.s.now()
	return nil
}

func (r *RotationRepo) Remove(_ context.Context, id string, remaining []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.s.rotation.ptr(id)
	if m == nil {
		return database.ErrNotFound
	}
	prev := *m
	now := r.s.now()
	m.Active = false
	m.Position = nil
	m.DeletedOn = &now
	m.UpdatedOn = now
	if err := renumber(r.s.rotation, remaining, setPosition, rotationSlot); err != nil {
		*m = prev
		return err
	}
	return nil
}

func (r *RotationRepo) Reorder(_ context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return renumber(r.s.rotation, ids, setPosition, rotationSlot)
}

func setPosition(m *model.RotationMember, pos int) {
	m.Position = &pos
}

// rotationSlot mirrors the (service_type_id, position, tombstone) index:
// removed members hold no slot.
func rotationSlot(m *model.RotationMember) string {
	if !m.Active || m.Position == nil {
		return ""
	}
	return m.ServiceTypeID + "/" + strconv.Itoa(*m.Position)
}

func posOf(m *model.RotationMember) int {
	if m.Position == nil {
		return 1 << 30
	}
	return *m.Position
}
