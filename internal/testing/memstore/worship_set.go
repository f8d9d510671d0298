package memstore

import (
	"context"
	"sort"
	"strconv"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// setCancelled reports whether the set's service is cancelled. Callers hold mu.
func (s *Store) setCancelled(setID string) bool {
	ws := s.sets.ptr(setID)
	return ws != nil && ws.ServiceStatus == model.ServiceStatusCancelled
}

// WorshipSetRepo implements service.WorshipSetRepository.
type WorshipSetRepo struct{ s *Store }

func (r *WorshipSetRepo) Create(_ context.Context, ws *model.WorshipSet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sets.rows {
		if existing.ServiceID == ws.ServiceID {
			return database.ErrDuplicate
		}
	}
	if ws.Status == "" {
		ws.Status = model.WorshipSetStatusDraft
	}
	if ws.ServiceStatus == "" {
		ws.ServiceStatus = model.ServiceStatusScheduled
	}
	now := r.s.now()
	ws.CreatedOn, ws.UpdatedOn = now, now
	r.s.sets.put(ensureID(&ws.ID), ws)
	return nil
}

func (r *WorshipSetRepo) GetByID(_ context.Context, id string) (*model.WorshipSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.sets.get(id), nil
}

func (r *WorshipSetRepo) GetByServiceID(_ context.Context, serviceID string) (*model.WorshipSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.s.sets.filter(func(ws *model.WorshipSet) bool { return ws.ServiceID == serviceID })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *WorshipSetRepo) Update(_ context.Context, ws *model.WorshipSet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.sets.has(ws.ID) {
		return database.ErrNotFound
	}
	ws.UpdatedOn = r.s.now()
	r.s.sets.put(ws.ID, ws)
	return nil
}

func (r *WorshipSetRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for slotID, slot := range r.s.slots.rows {
		if slot.WorshipSetID != id {
			continue
		}
		for sgID, sg := range r.s.suggestions.rows {
			if sg.SlotID == slotID {
				r.s.suggestions.delete(sgID)
			}
		}
		r.s.slots.delete(slotID)
	}
	for aID, a := range r.s.assignments.rows {
		if a.WorshipSetID == id {
			r.s.assignments.delete(aID)
		}
	}
	for eID, e := range r.s.setSongs.rows {
		if e.WorshipSetID == id {
			r.s.setSongs.delete(eID)
		}
	}
	r.s.sets.delete(id)
	return nil
}

func (r *WorshipSetRepo) SyncService(_ context.Context, svc *model.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ws := range r.s.sets.rows {
		if ws.ServiceID != svc.ID {
			continue
		}
		ws.ServiceTypeID = svc.ServiceTypeID
		ws.ServiceDate = svc.Date
		ws.ServiceStartTime = svc.StartTime
		ws.ServiceStatus = svc.Status
		for _, a := range r.s.assignments.rows {
			if a.WorshipSetID == ws.ID {
				a.ServiceDate = svc.Date
			}
		}
	}
	return nil
}

func (r *WorshipSetRepo) ListByType(_ context.Context, serviceTypeID, from string) ([]*model.WorshipSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sets := r.s.sets.filter(func(ws *model.WorshipSet) bool {
		return ws.ServiceTypeID == serviceTypeID && ws.ServiceDate >= from
	})
	sort.SliceStable(sets, func(i, j int) bool { return sets[i].ScheduledBefore(sets[j]) })
	return sets, nil
}

func (r *WorshipSetRepo) LatestRotationBefore(_ context.Context, serviceTypeID, date string) (*model.WorshipSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *model.WorshipSet
	for _, ws := range r.s.sets.filter(func(ws *model.WorshipSet) bool {
		return ws.ServiceTypeID == serviceTypeID &&
			ws.ServiceDate < date &&
			ws.ServiceStatus != model.ServiceStatusCancelled &&
			ws.LeaderSource == model.LeaderSourceRotation &&
			ws.LeaderID != nil
	}) {
		if latest == nil || latest.ScheduledBefore(ws) {
			latest = ws
		}
	}
	return latest, nil
}

func (r *WorshipSetRepo) ApplyLeaderChanges(_ context.Context, changes []model.LeaderChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range changes {
		if !r.s.sets.has(c.WorshipSetID) {
			return database.ErrNotFound
		}
	}
	now := r.s.now()
	for _, c := range changes {
		ws := r.s.sets.ptr(c.WorshipSetID)
		ws.LeaderID = c.LeaderID
		ws.LeaderSource = model.LeaderSourceRotation
		ws.UpdatedOn = now
	}
	return nil
}

// SetSongRepo implements service.SetSongRepository.
type SetSongRepo struct{ s *Store }

func (r *SetSongRepo) Create(_ context.Context, e *model.SetSong) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.setSongs.rows {
		if existing.WorshipSetID == e.WorshipSetID && existing.Position == e.Position {
			return database.ErrDuplicate
		}
	}
	now := r.s.now()
	e.CreatedOn, e.UpdatedOn = now, now
	r.s.setSongs.put(ensureID(&e.ID), e)
	return nil
}

func (r *SetSongRepo) GetByID(_ context.Context, id string) (*model.SetSong, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.setSongs.get(id), nil
}

func (r *SetSongRepo) ListBySet(_ context.Context, setID string) ([]*model.SetSong, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lineup := r.s.setSongs.filter(func(e *model.SetSong) bool { return e.WorshipSetID == setID })
	sort.SliceStable(lineup, func(i, j int) bool { return lineup[i].Position < lineup[j].Position })
	return lineup, nil
}

func (r *SetSongRepo) Update(_ context.Context, e *model.SetSong) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := r.s.setSongs.ptr(e.ID)
	if stored == nil {
		return database.ErrNotFound
	}
	stored.SongVersionID = e.SongVersionID
	stored.Key = e.Key
	stored.Notes = e.Notes
	stored.UpdatedOn = r.s.now()
	e.UpdatedOn = stored.UpdatedOn
	return nil
}

func (r *SetSongRepo) Delete(_ context.Context, id string, remaining []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.setSongs.delete(id)
	return renumber(r.s.setSongs, remaining, setSongPosition, setSongSlot)
}

func (r *SetSongRepo) Reorder(_ context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return renumber(r.s.setSongs, ids, setSongPosition, setSongSlot)
}

func setSongPosition(e *model.SetSong, pos int) {
	e.Position = pos
}

func setSongSlot(e *model.SetSong) string {
	return e.WorshipSetID + "/" + strconv.Itoa(e.Position)
}
