package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

// SlotRepo implements service.SuggestionSlotRepository.
type SlotRepo struct{ s *Store }

func (r *SlotRepo) Create(_ context.Context, slot *model.SuggestionSlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if slot.Status == "" {
		slot.Status = model.SlotStatusPending
	}
	now := r.s.now()
	slot.CreatedOn, slot.UpdatedOn = now, now
	r.s.slots.put(ensureID(&slot.ID), slot)
	return nil
}

func (r *SlotRepo) GetByID(_ context.Context, id string) (*model.SuggestionSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.slots.get(id), nil
}

func (r *SlotRepo) list(keep func(*model.SuggestionSlot) bool) []*model.SuggestionSlot {
	out := r.s.slots.filter(keep)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out
}

func (r *SlotRepo) ListBySet(_ context.Context, setID string) ([]*model.SuggestionSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(slot *model.SuggestionSlot) bool { return slot.WorshipSetID == setID }), nil
}

func (r *SlotRepo) ListByUser(_ context.Context, userID string, openOnly bool) ([]*model.SuggestionSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(slot *model.SuggestionSlot) bool {
		return slot.UserID == userID && (!openOnly || slot.Status == model.SlotStatusPending)
	}), nil
}

func (r *SlotRepo) ListPendingDueBefore(_ context.Context, t time.Time) ([]*model.SuggestionSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(slot *model.SuggestionSlot) bool {
		return slot.Status == model.SlotStatusPending && slot.DueAt.Before(t) &&
			!r.s.setCancelled(slot.WorshipSetID)
	}), nil
}

func (r *SlotRepo) Update(_ context.Context, slot *model.SuggestionSlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.slots.has(slot.ID) {
		return database.ErrNotFound
	}
	slot.UpdatedOn = r.s.now()
	r.s.slots.put(slot.ID, slot)
	return nil
}

func (r *SlotRepo) ExpireDue(_ context.Context, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, slot := range r.s.slots.rows {
		if slot.Status == model.SlotStatusPending && slot.DueAt.Before(now) {
			slot.Status = model.SlotStatusExpired
			slot.UpdatedOn = now
			n++
		}
	}
	return n, nil
}

// SuggestionRepo implements service.SuggestionRepository.
type SuggestionRepo struct{ s *Store }

func (r *SuggestionRepo) Create(_ context.Context, sg *model.Suggestion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sg.CreatedOn = r.s.now()
	r.s.suggestions.put(ensureID(&sg.ID), sg)
	return nil
}

func (r *SuggestionRepo) GetByID(_ context.Context, id string) (*model.Suggestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.suggestions.get(id), nil
}

func (r *SuggestionRepo) ListBySlot(_ context.Context, slotID string) ([]*model.Suggestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.suggestions.filter(func(sg *model.Suggestion) bool { return sg.SlotID == slotID }), nil
}

func (r *SuggestionRepo) MarkAccepted(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sg := r.s.suggestions.ptr(id)
	if sg == nil {
		return database.ErrNotFound
	}
	sg.Accepted = true
	return nil
}

func (r *SuggestionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.suggestions.delete(id)
	return nil
}
