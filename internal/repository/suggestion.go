package repository

import (
	"context"
	"time"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

const (
	slotTable       = "suggestion_slot"
	suggestionTable = "suggestion"
)

// SuggestionSlotRepository handles suggestion slot data access
type SuggestionSlotRepository struct {
	db database.Database
}

// NewSuggestionSlotRepository creates a new suggestion slot repository
func NewSuggestionSlotRepository(db database.Database) *SuggestionSlotRepository {
	return &SuggestionSlotRepository{db: db}
}

func slotFields(s *model.SuggestionSlot) map[string]interface{} {
	return map[string]interface{}{
		"worship_set_id": s.WorshipSetID,
		"user_id":        s.UserID,
		"due_at":         datetime(s.DueAt),
		"min_songs":      s.MinSongs,
		"max_songs":      s.MaxSongs,
		"status":         string(s.Status),
		"notes":          strOrNil(s.Notes),
		"created_by":     s.CreatedBy,
		"submitted_on":   datetimeOrNil(s.SubmittedOn),
	}
}

// Create creates a slot
func (r *SuggestionSlotRepository) Create(ctx context.Context, s *model.SuggestionSlot) error {
	if s.Status == "" {
		s.Status = model.SlotStatusPending
	}
	created, err := insert(ctx, r.db, slotTable, ensureID(&s.ID), slotFields(s))
	if err != nil {
		return err
	}
	s.CreatedOn, s.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// GetByID retrieves a slot by ID
func (r *SuggestionSlotRepository) GetByID(ctx context.Context, id string) (*model.SuggestionSlot, error) {
	return selectOne[model.SuggestionSlot](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": slotTable, "rid": id})
}

// ListBySet returns a set's slots by due time
func (r *SuggestionSlotRepository) ListBySet(ctx context.Context, setID string) ([]*model.SuggestionSlot, error) {
	return selectAll[model.SuggestionSlot](ctx, r.db,
		"SELECT * FROM suggestion_slot WHERE worship_set_id = $set_id ORDER BY due_at",
		map[string]interface{}{"set_id": setID})
}

// ListByUser returns a user's slots by due time
func (r *SuggestionSlotRepository) ListByUser(ctx context.Context, userID string, openOnly bool) ([]*model.SuggestionSlot, error) {
	query := "SELECT * FROM suggestion_slot WHERE user_id = $user_id ORDER BY due_at"
	if openOnly {
		query = "SELECT * FROM suggestion_slot WHERE user_id = $user_id AND status = 'pending' ORDER BY due_at"
	}
	return selectAll[model.SuggestionSlot](ctx, r.db, query, map[string]interface{}{"user_id": userID})
}

// ListPendingDueBefore returns pending slots due before t, leaving out those
// on cancelled services.
func (r *SuggestionSlotRepository) ListPendingDueBefore(ctx context.Context, t time.Time) ([]*model.SuggestionSlot, error) {
	return selectAll[model.SuggestionSlot](ctx, r.db, `
		SELECT * FROM suggestion_slot
		WHERE status = 'pending'
			AND due_at < $t
			AND worship_set_id NOTINSIDE (SELECT VALUE meta::id(id) FROM worship_set WHERE service_status = 'cancelled')
		ORDER BY due_at`,
		map[string]interface{}{"t": datetime(t)})
}

// Update updates a slot
func (r *SuggestionSlotRepository) Update(ctx context.Context, s *model.SuggestionSlot) error {
	updated, err := patch(ctx, r.db, slotTable, s.ID, slotFields(s))
	if err != nil {
		return err
	}
	s.UpdatedOn = updated.UpdatedOn
	return nil
}

// ExpireDue expires pending slots whose due time has passed
func (r *SuggestionSlotRepository) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	results, err := r.db.Query(ctx,
		"UPDATE suggestion_slot SET status = 'expired', updated_on = time::now() WHERE status = 'pending' AND due_at <= $now RETURN AFTER",
		map[string]interface{}{"now": datetime(now)})
	if err != nil {
		return 0, err
	}
	return len(database.LastRows(results)), nil
}

// SuggestionRepository handles suggestion data access
type SuggestionRepository struct {
	db database.Database
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db database.Database) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// Create creates a suggestion
func (r *SuggestionRepository) Create(ctx context.Context, s *model.Suggestion) error {
	created, err := insert(ctx, r.db, suggestionTable, ensureID(&s.ID), map[string]interface{}{
		"slot_id":         s.SlotID,
		"song_id":         s.SongID,
		"song_version_id": strOrNil(s.SongVersionID),
		"key":             strOrNil(s.Key),
		"notes":           strOrNil(s.Notes),
		"accepted":        s.Accepted,
	})
	if err != nil {
		return err
	}
	s.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves a suggestion by ID
func (r *SuggestionRepository) GetByID(ctx context.Context, id string) (*model.Suggestion, error) {
	return selectOne[model.Suggestion](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": suggestionTable, "rid": id})
}

// ListBySlot returns a slot's suggestions in the order they were made
func (r *SuggestionRepository) ListBySlot(ctx context.Context, slotID string) ([]*model.Suggestion, error) {
	return selectAll[model.Suggestion](ctx, r.db,
		"SELECT * FROM suggestion WHERE slot_id = $slot_id ORDER BY created_on",
		map[string]interface{}{"slot_id": slotID})
}

// MarkAccepted flags a suggestion as taken into the set
func (r *SuggestionRepository) MarkAccepted(ctx context.Context, id string) error {
	_, err := patch(ctx, r.db, suggestionTable, id, map[string]interface{}{"accepted": true})
	return err
}

// Delete deletes a suggestion
func (r *SuggestionRepository) Delete(ctx context.Context, id string) error {
	return remove(ctx, r.db, suggestionTable, id)
}
