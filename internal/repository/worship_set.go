package repository

import (
	"context"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
)

const (
	worshipSetTable = "worship_set"
	setSongTable    = "set_song"
)

// WorshipSetRepository handles worship set data access
type WorshipSetRepository struct {
	db database.Database
}

// NewWorshipSetRepository creates a new worship set repository
func NewWorshipSetRepository(db database.Database) *WorshipSetRepository {
	return &WorshipSetRepository{db: db}
}

func worshipSetFields(ws *model.WorshipSet) map[string]interface{} {
	return map[string]interface{}{
		"service_id":         ws.ServiceID,
		"service_type_id":    ws.ServiceTypeID,
		"service_date":       ws.ServiceDate,
		"service_start_time": strOrNil(ws.ServiceStartTime),
		"service_status":     string(ws.ServiceStatus),
		"leader_id":          strOrNil(ws.LeaderID),
		"leader_source":      string(ws.LeaderSource),
		"status":             string(ws.Status),
		"notes":              strOrNil(ws.Notes),
		"published_on":       datetimeOrNil(ws.PublishedOn),
	}
}

// Create creates a worship set
func (r *WorshipSetRepository) Create(ctx context.Context, ws *model.WorshipSet) error {
	if ws.Status == "" {
		ws.Status = model.WorshipSetStatusDraft
	}
	if ws.ServiceStatus == "" {
		ws.ServiceStatus = model.ServiceStatusScheduled
	}
	created, err := insert(ctx, r.db, worshipSetTable, ensureID(&ws.ID), worshipSetFields(ws))
	if err != nil {
		return err
	}
	ws.CreatedOn, ws.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// GetByID retrieves a worship set by ID
func (r *WorshipSetRepository) GetByID(ctx context.Context, id string) (*model.WorshipSet, error) {
	return selectOne[model.WorshipSet](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": worshipSetTable, "rid": id})
}

// GetByServiceID retrieves the set of a service
func (r *WorshipSetRepository) GetByServiceID(ctx context.Context, serviceID string) (*model.WorshipSet, error) {
	return selectOne[model.WorshipSet](ctx, r.db,
		"SELECT * FROM worship_set WHERE service_id = $service_id LIMIT 1",
		map[string]interface{}{"service_id": serviceID})
}

// Update updates a worship set
func (r *WorshipSetRepository) Update(ctx context.Context, ws *model.WorshipSet) error {
	updated, err := patch(ctx, r.db, worshipSetTable, ws.ID, worshipSetFields(ws))
	if err != nil {
		return err
	}
	ws.UpdatedOn = updated.UpdatedOn
	return nil
}

// Delete removes a set together with its lineup, assignments, slots and suggestions.
func (r *WorshipSetRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"set_id": id}
	return database.NewBatch().
		Add("DELETE suggestion WHERE slot_id INSIDE (SELECT VALUE meta::id(id) FROM suggestion_slot WHERE worship_set_id = $set_id)", vars).
		Add("DELETE suggestion_slot WHERE worship_set_id = $set_id", vars).
		Add("DELETE assignment WHERE worship_set_id = $set_id", vars).
		Add("DELETE set_song WHERE worship_set_id = $set_id", vars).
		Add("DELETE type::record('worship_set', $set_id)", vars).
		Execute(ctx, r.db)
}

// SyncService copies a service's type, date, start time and status onto its
// set, and the date onto the set's assignments.
func (r *WorshipSetRepository) SyncService(ctx context.Context, svc *model.Service) error {
	vars := map[string]interface{}{
		"service_id":      svc.ID,
		"service_type_id": svc.ServiceTypeID,
		"date":            svc.Date,
		"start_time":      strOrNil(svc.StartTime),
		"status":          string(svc.Status),
	}
	return database.NewBatch().
		Add(`UPDATE worship_set SET
				service_type_id = $service_type_id,
				service_date = $date,
				service_start_time = $start_time,
				service_status = $status,
				updated_on = time::now()
			WHERE service_id = $service_id`, vars).
		Add("UPDATE assignment SET service_date = $date WHERE worship_set_id INSIDE (SELECT VALUE meta::id(id) FROM worship_set WHERE service_id = $service_id)", vars).
		Execute(ctx, r.db)
}

// ListByType returns sets of a type dated on or after from, in schedule order.
func (r *WorshipSetRepository) ListByType(ctx context.Context, serviceTypeID, from string) ([]*model.WorshipSet, error) {
	return selectAll[model.WorshipSet](ctx, r.db,
		"SELECT * FROM worship_set WHERE service_type_id = $service_type_id AND service_date >= $from ORDER BY service_date, service_start_time",
		map[string]interface{}{"service_type_id": serviceTypeID, "from": from})
}

// LatestRotationBefore returns the newest rotation-led set dated before date.
// Sets of cancelled services are never recalculated, so they cannot anchor.
func (r *WorshipSetRepository) LatestRotationBefore(ctx context.Context, serviceTypeID, date string) (*model.WorshipSet, error) {
	return selectOne[model.WorshipSet](ctx, r.db, `
		SELECT * FROM worship_set
		WHERE service_type_id = $service_type_id
			AND service_date < $date
			AND service_status != 'cancelled'
			AND leader_source = 'rotation'
			AND leader_id != NONE AND leader_id != NULL
		ORDER BY service_date DESC, service_start_time DESC
		LIMIT 1`,
		map[string]interface{}{"service_type_id": serviceTypeID, "date": date})
}

// ApplyLeaderChanges writes all leader changes atomically.
func (r *WorshipSetRepository) ApplyLeaderChanges(ctx context.Context, changes []model.LeaderChange) error {
	batch := database.NewBatch()
	for _, c := range changes {
		batch.Add(
			"UPDATE type::record('worship_set', $rid) SET leader_id = $leader_id, leader_source = 'rotation', updated_on = time::now()",
			map[string]interface{}{"rid": c.WorshipSetID, "leader_id": strOrNil(c.LeaderID)},
		)
	}
	return batch.Execute(ctx, r.db)
}

// SetSongRepository handles set lineup data access
type SetSongRepository struct {
	db database.Database
}

// NewSetSongRepository creates a new set song repository
func NewSetSongRepository(db database.Database) *SetSongRepository {
	return &SetSongRepository{db: db}
}

func setSongFields(s *model.SetSong) map[string]interface{} {
	return map[string]interface{}{
		"worship_set_id":  s.WorshipSetID,
		"song_id":         s.SongID,
		"song_version_id": strOrNil(s.SongVersionID),
		"position":        s.Position,
		"key":             strOrNil(s.Key),
		"notes":           strOrNil(s.Notes),
		"suggestion_id":   strOrNil(s.SuggestionID),
	}
}

// Create adds a song to a set at s.Position
func (r *SetSongRepository) Create(ctx context.Context, s *model.SetSong) error {
	created, err := insert(ctx, r.db, setSongTable, ensureID(&s.ID), setSongFields(s))
	if err != nil {
		return err
	}
	s.CreatedOn, s.UpdatedOn = created.CreatedOn, created.UpdatedOn
	return nil
}

// GetByID retrieves a set song by ID
func (r *SetSongRepository) GetByID(ctx context.Context, id string) (*model.SetSong, error) {
	return selectOne[model.SetSong](ctx, r.db,
		"SELECT * FROM type::record($tb, $rid)",
		map[string]interface{}{"tb": setSongTable, "rid": id})
}

// ListBySet returns a set's lineup in order
func (r *SetSongRepository) ListBySet(ctx context.Context, setID string) ([]*model.SetSong, error) {
	return selectAll[model.SetSong](ctx, r.db,
		"SELECT * FROM set_song WHERE worship_set_id = $set_id ORDER BY position",
		map[string]interface{}{"set_id": setID})
}

// Update writes version, key and notes. Position changes go through Reorder.
func (r *SetSongRepository) Update(ctx context.Context, s *model.SetSong) error {
	updated, err := patch(ctx, r.db, setSongTable, s.ID, map[string]interface{}{
		"song_version_id": strOrNil(s.SongVersionID),
		"key":             strOrNil(s.Key),
		"notes":           strOrNil(s.Notes),
	})
	if err != nil {
		return err
	}
	s.UpdatedOn = updated.UpdatedOn
	return nil
}

// Delete removes a set song and closes the gap it leaves.
func (r *SetSongRepository) Delete(ctx context.Context, id string, remaining []string) error {
	return database.NewBatch().
		Add("DELETE type::record('set_song', $rid)", map[string]interface{}{"rid": id}).
		Renumber(setSongTable, remaining).
		Execute(ctx, r.db)
}

// Reorder assigns positions 1..n to ids in order
func (r *SetSongRepository) Reorder(ctx context.Context, ids []string) error {
	return database.NewBatch().Renumber(setSongTable, ids).Execute(ctx, r.db)
}
