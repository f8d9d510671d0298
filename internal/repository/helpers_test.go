package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/forgo/worship/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// ============================================================================
// Record Decoding Tests
// ============================================================================

func TestRecordKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"bare", "0b7e", "0b7e"},
		{"table prefixed", "song:0b7e", "0b7e"},
		{"angle quoted", "song:⟨0b7e-11⟩", "0b7e-11"},
		{"record id", models.RecordID{Table: "song", ID: "0b7e"}, "0b7e"},
		{"record id ptr", &models.RecordID{Table: "song", ID: "0b7e"}, "0b7e"},
		{"map", map[string]interface{}{"tb": "song", "id": "0b7e"}, "0b7e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, recordKey(tt.in))
		})
	}
}

func TestDecodeRecord_WorshipSet(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 5, 3, 9, 30, 0, 0, time.UTC)
	raw := map[string]interface{}{
		"id":              models.RecordID{Table: "worship_set", ID: "ws-1"},
		"service_id":      "svc-1",
		"service_type_id": "st-1",
		"service_date":    "2026-05-10",
		"leader_id":       "u-1",
		"leader_source":   "rotation",
		"status":          "draft",
		"notes":           nil,
		"created_on":      models.CustomDateTime{Time: created},
		"updated_on":      models.CustomDateTime{Time: created},
	}

	ws, err := decodeRecord[model.WorshipSet](raw)
	require.NoError(t, err)
	assert.Equal(t, "ws-1", ws.ID)
	assert.Equal(t, model.LeaderSourceRotation, ws.LeaderSource)
	require.NotNil(t, ws.LeaderID)
	assert.Equal(t, "u-1", *ws.LeaderID)
	assert.Nil(t, ws.Notes)
	assert.True(t, ws.CreatedOn.Equal(created))
}

func TestDecodeRecord_UserKeepsHash(t *testing.T) {
	t.Parallel()

	raw := map[string]interface{}{
		"id":    "user:abc",
		"email": "a@example.com",
		"hash":  "$2a$12$hash",
		"role":  "leader",
	}
	row, err := decodeRecord[userRow](raw)
	require.NoError(t, err)
	u := row.toModel()
	assert.Equal(t, "abc", u.ID)
	require.NotNil(t, u.Hash)
	assert.Equal(t, "$2a$12$hash", *u.Hash)
}

func TestDecodeRecord_Nil(t *testing.T) {
	t.Parallel()

	_, err := decodeRecord[model.Song](nil)
	assert.Error(t, err)
}

// ============================================================================
// Statement Builder Tests
// ============================================================================

func TestInsertStatement(t *testing.T) {
	t.Parallel()

	query, vars := insertStatement("song", "s-1", map[string]interface{}{
		"title":  "Great Is Thy Faithfulness",
		"active": true,
	})

	assert.True(t, strings.HasPrefix(query, "CREATE type::record($tb, $rid) SET active = $active, title = $title, created_on"))
	assert.Equal(t, "song", vars["tb"])
	assert.Equal(t, "s-1", vars["rid"])
	assert.Equal(t, true, vars["active"])
}

func TestUpdateStatement_NoFields(t *testing.T) {
	t.Parallel()

	query, _ := updateStatement("song", "s-1", nil)
	assert.Contains(t, query, "SET updated_on = time::now()")
}

func TestExtractCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, extractCount(map[string]interface{}{"count": uint64(3)}))
	assert.Equal(t, 2, extractCount(map[string]interface{}{"count": float64(2)}))
	assert.Equal(t, 0, extractCount("nope"))
}

func TestEnsureID(t *testing.T) {
	t.Parallel()

	id := ""
	got := ensureID(&id)
	assert.Len(t, got, 36)
	assert.Equal(t, got, id)

	fixed := "keep"
	assert.Equal(t, "keep", ensureID(&fixed))
}
