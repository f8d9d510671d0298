package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/forgo/worship/api/internal/database"
	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// recordKey returns the id part of a SurrealDB record id, so user:⟨abc⟩ becomes abc.
func recordKey(id interface{}) string {
	switch v := id.(type) {
	case string:
		if i := strings.Index(v, ":"); i >= 0 {
			return strings.Trim(v[i+1:], "⟨⟩`")
		}
		return v
	case models.RecordID:
		return fmt.Sprintf("%v", v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%v", v.ID)
		}
	case map[string]interface{}:
		if inner, ok := v["id"]; ok {
			return recordKey(inner)
		}
		if inner, ok := v["ID"]; ok {
			return recordKey(inner)
		}
		if s, ok := v["String"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", id)
}

// normalize rewrites driver values into JSON friendly ones.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if k == "id" {
				out[k] = recordKey(val)
				continue
			}
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case models.CustomDateTime:
		return t.Time.Format(time.RFC3339Nano)
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time.Format(time.RFC3339Nano)
	case models.RecordID, *models.RecordID:
		return recordKey(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// decodeRecord converts one raw row into T.
func decodeRecord[T any](raw interface{}) (*T, error) {
	if raw == nil {
		return nil, database.ErrNotFound
	}
	data, err := json.Marshal(normalize(raw))
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %T: %w", out, err)
	}
	return &out, nil
}

// decodeRows converts raw rows into []*T.
func decodeRows[T any](rows []interface{}) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// selectOne runs a query expected to yield at most one row.
// A missing row is (nil, nil).
func selectOne[T any](ctx context.Context, db database.Database, query string, vars map[string]interface{}) (*T, error) {
	raw, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[T](raw)
}

// selectAll runs a query and decodes the rows of its final statement.
func selectAll[T any](ctx context.Context, db database.Database, query string, vars map[string]interface{}) ([]*T, error) {
	results, err := db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](database.LastRows(results))
}

// setClause renders "a = $a, b = $b" for the given fields in a stable order.
func setClause(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" = $"+k)
	}
	return strings.Join(parts, ", ")
}

// insertStatement builds a CREATE for table:⟨id⟩ that stamps both timestamps.
func insertStatement(table, id string, fields map[string]interface{}) (string, map[string]interface{}) {
	vars := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		vars[k] = v
	}
	set := setClause(fields)
	if set != "" {
		set += ", "
	}
	query := fmt.Sprintf(
		"CREATE type::record($tb, $rid) SET %screated_on = time::now(), updated_on = time::now() RETURN AFTER",
		set,
	)
	vars["tb"] = table
	vars["rid"] = id
	return query, vars
}

// updateStatement builds an UPDATE for table:⟨id⟩ that bumps updated_on.
func updateStatement(table, id string, fields map[string]interface{}) (string, map[string]interface{}) {
	vars := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		vars[k] = v
	}
	set := setClause(fields)
	if set != "" {
		set += ", "
	}
	query := fmt.Sprintf(
		"UPDATE type::record($tb, $rid) SET %supdated_on = time::now() RETURN AFTER",
		set,
	)
	vars["tb"] = table
	vars["rid"] = id
	return query, vars
}

// insert creates a record and returns its stored timestamps.
func insert(ctx context.Context, db database.Database, table, id string, fields map[string]interface{}) (*stamps, error) {
	query, vars := insertStatement(table, id, fields)
	raw, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRecord[stamps](raw)
}

// patch updates a record and returns its stored timestamps.
func patch(ctx context.Context, db database.Database, table, id string, fields map[string]interface{}) (*stamps, error) {
	query, vars := updateStatement(table, id, fields)
	raw, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRecord[stamps](raw)
}

// remove deletes table:⟨id⟩.
func remove(ctx context.Context, db database.Database, table, id string) error {
	return db.Execute(ctx, "DELETE type::record($tb, $rid)", map[string]interface{}{"tb": table, "rid": id})
}

// stamps is the part of a written row the repositories copy back.
type stamps struct {
	ID        string    `json:"id"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// extractCount extracts count from a "SELECT count() ... GROUP ALL" row.
func extractCount(raw interface{}) int {
	row, ok := raw.(map[string]interface{})
	if !ok {
		return 0
	}
	switch c := row["count"].(type) {
	case float64:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	}
	return 0
}

// strOrNil unwraps optional strings for query vars.
func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// intOrNil unwraps optional ints for query vars.
func intOrNil(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

// datetime wraps t so the driver sends a native datetime.
func datetime(t time.Time) models.CustomDateTime {
	return models.CustomDateTime{Time: t.UTC()}
}

// datetimeOrNil is datetime for optional times.
func datetimeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return datetime(*t)
}

// orEmpty keeps JSON arrays non-null.
func orEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// ensureID assigns a fresh uuid when the caller did not choose one.
func ensureID(id *string) string {
	if *id == "" {
		*id = uuid.NewString()
	}
	return *id
}
