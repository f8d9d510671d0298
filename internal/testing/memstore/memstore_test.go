package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/worship/api/internal/database"
	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/testing/memstore"
)

func rotationOf(t *testing.T, repo *memstore.RotationRepo, typeID string, users ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(users))
	for i, u := range users {
		pos := i + 1
		m := &model.RotationMember{ServiceTypeID: typeID, UserID: u, Position: &pos}
		require.NoError(t, repo.Create(context.Background(), m))
		ids = append(ids, m.ID)
	}
	return ids
}

func positions(t *testing.T, repo *memstore.RotationRepo, typeID string) map[string]int {
	t.Helper()
	members, err := repo.ListActive(context.Background(), typeID)
	require.NoError(t, err)
	out := make(map[string]int, len(members))
	for _, m := range members {
		out[m.UserID] = *m.Position
	}
	return out
}

func TestRotationRepo_ReorderSwapsWithoutCollision(t *testing.T) {
	t.Parallel()
	repo := memstore.New().Rotation()
	ids := rotationOf(t, repo, "st", "a", "b", "c")

	require.NoError(t, repo.Reorder(context.Background(), []string{ids[2], ids[0], ids[1]}))
	assert.Equal(t, map[string]int{"c": 1, "a": 2, "b": 3}, positions(t, repo, "st"))
}

func TestRotationRepo_PartialReorderCollidesAndRollsBack(t *testing.T) {
	t.Parallel()
	repo := memstore.New().Rotation()
	ids := rotationOf(t, repo, "st", "a", "b", "c")

	// b keeps position 2 while a is moved onto it.
	err := repo.Reorder(context.Background(), []string{ids[2], ids[0]})
	assert.ErrorIs(t, err, database.ErrDuplicate)
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, positions(t, repo, "st"))
}

func TestRotationRepo_RemoveFreesPosition(t *testing.T) {
	t.Parallel()
	repo := memstore.New().Rotation()
	ids := rotationOf(t, repo, "st", "a", "b", "c")
	rotationOf(t, repo, "other", "a")

	require.NoError(t, repo.Remove(context.Background(), ids[0], []string{ids[1], ids[2]}))
	assert.Equal(t, map[string]int{"b": 1, "c": 2}, positions(t, repo, "st"))
	assert.Equal(t, map[string]int{"a": 1}, positions(t, repo, "other"), "other types keep their numbering")

	require.NoError(t, repo.Reactivate(context.Background(), ids[0], 3))
	assert.Equal(t, map[string]int{"b": 1, "c": 2, "a": 3}, positions(t, repo, "st"))

	mine, err := repo.ListActiveByUser(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestRotationRepo_FailedRemoveKeepsMember(t *testing.T) {
	t.Parallel()
	repo := memstore.New().Rotation()
	ids := rotationOf(t, repo, "st", "a", "b", "c")

	// remaining leaves a out, so c is renumbered onto a's position.
	err := repo.Remove(context.Background(), ids[1], []string{ids[2]})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, positions(t, repo, "st"))
}
