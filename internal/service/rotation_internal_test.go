package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgo/worship/api/internal/model"
)

func members(userIDs ...string) []*model.RotationMember {
	out := make([]*model.RotationMember, len(userIDs))
	for i, id := range userIDs {
		pos := i + 1
		out[i] = &model.RotationMember{ID: "m-" + id, UserID: id, Position: &pos, Active: true}
	}
	return out
}

func TestNextIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		members []*model.RotationMember
		last    string
		want    int
	}{
		{"no anchor starts at first", members("a", "b", "c"), "", 0},
		{"middle advances", members("a", "b", "c"), "a", 1},
		{"last wraps", members("a", "b", "c"), "c", 0},
		{"departed leader restarts", members("a", "b", "c"), "z", 0},
		{"single member", members("a"), "a", 0},
		{"empty rotation", nil, "a", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, nextIndex(tt.members, tt.last))
		})
	}
}

func TestSamePermutation(t *testing.T) {
	t.Parallel()
	active := members("a", "b", "c")

	assert.True(t, samePermutation(active, []string{"m-c", "m-a", "m-b"}))
	assert.False(t, samePermutation(active, []string{"m-a", "m-b"}))
	assert.False(t, samePermutation(active, []string{"m-a", "m-b", "m-x"}))
	assert.False(t, samePermutation(active, []string{"m-a", "m-a", "m-b"}))
}

func TestFirstWeekday(t *testing.T) {
	t.Parallel()
	wed, _ := parseDate("2025-03-05")

	assert.Equal(t, "2025-03-09", firstWeekday(wed, 0).Format(model.DateLayout))
	assert.Equal(t, "2025-03-05", firstWeekday(wed, 3).Format(model.DateLayout))
	assert.Equal(t, "2025-03-11", firstWeekday(wed, 2).Format(model.DateLayout))
}
