package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

// ============================================================================
// Rotation fixtures
// ============================================================================

type rotationFixture struct {
	*env
	st      *model.ServiceType
	a, b, c *model.User
	admin   *model.User
	members []*model.RotationMember
	sundays []*model.Service
}

func newRotationFixture(t *testing.T) *rotationFixture {
	t.Helper()
	e := newEnv(t)
	f := &rotationFixture{env: e}
	f.st = e.sundayType(t)
	f.a = e.user(t, "anna", model.UserRoleLeader)
	f.b = e.user(t, "ben", model.UserRoleLeader)
	f.c = e.user(t, "cara", model.UserRoleAdmin)
	f.admin = e.user(t, "root", model.UserRoleAdmin)
	f.members = e.addToRotation(t, f.st.ID, f.a, f.b, f.c)
	for _, d := range []string{"2025-03-09", "2025-03-16", "2025-03-23", "2025-03-30"} {
		f.sundays = append(f.sundays, e.service(t, f.st.ID, d))
	}
	return f
}

func (f *rotationFixture) createSets(t *testing.T, svcs ...*model.Service) []*model.WorshipSet {
	t.Helper()
	out := make([]*model.WorshipSet, 0, len(svcs))
	for _, svc := range svcs {
		detail, err := f.sets.Create(context.Background(), svc.ID, model.CreateWorshipSetRequest{})
		require.NoError(t, err)
		out = append(out, detail.WorshipSet)
	}
	return out
}

// ============================================================================
// Assignment order
// ============================================================================

func TestRotation_AssignsLeadersInTurn(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)

	f.createSets(t, f.sundays...)

	assert.Equal(t, []string{f.a.ID, f.b.ID, f.c.ID, f.a.ID}, f.leaders(t, f.sundays...))
}

func TestRotation_NextLeaderFollowsLatestRotationSet(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	f.createSets(t, f.sundays[0])

	next, err := f.rotation.NextLeader(ctx, f.st.ID, "2025-03-16")
	require.NoError(t, err)
	assert.Equal(t, f.b.ID, next.Member.UserID)
	require.NotNil(t, next.User)
	assert.Equal(t, "ben", next.User.FirstName)

	// The set on the date itself is not its own anchor.
	next, err = f.rotation.NextLeader(ctx, f.st.ID, "2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, f.a.ID, next.Member.UserID)
}

func TestRotation_AnchorsOnPastRotationSet(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	past := f.service(t, f.st.ID, "2025-03-02")
	detail, err := f.sets.Create(ctx, past.ID, model.CreateWorshipSetRequest{LeaderID: &f.b.ID})
	require.NoError(t, err)
	useRotation := true
	_, err = f.sets.Update(ctx, actorOf(f.admin), detail.WorshipSet.ID, model.UpdateWorshipSetRequest{UseRotation: &useRotation})
	require.NoError(t, err)

	f.createSets(t, f.sundays[0], f.sundays[1])

	assert.Equal(t, []string{f.b.ID, f.c.ID, f.a.ID}, f.leaders(t, past, f.sundays[0], f.sundays[1]))
}

func TestRotation_ManualOverrideDoesNotConsumeTurn(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	sets := f.createSets(t, f.sundays...)
	updated, err := f.sets.Update(ctx, actorOf(f.admin), sets[1].ID, model.UpdateWorshipSetRequest{LeaderID: &f.c.ID})
	require.NoError(t, err)
	assert.Equal(t, model.LeaderSourceManual, updated.LeaderSource)

	assert.Equal(t, []string{f.a.ID, f.c.ID, f.b.ID, f.c.ID}, f.leaders(t, f.sundays...))
}

func TestRotation_CancelledServiceIsSkipped(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	f.createSets(t, f.sundays[0], f.sundays[1], f.sundays[2])
	cancelled := model.ServiceStatusCancelled
	_, err := f.calendar.Update(ctx, f.sundays[1].ID, model.UpdateServiceRequest{Status: &cancelled})
	require.NoError(t, err)

	leaders := f.leaders(t, f.sundays[0], f.sundays[2])
	assert.Equal(t, []string{f.a.ID, f.b.ID}, leaders)
}

func TestRotation_CancelledSetIsNotAnAnchor(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	f.createSets(t, f.sundays[0], f.sundays[1], f.sundays[2])
	cancelled := model.ServiceStatusCancelled
	_, err := f.calendar.Update(ctx, f.sundays[1].ID, model.UpdateServiceRequest{Status: &cancelled})
	require.NoError(t, err)
	require.Equal(t, []string{f.a.ID, f.b.ID, f.b.ID}, f.leaders(t, f.sundays[0], f.sundays[1], f.sundays[2]))

	next, err := f.rotation.NextLeader(ctx, f.st.ID, "2025-03-20")
	require.NoError(t, err)
	assert.Equal(t, f.b.ID, next.Member.UserID)

	// 2025-03-18: the cancelled Sunday is now in the past.
	f.advance(13 * 24 * time.Hour)
	result, err := f.rotation.Recalculate(ctx, f.st.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Changes)
	assert.Equal(t, []string{f.b.ID}, f.leaders(t, f.sundays[2]))
}

func TestRotation_SameDayServicesFollowStartTime(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	late, early := "11:00", "09:00"
	second, err := f.calendar.Create(ctx, model.CreateServiceRequest{ServiceTypeID: f.st.ID, Date: "2025-03-12", StartTime: &late})
	require.NoError(t, err)
	first, err := f.calendar.Create(ctx, model.CreateServiceRequest{ServiceTypeID: f.st.ID, Date: "2025-03-12", StartTime: &early})
	require.NoError(t, err)
	f.createSets(t, second, first)

	assert.Equal(t, []string{f.a.ID, f.b.ID}, f.leaders(t, first, second))

	next, err := f.rotation.NextLeader(ctx, f.st.ID, "2025-03-16")
	require.NoError(t, err)
	assert.Equal(t, f.c.ID, next.Member.UserID)
}

func TestRotation_RecalculateReportsChanges(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	f.createSets(t, f.sundays...)

	result, err := f.rotation.Recalculate(ctx, f.st.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Examined)
	assert.Empty(t, result.Changes, "a settled rotation has nothing to change")
}

// ============================================================================
// Membership
// ============================================================================

func TestRotation_RemoveRenumbersAndRecalculates(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	f.createSets(t, f.sundays[0], f.sundays[1], f.sundays[2])
	require.NoError(t, f.rotation.Remove(ctx, f.st.ID, f.members[1].ID))

	members, err := f.rotation.List(ctx, f.st.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, f.a.ID, members[0].UserID)
	assert.Equal(t, 1, *members[0].Position)
	assert.Equal(t, f.c.ID, members[1].UserID)
	assert.Equal(t, 2, *members[1].Position)

	assert.Equal(t, []string{f.a.ID, f.c.ID, f.a.ID}, f.leaders(t, f.sundays[0], f.sundays[1], f.sundays[2]))
}

func TestRotation_RemoveUnknownMember(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)

	err := f.rotation.Remove(context.Background(), f.st.ID, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, service.ErrRotationMemberNotFound)
}

func TestRotation_AddReactivatesRemovedMember(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	require.NoError(t, f.rotation.Remove(ctx, f.st.ID, f.members[0].ID))
	back, err := f.rotation.Add(ctx, f.st.ID, model.AddRotationMemberRequest{UserID: f.a.ID})
	require.NoError(t, err)

	assert.Equal(t, f.members[0].ID, back.ID, "membership row is reused")
	assert.Equal(t, 3, *back.Position)

	_, err = f.rotation.Add(ctx, f.st.ID, model.AddRotationMemberRequest{UserID: f.a.ID})
	assert.ErrorIs(t, err, service.ErrAlreadyInRotation)
}

func TestRotation_AddRejectsMusician(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	drummer := f.user(t, "dan", model.UserRoleMusician)

	_, err := f.rotation.Add(context.Background(), f.st.ID, model.AddRotationMemberRequest{UserID: drummer.ID})
	assert.ErrorIs(t, err, service.ErrLeaderNotEligible)
}

func TestRotation_Reorder(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	f.createSets(t, f.sundays[0], f.sundays[1], f.sundays[2])

	_, err := f.rotation.Reorder(ctx, f.st.ID, model.ReorderRotationRequest{
		MemberIDs: []string{f.members[0].ID, f.members[1].ID},
	})
	assert.ErrorIs(t, err, service.ErrInvalidRotationOrder)

	members, err := f.rotation.Reorder(ctx, f.st.ID, model.ReorderRotationRequest{
		MemberIDs: []string{f.members[2].ID, f.members[1].ID, f.members[0].ID},
	})
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, f.c.ID, members[0].UserID)

	assert.Equal(t, []string{f.c.ID, f.b.ID, f.a.ID}, f.leaders(t, f.sundays[0], f.sundays[1], f.sundays[2]))
}

func TestRotation_EmptyRotationClearsLeaders(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	f.createSets(t, f.sundays[0], f.sundays[1])
	for _, m := range f.members {
		require.NoError(t, f.rotation.Remove(ctx, f.st.ID, m.ID))
	}

	assert.Equal(t, []string{"", ""}, f.leaders(t, f.sundays[0], f.sundays[1]))

	_, err := f.rotation.NextLeader(ctx, f.st.ID, "2025-04-06")
	assert.ErrorIs(t, err, service.ErrRotationEmpty)

	// Sets can still be created without a leader.
	detail, err := f.sets.Create(ctx, f.sundays[2].ID, model.CreateWorshipSetRequest{})
	require.NoError(t, err)
	assert.Nil(t, detail.WorshipSet.LeaderID)
}

func TestRotation_NextLeaderValidation(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	_, err := f.rotation.NextLeader(ctx, f.st.ID, "March 9")
	assert.ErrorIs(t, err, service.ErrInvalidDate)

	_, err = f.rotation.NextLeader(ctx, "00000000-0000-0000-0000-000000000000", "2025-03-09")
	assert.ErrorIs(t, err, service.ErrServiceTypeNotFound)
}

func TestRotation_IneligibleUsersLeave(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	f.createSets(t, f.sundays...)

	inactive := false
	_, err := f.users.Update(ctx, actorOf(f.admin), f.b.ID, model.UpdateUserRequest{Active: &inactive})
	require.NoError(t, err)
	musician := model.UserRoleMusician
	_, err = f.users.Update(ctx, actorOf(f.admin), f.c.ID, model.UpdateUserRequest{Role: &musician})
	require.NoError(t, err)

	members, err := f.rotation.List(ctx, f.st.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, f.a.ID, members[0].UserID)
	assert.Equal(t, []string{f.a.ID, f.a.ID, f.a.ID, f.a.ID}, f.leaders(t, f.sundays...))

	// Reactivating does not rejoin on its own.
	active := true
	_, err = f.users.Update(ctx, actorOf(f.admin), f.b.ID, model.UpdateUserRequest{Active: &active})
	require.NoError(t, err)
	members, err = f.rotation.List(ctx, f.st.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestRotation_RenamingLeaderKeepsMembership(t *testing.T) {
	t.Parallel()
	f := newRotationFixture(t)
	ctx := context.Background()

	name := "Benjamin"
	_, err := f.users.Update(ctx, actorOf(f.admin), f.b.ID, model.UpdateUserRequest{FirstName: &name})
	require.NoError(t, err)
	admin := model.UserRoleAdmin
	_, err = f.users.Update(ctx, actorOf(f.admin), f.b.ID, model.UpdateUserRequest{Role: &admin})
	require.NoError(t, err)

	members, err := f.rotation.List(ctx, f.st.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)
}
