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

func TestReminderService_Due(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "Ada", model.UserRoleAdmin)
	musician := e.user(t, "Bo", model.UserRoleMusician)
	st := e.sundayType(t)
	soon := e.service(t, st.ID, "2025-03-09")
	later := e.service(t, st.ID, "2025-03-30")

	inst, err := e.instruments.Create(ctx, model.CreateInstrumentRequest{Name: "Guitar"})
	require.NoError(t, err)

	var setIDs []string
	for _, svc := range []*model.Service{soon, later} {
		detail, err := e.sets.Create(ctx, svc.ID, model.CreateWorshipSetRequest{LeaderID: &admin.ID})
		require.NoError(t, err)
		setIDs = append(setIDs, detail.WorshipSet.ID)
		_, err = e.assignments.Create(ctx, actorOf(admin), detail.WorshipSet.ID,
			model.CreateAssignmentRequest{InstrumentID: inst.ID, UserID: musician.ID})
		require.NoError(t, err)
	}

	_, err = e.suggestions.CreateSlot(ctx, actorOf(admin), setIDs[0], model.CreateSuggestionSlotRequest{
		UserID:   musician.ID,
		DueAt:    testNow.Add(48 * time.Hour),
		MinSongs: 1,
		MaxSongs: 3,
	})
	require.NoError(t, err)

	reminders := service.NewReminderService(e.store.Assignments(), e.store.Slots(), e.clock)
	due, err := reminders.Due(ctx, 7*24*time.Hour)
	require.NoError(t, err)

	// The 2025-03-30 assignment is outside the week.
	require.Len(t, due, 2)
	for _, n := range due {
		assert.Equal(t, musician.ID, n.UserID)
		assert.Equal(t, model.NotificationReminder, n.Type)
	}
	assert.Contains(t, due[0].ReferenceID, "assignment:")
	assert.Contains(t, due[1].ReferenceID, "slot:")
}

func TestReminderService_SkipsAnswered(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "Cy", model.UserRoleAdmin)
	musician := e.user(t, "Di", model.UserRoleMusician)
	st := e.sundayType(t)
	svc := e.service(t, st.ID, "2025-03-09")

	inst, err := e.instruments.Create(ctx, model.CreateInstrumentRequest{Name: "Piano"})
	require.NoError(t, err)
	detail, err := e.sets.Create(ctx, svc.ID, model.CreateWorshipSetRequest{LeaderID: &admin.ID})
	require.NoError(t, err)
	a, err := e.assignments.Create(ctx, actorOf(admin), detail.WorshipSet.ID,
		model.CreateAssignmentRequest{InstrumentID: inst.ID, UserID: musician.ID})
	require.NoError(t, err)
	_, err = e.assignments.Respond(ctx, actorOf(musician), a.ID,
		model.RespondAssignmentRequest{Status: model.AssignmentStatusAccepted})
	require.NoError(t, err)

	due, err := service.NewReminderService(e.store.Assignments(), e.store.Slots(), e.clock).Due(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestReminderService_SkipsCancelledServices(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "Ed", model.UserRoleAdmin)
	musician := e.user(t, "Flo", model.UserRoleMusician)
	st := e.sundayType(t)
	svc := e.service(t, st.ID, "2025-03-09")

	inst, err := e.instruments.Create(ctx, model.CreateInstrumentRequest{Name: "Bass"})
	require.NoError(t, err)
	detail, err := e.sets.Create(ctx, svc.ID, model.CreateWorshipSetRequest{LeaderID: &admin.ID})
	require.NoError(t, err)
	_, err = e.assignments.Create(ctx, actorOf(admin), detail.WorshipSet.ID,
		model.CreateAssignmentRequest{InstrumentID: inst.ID, UserID: musician.ID})
	require.NoError(t, err)
	_, err = e.suggestions.CreateSlot(ctx, actorOf(admin), detail.WorshipSet.ID, model.CreateSuggestionSlotRequest{
		UserID:   musician.ID,
		DueAt:    testNow.Add(48 * time.Hour),
		MinSongs: 1,
		MaxSongs: 3,
	})
	require.NoError(t, err)

	reminders := service.NewReminderService(e.store.Assignments(), e.store.Slots(), e.clock)
	due, err := reminders.Due(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, due, 2)

	cancelled := model.ServiceStatusCancelled
	_, err = e.calendar.Update(ctx, svc.ID, model.UpdateServiceRequest{Status: &cancelled})
	require.NoError(t, err)

	due, err = reminders.Due(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, due)
}
