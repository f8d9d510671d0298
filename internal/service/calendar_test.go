package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/worship/api/internal/model"
	"github.com/forgo/worship/api/internal/service"
)

func TestCalendar_CreateTypeRejectsDuplicateName(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	e.sundayType(t)
	_, err := e.calendar.CreateType(ctx, model.CreateServiceTypeRequest{Name: "sunday morning"})
	assert.ErrorIs(t, err, service.ErrServiceTypeExists)
}

func TestCalendar_GenerateSkipsExistingDates(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	st := e.sundayType(t)
	e.service(t, st.ID, "2025-03-16")

	created, err := e.calendar.Generate(ctx, st.ID, model.GenerateServicesRequest{From: "2025-03-05", To: "2025-03-31"})
	require.NoError(t, err)

	dates := make([]string, 0, len(created))
	for _, svc := range created {
		dates = append(dates, svc.Date)
		assert.Equal(t, model.ServiceStatusScheduled, svc.Status)
	}
	assert.Equal(t, []string{"2025-03-09", "2025-03-23", "2025-03-30"}, dates)

	all, err := e.calendar.List(ctx, model.ServiceFilter{ServiceTypeID: st.ID})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCalendar_GenerateValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	st := e.sundayType(t)
	noDay, err := e.calendar.CreateType(ctx, model.CreateServiceTypeRequest{Name: "Special"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		typeID string
		req    model.GenerateServicesRequest
		want   error
	}{
		{"reversed range", st.ID, model.GenerateServicesRequest{From: "2025-04-01", To: "2025-03-01"}, service.ErrInvalidDateRange},
		{"span too long", st.ID, model.GenerateServicesRequest{From: "2025-01-01", To: "2026-06-01"}, service.ErrInvalidDateRange},
		{"bad date", st.ID, model.GenerateServicesRequest{From: "2025-13-01", To: "2025-12-01"}, service.ErrInvalidDate},
		{"no weekday", noDay.ID, model.GenerateServicesRequest{From: "2025-03-01", To: "2025-03-31"}, service.ErrNoDefaultWeekday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.calendar.Generate(ctx, tt.typeID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCalendar_CreateUsesTypeStartTime(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	start := "09:30"
	st, err := e.calendar.CreateType(ctx, model.CreateServiceTypeRequest{Name: "Early", DefaultStartTime: &start})
	require.NoError(t, err)

	svc := e.service(t, st.ID, "2025-03-09")
	require.NotNil(t, svc.StartTime)
	assert.Equal(t, "09:30", *svc.StartTime)

	inactive := false
	_, err = e.calendar.UpdateType(ctx, st.ID, model.UpdateServiceTypeRequest{Active: &inactive})
	require.NoError(t, err)
	_, err = e.calendar.Create(ctx, model.CreateServiceRequest{ServiceTypeID: st.ID, Date: "2025-03-16"})
	assert.ErrorIs(t, err, service.ErrServiceTypeInactive)
}

func TestCalendar_MovingServiceSyncsSet(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	st := e.sundayType(t)
	svc := e.service(t, st.ID, "2025-03-09")
	detail, err := e.sets.Create(ctx, svc.ID, model.CreateWorshipSetRequest{})
	require.NoError(t, err)

	moved := "2025-03-10"
	_, err = e.calendar.Update(ctx, svc.ID, model.UpdateServiceRequest{Date: &moved})
	require.NoError(t, err)

	got, err := e.sets.Get(ctx, detail.WorshipSet.ID)
	require.NoError(t, err)
	assert.Equal(t, moved, got.WorshipSet.ServiceDate)
}

func TestCalendar_DeleteTypeInUse(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	st := e.sundayType(t)
	svc := e.service(t, st.ID, "2025-03-09")

	assert.ErrorIs(t, e.calendar.DeleteType(ctx, st.ID), service.ErrServiceTypeInUse)

	_, err := e.sets.Create(ctx, svc.ID, model.CreateWorshipSetRequest{})
	require.NoError(t, err)
	require.NoError(t, e.calendar.Delete(ctx, svc.ID))

	_, err = e.sets.GetByService(ctx, svc.ID)
	assert.ErrorIs(t, err, service.ErrWorshipSetNotFound)
	assert.NoError(t, e.calendar.DeleteType(ctx, st.ID))
}

func TestCalendar_DeleteTypeRemovesRotationAndDefaults(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	st := e.sundayType(t)
	leader := e.user(t, "Hal", model.UserRoleLeader)
	e.addToRotation(t, st.ID, leader)

	inst, err := e.instruments.Create(ctx, model.CreateInstrumentRequest{Name: "Drums"})
	require.NoError(t, err)
	_, err = e.assignments.ReplaceDefaults(ctx, st.ID, model.SetDefaultAssignmentsRequest{
		Assignments: []model.DefaultAssignmentInput{{InstrumentID: inst.ID, UserID: leader.ID}},
	})
	require.NoError(t, err)

	require.NoError(t, e.calendar.DeleteType(ctx, st.ID))

	memberships, err := e.store.Rotation().ListActiveByUser(ctx, leader.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
	defaults, err := e.store.Defaults().ListByType(ctx, st.ID)
	require.NoError(t, err)
	assert.Empty(t, defaults)
}

func TestCalendar_ListValidatesDates(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.calendar.List(context.Background(), model.ServiceFilter{From: "yesterday"})
	assert.ErrorIs(t, err, service.ErrInvalidDate)
}
