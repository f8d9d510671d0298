package service

import (
	"context"
	"time"

	"github.com/forgo/worship/api/internal/model"
)

// ReminderService finds work that members still owe before an upcoming
// service: unanswered assignments and open suggestion slots.
type ReminderService struct {
	assignments AssignmentRepository
	slots       SuggestionSlotRepository
	clock       Clock
}

func NewReminderService(assignments AssignmentRepository, slots SuggestionSlotRepository, clock Clock) *ReminderService {
	return &ReminderService{assignments: assignments, slots: slots, clock: clock}
}

// Due returns one reminder per pending assignment whose service falls within
// lead of now, and per pending slot due within lead. Reference ids are
// stable so NotifyOnce can de-duplicate across runs.
func (s *ReminderService) Due(ctx context.Context, lead time.Duration) ([]model.Notification, error) {
	now := s.clock.now()
	horizon := now.Add(lead)

	pending, err := s.assignments.ListPending(ctx,
		now.UTC().Format(model.DateLayout),
		horizon.UTC().Format(model.DateLayout))
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListPendingDueBefore(ctx, horizon)
	if err != nil {
		return nil, err
	}

	out := make([]model.Notification, 0, len(pending)+len(slots))
	for _, a := range pending {
		out = append(out, model.Notification{
			UserID:      a.UserID,
			Type:        model.NotificationReminder,
			Subject:     "Please respond to your assignment on " + a.ServiceDate,
			Body:        "You are scheduled to play on " + a.ServiceDate + " and have not accepted or declined yet.",
			ReferenceID: "assignment:" + a.ID,
		})
	}
	for _, slot := range slots {
		// Past due slots belong to the expirer.
		if !slot.DueAt.After(now) {
			continue
		}
		due := slot.DueAt.UTC().Format(time.RFC3339)
		out = append(out, model.Notification{
			UserID:      slot.UserID,
			Type:        model.NotificationReminder,
			Subject:     "Song suggestions due " + due,
			Body:        "Your song suggestions for an upcoming set are due " + due + ".",
			ReferenceID: "slot:" + slot.ID,
		})
	}
	return out, nil
}
