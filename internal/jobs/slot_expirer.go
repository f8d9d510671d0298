package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/forgo/worship/api/internal/service"
)

// SlotExpirer closes suggestion slots whose deadline has passed without a
// submission.
type SlotExpirer struct {
	*ticker
	suggestions *service.SuggestionService
}

// NewSlotExpirer creates the job. A zero interval means every minute.
func NewSlotExpirer(suggestions *service.SuggestionService, interval, initialDelay time.Duration) *SlotExpirer {
	if interval == 0 {
		interval = time.Minute
	}
	e := &SlotExpirer{suggestions: suggestions}
	e.ticker = newTicker("slot_expirer", interval, initialDelay, e.RunOnce)
	return e
}

// RunOnce expires every overdue slot.
func (e *SlotExpirer) RunOnce(ctx context.Context) error {
	n, err := e.suggestions.ExpireDue(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "suggestion slots expired", slog.String("job", "slot_expirer"), slog.Int("count", n))
	}
	return nil
}
