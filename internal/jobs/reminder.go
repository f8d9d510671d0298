package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forgo/worship/api/internal/service"
)

// ReminderConfig configures a ReminderProcessor.
type ReminderConfig struct {
	Reminders *service.ReminderService
	Notifier  *service.NotificationService
	// Interval between runs. Defaults to 15 minutes.
	Interval time.Duration
	// Lead is how far ahead services and slot deadlines are considered.
	// Defaults to 72 hours.
	Lead time.Duration
	// Concurrency caps parallel deliveries. Defaults to 4.
	Concurrency  int
	InitialDelay time.Duration
}

// ReminderProcessor nudges members who still owe an answer for an upcoming
// service: pending assignments and open suggestion slots. Each reminder is
// sent at most once.
type ReminderProcessor struct {
	*ticker
	reminders   *service.ReminderService
	notifier    *service.NotificationService
	lead        time.Duration
	concurrency int
}

func NewReminderProcessor(cfg ReminderConfig) *ReminderProcessor {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.Lead == 0 {
		cfg.Lead = 72 * time.Hour
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	p := &ReminderProcessor{
		reminders:   cfg.Reminders,
		notifier:    cfg.Notifier,
		lead:        cfg.Lead,
		concurrency: cfg.Concurrency,
	}
	p.ticker = newTicker("reminders", cfg.Interval, cfg.InitialDelay, p.RunOnce)
	return p
}

// RunOnce sends every reminder currently due.
func (p *ReminderProcessor) RunOnce(ctx context.Context) error {
	due, err := p.reminders.Due(ctx, p.lead)
	if err != nil {
		return err
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, n := range due {
		g.Go(func() error {
			ok, err := p.notifier.NotifyOnce(gctx, n)
			if err != nil {
				return err
			}
			if ok {
				sent.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := sent.Load(); n > 0 {
		slog.InfoContext(ctx, "reminders sent", slog.String("job", "reminders"), slog.Int64("count", n))
	}
	return nil
}
