package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/worship/api/internal/metrics"
)

// runTimeout bounds a single run of any job.
const runTimeout = 5 * time.Minute

// ticker runs a task on a fixed interval in its own goroutine. Each job embeds
// one and supplies the task.
type ticker struct {
	name         string
	interval     time.Duration
	initialDelay time.Duration
	task         func(ctx context.Context) error

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func newTicker(name string, interval, initialDelay time.Duration, task func(ctx context.Context) error) *ticker {
	return &ticker{
		name:         name,
		interval:     interval,
		initialDelay: initialDelay,
		task:         task,
	}
}

// Start begins the job loop. Calling Start on a running job does nothing.
func (t *ticker) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.stopCh = make(chan struct{})
	t.mu.Unlock()

	t.wg.Add(1)
	go t.run(t.stopCh)
	slog.Info("job started", slog.String("job", t.name), slog.Duration("interval", t.interval))
}

// Stop ends the loop and waits for an in-flight run to finish.
func (t *ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stopCh)
	t.mu.Unlock()

	t.wg.Wait()
	slog.Info("job stopped", slog.String("job", t.name))
}

// IsRunning returns whether the job loop is active
func (t *ticker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *ticker) run(stop <-chan struct{}) {
	defer t.wg.Done()

	// Give the rest of the process a moment to come up.
	if t.initialDelay > 0 {
		delay := time.NewTimer(t.initialDelay)
		select {
		case <-delay.C:
		case <-stop:
			delay.Stop()
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	t.tick(ctx)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-tk.C:
			t.tick(ctx)
		case <-stop:
			return
		}
	}
}

func (t *ticker) tick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, runTimeout)
	defer cancel()

	err := t.task(ctx)
	metrics.RecordJobRun(t.name, err)
	if err != nil {
		slog.Error("job run failed", slog.String("job", t.name), slog.String("error", err.Error()))
	}
}
