package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/forgo/worship/api/internal/service"
)

// TokenCleanup deletes refresh tokens past their expiry.
type TokenCleanup struct {
	*ticker
	tokens *service.TokenService
}

// NewTokenCleanup creates the job. A zero interval means hourly.
func NewTokenCleanup(tokens *service.TokenService, interval, initialDelay time.Duration) *TokenCleanup {
	if interval == 0 {
		interval = time.Hour
	}
	c := &TokenCleanup{tokens: tokens}
	c.ticker = newTicker("token_cleanup", interval, initialDelay, c.RunOnce)
	return c
}

func (c *TokenCleanup) RunOnce(ctx context.Context) error {
	n, err := c.tokens.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired refresh tokens removed", slog.String("job", "token_cleanup"), slog.Int("count", n))
	}
	return nil
}
