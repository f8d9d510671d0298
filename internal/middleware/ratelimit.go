package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/forgo/worship/api/internal/model"
)

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Requests int           // Requests per period (default 100)
	Period   time.Duration // Window length (default 1 minute)
	Prefix   string        // Store key prefix, keeps separate limiters apart
	Store    limiter.Store // Defaults to an in-process memory store
}

// NewMemoryStore returns a process-local limiter store.
func NewMemoryStore(prefix string) limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: 5 * time.Minute,
	})
}

// ConnectRedis opens and pings a redis client for limiter stores. The caller
// closes it.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ratelimit: redis ping: %w", err)
	}
	return client, nil
}

// NewRedisStore returns a store shared by every API instance. Stores with
// different prefixes can share one client.
func NewRedisStore(client *redis.Client, prefix string) (limiter.Store, error) {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return store, nil
}

// RateLimiter counts requests per client key.
type RateLimiter struct {
	limiter *limiter.Limiter
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 100
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "worship:ratelimit"
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore(cfg.Prefix)
	}
	rate := limiter.Rate{Period: cfg.Period, Limit: int64(cfg.Requests)}
	return &RateLimiter{limiter: limiter.New(cfg.Store, rate)}
}

// Allow consumes one request for key.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (limiter.Context, error) {
	return rl.limiter.Get(ctx, key)
}

// RateLimit returns a middleware that applies rate limiting. Requests carrying
// verified claims are keyed by user id, so that only happens when the limiter
// is mounted after Auth; otherwise the key is the remote IP.
func RateLimit(rl *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lc, err := rl.Allow(r.Context(), clientKey(r))
			if err != nil {
				// Fail open on store errors.
				slog.WarnContext(r.Context(), "rate limit store error",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))

			if lc.Reached {
				retryAfter := int(time.Until(time.Unix(lc.Reset, 0)).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				model.NewRateLimitError(retryAfter).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
