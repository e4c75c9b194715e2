package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/your-org/mediaproxy/internal/config"
)

// Limiter enforces per-client fixed-window budgets (per hour and per day).
// Counters live in redis when available so limits hold across replicas;
// otherwise a per-process token bucket approximates the hourly budget.
type Limiter struct {
	rdb     *redis.Client
	perHour int
	perDay  int

	mu  sync.Mutex
	mem map[string]*rate.Limiter
}

func New(cfg config.RateLimitConfig) *Limiter {
	l := &Limiter{
		perHour: cfg.PerHour,
		perDay:  cfg.PerDay,
		mem:     make(map[string]*rate.Limiter),
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, using in-memory rate limiting", "error", err)
		} else {
			l.rdb = rdb
		}
	}
	return l
}

// Backend reports which counter store is in use.
func (l *Limiter) Backend() string {
	if l.rdb != nil {
		return "redis"
	}
	return "memory"
}

// Ping checks the redis backend. Always healthy in memory mode.
func (l *Limiter) Ping(ctx context.Context) error {
	if l.rdb == nil {
		return nil
	}
	return l.rdb.Ping(ctx).Err()
}

// Allow reports whether the client identified by ip may proceed.
// Redis errors degrade to the in-memory limiter rather than failing open.
func (l *Limiter) Allow(ctx context.Context, ip string) bool {
	if l.rdb != nil {
		ok, err := l.allowRedis(ctx, ip)
		if err == nil {
			return ok
		}
		slog.Warn("redis rate limit check failed", "error", err)
	}
	return l.allowMemory(ip)
}

func (l *Limiter) allowRedis(ctx context.Context, ip string) (bool, error) {
	now := time.Now().UTC()
	hourKey := fmt.Sprintf("rl:%s:h:%s", ip, now.Format("2006010215"))
	dayKey := fmt.Sprintf("rl:%s:d:%s", ip, now.Format("20060102"))

	pipe := l.rdb.Pipeline()
	hourCount := pipe.Incr(ctx, hourKey)
	pipe.Expire(ctx, hourKey, time.Hour)
	dayCount := pipe.Incr(ctx, dayKey)
	pipe.Expire(ctx, dayKey, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return hourCount.Val() <= int64(l.perHour) && dayCount.Val() <= int64(l.perDay), nil
}

func (l *Limiter) allowMemory(ip string) bool {
	l.mu.Lock()
	lim, ok := l.mem[ip]
	if !ok {
		burst := l.perHour / 10
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Every(time.Hour/time.Duration(l.perHour)), burst)
		l.mem[ip] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
