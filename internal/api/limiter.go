package api

import (
	"sync"

	"shareit/internal/config"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const (
	defaultBurst      = 5
	defaultMaxClients = 10000
)

// rateLimiter hands out one token bucket per client key. The least recently
// seen clients are evicted once MaxClients is reached.
type rateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	cfg      config.APIRateLimitConfig
}

func newRateLimiter(cfg config.APIRateLimitConfig) *rateLimiter {
	size := cfg.MaxClients
	if size <= 0 {
		size = defaultMaxClients
	}
	// lru.New fails only for a non-positive size
	cache, _ := lru.New[string, *rate.Limiter](size)
	return &rateLimiter{cfg: cfg, limiters: cache}
}

func (l *rateLimiter) enabled() bool {
	return l.cfg.RPS > 0
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters.Get(key); ok {
		return lim
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	l.limiters.Add(key, lim)
	return lim
}
