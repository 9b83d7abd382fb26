package network

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per host so that parallel workers
// still respect the configured rate against each target.
type HostLimiter struct {
	rate  rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter creates a new per-host limiter.
// perSecond: requests per second (0 = unlimited, returns nil)
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		rate:     rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	host = strings.ToLower(host)
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.rate, h.burst)
		h.limiters[host] = l
	}
	return l
}

// Wait blocks until host may be contacted again or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if h == nil {
		return ctx.Err()
	}
	return h.limiter(host).Wait(ctx)
}
