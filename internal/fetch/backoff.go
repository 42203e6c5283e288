package fetch

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// BackoffPolicy is the retry schedule shared by every paginated fetcher.
// Rate-limit responses back off much harder than plain server-busy
// responses because the portals enforce daily quotas, not just burst
// limits.
type BackoffPolicy struct {
	MaxAttempts   int
	RateLimitBase time.Duration // wait 2^attempt × this on HTTP 429
	BusyBase      time.Duration // wait 2^attempt × this on HTTP 503 and timeouts
}

// DefaultBackoff matches the portals' published guidance: up to 5 attempts,
// 10s/1s geometric bases.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts:   5,
		RateLimitBase: 10 * time.Second,
		BusyBase:      time.Second,
	}
}

// rateLimitDelay returns the wait before retry number attempt (0-based)
// after a rate-limit response.
func (p BackoffPolicy) rateLimitDelay(attempt int) time.Duration {
	return (1 << attempt) * p.RateLimitBase
}

// busyDelay returns the wait before retry number attempt (0-based) after a
// server-busy response or request timeout.
func (p BackoffPolicy) busyDelay(attempt int) time.Duration {
	return (1 << attempt) * p.BusyBase
}

// sleep waits for d on the given clock, returning false if the context is
// cancelled first. Cooperative, never a busy-wait.
func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
