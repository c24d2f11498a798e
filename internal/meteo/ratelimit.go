package meteo

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCallInterval is the minimum spacing between outbound calls to the
// external data source.
const DefaultCallInterval = 500 * time.Millisecond

// callLimiter enforces a minimum interval between successive grants. It is
// shared by all operations of a Client so that geocoding and archive calls
// serialize against the same budget.
type callLimiter struct {
	lim *rate.Limiter
}

func newCallLimiter(interval time.Duration) *callLimiter {
	if interval <= 0 {
		interval = DefaultCallInterval
	}
	// Burst of one: each grant must wait out the full interval since the
	// previous one, even under concurrent callers.
	return &callLimiter{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

// acquire blocks until the interval since the previous grant has elapsed.
// It only fails when ctx is cancelled while waiting.
func (l *callLimiter) acquire(ctx context.Context) error {
	return l.lim.Wait(ctx)
}
