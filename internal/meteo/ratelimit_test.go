package meteo

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

// Successive grants must be at least the configured interval apart, even
// when callers contend concurrently.
func TestCallLimiterSpacing(t *testing.T) {
	const (
		interval = 20 * time.Millisecond
		grants   = 5
	)
	limiter := newCallLimiter(interval)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		times []time.Time
	)
	for i := 0; i < grants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.acquire(context.Background()); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(times) != grants {
		t.Fatalf("expected %d grants, got %d", grants, len(times))
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	// Allow a small scheduling slack between the grant and the timestamp.
	const slack = 2 * time.Millisecond
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < interval-slack {
			t.Fatalf("grants %d and %d only %v apart, want >= %v", i-1, i, gap, interval)
		}
	}
}

func TestCallLimiterCancelledContext(t *testing.T) {
	limiter := newCallLimiter(time.Minute)

	// First grant is immediate.
	if err := limiter.acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.acquire(ctx); err == nil {
		t.Fatal("expected acquire to fail with cancelled context")
	}
}
