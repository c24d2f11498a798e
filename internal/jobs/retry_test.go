package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeSubmitter hands out one scripted terminal status per attempt.
type fakeSubmitter struct {
	mu       sync.Mutex
	statuses []Status
	enqueues int
}

func (f *fakeSubmitter) Enqueue(_ context.Context, _ Op, _ any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueues++
	return fmt.Sprintf("job-%d", f.enqueues), nil
}

func (f *fakeSubmitter) Await(_ context.Context, _ string, _ time.Duration) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

func newTestClient(queue Submitter, maxAttempts int) *Client {
	return NewClient(queue, time.Millisecond, RetryPolicy{MaxAttempts: maxAttempts}, zerolog.Nop())
}

func TestClientRetriesDataSourceFailures(t *testing.T) {
	queue := &fakeSubmitter{statuses: []Status{
		{State: StateFailed, Error: "archive down", ErrorKind: ErrorKindDataSource},
		{State: StateFailed, Error: "archive down", ErrorKind: ErrorKindDataSource},
		{State: StateFinished, Result: []byte(`{"ok":true}`)},
	}}
	client := newTestClient(queue, 3)

	status, attempts, err := client.Run(context.Background(), OpMonthlyProfile, MonthlyProfileArgs{City: "London", Month: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != StateFinished {
		t.Fatalf("expected finished status, got %+v", status)
	}
	if attempts != 3 || queue.enqueues != 3 {
		t.Fatalf("expected 3 attempts/enqueues, got %d/%d", attempts, queue.enqueues)
	}
}

func TestClientDoesNotRetryCityNotFound(t *testing.T) {
	queue := &fakeSubmitter{statuses: []Status{
		{State: StateFailed, Error: "city not found: Atlantis", ErrorKind: ErrorKindCityNotFound},
	}}
	client := newTestClient(queue, 3)

	status, attempts, err := client.Run(context.Background(), OpMonthlyProfile, MonthlyProfileArgs{City: "Atlantis", Month: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != StateFailed || status.ErrorKind != ErrorKindCityNotFound {
		t.Fatalf("unexpected status: %+v", status)
	}
	if attempts != 1 || queue.enqueues != 1 {
		t.Fatalf("city-not-found must be terminal, got %d attempts", attempts)
	}
}

func TestClientStopsAtMaxAttempts(t *testing.T) {
	queue := &fakeSubmitter{statuses: []Status{
		{State: StateFailed, Error: "archive down", ErrorKind: ErrorKindDataSource},
	}}
	client := newTestClient(queue, 3)

	status, attempts, err := client.Run(context.Background(), OpBestMonth, BestMonthArgs{City: "London", MinTemp: 10, MaxTemp: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != StateFailed {
		t.Fatalf("expected failed status, got %+v", status)
	}
	if attempts != 3 || queue.enqueues != 3 {
		t.Fatalf("expected the attempt budget to be exhausted, got %d/%d", attempts, queue.enqueues)
	}
}
