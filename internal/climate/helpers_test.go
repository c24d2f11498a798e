package climate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/i474232898/travel-climate/internal/meteo"
)

// fakeCache is an uncompressed in-memory ProfileCache for tests.
type fakeCache struct {
	mu     sync.Mutex
	data   map[string]MonthlyProfile
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]MonthlyProfile)}
}

func cacheKey(city string, month int) string {
	return strings.ToLower(city) + ":" + strconv.Itoa(month)
}

func (f *fakeCache) Get(_ context.Context, city string, month int) (MonthlyProfile, bool, error) {
	if f.getErr != nil {
		return MonthlyProfile{}, false, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.data[cacheKey(city, month)]
	return profile, ok, nil
}

func (f *fakeCache) Put(_ context.Context, profile MonthlyProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[cacheKey(profile.City, profile.Month)] = profile
	return nil
}

func (f *fakeCache) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

// fakeClient is a scriptable WeatherClient that counts calls.
type fakeClient struct {
	mu           sync.Mutex
	resolveCalls int
	fetchCalls   int

	// cities that geocode successfully
	known map[string]meteo.Coordinates
	// samples returned per month window; defaults to flatSamples(10, 20, 3)
	samples func(month int) []meteo.DailySample
	// fail the nth fetch call onwards (1-based); 0 = never
	failFetchAt int
	// archive failures for specific months
	failMonths map[int]bool
	// artificial latency per fetch, for concurrency assertions
	fetchDelay time.Duration

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeClient(cities ...string) *fakeClient {
	known := make(map[string]meteo.Coordinates, len(cities))
	for i, city := range cities {
		known[city] = meteo.Coordinates{Latitude: float64(i), Longitude: float64(i)}
	}
	return &fakeClient{known: known}
}

func flatSamples(min, max float64, n int) []meteo.DailySample {
	samples := make([]meteo.DailySample, n)
	for i := range samples {
		samples[i] = meteo.DailySample{MinTemp: min, MaxTemp: max}
	}
	return samples
}

func (f *fakeClient) ResolveCity(_ context.Context, name string) (meteo.Coordinates, error) {
	f.mu.Lock()
	f.resolveCalls++
	f.mu.Unlock()

	coords, ok := f.known[name]
	if !ok {
		return meteo.Coordinates{}, &meteo.CityNotFoundError{City: name}
	}
	return coords, nil
}

func (f *fakeClient) FetchDailyTemperatures(_ context.Context, _ meteo.Coordinates, startDate, _ string) ([]meteo.DailySample, error) {
	cur := f.inflight.Add(1)
	for {
		max := f.maxInflight.Load()
		if cur <= max || f.maxInflight.CompareAndSwap(max, cur) {
			break
		}
	}
	defer f.inflight.Add(-1)

	if f.fetchDelay > 0 {
		time.Sleep(f.fetchDelay)
	}

	f.mu.Lock()
	f.fetchCalls++
	n := f.fetchCalls
	f.mu.Unlock()

	if f.failFetchAt > 0 && n >= f.failFetchAt {
		return nil, &meteo.DataSourceError{Op: "archive", Err: fmt.Errorf("scripted failure on call %d", n)}
	}

	month, err := strconv.Atoi(startDate[5:7])
	if err != nil {
		return nil, fmt.Errorf("unexpected start date %q: %w", startDate, err)
	}
	if f.failMonths[month] {
		return nil, &meteo.DataSourceError{Op: "archive", Err: fmt.Errorf("scripted failure for month %d", month)}
	}

	if f.samples != nil {
		return f.samples(month), nil
	}
	return flatSamples(10, 20, 3), nil
}

func (f *fakeClient) calls() (resolve, fetch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolveCalls, f.fetchCalls
}
