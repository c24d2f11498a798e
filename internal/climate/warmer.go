package climate

import (
	"context"
	"sync"
	"time"
)

// WarmReport summarizes one cache warming run.
type WarmReport struct {
	Warmed  int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

// Warm pre-populates the cache for every (city, month) pair of the given
// cities, bounded by the service pool size. Pairs that are already cached
// are skipped. Individual failures are logged and skipped so one bad pair
// cannot abort the rest; Warm returns once all pairs have been attempted.
func (s *Service) Warm(ctx context.Context, cities []string) WarmReport {
	s.log.Info().Strs("cities", cities).Msg("starting cache warm-up")
	start := time.Now()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report WarmReport
	)
	sem := make(chan struct{}, s.poolSize)

	for _, city := range cities {
		for month := 1; month <= 12; month++ {
			wg.Add(1)
			go func(city string, month int) {
				defer wg.Done()

				sem <- struct{}{}
				defer func() { <-sem }()

				if _, ok, err := s.cache.Get(ctx, city, month); err == nil && ok {
					mu.Lock()
					report.Skipped++
					mu.Unlock()
					return
				}

				if _, err := s.Resolve(ctx, city, month); err != nil {
					s.log.Error().Str("city", city).Int("month", month).Err(err).Msg("warm-up resolution failed")
					mu.Lock()
					report.Failed++
					mu.Unlock()
					return
				}

				mu.Lock()
				report.Warmed++
				mu.Unlock()
			}(city, month)
		}
	}
	wg.Wait()

	report.Elapsed = time.Since(start)
	s.log.Info().
		Int("warmed", report.Warmed).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Dur("elapsed", report.Elapsed).
		Msg("cache warm-up completed")
	return report
}
