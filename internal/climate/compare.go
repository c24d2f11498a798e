package climate

import (
	"context"
	"errors"
	"sync"
)

// CompareCities resolves the given month's profile for every city
// concurrently, bounded by the service pool size, and assembles the
// comparison. The caller guarantees 2-5 distinct, non-empty names.
//
// The comparison is all-or-nothing: the first resolution failure cancels
// the remaining work and fails the whole call. No partial set is returned.
func (s *Service) CompareCities(ctx context.Context, cities []string, month int) (ComparisonResult, error) {
	s.log.Info().Strs("cities", cities).Int("month", month).Msg("comparing cities")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		profiles []MonthlyProfile
	)
	sem := make(chan struct{}, s.poolSize)

	for _, city := range cities {
		wg.Add(1)
		go func(city string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			profile, err := s.Resolve(ctx, city, month)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			profiles = append(profiles, profile)
		}(city)
	}
	wg.Wait()

	if firstErr != nil {
		return ComparisonResult{}, firstErr
	}
	if len(profiles) == 0 {
		return ComparisonResult{}, errors.New("no city profiles could be resolved")
	}

	result := ComparisonResult{
		Month:  month,
		Cities: make(map[string]CityTemps, len(profiles)),
	}
	for _, profile := range profiles {
		result.Cities[profile.City] = CityTemps{
			MinTempAvg: profile.MinTempAvg,
			MaxTempAvg: profile.MaxTempAvg,
		}
	}
	return result, nil
}
