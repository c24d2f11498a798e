package climate

import (
	"context"
	"math"
)

// FindBestMonth scans all twelve months of a city and returns the one whose
// averages lie closest to the preferred [minTemp, maxTemp] range. The
// caller guarantees minTemp < maxTemp.
//
// Months resolve sequentially: after the first warm-up every call is a
// cache hit, so the simplicity beats fanning out here. Ties keep the
// earliest month (strict < comparison).
func (s *Service) FindBestMonth(ctx context.Context, city string, minTemp, maxTemp float64) (BestMonthResult, error) {
	s.log.Info().
		Str("city", city).
		Float64("min_temp", minTemp).
		Float64("max_temp", maxTemp).
		Msg("finding best travel month")

	best := BestMonthResult{OverallDiff: math.Inf(1)}

	for month := 1; month <= 12; month++ {
		profile, err := s.Resolve(ctx, city, month)
		if err != nil {
			return BestMonthResult{}, err
		}

		minDiff := math.Abs(profile.MinTempAvg - minTemp)
		maxDiff := math.Abs(profile.MaxTempAvg - maxTemp)
		overall := minDiff + maxDiff

		if overall < best.OverallDiff {
			best = BestMonthResult{
				City:        profile.City,
				BestMonth:   month,
				MinTempDiff: round2(minDiff),
				MaxTempDiff: round2(maxDiff),
				OverallDiff: overall,
			}
		}
	}

	best.OverallDiff = round2(best.OverallDiff)
	s.log.Info().Str("city", city).Int("best_month", best.BestMonth).Msg("best month found")
	return best, nil
}
