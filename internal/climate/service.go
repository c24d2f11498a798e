package climate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// defaultReferenceYear is the recent year used for the validation fetch.
	defaultReferenceYear = 2023
	// defaultHistoricalYears is how many additional years are pooled in
	// after validation succeeds.
	defaultHistoricalYears = 4
	// defaultPoolSize bounds concurrent resolutions for comparison and
	// cache warming.
	defaultPoolSize = 4
)

// Config tunes the aggregation window and fan-out of a Service.
type Config struct {
	ReferenceYear   int
	HistoricalYears int
	PoolSize        int
}

// Service orchestrates profile resolution on top of the cache and the
// external weather client, and builds the best-month and comparison
// aggregates from resolved profiles.
type Service struct {
	cache     ProfileCache
	client    WeatherClient
	refYear   int
	histYears int
	poolSize  int
	log       zerolog.Logger
}

// NewService creates a Service. Zero config fields get defaults.
func NewService(cache ProfileCache, client WeatherClient, cfg Config, log zerolog.Logger) *Service {
	if cfg.ReferenceYear <= 0 {
		cfg.ReferenceYear = defaultReferenceYear
	}
	if cfg.HistoricalYears <= 0 {
		cfg.HistoricalYears = defaultHistoricalYears
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	return &Service{
		cache:     cache,
		client:    client,
		refYear:   cfg.ReferenceYear,
		histYears: cfg.HistoricalYears,
		poolSize:  cfg.PoolSize,
		log:       log.With().Str("component", "climate_service").Logger(),
	}
}

// Resolve returns the monthly profile for (city, month), computing and
// caching it on a miss. It never returns a partially-computed profile: if
// any historical-year fetch fails after the city validated, the whole
// resolution fails and nothing is cached.
func (s *Service) Resolve(ctx context.Context, city string, month int) (MonthlyProfile, error) {
	city = strings.TrimSpace(city)

	if profile, ok, err := s.cache.Get(ctx, city, month); err != nil {
		// A broken cache must not take resolution down with it.
		s.log.Warn().Str("city", city).Int("month", month).Err(err).Msg("cache read failed, treating as miss")
	} else if ok {
		s.log.Debug().Str("city", city).Int("month", month).Msg("cache hit")
		return profile, nil
	}

	s.log.Info().Str("city", city).Int("month", month).Msg("cache miss, computing profile")

	// Geocoding doubles as city validation. A CityNotFoundError here
	// propagates before any archive calls are spent on an invalid city.
	coords, err := s.client.ResolveCity(ctx, city)
	if err != nil {
		return MonthlyProfile{}, err
	}

	var mins, maxs []float64
	fetchYear := func(year int) error {
		start := fmt.Sprintf("%d-%02d-01", year, month)
		end := fmt.Sprintf("%d-%02d-28", year, month)
		samples, err := s.client.FetchDailyTemperatures(ctx, coords, start, end)
		if err != nil {
			return err
		}
		for _, sample := range samples {
			mins = append(mins, sample.MinTemp)
			maxs = append(maxs, sample.MaxTemp)
		}
		return nil
	}

	// Validation window first, then the historical years. Order matters:
	// an invalid month window fails before more rate-limited calls go out.
	if err := fetchYear(s.refYear); err != nil {
		return MonthlyProfile{}, err
	}
	for year := s.refYear - s.histYears; year < s.refYear; year++ {
		if err := fetchYear(year); err != nil {
			return MonthlyProfile{}, err
		}
	}

	profile := MonthlyProfile{
		City:       city,
		Month:      month,
		MinTempAvg: round2(mean(mins)),
		MaxTempAvg: round2(mean(maxs)),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := s.cache.Put(ctx, profile); err != nil {
		// The profile is complete and correct; a cache write failure only
		// costs a recomputation on the next request.
		s.log.Warn().Str("city", city).Int("month", month).Err(err).Msg("cache write failed")
	}
	return profile, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
