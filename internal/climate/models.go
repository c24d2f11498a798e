package climate

import (
	"context"
	"time"

	"github.com/i474232898/travel-climate/internal/meteo"
)

// MonthlyProfile is the aggregated climate view for one city and one
// calendar month, pooled across multiple historical years. Profiles are
// immutable once written: recomputation overwrites the cache entry
// wholesale, never field by field.
type MonthlyProfile struct {
	City       string    `json:"city"`
	Month      int       `json:"month"`
	MinTempAvg float64   `json:"min_temp_avg"`
	MaxTempAvg float64   `json:"max_temp_avg"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BestMonthResult reports the month whose profile lies closest to the
// preferred temperature range.
type BestMonthResult struct {
	City        string  `json:"city"`
	BestMonth   int     `json:"best_month"`
	MinTempDiff float64 `json:"min_temp_diff"`
	MaxTempDiff float64 `json:"max_temp_diff"`
	OverallDiff float64 `json:"overall_diff"`
}

// CityTemps is the per-city slice of a comparison.
type CityTemps struct {
	MinTempAvg float64 `json:"min_temp_avg"`
	MaxTempAvg float64 `json:"max_temp_avg"`
}

// ComparisonResult maps each requested city to its averages for one month.
type ComparisonResult struct {
	Month  int                  `json:"month"`
	Cities map[string]CityTemps `json:"cities"`
}

// ProfileCache is the contract a profile store must satisfy. A Get that
// misses, finds an expired entry, or finds a corrupt entry reports
// ok=false; corruption is never surfaced as an error so that resolution
// stays self-healing.
type ProfileCache interface {
	Get(ctx context.Context, city string, month int) (MonthlyProfile, bool, error)
	Put(ctx context.Context, profile MonthlyProfile) error
}

// WeatherClient abstracts the external data source (geocoding + archive).
// *meteo.Client is the production implementation.
type WeatherClient interface {
	ResolveCity(ctx context.Context, name string) (meteo.Coordinates, error)
	FetchDailyTemperatures(ctx context.Context, coords meteo.Coordinates, startDate, endDate string) ([]meteo.DailySample, error)
}
