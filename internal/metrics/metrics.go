// Package metrics keeps per-route request counters in Redis so the API and
// worker processes share one view. Updates are advisory: recording is
// best-effort, read-modify-write on min/max is tolerated, and failures are
// logged rather than surfaced.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Route names tracked by the recorder.
const (
	RouteMonthlyProfile = "/weather/monthly-profile"
	RouteBestMonth      = "/travel/best-month"
	RouteCompareCities  = "/travel/compare-cities"
)

var routeKeys = map[string]string{
	RouteMonthlyProfile: "metrics:monthly-profile",
	RouteBestMonth:      "metrics:best-month",
	RouteCompareCities:  "metrics:compare-cities",
}

// RouteStats is the aggregated view for one route.
type RouteStats struct {
	RouteName string  `json:"route_name"`
	Hits      int64   `json:"hits"`
	Errors    int64   `json:"errors"`
	AvgTime   float64 `json:"avg_time"`
	MaxTime   float64 `json:"max_time"`
	MinTime   float64 `json:"min_time"`
}

// Recorder observes request outcomes and serves snapshots.
type Recorder struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewRecorder(rdb *redis.Client, log zerolog.Logger) *Recorder {
	return &Recorder{
		rdb: rdb,
		log: log.With().Str("component", "metrics").Logger(),
	}
}

// Observe records one request against its route.
func (r *Recorder) Observe(ctx context.Context, route string, duration time.Duration, failed bool) {
	key, ok := routeKeys[route]
	if !ok {
		return
	}
	seconds := duration.Seconds()

	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "hits", 1)
	pipe.HIncrByFloat(ctx, key, "total_time", seconds)
	if failed {
		pipe.HIncrBy(ctx, key, "errors", 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Warn().Str("route", route).Err(err).Msg("recording metrics failed")
		return
	}

	// Min/max are updated read-modify-write; a lost race only skews
	// extremes slightly.
	vals, err := r.rdb.HMGet(ctx, key, "min_time", "max_time").Result()
	if err != nil {
		return
	}
	min, minSet := parseFloatField(vals[0])
	max, _ := parseFloatField(vals[1])
	if !minSet || seconds < min {
		r.rdb.HSet(ctx, key, "min_time", seconds)
	}
	if seconds > max {
		r.rdb.HSet(ctx, key, "max_time", seconds)
	}
}

// Snapshot returns current stats for every tracked route.
func (r *Recorder) Snapshot(ctx context.Context) (map[string]RouteStats, error) {
	stats := make(map[string]RouteStats, len(routeKeys))

	for route, key := range routeKeys {
		vals, err := r.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}

		s := RouteStats{RouteName: route}
		s.Hits, _ = strconv.ParseInt(vals["hits"], 10, 64)
		s.Errors, _ = strconv.ParseInt(vals["errors"], 10, 64)
		s.MaxTime, _ = strconv.ParseFloat(vals["max_time"], 64)
		s.MinTime, _ = strconv.ParseFloat(vals["min_time"], 64)
		if total, err := strconv.ParseFloat(vals["total_time"], 64); err == nil && s.Hits > 0 {
			s.AvgTime = total / float64(s.Hits)
		}
		stats[route] = s
	}
	return stats, nil
}

func parseFloatField(v any) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
