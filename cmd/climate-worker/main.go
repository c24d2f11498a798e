package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/travel-climate/internal/cache"
	"github.com/i474232898/travel-climate/internal/climate"
	"github.com/i474232898/travel-climate/internal/config"
	"github.com/i474232898/travel-climate/internal/jobs"
	"github.com/i474232898/travel-climate/internal/logging"
	"github.com/i474232898/travel-climate/internal/meteo"
	"github.com/i474232898/travel-climate/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With().Str("service", "climate-worker").Logger()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	cancel()
	defer rdb.Close()

	// Shared HTTP client for outbound data-source calls (keep-alive reuse).
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	weatherClient := meteo.NewClient(httpClient, meteo.Options{
		GeocodingURL: cfg.GeocodingURL,
		ArchiveURL:   cfg.ArchiveURL,
		CallInterval: cfg.APICallInterval,
	}, logger)

	profileCache := cache.NewRedis(rdb, cfg.CacheTTL, logger)

	service := climate.NewService(profileCache, weatherClient, climate.Config{
		ReferenceYear:   cfg.ReferenceYear,
		HistoricalYears: cfg.HistoricalYears,
		PoolSize:        cfg.PoolSize,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pre-populate the cache for the high-traffic cities before taking
	// jobs, then keep it warm on a schedule.
	service.Warm(ctx, cfg.WarmCities)

	sched := scheduler.New(cfg.WarmCities, cfg.RewarmInterval, service, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start re-warm scheduler")
	}
	defer sched.Stop()

	queue := jobs.NewQueue(rdb, cfg.JobQueueKey, cfg.JobStatusTTL, logger)
	worker := jobs.NewWorker(queue, cfg.JobTimeout, logger)
	registerHandlers(worker, service)

	if err := worker.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("worker stopped with error")
	}
}

func registerHandlers(worker *jobs.Worker, service *climate.Service) {
	worker.Register(jobs.OpMonthlyProfile, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a jobs.MonthlyProfileArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("decoding monthly profile args: %w", err)
		}
		return service.Resolve(ctx, a.City, a.Month)
	})

	worker.Register(jobs.OpBestMonth, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a jobs.BestMonthArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("decoding best month args: %w", err)
		}
		return service.FindBestMonth(ctx, a.City, a.MinTemp, a.MaxTemp)
	})

	worker.Register(jobs.OpCompareCities, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a jobs.CompareCitiesArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("decoding compare cities args: %w", err)
		}
		return service.CompareCities(ctx, a.Cities, a.Month)
	})
}
