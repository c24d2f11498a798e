package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/travel-climate/internal/climate"
)

// Scheduler periodically re-warms the profile cache for the configured
// high-traffic cities so warm entries never age out between restarts.
// Already-cached pairs are skipped by the warmer, so a re-warm run against
// a healthy cache is nearly free.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *climate.Service
	cities    []string
	interval  time.Duration
	log       zerolog.Logger
}

// New creates a Scheduler.
func New(cities []string, interval time.Duration, service *climate.Service, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		cities:    cities,
		interval:  interval,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the periodic re-warm job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.log.Info().Msg("no cities configured; nothing to schedule")
		return nil
	}

	hours := int(s.interval.Hours())
	if hours <= 0 {
		hours = 24
	}

	_, err := s.scheduler.Every(hours).Hours().Do(func() {
		s.log.Info().Msg("running scheduled cache re-warm")

		// Bound the run well below the scheduling interval.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		s.service.Warm(ctx, s.cities)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
