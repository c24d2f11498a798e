package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/travel-climate/internal/jobs"
	"github.com/i474232898/travel-climate/internal/metrics"
)

var validate = validator.New()

// JobRunner submits an operation through the job boundary and blocks until
// its terminal status. *jobs.Client is the production implementation.
type JobRunner interface {
	Run(ctx context.Context, op jobs.Op, args any) (jobs.Status, int, error)
}

// MetricsSink records request outcomes and serves snapshots. May be nil.
type MetricsSink interface {
	Observe(ctx context.Context, route string, duration time.Duration, failed bool)
	Snapshot(ctx context.Context) (map[string]metrics.RouteStats, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, runner JobRunner, sink MetricsSink) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/monthly-profile", func(c *fiber.Ctx) error {
		var req monthlyProfileQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return runJob(c, runner, sink, metrics.RouteMonthlyProfile, jobs.OpMonthlyProfile, jobs.MonthlyProfileArgs{
			City:  req.City,
			Month: req.Month,
		})
	})

	v1.Get("/travel/best-month", func(c *fiber.Ctx) error {
		var req bestMonthQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return runJob(c, runner, sink, metrics.RouteBestMonth, jobs.OpBestMonth, jobs.BestMonthArgs{
			City:    req.City,
			MinTemp: req.MinTemp,
			MaxTemp: req.MaxTemp,
		})
	})

	v1.Get("/travel/compare-cities", func(c *fiber.Ctx) error {
		var req compareCitiesQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return runJob(c, runner, sink, metrics.RouteCompareCities, jobs.OpCompareCities, jobs.CompareCitiesArgs{
			Cities: req.Cities,
			Month:  req.Month,
		})
	})

	v1.Get("/metrics", func(c *fiber.Ctx) error {
		if sink == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "metrics not configured")
		}
		stats, err := sink.Snapshot(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read metrics")
		}
		return c.JSON(fiber.Map{"routes": stats})
	})
}

// runJob pushes the operation through the job boundary and shapes the
// terminal status into an HTTP response.
func runJob(c *fiber.Ctx, runner JobRunner, sink MetricsSink, route string, op jobs.Op, args any) error {
	start := time.Now()
	status, attempts, err := runner.Run(c.UserContext(), op, args)
	failed := err != nil || status.State != jobs.StateFinished

	if sink != nil {
		sink.Observe(c.UserContext(), route, time.Since(start), failed)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fiber.NewError(fiber.StatusGatewayTimeout, "job timed out")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if status.State != jobs.StateFinished {
		if status.ErrorKind == jobs.ErrorKindCityNotFound {
			return fiber.NewError(fiber.StatusNotFound, status.Error)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":       true,
			"message":     status.Error,
			"retry_count": attempts,
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(status.Result)
}

// monthlyProfileQuery holds query parameters for the profile endpoint.
type monthlyProfileQuery struct {
	City  string `validate:"required"`
	Month int    `validate:"required,min=1,max=12"`
}

func (q *monthlyProfileQuery) bind(c *fiber.Ctx) error {
	q.City = strings.TrimSpace(c.Query("city"))
	q.Month = c.QueryInt("month")
	return validate.Struct(q)
}

// bestMonthQuery holds query parameters for the best-month endpoint.
type bestMonthQuery struct {
	City    string  `validate:"required"`
	MinTemp float64 `validate:"gte=-50,lte=50"`
	MaxTemp float64 `validate:"gte=-50,lte=50,gtfield=MinTemp"`
}

func (q *bestMonthQuery) bind(c *fiber.Ctx) error {
	q.City = strings.TrimSpace(c.Query("city"))

	minStr := c.Query("min_temp")
	maxStr := c.Query("max_temp")
	if minStr == "" || maxStr == "" {
		return errors.New("min_temp and max_temp query parameters are required")
	}

	var err error
	if q.MinTemp, err = strconv.ParseFloat(minStr, 64); err != nil {
		return errors.New("invalid min_temp; expected a number")
	}
	if q.MaxTemp, err = strconv.ParseFloat(maxStr, 64); err != nil {
		return errors.New("invalid max_temp; expected a number")
	}

	return validate.Struct(q)
}

// compareCitiesQuery holds query parameters for the comparison endpoint.
type compareCitiesQuery struct {
	Cities []string `validate:"min=2,max=5,dive,required"`
	Month  int      `validate:"required,min=1,max=12"`
}

func (q *compareCitiesQuery) bind(c *fiber.Ctx) error {
	// Comma-separated list; trimmed, empties dropped, duplicates removed
	// preserving first occurrence.
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(c.Query("cities"), ",") {
		city := strings.TrimSpace(raw)
		if city == "" {
			continue
		}
		if _, dup := seen[city]; dup {
			continue
		}
		seen[city] = struct{}{}
		q.Cities = append(q.Cities, city)
	}

	q.Month = c.QueryInt("month")
	return validate.Struct(q)
}
