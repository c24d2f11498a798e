package meteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const (
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultArchiveURL   = "https://archive-api.open-meteo.com/v1/archive"
)

var (
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Coordinates is a geographic point resolved from a city name.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// DailySample is one day's minimum/maximum temperature from the archive.
// Samples are ephemeral: they are pooled into a monthly profile and dropped.
type DailySample struct {
	Date    string
	MinTemp float64
	MaxTemp float64
}

// Options configures a Client. Zero values fall back to the public
// Open-Meteo endpoints and the default call interval.
type Options struct {
	GeocodingURL string
	ArchiveURL   string
	CallInterval time.Duration
}

// Client fetches geocoding and historical daily temperature data.
//
// All outbound calls go through a single shared rate limiter, so a Client
// must be shared rather than constructed per request. The underlying
// *http.Client is injected and reused for connection keep-alive; the
// default transport already negotiates gzip for response bodies.
type Client struct {
	httpClient   *http.Client
	geocodingURL string
	archiveURL   string
	limiter      *callLimiter
	circuit      *gobreaker.CircuitBreaker
	log          zerolog.Logger
}

// NewClient creates a Client using the provided HTTP client.
func NewClient(httpClient *http.Client, opts Options, log zerolog.Logger) *Client {
	if opts.GeocodingURL == "" {
		opts.GeocodingURL = defaultGeocodingURL
	}
	if opts.ArchiveURL == "" {
		opts.ArchiveURL = defaultArchiveURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		httpClient:   httpClient,
		geocodingURL: opts.GeocodingURL,
		archiveURL:   opts.ArchiveURL,
		limiter:      newCallLimiter(opts.CallInterval),
		circuit:      cb,
		log:          log.With().Str("component", "meteo_client").Logger(),
	}
}

// ResolveCity looks up the coordinates for a city display name. An empty
// result list from the geocoding service yields a CityNotFoundError.
func (c *Client) ResolveCity(ctx context.Context, name string) (Coordinates, error) {
	if err := c.limiter.acquire(ctx); err != nil {
		return Coordinates{}, &DataSourceError{Op: "geocoding", Err: err}
	}

	values := url.Values{}
	values.Set("name", name)
	values.Set("count", "1")

	c.log.Debug().Str("city", name).Msg("resolving city coordinates")

	var payload struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}

	if err := c.getJSON(ctx, "geocoding", c.geocodingURL, values, &payload); err != nil {
		return Coordinates{}, err
	}

	if len(payload.Results) == 0 {
		c.log.Warn().Str("city", name).Msg("no coordinates found for city")
		return Coordinates{}, &CityNotFoundError{City: name}
	}

	loc := payload.Results[0]
	return Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}

// FetchDailyTemperatures returns per-day min/max temperatures for an
// inclusive ISO date range (YYYY-MM-DD).
func (c *Client) FetchDailyTemperatures(ctx context.Context, coords Coordinates, startDate, endDate string) ([]DailySample, error) {
	if err := c.limiter.acquire(ctx); err != nil {
		return nil, &DataSourceError{Op: "archive", Err: err}
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
	values.Set("start_date", startDate)
	values.Set("end_date", endDate)
	values.Set("daily", "temperature_2m_max,temperature_2m_min")

	c.log.Debug().Str("start", startDate).Str("end", endDate).Msg("fetching daily temperatures")

	var payload struct {
		Error  bool   `json:"error"`
		Reason string `json:"reason"`
		Daily  struct {
			Time    []string  `json:"time"`
			TempMin []float64 `json:"temperature_2m_min"`
			TempMax []float64 `json:"temperature_2m_max"`
		} `json:"daily"`
	}

	if err := c.getJSON(ctx, "archive", c.archiveURL, values, &payload); err != nil {
		return nil, err
	}

	if payload.Error {
		return nil, &DataSourceError{Op: "archive", Err: fmt.Errorf("archive reported error: %s", payload.Reason)}
	}

	daily := payload.Daily
	if len(daily.Time) == 0 ||
		len(daily.TempMin) != len(daily.Time) ||
		len(daily.TempMax) != len(daily.Time) {
		return nil, &DataSourceError{Op: "archive", Err: errors.New("malformed daily arrays in response")}
	}

	samples := make([]DailySample, 0, len(daily.Time))
	for i, date := range daily.Time {
		samples = append(samples, DailySample{
			Date:    date,
			MinTemp: daily.TempMin[i],
			MaxTemp: daily.TempMax[i],
		})
	}
	return samples, nil
}

// getJSON executes a GET through the circuit breaker and decodes the body.
// Non-2xx statuses and decode failures map to DataSourceError.
func (c *Client) getJSON(ctx context.Context, op, baseURL string, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return &DataSourceError{Op: op, Err: err}
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, errServerError
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return &DataSourceError{Op: op, Err: err}
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return &DataSourceError{Op: op, Err: errors.New("unexpected result type from circuit breaker")}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DataSourceError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
