// Package jobs is the asynchronous invocation boundary between the API
// front end and the climate worker. Jobs travel through a Redis list as
// JSON envelopes; job status lives in per-job Redis keys with a TTL.
package jobs

import (
	"encoding/json"
	"time"
)

// Op names a worker operation.
type Op string

const (
	OpMonthlyProfile Op = "monthly_profile"
	OpBestMonth      Op = "best_month"
	OpCompareCities  Op = "compare_cities"
)

// Job is the queue envelope for one operation invocation.
type Job struct {
	ID          string          `json:"id"`
	Op          Op              `json:"op"`
	Args        json.RawMessage `json:"args"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// State is the lifecycle phase of a job.
type State string

const (
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StateFinished State = "finished"
	StateFailed   State = "failed"
)

// ErrorKind classifies a failure for the retry policy: city_not_found is
// terminal, data_source may be retried by the invoking side.
type ErrorKind string

const (
	ErrorKindCityNotFound ErrorKind = "city_not_found"
	ErrorKindDataSource   ErrorKind = "data_source"
	ErrorKindInternal     ErrorKind = "internal"
)

// Status is the observable state of a job.
type Status struct {
	State     State           `json:"state"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind ErrorKind       `json:"error_kind,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Terminal reports whether the job has finished, successfully or not.
func (s Status) Terminal() bool {
	return s.State == StateFinished || s.State == StateFailed
}

// MonthlyProfileArgs is the payload for OpMonthlyProfile.
type MonthlyProfileArgs struct {
	City  string `json:"city"`
	Month int    `json:"month"`
}

// BestMonthArgs is the payload for OpBestMonth.
type BestMonthArgs struct {
	City    string  `json:"city"`
	MinTemp float64 `json:"min_temp"`
	MaxTemp float64 `json:"max_temp"`
}

// CompareCitiesArgs is the payload for OpCompareCities.
type CompareCitiesArgs struct {
	Cities []string `json:"cities"`
	Month  int      `json:"month"`
}
