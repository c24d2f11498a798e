package meteo

import (
	"errors"
	"fmt"
)

// CityNotFoundError indicates the geocoding lookup returned no match for
// the requested city name. It is terminal: callers must not retry it.
type CityNotFoundError struct {
	City string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("city not found: %s", e.City)
}

// DataSourceError indicates a transport failure, a non-success response, or
// a malformed payload from the external archive. The invoking boundary may
// retry it; the client itself does not.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("weather data source %s failed: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// IsCityNotFound reports whether err is (or wraps) a CityNotFoundError.
func IsCityNotFound(err error) bool {
	var target *CityNotFoundError
	return errors.As(err, &target)
}

// IsDataSource reports whether err is (or wraps) a DataSourceError.
func IsDataSource(err error) bool {
	var target *DataSourceError
	return errors.As(err, &target)
}
