package meteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, geocodingHandler, archiveHandler http.HandlerFunc) *Client {
	t.Helper()

	geoSrv := httptest.NewServer(geocodingHandler)
	t.Cleanup(geoSrv.Close)
	archiveSrv := httptest.NewServer(archiveHandler)
	t.Cleanup(archiveSrv.Close)

	return NewClient(geoSrv.Client(), Options{
		GeocodingURL: geoSrv.URL,
		ArchiveURL:   archiveSrv.URL,
		CallInterval: time.Millisecond,
	}, zerolog.Nop())
}

func TestResolveCity(t *testing.T) {
	client := testClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("name"); got != "London" {
				t.Errorf("expected name=London, got %q", got)
			}
			w.Write([]byte(`{"results":[{"latitude":51.5,"longitude":-0.12}]}`))
		},
		nil,
	)

	coords, err := client.ResolveCity(context.Background(), "London")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coords.Latitude != 51.5 || coords.Longitude != -0.12 {
		t.Fatalf("unexpected coordinates: %+v", coords)
	}
}

func TestResolveCityNotFound(t *testing.T) {
	client := testClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":[]}`))
		},
		nil,
	)

	_, err := client.ResolveCity(context.Background(), "Atlantis")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsCityNotFound(err) {
		t.Fatalf("expected CityNotFoundError, got %v", err)
	}
}

func TestFetchDailyTemperatures(t *testing.T) {
	client := testClient(t, nil,
		func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("start_date") != "2023-07-01" || q.Get("end_date") != "2023-07-28" {
				t.Errorf("unexpected date range: %s to %s", q.Get("start_date"), q.Get("end_date"))
			}
			w.Write([]byte(`{"daily":{
				"time":["2023-07-01","2023-07-02"],
				"temperature_2m_min":[15.1,16.3],
				"temperature_2m_max":[25.0,26.8]
			}}`))
		},
	)

	samples, err := client.FetchDailyTemperatures(context.Background(), Coordinates{Latitude: 51.5, Longitude: -0.12}, "2023-07-01", "2023-07-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].MinTemp != 15.1 || samples[1].MaxTemp != 26.8 {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestFetchDailyTemperaturesArchiveError(t *testing.T) {
	client := testClient(t, nil,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":true,"reason":"out of range"}`))
		},
	)

	_, err := client.FetchDailyTemperatures(context.Background(), Coordinates{}, "2023-07-01", "2023-07-28")
	if !IsDataSource(err) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
}

func TestFetchDailyTemperaturesMalformedArrays(t *testing.T) {
	client := testClient(t, nil,
		func(w http.ResponseWriter, r *http.Request) {
			// min array shorter than the time axis
			w.Write([]byte(`{"daily":{
				"time":["2023-07-01","2023-07-02"],
				"temperature_2m_min":[15.1],
				"temperature_2m_max":[25.0,26.8]
			}}`))
		},
	)

	_, err := client.FetchDailyTemperatures(context.Background(), Coordinates{}, "2023-07-01", "2023-07-28")
	if !IsDataSource(err) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
}

func TestFetchDailyTemperaturesBadStatus(t *testing.T) {
	client := testClient(t, nil,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		},
	)

	_, err := client.FetchDailyTemperatures(context.Background(), Coordinates{}, "2023-07-01", "2023-07-28")
	if !IsDataSource(err) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
}
