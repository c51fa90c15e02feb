package openaq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	xhttp "AirCast/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const latestPayload = `{
  "meta": {"found": 3},
  "results": [
    {"datetime": {"utc": "2025-03-01T10:00:00Z", "local": "2025-03-01T13:00:00+03:00"},
     "value": 18.4, "sensorsId": 7, "locationsId": 1894637, "parameter": {"name": "pm25", "units": "µg/m³"}},
    {"datetime": {"utc": "2025-03-01T11:00:00Z", "local": "2025-03-01T14:00:00+03:00"},
     "value": 21.0, "sensorsId": 7, "locationsId": 1894637, "parameter": {"name": "pm25", "units": "µg/m³"}},
    {"datetime": {"utc": "2025-03-01T12:00:00Z", "local": "2025-03-01T15:00:00+03:00"},
     "value": 40.0, "sensorsId": 8, "locationsId": 1894637, "parameter": {"name": "pm10", "units": "µg/m³"}}
  ]
}`

func newServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "/v3/locations/1894637/latest", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchLatestPicksNewestMatchingParameter(t *testing.T) {
	srv := newServer(t, http.StatusOK, latestPayload, nil)
	c := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "key"})

	r, err := c.FetchLatest(context.Background(), 1894637)
	require.NoError(t, err)
	assert.Equal(t, int64(1894637), r.LocationID)
	assert.Equal(t, 21.0, r.Value)
	assert.True(t, r.CapturedAt.Equal(time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)))
	assert.Contains(t, string(r.Raw), `"pm10"`, "raw keeps the whole results array")
}

func TestFetchLatestMatchesSensorWithoutParameter(t *testing.T) {
	body := `{"results":[
	  {"datetime":{"utc":"2025-03-01T09:00:00Z"},"value":9.5,"sensorsId":42},
	  {"datetime":{"utc":"2025-03-01T10:00:00Z"},"value":99,"sensorsId":43}
	]}`
	srv := newServer(t, http.StatusOK, body, nil)
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key", SensorID: 42})

	r, err := c.FetchLatest(context.Background(), 1894637)
	require.NoError(t, err)
	assert.Equal(t, 9.5, r.Value)
}

func TestFetchLatestNoMatch(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"results":[]}`, nil)
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key"})

	_, err := c.FetchLatest(context.Background(), 1894637)
	assert.ErrorIs(t, err, ErrNoReading)
}

func TestFetchLatestStatusError(t *testing.T) {
	srv := newServer(t, http.StatusUnauthorized, `{"detail":"bad key"}`, nil)
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key"})

	_, err := c.FetchLatest(context.Background(), 1894637)
	var se *xhttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := newServer(t, http.StatusBadGateway, "down", &hits)
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key"})

	for i := 0; i < 5; i++ {
		_, err := c.FetchLatest(context.Background(), 1894637)
		require.Error(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "breaker stops calls after three failures")
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits int32
	srv := newServer(t, http.StatusNotFound, "nope", &hits)
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key"})

	for i := 0; i < 5; i++ {
		_, _ = c.FetchLatest(context.Background(), 1894637)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}
