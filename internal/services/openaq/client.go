package openaq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"AirCast/internal/domain/models"
	xhttp "AirCast/pkg/http"
	"AirCast/pkg/logger"
	"AirCast/pkg/util"

	"github.com/sony/gobreaker"
)

// ErrNoReading is returned when the latest payload holds no entry for the
// configured parameter or sensor.
var ErrNoReading = errors.New("openaq: no matching reading in latest payload")

// Config configures the OpenAQ v3 client.
type Config struct {
	BaseURL   string
	APIKey    string
	Parameter string
	SensorID  int64
	Timeout   time.Duration
}

// Client fetches the newest reading of a location from the OpenAQ v3 API.
// There are no retries; the circuit breaker only stops hammering an upstream
// that keeps failing with server errors.
type Client struct {
	cfg  Config
	http *xhttp.Client
	cb   *gobreaker.CircuitBreaker
	log  *logger.Logger
}

// Option customises Client.
type Option func(*Client)

// WithHTTPClient swaps the transport, used by tests.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// NewClient creates a client.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Parameter == "" {
		cfg.Parameter = "pm25"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:  cfg,
		http: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		log:  logger.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openaq",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return c
}

// isSuccessful counts client-side failures (bad key, unknown location) as
// successes for the breaker: the upstream answered.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return !se.Temporary()
	}
	return false
}

type latestResponse struct {
	Results []json.RawMessage `json:"results"`
}

type latestEntry struct {
	Datetime struct {
		UTC   string `json:"utc"`
		Local string `json:"local"`
	} `json:"datetime"`
	Value       *float64 `json:"value"`
	SensorsID   int64    `json:"sensorsId"`
	LocationsID int64    `json:"locationsId"`
	Parameter   *struct {
		Name  string `json:"name"`
		Units string `json:"units"`
	} `json:"parameter"`
}

// FetchLatest returns the newest matching reading for locationID. Raw holds the
// full results array the upstream returned.
func (c *Client) FetchLatest(ctx context.Context, locationID int64) (*models.Reading, error) {
	var body []byte
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodGet,
			URL:     fmt.Sprintf("%s/v3/locations/%d/latest", c.cfg.BaseURL, locationID),
			Headers: map[string]string{"X-API-Key": c.cfg.APIKey, "Accept": "application/json"},
		}, &body)
	})
	if err != nil {
		return nil, fmt.Errorf("openaq latest %d: %w", locationID, err)
	}

	var resp latestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openaq decode: %w", err)
	}
	return c.pick(locationID, resp.Results)
}

func (c *Client) pick(locationID int64, results []json.RawMessage) (*models.Reading, error) {
	var (
		best   *latestEntry
		bestAt time.Time
	)
	for _, raw := range results {
		var e latestEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			c.log.Debug("openaq skip entry", logger.Error(err))
			continue
		}
		if !c.matches(e) || e.Value == nil {
			continue
		}
		at, ok := util.ParseTime(e.Datetime.UTC)
		if !ok {
			c.log.Debug("openaq bad timestamp", logger.String("utc", e.Datetime.UTC))
			continue
		}
		if best == nil || at.After(bestAt) {
			entry := e
			best, bestAt = &entry, at
		}
	}
	if best == nil {
		return nil, ErrNoReading
	}

	raw, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("openaq encode raw: %w", err)
	}
	return &models.Reading{
		LocationID: locationID,
		CapturedAt: bestAt,
		Value:      *best.Value,
		Raw:        raw,
	}, nil
}

func (c *Client) matches(e latestEntry) bool {
	if e.Parameter != nil && e.Parameter.Name == c.cfg.Parameter {
		return true
	}
	return c.cfg.SensorID != 0 && e.SensorsID == c.cfg.SensorID
}
