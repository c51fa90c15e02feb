package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"AirCast/internal/domain/models"
	"AirCast/internal/services/forecast"
	"AirCast/pkg/cache"
)

const locID = int64(1894637)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

type memStore struct {
	mu       sync.Mutex
	rows     map[int64]models.Reading
	rangeN   int
	upErr    error
	rangeErr error
}

func newMemStore(rs ...models.Reading) *memStore {
	s := &memStore{rows: map[int64]models.Reading{}}
	for _, r := range rs {
		s.rows[r.CapturedAt.Unix()] = r
	}
	return s
}

func (s *memStore) Init(context.Context) error { return nil }

func (s *memStore) Upsert(_ context.Context, r models.Reading) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upErr != nil {
		return false, s.upErr
	}
	k := r.CapturedAt.Unix()
	if _, ok := s.rows[k]; ok {
		return false, nil
	}
	s.rows[k] = r
	return true, nil
}

func (s *memStore) UpsertBatch(ctx context.Context, rs []models.Reading) (int, error) {
	n := 0
	for _, r := range rs {
		ok, err := s.Upsert(ctx, r)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (s *memStore) sorted() []models.Reading {
	out := make([]models.Reading, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out
}

func (s *memStore) Range(_ context.Context, _ int64, from, to time.Time) ([]models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rangeN++
	if s.rangeErr != nil {
		return nil, s.rangeErr
	}
	var out []models.Reading
	for _, r := range s.sorted() {
		if !r.CapturedAt.Before(from) && !r.CapturedAt.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Latest(context.Context, int64) (*models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.sorted()
	if len(rs) == 0 {
		return nil, nil
	}
	r := rs[len(rs)-1]
	return &r, nil
}

func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

type countingMetrics struct {
	mu         sync.Mutex
	ingested   int
	duplicates int
	errors     map[string]int
	forecasts  map[string]int
	last       float64
}

func newMetrics() *countingMetrics {
	return &countingMetrics{errors: map[string]int{}, forecasts: map[string]int{}}
}

func (m *countingMetrics) RecordReadingIngested(string) {
	m.mu.Lock()
	m.ingested++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordDuplicate(string) {
	m.mu.Lock()
	m.duplicates++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordLastValue(_ int64, v float64) {
	m.mu.Lock()
	m.last = v
	m.mu.Unlock()
}

func (m *countingMetrics) RecordLatency(string, float64) {}

func (m *countingMetrics) RecordForecast(outcome string) {
	m.mu.Lock()
	m.forecasts[outcome]++
	m.mu.Unlock()
}

type recordingHub struct{ got []models.Reading }

func (h *recordingHub) Broadcast(r models.Reading) { h.got = append(h.got, r) }

type stubSource struct {
	r   *models.Reading
	err error
}

func (s stubSource) FetchLatest(context.Context, int64) (*models.Reading, error) { return s.r, s.err }

type stubArchive struct {
	rs  []models.Reading
	err error
}

func (a stubArchive) Readings(context.Context, int64, int, int) ([]models.Reading, error) {
	return a.rs, a.err
}

type recordingPublisher struct {
	got []models.Reading
	err error
}

func (p *recordingPublisher) Publish(_ context.Context, r models.Reading) error {
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, r)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type stubForecaster struct {
	calls int
	err   error
}

func (f *stubForecaster) ProduceForecast(_ context.Context, s models.RegularSeries, h int) (models.ForecastResult, error) {
	f.calls++
	if f.err != nil {
		return models.ForecastResult{}, f.err
	}
	res := models.ForecastResult{Horizon: h, Origin: s.Last().Time, MeanModel: "sarimax-test", VolatilityModel: "egarch-test"}
	for i := 1; i <= h; i++ {
		p := 10.0 + float64(10*i)
		res.Points = append(res.Points, models.ForecastPoint{
			Step: i, Time: s.Last().Time.Add(time.Duration(i) * time.Hour),
			Point: p, Lower: p - 1, Upper: p + 1, Volatility: 0.5,
		})
	}
	return res, nil
}

type stubModels struct{ at time.Time }

func (m stubModels) LoadedAt() time.Time { return m.at }
func (m stubModels) Reload(context.Context) error { return nil }
func (m stubModels) Ensure(context.Context) (time.Time, error) { return m.at, nil }

func hourly(n int, v float64) []models.Reading {
	out := make([]models.Reading, n)
	for i := range out {
		out[i] = models.Reading{LocationID: locID, CapturedAt: t0.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return out
}

func newLoader(store *memStore, c cache.Service, now time.Time) *SeriesLoader {
	l := NewSeriesLoader(store, forecast.NewPreparer(forecast.DefaultConfig()), c, locID, 720*time.Hour, 5*time.Minute)
	l.now = func() time.Time { return now }
	return l
}

var errBoom = errors.New("boom")
