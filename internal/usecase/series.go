package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AirCast/internal/domain/models"
	drepo "AirCast/internal/domain/repository"
	"AirCast/internal/domain/service"
	"AirCast/pkg/cache"
)

// ErrNoReadings means the store holds nothing for the location yet.
var ErrNoReadings = errors.New("no readings stored for location")

// SeriesLoader pulls the lookback window from the store and prepares the
// clean hourly series. Prepared series are cached for a short TTL.
type SeriesLoader struct {
	store      drepo.ReadingStore
	preparer   service.SeriesPreparer
	cache      cache.Service
	locationID int64
	lookback   time.Duration
	ttl        time.Duration
	timeout    time.Duration
	now        func() time.Time
}

func NewSeriesLoader(store drepo.ReadingStore, preparer service.SeriesPreparer, c cache.Service, locationID int64, lookback, ttl time.Duration) *SeriesLoader {
	return &SeriesLoader{
		store:      store,
		preparer:   preparer,
		cache:      c,
		locationID: locationID,
		lookback:   lookback,
		ttl:        ttl,
		timeout:    10 * time.Second,
		now:        time.Now,
	}
}

// LocationID returns the monitored location.
func (l *SeriesLoader) LocationID() int64 { return l.locationID }

func (l *SeriesLoader) key() string {
	return cache.GenerateKeyWithParams("series", l.locationID, int64(l.lookback.Hours()))
}

// Series returns the clean hourly series, from cache when fresh.
func (l *SeriesLoader) Series(ctx context.Context) (models.RegularSeries, error) {
	s, _, err := cache.GetOrSet(ctx, l.cache, l.key(), l.ttl, l.load)
	return s, err
}

func (l *SeriesLoader) load(ctx context.Context) (models.RegularSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	to := l.now().UTC()
	raw, err := l.store.Range(ctx, l.locationID, to.Add(-l.lookback), to)
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}
	return l.preparer.Prepare(raw)
}

// Invalidate drops the cached series so the next call reads the store.
func (l *SeriesLoader) Invalidate(ctx context.Context) {
	if l.cache != nil {
		_ = l.cache.Delete(ctx, l.key())
	}
}

// Latest returns the newest stored reading.
func (l *SeriesLoader) Latest(ctx context.Context) (*models.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	r, err := l.store.Latest(ctx, l.locationID)
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	if r == nil {
		return nil, ErrNoReadings
	}
	return r, nil
}
