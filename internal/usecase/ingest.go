package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"AirCast/internal/domain/models"
	drepo "AirCast/internal/domain/repository"
	applogger "AirCast/pkg/logger"
)

// ReadingIngestor writes readings to the store and fans new ones out to
// metrics, live subscribers and the series cache.
type ReadingIngestor struct {
	store   drepo.ReadingStore
	hub     drepo.Broadcaster
	metrics drepo.Metrics
	series  *SeriesLoader
	l       *applogger.Logger
}

func NewReadingIngestor(store drepo.ReadingStore, hub drepo.Broadcaster, metrics drepo.Metrics, series *SeriesLoader, l *applogger.Logger) *ReadingIngestor {
	if l == nil {
		l = applogger.Nop()
	}
	return &ReadingIngestor{store: store, hub: hub, metrics: metrics, series: series, l: l}
}

func validReading(r models.Reading) error {
	if r.LocationID <= 0 {
		return fmt.Errorf("reading without location id")
	}
	if r.CapturedAt.IsZero() {
		return fmt.Errorf("reading without timestamp")
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return fmt.Errorf("reading value is not finite")
	}
	return nil
}

// Ingest stores r. It reports false when the timestamp was already stored.
func (i *ReadingIngestor) Ingest(ctx context.Context, r models.Reading, source string) (bool, error) {
	if err := validReading(r); err != nil {
		i.metrics.RecordError("invalid_reading")
		return false, err
	}
	r.CapturedAt = r.CapturedAt.UTC()

	start := time.Now()
	inserted, err := i.store.Upsert(ctx, r)
	i.metrics.RecordLatency("store_upsert", time.Since(start).Seconds())
	if err != nil {
		i.metrics.RecordError("store_upsert")
		return false, err
	}
	if !inserted {
		i.metrics.RecordDuplicate(source)
		i.l.Debug("duplicate reading skipped",
			applogger.String("source", source),
			applogger.Time("captured_at", r.CapturedAt),
		)
		return false, nil
	}

	i.metrics.RecordReadingIngested(source)
	i.metrics.RecordLastValue(r.LocationID, r.Value)
	if i.hub != nil {
		i.hub.Broadcast(r)
	}
	if i.series != nil {
		i.series.Invalidate(ctx)
	}
	i.l.Info("reading stored",
		applogger.String("source", source),
		applogger.Float64("value", r.Value),
		applogger.Time("captured_at", r.CapturedAt),
	)
	return true, nil
}

// IngestBatch stores rs in bulk without broadcasting and returns the number inserted.
func (i *ReadingIngestor) IngestBatch(ctx context.Context, rs []models.Reading, source string) (int, error) {
	valid := make([]models.Reading, 0, len(rs))
	for _, r := range rs {
		if validReading(r) != nil {
			i.metrics.RecordError("invalid_reading")
			continue
		}
		r.CapturedAt = r.CapturedAt.UTC()
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	start := time.Now()
	n, err := i.store.UpsertBatch(ctx, valid)
	i.metrics.RecordLatency("store_upsert_batch", time.Since(start).Seconds())
	for k := 0; k < n; k++ {
		i.metrics.RecordReadingIngested(source)
	}
	for k := n; k < len(valid) && err == nil; k++ {
		i.metrics.RecordDuplicate(source)
	}
	if err != nil {
		i.metrics.RecordError("store_upsert_batch")
		return n, err
	}
	if n > 0 && i.series != nil {
		i.series.Invalidate(ctx)
	}
	return n, nil
}
