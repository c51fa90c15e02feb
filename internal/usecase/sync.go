package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AirCast/internal/domain/models"
	drepo "AirCast/internal/domain/repository"
	applogger "AirCast/pkg/logger"
	"AirCast/pkg/otel"
)

// ErrNoUpstreamReading is returned by the source when the payload had no
// matching entry. Sync treats it as an empty run, not a failure.
var ErrNoUpstreamReading = errors.New("no upstream reading")

// SyncUseCase pulls the newest reading from the upstream source and either
// stores it directly or publishes it to the ingest topic.
type SyncUseCase struct {
	source     drepo.ReadingSource
	ingestor   *ReadingIngestor
	publisher  drepo.ReadingPublisher
	metrics    drepo.Metrics
	locationID int64
	timeout    time.Duration
	isEmpty    func(error) bool
	l          *applogger.Logger
}

// NewSyncUseCase creates the sync job. A nil publisher means direct ingest.
func NewSyncUseCase(source drepo.ReadingSource, ingestor *ReadingIngestor, publisher drepo.ReadingPublisher, metrics drepo.Metrics, locationID int64, timeout time.Duration, l *applogger.Logger) *SyncUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SyncUseCase{
		source:     source,
		ingestor:   ingestor,
		publisher:  publisher,
		metrics:    metrics,
		locationID: locationID,
		timeout:    timeout,
		isEmpty:    func(err error) bool { return errors.Is(err, ErrNoUpstreamReading) },
		l:          l,
	}
}

// TreatAsEmpty registers an extra source error that means "nothing new".
func (s *SyncUseCase) TreatAsEmpty(target error) {
	prev := s.isEmpty
	s.isEmpty = func(err error) bool { return prev(err) || errors.Is(err, target) }
}

// Run performs one sync.
func (s *SyncUseCase) Run(ctx context.Context) (res models.IngestResult, err error) {
	res.Source = "openaq"
	ctx, span := otel.StartSpan(ctx, "usecase.sync")
	defer func() {
		span.SetAttributes(otel.IngestAttributes(s.locationID, res.Inserted, res.Skipped)...)
		otel.RecordError(span, err)
		span.End()
	}()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	r, err := s.source.FetchLatest(ctx, s.locationID)
	s.metrics.RecordLatency("source_fetch", time.Since(start).Seconds())
	if err != nil {
		if s.isEmpty(err) {
			s.l.Warn("sync: no current reading upstream", applogger.Int64("location_id", s.locationID))
			return res, nil
		}
		s.metrics.RecordError("source_fetch")
		return res, fmt.Errorf("fetch latest: %w", err)
	}
	res.Fetched = 1
	at := r.CapturedAt.UTC()
	res.Latest = &at

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *r); err != nil {
			s.metrics.RecordError("publish")
			return res, fmt.Errorf("publish reading: %w", err)
		}
		res.Published = 1
		return res, nil
	}

	inserted, err := s.ingestor.Ingest(ctx, *r, res.Source)
	if err != nil {
		return res, err
	}
	if inserted {
		res.Inserted = 1
	} else {
		res.Skipped = 1
	}
	return res, nil
}
