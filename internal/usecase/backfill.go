package usecase

import (
	"context"
	"fmt"
	"time"

	"AirCast/internal/domain/models"
	drepo "AirCast/internal/domain/repository"
	applogger "AirCast/pkg/logger"
	"AirCast/pkg/otel"
)

// BackfillUseCase merges archived history into the store. Timestamps that
// already exist are skipped by the store.
type BackfillUseCase struct {
	archive    drepo.ArchiveSource
	ingestor   *ReadingIngestor
	locationID int64
	l          *applogger.Logger
}

func NewBackfillUseCase(archive drepo.ArchiveSource, ingestor *ReadingIngestor, locationID int64, l *applogger.Logger) *BackfillUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &BackfillUseCase{archive: archive, ingestor: ingestor, locationID: locationID, l: l}
}

// Run backfills a year, or a single month of it when month is 1..12.
func (b *BackfillUseCase) Run(ctx context.Context, year, month int) (res models.IngestResult, err error) {
	res.Source = "archive"
	ctx, span := otel.StartSpan(ctx, "usecase.backfill")
	defer func() {
		span.SetAttributes(otel.IngestAttributes(b.locationID, res.Inserted, res.Skipped)...)
		span.SetAttributes(otel.AttrArchiveRows.Int(res.Fetched))
		otel.RecordError(span, err)
		span.End()
	}()

	if year < 2000 || year > time.Now().UTC().Year() {
		return res, fmt.Errorf("invalid year %d", year)
	}
	if month < 0 || month > 12 {
		return res, fmt.Errorf("invalid month %d", month)
	}

	rs, err := b.archive.Readings(ctx, b.locationID, year, month)
	if err != nil {
		return res, fmt.Errorf("read archive: %w", err)
	}
	res.Fetched = len(rs)
	if len(rs) == 0 {
		b.l.Warn("backfill: archive empty", applogger.Int("year", year), applogger.Int("month", month))
		return res, nil
	}
	last := rs[len(rs)-1].CapturedAt
	res.Latest = &last

	n, err := b.ingestor.IngestBatch(ctx, rs, res.Source)
	res.Inserted = n
	if err != nil {
		return res, fmt.Errorf("store archive readings: %w", err)
	}
	res.Skipped = res.Fetched - n
	b.l.Info("backfill done",
		applogger.Int("year", year),
		applogger.Int("month", month),
		applogger.Int("fetched", res.Fetched),
		applogger.Int("inserted", res.Inserted),
		applogger.Int("skipped", res.Skipped),
	)
	return res, nil
}
