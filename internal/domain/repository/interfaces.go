package repository

import (
	"context"
	"io"
	"time"

	"AirCast/internal/domain/models"
)

// ReadingStore persists readings with first-write-wins deduplication on
// (location_id, captured_at).
type ReadingStore interface {
	Init(ctx context.Context) error // ensure tables
	// Upsert reports whether the reading was inserted (false when the timestamp already existed).
	Upsert(ctx context.Context, r models.Reading) (bool, error)
	// UpsertBatch returns the number of rows actually inserted.
	UpsertBatch(ctx context.Context, rs []models.Reading) (int, error)
	// Range returns readings with from <= captured_at <= to ordered by time.
	Range(ctx context.Context, locationID int64, from, to time.Time) ([]models.Reading, error)
	Latest(ctx context.Context, locationID int64) (*models.Reading, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// ReadingPublisher hands readings to the ingest transport.
type ReadingPublisher interface {
	Publish(ctx context.Context, r models.Reading) error
	Close() error
}

// ReadingSource fetches the newest reading from the upstream provider.
type ReadingSource interface {
	FetchLatest(ctx context.Context, locationID int64) (*models.Reading, error)
}

// ArchiveSource lists historical readings for a location and period.
type ArchiveSource interface {
	Readings(ctx context.Context, locationID int64, year, month int) ([]models.Reading, error)
}

// ArtifactSource opens a model artifact by path (local file or s3://bucket/key).
type ArtifactSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Broadcaster pushes freshly ingested readings to live subscribers.
type Broadcaster interface {
	Broadcast(r models.Reading)
}

type Metrics interface {
	RecordReadingIngested(source string)
	RecordDuplicate(source string)
	RecordError(kind string)
	RecordLastValue(locationID int64, value float64)
	RecordLatency(op string, seconds float64)
	RecordForecast(outcome string)
}
