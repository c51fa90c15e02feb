package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"AirCast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func latestReading(v float64) *models.Reading {
	return &models.Reading{LocationID: locID, CapturedAt: t0.Add(5 * time.Hour), Value: v}
}

func TestSyncDirectInsertThenSkip(t *testing.T) {
	store := newMemStore()
	m := newMetrics()
	job := NewSyncUseCase(stubSource{r: latestReading(18)}, NewReadingIngestor(store, nil, m, nil, nil), nil, m, locID, time.Second, nil)

	res, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.IngestResult{Source: "openaq", Fetched: 1, Inserted: 1, Latest: res.Latest}, res)
	require.NotNil(t, res.Latest)
	assert.True(t, res.Latest.Equal(t0.Add(5*time.Hour)))

	res, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
}

func TestSyncPublishesWhenConfigured(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	m := newMetrics()
	job := NewSyncUseCase(stubSource{r: latestReading(18)}, NewReadingIngestor(store, nil, m, nil, nil), pub, m, locID, time.Second, nil)

	res, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Published)
	assert.Len(t, pub.got, 1)
	assert.Empty(t, store.rows)
}

func TestSyncPublishError(t *testing.T) {
	m := newMetrics()
	job := NewSyncUseCase(stubSource{r: latestReading(18)}, nil, &recordingPublisher{err: errBoom}, m, locID, time.Second, nil)

	_, err := job.Run(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, m.errors["publish"])
}

func TestSyncEmptyUpstreamIsNotAnError(t *testing.T) {
	sourceEmpty := errors.New("source: nothing")
	m := newMetrics()

	job := NewSyncUseCase(stubSource{err: fmt.Errorf("wrapped: %w", ErrNoUpstreamReading)}, nil, nil, m, locID, time.Second, nil)
	res, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Fetched)

	job = NewSyncUseCase(stubSource{err: sourceEmpty}, nil, nil, m, locID, time.Second, nil)
	_, err = job.Run(context.Background())
	require.Error(t, err)

	job.TreatAsEmpty(sourceEmpty)
	_, err = job.Run(context.Background())
	assert.NoError(t, err)
}

func TestSyncFetchError(t *testing.T) {
	m := newMetrics()
	job := NewSyncUseCase(stubSource{err: errBoom}, nil, nil, m, locID, time.Second, nil)

	_, err := job.Run(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, m.errors["source_fetch"])
}

func TestBackfillCountsInsertedAndSkipped(t *testing.T) {
	store := newMemStore(hourly(10, 1)...)
	archive := stubArchive{rs: hourly(24, 5)}
	b := NewBackfillUseCase(archive, NewReadingIngestor(store, nil, newMetrics(), nil, nil), locID, nil)

	res, err := b.Run(context.Background(), 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, "archive", res.Source)
	assert.Equal(t, 24, res.Fetched)
	assert.Equal(t, 14, res.Inserted)
	assert.Equal(t, 10, res.Skipped)
	require.NotNil(t, res.Latest)
	assert.True(t, res.Latest.Equal(t0.Add(23*time.Hour)))
	assert.Equal(t, 1.0, store.rows[t0.Unix()].Value)
}

func TestBackfillValidation(t *testing.T) {
	b := NewBackfillUseCase(stubArchive{}, nil, locID, nil)
	_, err := b.Run(context.Background(), 1999, 0)
	assert.Error(t, err)
	_, err = b.Run(context.Background(), 2025, 13)
	assert.Error(t, err)

	res, err := b.Run(context.Background(), 2025, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Fetched)
}

func TestBackfillArchiveError(t *testing.T) {
	b := NewBackfillUseCase(stubArchive{err: errBoom}, nil, locID, nil)
	_, err := b.Run(context.Background(), 2025, 1)
	assert.ErrorIs(t, err, errBoom)
}
