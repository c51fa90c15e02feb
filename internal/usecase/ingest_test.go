package usecase

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"AirCast/internal/domain/models"
	"AirCast/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestStoresBroadcastsAndInvalidatesSeries(t *testing.T) {
	store := newMemStore(hourly(3, 10)...)
	loader := newLoader(store, cache.NewMemoryCache(), t0.Add(3*time.Hour))
	hub := &recordingHub{}
	m := newMetrics()
	ing := NewReadingIngestor(store, hub, m, loader, nil)
	ctx := context.Background()

	_, err := loader.Series(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.rangeN)

	r := models.Reading{LocationID: locID, CapturedAt: t0.Add(3 * time.Hour), Value: 22}
	ok, err := ing.Ingest(ctx, r, "openaq")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, m.ingested)
	assert.Equal(t, 22.0, m.last)
	require.Len(t, hub.got, 1)

	_, err = loader.Series(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.rangeN, "series reloaded after a new reading")
}

func TestIngestDuplicateIsSkipped(t *testing.T) {
	store := newMemStore(hourly(1, 10)...)
	hub := &recordingHub{}
	m := newMetrics()
	ing := NewReadingIngestor(store, hub, m, nil, nil)

	ok, err := ing.Ingest(context.Background(), models.Reading{LocationID: locID, CapturedAt: t0, Value: 99}, "kafka")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, m.duplicates)
	assert.Empty(t, hub.got)
	assert.Equal(t, 10.0, store.rows[t0.Unix()].Value, "first write wins")
}

func TestIngestRejectsInvalid(t *testing.T) {
	m := newMetrics()
	ing := NewReadingIngestor(newMemStore(), nil, m, nil, nil)
	ctx := context.Background()

	_, err := ing.Ingest(ctx, models.Reading{LocationID: locID, Value: 1}, "openaq")
	assert.Error(t, err)
	_, err = ing.Ingest(ctx, models.Reading{LocationID: locID, CapturedAt: t0, Value: math.NaN()}, "openaq")
	assert.Error(t, err)
	assert.Equal(t, 2, m.errors["invalid_reading"])
}

func TestIngestStoreError(t *testing.T) {
	store := newMemStore()
	store.upErr = errBoom
	m := newMetrics()
	ing := NewReadingIngestor(store, nil, m, nil, nil)

	_, err := ing.Ingest(context.Background(), hourly(1, 5)[0], "openaq")
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, m.errors["store_upsert"])
}

func TestIngestBatchCounts(t *testing.T) {
	store := newMemStore(hourly(2, 10)...)
	m := newMetrics()
	ing := NewReadingIngestor(store, nil, m, nil, nil)

	rs := append(hourly(4, 11), models.Reading{LocationID: locID, Value: 3})
	n, err := ing.IngestBatch(context.Background(), rs, "archive")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, m.ingested)
	assert.Equal(t, 2, m.duplicates)
	assert.Equal(t, 1, m.errors["invalid_reading"])
}

func TestKafkaReadingsHandler(t *testing.T) {
	store := newMemStore()
	m := newMetrics()
	h := NewKafkaReadingsHandler("aircast.readings", NewReadingIngestor(store, nil, m, nil, nil), m)
	assert.Equal(t, "aircast.readings", h.Topic())

	b, err := json.Marshal(models.Reading{LocationID: locID, CapturedAt: t0, Value: 7})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), b))
	require.NoError(t, h.Handle(context.Background(), b), "redelivery is a duplicate, not a failure")
	assert.Len(t, store.rows, 1)

	assert.Error(t, h.Handle(context.Background(), []byte("{")))
	assert.Equal(t, 1, m.errors["consumer_unmarshal"])
}
