package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"AirCast/internal/domain/models"
	pkgkafka "AirCast/pkg/kafka"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterNewDropsExistingAndRepeats(t *testing.T) {
	existing := map[int64]struct{}{reading(1, 0).CapturedAt.UnixMilli(): {}}
	in := []models.Reading{reading(0, 1), reading(1, 2), reading(2, 3), reading(2, 4)}

	out := FilterNew(in, existing)
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Value)
	assert.Equal(t, 3.0, out[1].Value, "first occurrence wins")
}

func TestClickHouseSchemaIsReplacing(t *testing.T) {
	ddl := ClickHouseSchema("readings")[0]
	assert.Contains(t, ddl, "ReplacingMergeTree(version)")
	assert.Contains(t, ddl, "ORDER BY (location_id, captured_at)")
}

func TestVersionDecreasesOverTime(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Greater(t, version(t0), version(t0.Add(time.Second)))
}

func TestSpan(t *testing.T) {
	from, to := span([]models.Reading{reading(5, 0), reading(2, 0), reading(9, 0)})
	assert.Equal(t, 2, from.Hour())
	assert.Equal(t, 9, to.Hour())
}

type captureWriter struct{ msgs []kafka.Message }

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaPublisherKeysByLocation(t *testing.T) {
	w := &captureWriter{}
	p := NewKafkaReadingPublisher(pkgkafka.NewProducerWithWriter(w, "none"), "aircast.readings")

	require.NoError(t, p.Publish(context.Background(), reading(4, 17.5)))
	require.NoError(t, p.PublishBatch(context.Background(), []models.Reading{reading(5, 1), reading(6, 2)}))
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "1894637", string(w.msgs[0].Key))
	assert.Equal(t, "aircast.readings", w.msgs[0].Topic)

	var got models.Reading
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, 17.5, got.Value)
	assert.True(t, got.CapturedAt.Equal(reading(4, 0).CapturedAt))
}
