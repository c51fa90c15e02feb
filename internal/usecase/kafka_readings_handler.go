package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AirCast/internal/domain/models"
	drepo "AirCast/internal/domain/repository"
)

// KafkaReadingsHandler consumes readings from the ingest topic and stores them.
type KafkaReadingsHandler struct {
	topic    string
	ingestor *ReadingIngestor
	metrics  drepo.Metrics
}

func NewKafkaReadingsHandler(topic string, ingestor *ReadingIngestor, metrics drepo.Metrics) *KafkaReadingsHandler {
	return &KafkaReadingsHandler{topic: topic, ingestor: ingestor, metrics: metrics}
}

func (h *KafkaReadingsHandler) Topic() string { return h.topic }

// Handle decodes a JSON reading. Duplicates are not errors.
func (h *KafkaReadingsHandler) Handle(ctx context.Context, b []byte) error {
	var r models.Reading
	if err := json.Unmarshal(b, &r); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode reading: %w", err)
	}
	if !r.CapturedAt.IsZero() {
		h.metrics.RecordLatency("ingest_e2e", time.Since(r.CapturedAt).Seconds())
	}
	_, err := h.ingestor.Ingest(ctx, r, "kafka")
	return err
}
