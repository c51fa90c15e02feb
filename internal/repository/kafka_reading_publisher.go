package repository

import (
	"context"
	"strconv"

	"AirCast/internal/domain/models"
	domrepo "AirCast/internal/domain/repository"
	pkgkafka "AirCast/pkg/kafka"
)

// KafkaReadingPublisher publishes readings keyed by location so one
// location's readings stay on one partition.
type KafkaReadingPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.ReadingPublisher = (*KafkaReadingPublisher)(nil)

func NewKafkaReadingPublisher(producer *pkgkafka.Producer, topic string) *KafkaReadingPublisher {
	return &KafkaReadingPublisher{producer: producer, topic: topic}
}

func (p *KafkaReadingPublisher) Publish(ctx context.Context, r models.Reading) error {
	return p.producer.Publish(ctx, p.topic, []byte(strconv.FormatInt(r.LocationID, 10)), r)
}

// PublishBatch sends readings in one write.
func (p *KafkaReadingPublisher) PublishBatch(ctx context.Context, rs []models.Reading) error {
	msgs := make([]pkgkafka.Message, len(rs))
	for i, r := range rs {
		msgs[i] = pkgkafka.Message{Key: []byte(strconv.FormatInt(r.LocationID, 10)), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaReadingPublisher) Close() error {
	return p.producer.Close()
}
