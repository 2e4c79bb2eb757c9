package repository

import (
	"context"
	"fmt"
	"time"

	"TickerWatch/internal/domain/models"
	domrepo "TickerWatch/internal/domain/repository"
	pkgkafka "TickerWatch/pkg/kafka"
)

// batchProducer is the slice of pkg/kafka.Producer used here.
type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaPublisher implements Publisher by writing alert messages to a topic.
type KafkaPublisher struct {
	producer batchProducer
	topic    string
	now      func() time.Time
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer batchProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, now: time.Now}
}

type alertMessage struct {
	Ticker string    `json:"ticker"`
	Text   string    `json:"text"`
	TS     time.Time `json:"ts"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, ticker, text string) error {
	err := p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{{
		Key:   []byte(ticker),
		Value: alertMessage{Ticker: ticker, Text: text, TS: p.now().UTC()},
	}})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", ticker, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaEventSink emits every AlertRecord as an event for downstream consumers.
type KafkaEventSink struct {
	producer batchProducer
	topic    string
}

var _ domrepo.AlertSink = (*KafkaEventSink)(nil)

func NewKafkaEventSink(producer batchProducer, topic string) *KafkaEventSink {
	return &KafkaEventSink{producer: producer, topic: topic}
}

func (s *KafkaEventSink) Record(ctx context.Context, rec models.AlertRecord) error {
	traceID := fmt.Sprintf("%s-%d", rec.Ticker, rec.Timestamp.UnixNano())
	return s.producer.PublishBatch(ctx, s.topic, []pkgkafka.Message{{
		Key:     []byte(rec.Ticker),
		Value:   rec,
		Headers: map[string]string{"trace_id": traceID},
	}})
}
