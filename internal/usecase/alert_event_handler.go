package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TickerWatch/internal/domain/models"
	domrepo "TickerWatch/internal/domain/repository"
	pkgkafka "TickerWatch/pkg/kafka"
)

// AlertEventHandler consumes alert events from Kafka and writes them to the archive.
type AlertEventHandler struct {
	topic   string
	sink    domrepo.AlertSink
	metrics domrepo.Metrics
}

func NewAlertEventHandler(topic string, sink domrepo.AlertSink, metrics domrepo.Metrics) *AlertEventHandler {
	return &AlertEventHandler{topic: topic, sink: sink, metrics: metrics}
}

func (h *AlertEventHandler) Topic() string { return h.topic }

func (h *AlertEventHandler) Handle(ctx context.Context, b []byte) error {
	var rec models.AlertRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode alert event: %w", err)
	}
	if rec.Ticker == "" || rec.Timestamp.IsZero() {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("alert event missing ticker or ts")
	}
	h.metrics.RecordLatency("event_e2e_seconds", time.Since(rec.Timestamp).Seconds())

	start := time.Now()
	err := h.sink.Record(ctx, rec)
	h.metrics.RecordLatency("archive_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*AlertEventHandler)(nil)
