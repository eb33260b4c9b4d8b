package facades

//go:generate mockgen -source=notifier.go -destination=notifier_mock.go -package=facades

import (
	"context"
	"encoding/json"

	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// KafkaNotifier publishes events to the notification service. Delivery is
// best effort: failures are logged and never reach the caller.
type KafkaNotifier struct {
	writer  KafkaWriter
	breaker *gobreaker.CircuitBreaker
}

// NewKafkaNotifier creates a new KafkaNotifier. A nil writer disables publishing.
func NewKafkaNotifier(writer KafkaWriter, breaker *gobreaker.CircuitBreaker) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, breaker: breaker}
}

// Publish sends event keyed by its account id.
func (n *KafkaNotifier) Publish(ctx context.Context, event models.Event) {
	if n == nil || n.writer == nil {
		logger.Log.Debugw("kafka writer not configured, skipping event", "event_type", event.Type, "reference", event.Reference)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("failed to marshal event", "event_type", event.Type, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.AccountID.String()),
		Value: data,
	}

	write := func() (any, error) {
		return nil, n.writer.WriteMessages(ctx, msg)
	}
	if n.breaker != nil {
		_, err = n.breaker.Execute(write)
	} else {
		_, err = write()
	}

	if err != nil {
		logger.Log.Errorw("failed to publish event", "event_type", event.Type, "event_id", event.EventID, "error", err)
		return
	}
	logger.Log.Infow("event published", "event_type", event.Type, "event_id", event.EventID, "reference", event.Reference)
}

// Close closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
