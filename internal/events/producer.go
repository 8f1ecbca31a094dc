package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event keys published to the broker; the mail pipeline consumes these.
const (
	KeyUserSignedUp   = "user.signed_up"
	KeyBookingCreated = "booking.created"
	KeyDonationMade   = "donation.made"
)

// Producer publishes application events. Publishing is best-effort: a broker
// failure never fails the operation that triggered the event.
type Producer interface {
	Publish(ctx context.Context, key string, payload interface{}) error
	Close() error
}

type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer builds a producer for the given broker. An empty broker
// yields a producer whose publishes are silently skipped, so event publishing
// stays optional in development.
func NewKafkaProducer(broker, topic string) *KafkaProducer {
	if broker == "" {
		return &KafkaProducer{}
	}

	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *KafkaProducer) Publish(ctx context.Context, key string, payload interface{}) error {
	if p == nil || p.writer == nil {
		return nil
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
