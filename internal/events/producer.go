// Package events publishes ride lifecycle events to Kafka for operator
// telemetry. Publishing is best-effort: a missing broker never blocks or
// fails the booking flow.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeRideBooked           = "ride_booked"
	TypeRideCancelled        = "ride_cancelled"
	TypeRideCompleted        = "ride_completed"
	TypeReconciliationFailed = "reconciliation_failed"
)

// Event is the wire shape of one lifecycle record.
type Event struct {
	Type       string    `json:"type"`
	RideID     string    `json:"rideId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	PaymentRef string    `json:"paymentRef,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// Producer writes lifecycle events. A nil *Producer is valid and drops
// everything, so callers never need to branch on configuration.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &Producer{writer: w}
}

func (p *Producer) Publish(e Event) error {
	if p == nil {
		return nil
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, _ := json.Marshal(e)
	key := e.RideID
	if key == "" {
		key = e.PaymentRef
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
