package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types; the Kafka topic name equals the event type.
const (
	TypeReservationCreated     = "booking.reservation.created.v1"
	TypeReservationRescheduled = "booking.reservation.rescheduled.v1"
	TypeReservationStatus      = "booking.reservation.status_changed.v1"
	TypeWaitlistOffered        = "booking.waitlist.offered.v1"
)

// Publisher emits domain events for downstream consumers (notifications,
// analytics). Publishing is a non-essential side effect: implementations must
// never fail the request that produced the event.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
	Close() error
}

type KafkaPublisher struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	timeout time.Duration
}

// NewKafkaPublisher returns a publisher over the given broker list, or a nop
// publisher when no brokers are configured.
func NewKafkaPublisher(brokers string, logger *slog.Logger) Publisher {
	list := SplitBrokers(brokers)
	if len(list) == 0 {
		logger.Warn("event publisher disabled (no kafka brokers configured)")
		return NopPublisher{}
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  list,
		Balancer: &kafka.Hash{},
	})
	return &KafkaPublisher{writer: writer, logger: logger, timeout: 5 * time.Second}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) {
	value, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("event payload marshal failed", slog.String("event_type", eventType), slog.Any("err", err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Topic: eventType,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("event publish failed", slog.String("event_type", eventType), slog.String("key", key), slog.Any("err", err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType, key string, payload any) {}

func (NopPublisher) Close() error { return nil }

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
