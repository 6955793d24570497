// Package events ships order domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/go-gin-order-service/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-service/internal/domains/orders/ports"
)

// DefaultTopic receives every order event unless configured otherwise.
const DefaultTopic = "orders.events"

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per event, keyed by order id so an order's events
// stay ordered within a partition.
type KafkaPublisher struct {
	writer MessageWriter
	now    func() time.Time
}

// Envelope is the wire shape of a published event.
type Envelope struct {
	Type       string          `json:"type"`
	OrderID    int64           `json:"orderId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewKafkaPublisher dials nothing up front; kafka-go connects lazily on first write.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if strings.TrimSpace(topic) == "" {
		topic = DefaultTopic
	}
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}), nil
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := p.encode(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *KafkaPublisher) encode(event domain.Event) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	envelope, err := json.Marshal(Envelope{
		Type:       event.EventName(),
		OrderID:    event.AggregateID(),
		OccurredAt: event.OccurredAt().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.AggregateID(), 10)),
		Value: envelope,
		Time:  p.now().UTC(),
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.EventName())},
		},
	}, nil
}
