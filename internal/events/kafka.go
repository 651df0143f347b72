package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes order events to a single topic, keyed by order id so
// events for one order stay in partition order.
type KafkaPublisher struct {
	writer  *kafka.Writer
	service string
	logger  *log.Logger
}

func NewKafkaPublisher(brokers []string, topic, service string, logger *log.Logger) *KafkaPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		service: service,
		logger:  logger,
	}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, eventType, orderID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Printf("marshal %s payload: %v", eventType, err)
		return
	}
	value, err := json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     p.service,
		OrderID:      orderID,
		Payload:      body,
	})
	if err != nil {
		p.logger.Printf("marshal %s envelope: %v", eventType, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(orderID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Printf("publish %s for order %s: %v", eventType, orderID, err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
