// Package notify delivers post-commit messages to customers and operators.
// Delivery is best-effort from the caller's point of view; the state
// transitions that trigger a notification never wait on it.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/mkrylova/slotserve/libs/kafkax"
)

const (
	TopicCustomer = "notification.customer.v1"
	TopicOperator = "notification.operator.v1"
)

// LogNotifier writes notifications to the service log. It is the fallback
// when no brokers are configured, and the default in tests.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyCustomer(_ context.Context, customerID, message string) error {
	n.logger.Info("notify_customer", "customer_id", customerID, "message", message)
	return nil
}

func (n *LogNotifier) NotifyOperators(_ context.Context, message string) error {
	n.logger.Info("notify_operators", "message", message)
	return nil
}

type customerEvent struct {
	CustomerID string    `json:"customer_id"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sent_at"`
}

type operatorEvent struct {
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// KafkaNotifier publishes notification events for the delivery workers to
// fan out. Customer events are keyed by customer id so one customer's
// messages stay ordered.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  kafkax.SplitBrokers(brokers),
			Balancer: &kafka.Hash{},
		}),
	}
}

func (n *KafkaNotifier) NotifyCustomer(ctx context.Context, customerID, message string) error {
	payload, err := json.Marshal(customerEvent{
		CustomerID: customerID,
		Message:    message,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.publish(ctx, TopicCustomer, customerID, payload)
}

func (n *KafkaNotifier) NotifyOperators(ctx context.Context, message string) error {
	payload, err := json.Marshal(operatorEvent{
		Message: message,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.publish(ctx, TopicOperator, "operators", payload)
}

func (n *KafkaNotifier) publish(ctx context.Context, topic, key string, payload []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(topic)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	return n.writer.WriteMessages(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
