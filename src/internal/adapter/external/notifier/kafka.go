package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/api-sage/funds-transfer-service/src/internal/domain"
	"github.com/segmentio/kafka-go"
)

// NotificationRequested is the event published for every message a party
// should receive. Consumers own the actual delivery channel.
type NotificationRequested struct {
	AccountID  string    `json:"accountId"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return newKafkaNotifier(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

func newKafkaNotifier(writer messageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, now: time.Now}
}

// Notify publishes the message keyed by account id, so every message for one
// account lands on the same partition in order.
func (n *KafkaNotifier) Notify(ctx context.Context, accountID string, message string) error {
	data, err := json.Marshal(NotificationRequested{
		AccountID:  accountID,
		Message:    message,
		OccurredAt: n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode notification event: %w", err)
	}

	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(accountID),
		Value: data,
	}); err != nil {
		return fmt.Errorf("publish notification for %q: %w", accountID, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

var _ domain.Notifier = (*KafkaNotifier)(nil)
