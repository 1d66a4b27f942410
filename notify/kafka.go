package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/warp/supply-ledger/requisition"
)

// EventRequisitionCreated is the event type published for new requisitions.
const EventRequisitionCreated = "requisition.created"

// Event is the JSON envelope written to Kafka.
type Event struct {
	Type        string                  `json:"type"`
	OccurredAt  time.Time               `json:"occurred_at"`
	Requisition requisition.Requisition `json:"requisition"`
}

// Kafka publishes requisition events keyed by requester, so one
// organization's events stay ordered within a partition.
type Kafka struct {
	writer messageWriter
}

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafka(brokers []string, topic string) *Kafka {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Kafka{writer: writer}
}

func (k *Kafka) Notify(ctx context.Context, r requisition.Requisition) error {
	data, err := json.Marshal(Event{
		Type:        EventRequisitionCreated,
		OccurredAt:  time.Now().UTC(),
		Requisition: r,
	})
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(r.RequesterID),
		Value: data,
		Time:  time.Now(),
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
