// Package changefeed publishes one Kafka message per store mutation so
// downstream consumers (reminders, analytics) can follow the calendar. The
// feed is optional; without configured brokers it is simply not attached.
package changefeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/clinicdesk/schedcal/internal/model"
	"github.com/clinicdesk/schedcal/internal/store"
	"github.com/clinicdesk/schedcal/libs/kafkax"
)

const publishTimeout = 5 * time.Second

type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewPublisher(brokers, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(kafkax.SplitBrokers(brokers)...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		logger: logger,
	}
}

// Attach subscribes the publisher to store mutations. Wholesale replacement
// (hydration) is not published; the feed carries user-visible edits only.
func (p *Publisher) Attach(st *store.Store) {
	st.Subscribe(func(c store.Change, _ []model.Appointment) {
		if c.Op == store.OpReplaceAll {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		msg, err := buildMessage(c)
		if err != nil {
			p.logger.Error("changefeed payload marshal failed", "err", err)
			return
		}
		msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.logger.Error("changefeed publish failed", "err", err, "event_type", eventType(c.Op))
		}
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

type eventPayload struct {
	EventID     string            `json:"event_id"`
	EventType   string            `json:"event_type"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Appointment model.Appointment `json:"appointment"`
}

func eventType(op store.Op) string {
	switch op {
	case store.OpAdd:
		return "appointment.created.v1"
	case store.OpUpdate:
		return "appointment.updated.v1"
	case store.OpDelete:
		return "appointment.deleted.v1"
	}
	return ""
}

func buildMessage(c store.Change) (kafka.Message, error) {
	payload := eventPayload{
		EventID:     uuid.NewString(),
		EventType:   eventType(c.Op),
		OccurredAt:  time.Now().UTC(),
		Appointment: c.Appointment,
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(c.Appointment.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(payload.EventID)},
			{Key: "event_type", Value: []byte(payload.EventType)},
		},
	}, nil
}
