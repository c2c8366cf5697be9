// Package kafka forwards committed domain events to a Kafka topic so other
// systems can follow deliveries and payments.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/domain/model/payment"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventStream implements ports.EventStream.
type EventStream struct {
	w     writer
	topic string
	now   func() time.Time
}

func NewEventStream(brokers []string, topic string) *EventStream {
	return newEventStreamWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}, topic)
}

func newEventStreamWithWriter(w writer, topic string) *EventStream {
	return &EventStream{
		w:     w,
		topic: topic,
		now:   time.Now,
	}
}

// Envelope is the message value.
type Envelope struct {
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Append writes one event keyed by its order id, so the events of one
// delivery stay ordered within a partition. Pickup codes are never written.
func (s *EventStream) Append(ctx context.Context, event kernel.DomainEvent) error {
	key, payload := describe(event)
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "kafka marshal event")
	}
	value, err := json.Marshal(Envelope{
		Name:       event.EventName(),
		OccurredAt: s.now().UTC(),
		Payload:    raw,
	})
	if err != nil {
		return errors.Wrap(err, "kafka marshal envelope")
	}

	if err := s.w.WriteMessages(ctx, kafka.Message{
		Topic: s.topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-name", Value: []byte(event.EventName())},
		},
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

func (s *EventStream) Close() error {
	return s.w.Close()
}

func describe(event kernel.DomainEvent) (string, map[string]any) {
	switch e := event.(type) {
	case order.Started:
		return e.OrderID.String(), map[string]any{
			"orderId":      e.OrderID.String(),
			"boardId":      e.BoardID,
			"lockerNumber": e.LockerNumber,
			"lockerIndex":  e.LockerIndex,
			"at":           e.At,
		}
	case order.PickupCompleted:
		return e.OrderID.String(), map[string]any{
			"orderId":      e.OrderID.String(),
			"boardId":      e.BoardID,
			"lockerNumber": e.LockerNumber,
			"lockerIndex":  e.LockerIndex,
			"at":           e.PickedUpAt,
		}
	case order.OrderCancelled:
		return e.OrderID.String(), map[string]any{
			"orderId":      e.OrderID.String(),
			"boardId":      e.BoardID,
			"lockerNumber": e.LockerNumber,
			"reason":       e.Reason,
			"at":           e.At,
		}
	case order.StatusChanged:
		return e.OrderID.String(), map[string]any{
			"orderId": e.OrderID.String(),
			"from":    e.From.String(),
			"to":      e.To.String(),
			"at":      e.At,
		}
	case payment.Settled:
		return e.OrderID.String(), map[string]any{
			"paymentId": e.PaymentID.String(),
			"orderId":   e.OrderID.String(),
			"invoiceId": e.InvoiceID,
			"amount":    e.Amount,
			"at":        e.PaidAt,
		}
	case payment.PaymentFailed:
		return e.OrderID.String(), map[string]any{
			"paymentId": e.PaymentID.String(),
			"orderId":   e.OrderID.String(),
			"reason":    e.Reason,
			"at":        e.FailedAt,
		}
	default:
		return event.EventName(), map[string]any{}
	}
}
