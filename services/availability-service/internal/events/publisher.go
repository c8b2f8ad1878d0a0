// Package events emits reservation lifecycle notifications to Kafka so that
// downstream schedulers and reminder pipelines learn about new bookings
// without polling the calendar.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/clinicbook/clinicbook/libs/kafkax"
)

const TopicReservationCreated = "availability.reservation.created.v1"

type ReservationCreated struct {
	ReservationID string    `json:"reservation_id"`
	ClinicianID   string    `json:"clinician_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Attendee      string    `json:"attendee,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Publisher is best-effort: a broker outage must never fail a booking that
// the calendar already accepted.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher returns a disabled publisher when brokers is empty.
func NewPublisher(brokers string, logger *slog.Logger) *Publisher {
	p := &Publisher{logger: logger}
	if brokers == "" {
		return p
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(kafkax.SplitBrokers(brokers)...),
		Topic:        TopicReservationCreated,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return p
}

func (p *Publisher) PublishReservationCreated(ctx context.Context, ev ReservationCreated) {
	if p.writer == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode reservation event", "error", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.ClinicianID),
		Value: payload,
		Headers: kafkax.InjectTraceHeaders(ctx, []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(TopicReservationCreated)},
		}),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "publish reservation event",
			"reservation_id", ev.ReservationID, "error", err)
		return
	}
	p.logger.InfoContext(ctx, "reservation event published", "reservation_id", ev.ReservationID)
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
