// Package kafka moves notifications between the API and the notifier
// through a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// Producer writes notifications to a single topic.
type Producer struct {
	w   *kafka.Writer
	log zerolog.Logger
}

func NewProducer(brokers []string, topic string, log zerolog.Logger) *Producer {
	log = log.With().Str("component", "kafka_producer").Str("topic", topic).Logger()

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		Logger:                 infoLogger{log: log},
		ErrorLogger:            errorLogger{log: log},
		AllowAutoTopicCreation: true,
	}
	return &Producer{w: w, log: log}
}

// Publish blocks until the broker acknowledged the message.
func (p *Producer) Publish(ctx context.Context, n domain.Notification) error {
	msg, err := toMessage(n)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (p *Producer) Close() {
	if err := p.w.Close(); err != nil {
		p.log.Error().Err(err).Msg("close kafka writer")
	}
}

// toMessage keys by tenant so one tenant's notifications stay ordered.
func toMessage(n domain.Notification) (kafka.Message, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal notification: %w", err)
	}
	key := n.TenantID
	if key == "" {
		key = n.ID
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: b,
		Headers: []kafka.Header{
			{Key: "channel", Value: []byte(n.Channel)},
		},
	}, nil
}

type infoLogger struct{ log zerolog.Logger }

func (l infoLogger) Printf(format string, v ...any) {
	l.log.Debug().Msgf(format, v...)
}

type errorLogger struct{ log zerolog.Logger }

func (l errorLogger) Printf(format string, v ...any) {
	l.log.Error().Msgf(format, v...)
}
