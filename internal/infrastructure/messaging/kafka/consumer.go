package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// Deliverer is the notifier side of the topic.
type Deliverer interface {
	Deliver(ctx context.Context, n domain.Notification) domain.DeliveryResult
}

// Consumer reads notifications with a consumer group and hands each one to
// a Deliverer. Offsets are committed after delivery, whatever its outcome.
type Consumer struct {
	r       *kafka.Reader
	deliver Deliverer
	wg      sync.WaitGroup
	log     zerolog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, deliver Deliverer, log zerolog.Logger) *Consumer {
	log = log.With().Str("component", "kafka_consumer").Str("group_id", groupID).Logger()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		Logger:      infoLogger{log: log},
		ErrorLogger: errorLogger{log: log},
	})
	return &Consumer{r: r, deliver: deliver, log: log}
}

// Consume starts the read loop. It returns immediately; Close waits for
// the loop to finish.
func (c *Consumer) Consume(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			m, err := c.r.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					c.log.Info().Msg("consumer stopped")
					return
				}
				c.log.Error().Err(err).Msg("fetch kafka message")
				continue
			}

			c.handle(ctx, m)

			if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
				c.log.Error().Err(err).Int64("offset", m.Offset).Msg("commit kafka message")
			}
		}
	}()
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	n, err := decode(m)
	if err != nil {
		c.log.Error().Err(err).Int64("offset", m.Offset).Msg("dropping malformed notification")
		return
	}
	res := c.deliver.Deliver(ctx, n)
	c.log.Info().
		Str("notification_id", n.ID).
		Str("channel", string(n.Channel)).
		Bool("success", res.Success).
		Str("result", res.Message).
		Msg("notification processed")
}

func (c *Consumer) Close() {
	if err := c.r.Close(); err != nil {
		c.log.Error().Err(err).Msg("close kafka reader")
	}
	c.wg.Wait()
}

func decode(m kafka.Message) (domain.Notification, error) {
	var n domain.Notification
	if err := json.Unmarshal(m.Value, &n); err != nil {
		return domain.Notification{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	if n.Channel == "" {
		return domain.Notification{}, fmt.Errorf("notification %q has no channel", n.ID)
	}
	return n, nil
}
