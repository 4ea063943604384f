// Command notifier consumes queued notifications and delivers them by
// email, Telegram or SMS.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/api/metrics"
	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
	"github.com/ssavin/vetsystem-sub004/internal/core/service"
	httpinfra "github.com/ssavin/vetsystem-sub004/internal/infrastructure/http"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/http/handlers"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/messaging/kafka"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/notify"
	"github.com/ssavin/vetsystem-sub004/internal/pkg/config"
	"github.com/ssavin/vetsystem-sub004/pkg/logger"
)

const (
	senderTimeout   = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.LoadNotifier()
	log := logger.Init(logger.OptionsFor("notifier", cfg.Env, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	senders := buildSenders(cfg, log)
	delivery := &meteredDelivery{next: service.NewDeliveryService(senders, logger.For("delivery"))}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, delivery, logger.For("kafka"))
	consumer.Consume(ctx)

	ops := httpinfra.NewOpsRouter(map[string]handlers.Check{})
	go func() {
		if err := ops.Start(":" + cfg.OpsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops listener failed")
			stop()
		}
	}()
	log.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.NotificationsTopic).
		Int("channels", len(senders)).
		Msg("notifier started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops shutdown")
	}
	consumer.Close()
}

// buildSenders registers a sender for every channel that is configured.
func buildSenders(cfg *config.NotifierConfig, log zerolog.Logger) map[domain.NotificationChannel]ports.Sender {
	senders := make(map[domain.NotificationChannel]ports.Sender)
	if cfg.SMTP.Host != "" {
		senders[domain.ChannelEmail] = notify.NewEmail(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn().Msg("SMTP_HOST not set, email channel disabled")
	}
	if cfg.Telegram.BotToken != "" {
		senders[domain.ChannelTelegram] = notify.NewTelegram(cfg.Telegram.BotToken, senderTimeout)
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, telegram channel disabled")
	}
	if cfg.SMS.APIKey != "" {
		senders[domain.ChannelSMS] = notify.NewSMS(cfg.SMS.APIKey, cfg.SMS.APIURL, senderTimeout)
	} else {
		log.Warn().Msg("SMS_API_KEY not set, sms channel disabled")
	}
	return senders
}

// meteredDelivery counts every delivery outcome.
type meteredDelivery struct {
	next *service.DeliveryService
}

func (m *meteredDelivery) Deliver(ctx context.Context, n domain.Notification) domain.DeliveryResult {
	res := m.next.Deliver(ctx, n)
	metrics.RecordDelivery(string(n.Channel), res.Success)
	return res
}
