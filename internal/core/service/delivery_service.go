package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// DeliveryService hands queued notifications to the sender of their channel.
type DeliveryService struct {
	senders map[domain.NotificationChannel]ports.Sender
	log     zerolog.Logger
}

// NewDeliveryService builds a service over senders. Channels without a
// sender are reported as not configured.
func NewDeliveryService(senders map[domain.NotificationChannel]ports.Sender, log zerolog.Logger) *DeliveryService {
	if senders == nil {
		senders = map[domain.NotificationChannel]ports.Sender{}
	}
	return &DeliveryService{senders: senders, log: log}
}

// Deliver sends n and reports the outcome. Transport errors are folded into
// the result.
func (s *DeliveryService) Deliver(ctx context.Context, n domain.Notification) (res domain.DeliveryResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("notification_id", n.ID).Msg("sender panicked")
			res = domain.DeliveryResult{Success: false, Message: fmt.Sprintf("sender panicked: %v", r)}
		}
	}()

	if len(n.Recipients) == 0 {
		return domain.DeliveryResult{Success: false, Message: "no recipients"}
	}
	sender, ok := s.senders[n.Channel]
	if !ok || sender == nil {
		s.log.Warn().Str("channel", string(n.Channel)).Str("notification_id", n.ID).Msg("no sender configured for channel")
		return domain.DeliveryResult{Success: false, Message: fmt.Sprintf("channel %q is not configured", n.Channel)}
	}

	if err := sender.Send(ctx, n); err != nil {
		s.log.Error().Err(err).
			Str("channel", string(n.Channel)).
			Str("notification_id", n.ID).
			Msg("notification delivery failed")
		return domain.DeliveryResult{Success: false, Message: err.Error()}
	}

	s.log.Info().
		Str("channel", string(n.Channel)).
		Str("notification_id", n.ID).
		Int("recipients", len(n.Recipients)).
		Msg("notification delivered")
	return domain.DeliveryResult{Success: true, Message: "delivered"}
}
