package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// NotificationTargets holds the fixed recipients of operational messages.
type NotificationTargets struct {
	SecurityEmail  string
	TelegramChatID string
	// MissedCallSMS, when set, is texted back to a caller whose call was missed.
	MissedCallSMS string
}

// NotificationService turns domain happenings into queued notifications.
// Publishing failures are logged and never reach the caller.
type NotificationService struct {
	pub     ports.NotificationPublisher
	targets NotificationTargets
	now     func() time.Time
	log     zerolog.Logger
}

func NewNotificationService(pub ports.NotificationPublisher, targets NotificationTargets, log zerolog.Logger) *NotificationService {
	return &NotificationService{pub: pub, targets: targets, now: time.Now, log: log}
}

// Publish stamps n with an id and creation time and queues it.
func (s *NotificationService) Publish(ctx context.Context, n domain.Notification) error {
	if n.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("publish notification: %w", err)
		}
		n.ID = id.String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if err := s.pub.Publish(ctx, n); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// SecurityAlert emails the security contact. Nothing is sent when no
// contact is configured.
func (s *NotificationService) SecurityAlert(ctx context.Context, subject, body string) {
	if s.targets.SecurityEmail == "" {
		s.log.Debug().Str("subject", subject).Msg("security alert skipped, no recipient configured")
		return
	}
	n := domain.Notification{
		Channel:    domain.ChannelEmail,
		Recipients: []string{s.targets.SecurityEmail},
		Subject:    "[VetSystem security] " + subject,
		Body:       body,
	}
	if err := s.Publish(ctx, n); err != nil {
		s.log.Error().Err(err).Str("subject", subject).Msg("failed to queue security alert")
	}
}

// MissedCall posts to the staff chat and optionally texts the caller back.
func (s *NotificationService) MissedCall(ctx context.Context, ev domain.CallEvent, owners []domain.Owner) {
	caller := ev.CustomerNumber()
	if s.targets.TelegramChatID != "" {
		var b strings.Builder
		fmt.Fprintf(&b, "Missed call from %s", caller)
		if len(owners) > 0 {
			names := make([]string, 0, len(owners))
			for _, o := range owners {
				names = append(names, o.Name)
			}
			fmt.Fprintf(&b, " (%s)", strings.Join(names, ", "))
		}
		fmt.Fprintf(&b, " at %s", ev.StartedAt.Format("02.01.2006 15:04"))

		n := domain.Notification{
			Channel:    domain.ChannelTelegram,
			TenantID:   ev.TenantID,
			Recipients: []string{s.targets.TelegramChatID},
			Body:       b.String(),
		}
		if err := s.Publish(ctx, n); err != nil {
			s.log.Error().Err(err).Str("call_id", ev.ExternalCallID).Msg("failed to queue missed-call message")
		}
	}

	if s.targets.MissedCallSMS == "" {
		return
	}
	phone, ok := domain.NormalizePhone(caller)
	if !ok {
		return
	}
	n := domain.Notification{
		Channel:    domain.ChannelSMS,
		TenantID:   ev.TenantID,
		Recipients: []string{phone},
		Body:       s.targets.MissedCallSMS,
	}
	if err := s.Publish(ctx, n); err != nil {
		s.log.Error().Err(err).Str("call_id", ev.ExternalCallID).Msg("failed to queue missed-call sms")
	}
}
