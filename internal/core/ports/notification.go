package ports

import (
	"context"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// NotificationPublisher queues a notification for asynchronous delivery.
type NotificationPublisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Sender delivers a notification over one channel.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// RealtimePublisher pushes an event to every client in a room and returns
// how many clients it reached.
type RealtimePublisher interface {
	Publish(room, event string, payload any) int
}
