package domain

import "time"

// NotificationChannel selects the delivery transport.
type NotificationChannel string

const (
	ChannelEmail    NotificationChannel = "email"
	ChannelTelegram NotificationChannel = "telegram"
	ChannelSMS      NotificationChannel = "sms"
)

// Notification is a message queued for delivery by the notifier.
type Notification struct {
	ID         string              `json:"id"`
	Channel    NotificationChannel `json:"channel"`
	TenantID   string              `json:"tenant_id,omitempty"`
	Recipients []string            `json:"recipients,omitempty"`
	Subject    string              `json:"subject,omitempty"`
	Body       string              `json:"body"`
	CreatedAt  time.Time           `json:"created_at"`
}

// DeliveryResult is the structured outcome of a delivery attempt.
// Integration failures are reported here instead of being returned as errors.
type DeliveryResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AuditAction names an audited event.
type AuditAction string

const (
	AuditAccessDenied   AuditAction = "access_denied"
	AuditBranchSwitched AuditAction = "branch_switched"
	AuditTenantSwitched AuditAction = "tenant_switched"
	AuditSwitchRejected AuditAction = "switch_rejected"
	AuditLogin          AuditAction = "login"
	AuditCallReceived   AuditAction = "call_received"
)

// AuditEntry is an append-only audit record.
type AuditEntry struct {
	Action   AuditAction       `json:"action"`
	UserID   string            `json:"user_id,omitempty"`
	TenantID string            `json:"tenant_id,omitempty"`
	BranchID string            `json:"branch_id,omitempty"`
	Target   string            `json:"target,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
	At       time.Time         `json:"at"`
}
