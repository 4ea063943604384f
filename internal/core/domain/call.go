package domain

import "time"

// CallDirection tells whether the clinic or the customer dialled.
type CallDirection string

const (
	CallInbound  CallDirection = "inbound"
	CallOutbound CallDirection = "outbound"
)

// CallStatus is the outcome recorded on a call log.
type CallStatus string

const (
	CallRinging    CallStatus = "ringing"
	CallInProgress CallStatus = "in_progress"
	CallAnswered   CallStatus = "answered"
	CallMissed     CallStatus = "missed"
	CallBusy       CallStatus = "busy"
	CallNoAnswer   CallStatus = "no_answer"
	CallFailed     CallStatus = "failed"
)

// CallEvent is a telephony state change after parsing and credential
// resolution. TenantID and BranchID come from the credential that signed
// the webhook, never from the payload.
type CallEvent struct {
	TenantID       string
	BranchID       string
	ExternalCallID string
	Seq            int
	Direction      CallDirection
	Status         CallStatus
	FromNumber     string
	ToNumber       string
	Extension      string
	StartedAt      time.Time
	AnsweredAt     *time.Time
	EndedAt        *time.Time
	Duration       int
}

// CustomerNumber is the party outside the clinic.
func (e CallEvent) CustomerNumber() string {
	if e.Direction == CallOutbound {
		return e.ToNumber
	}
	return e.FromNumber
}

// Finished reports whether the call has ended.
func (e CallEvent) Finished() bool { return e.EndedAt != nil }

// ShouldNotify reports whether staff should see an incoming-call popup.
func (e CallEvent) ShouldNotify() bool {
	return e.Direction == CallInbound && !e.Finished()
}

// Missed reports whether an inbound call ended without being answered.
func (e CallEvent) Missed() bool {
	return e.Direction == CallInbound && e.Finished() && e.AnsweredAt == nil
}

// Owner is a pet owner as far as phone matching needs it.
type Owner struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	BranchID string `json:"branch_id,omitempty"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	LegacyID string `json:"legacy_id,omitempty"`
}

// Patient is an animal linked to one or more owners.
type Patient struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	OwnerID  string `json:"owner_id,omitempty"`
	Name     string `json:"name"`
	Species  string `json:"species,omitempty"`
}

// CallLog is the persisted record of a call.
type CallLog struct {
	ID             string        `json:"id"`
	TenantID       string        `json:"tenant_id"`
	BranchID       string        `json:"branch_id,omitempty"`
	ExternalCallID string        `json:"external_call_id"`
	Direction      CallDirection `json:"direction"`
	Status         CallStatus    `json:"status"`
	FromNumber     string        `json:"from_number"`
	ToNumber       string        `json:"to_number"`
	OwnerID        string        `json:"owner_id,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	AnsweredAt     *time.Time    `json:"answered_at,omitempty"`
	EndedAt        *time.Time    `json:"ended_at,omitempty"`
	Duration       int           `json:"duration"`
}

// IncomingCall is the payload pushed to connected staff clients.
type IncomingCall struct {
	CallID   string    `json:"call_id"`
	Phone    string    `json:"phone"`
	Owners   []Owner   `json:"owners"`
	Patients []Patient `json:"patients"`
	At       time.Time `json:"at"`
}

// IntegrationCredential is a tenant's telephony account. Secret holds the
// decrypted signing salt.
type IntegrationCredential struct {
	ID       string
	TenantID string
	BranchID string
	Provider string
	APIKey   string
	Secret   string
}
