// Package telephony authenticates and decodes telephony provider webhooks.
package telephony

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

// ProviderMango is the credential provider name of Mango Office accounts.
const ProviderMango = "mango"

// Mango call states.
const (
	stateAppeared     = "Appeared"
	stateConnected    = "Connected"
	stateOnHold       = "OnHold"
	stateDisconnected = "Disconnected"
)

// WebhookForm is the form body of a Mango webhook.
type WebhookForm struct {
	APIKey string `form:"vpbx_api_key"`
	Sign   string `form:"sign"`
	JSON   string `form:"json"`
}

type mangoParty struct {
	Extension string `json:"extension"`
	Number    string `json:"number"`
}

// mangoEvent covers both the realtime call event and the summary event.
type mangoEvent struct {
	EntryID          string     `json:"entry_id"`
	CallID           string     `json:"call_id"`
	Seq              int        `json:"seq"`
	Timestamp        int64      `json:"timestamp"`
	CallState        string     `json:"call_state"`
	From             mangoParty `json:"from"`
	To               mangoParty `json:"to"`
	Direction        string     `json:"direction"`
	Start            int64      `json:"start"`
	Answer           int64      `json:"answer"`
	Finish           int64      `json:"finish"`
	DisconnectReason any        `json:"disconnect_reason"`
	TalkDuration     int        `json:"talk_duration"`
}

// Mango turns signed webhooks into call events.
type Mango struct {
	creds ports.CredentialRepository
}

func NewMango(creds ports.CredentialRepository) *Mango {
	return &Mango{creds: creds}
}

// Sign computes the Mango signature sha256(api_key + json + api_salt).
func Sign(apiKey, payload, salt string) string {
	sum := sha256.Sum256([]byte(apiKey + payload + salt))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether sign matches payload. The comparison is constant
// time.
func Verify(apiKey, payload, salt, sign string) bool {
	want := Sign(apiKey, payload, salt)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(sign))) == 1
}

// Parse authenticates form and returns the call event scoped to the
// credential's tenant and branch. Unknown keys and bad signatures are both
// reported as domain.ErrInvalidSignature.
func (m *Mango) Parse(ctx context.Context, form WebhookForm) (domain.CallEvent, error) {
	if form.APIKey == "" || form.Sign == "" || form.JSON == "" {
		return domain.CallEvent{}, domain.ErrInvalidSignature
	}
	cred, err := m.creds.FindByAPIKey(ctx, ProviderMango, form.APIKey)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return domain.CallEvent{}, domain.ErrInvalidSignature
		}
		return domain.CallEvent{}, fmt.Errorf("load telephony credential: %w", err)
	}
	if !Verify(form.APIKey, form.JSON, cred.Secret, form.Sign) {
		return domain.CallEvent{}, domain.ErrInvalidSignature
	}

	var raw mangoEvent
	if err := json.Unmarshal([]byte(form.JSON), &raw); err != nil {
		return domain.CallEvent{}, fmt.Errorf("%w: %v", domain.ErrInvalidCallEvent, err)
	}
	ev, err := toCallEvent(raw)
	if err != nil {
		return domain.CallEvent{}, err
	}
	ev.TenantID = cred.TenantID
	ev.BranchID = cred.BranchID
	return ev, nil
}

func toCallEvent(raw mangoEvent) (domain.CallEvent, error) {
	if raw.CallID == "" {
		return domain.CallEvent{}, fmt.Errorf("%w: missing call_id", domain.ErrInvalidCallEvent)
	}

	ev := domain.CallEvent{
		ExternalCallID: raw.CallID,
		Seq:            raw.Seq,
		Direction:      direction(raw),
		FromNumber:     raw.From.Number,
		ToNumber:       raw.To.Number,
		Extension:      raw.To.Extension,
		Duration:       raw.TalkDuration,
	}
	if ev.Direction == domain.CallOutbound {
		ev.Extension = raw.From.Extension
	}

	started := raw.Start
	if started == 0 {
		started = raw.Timestamp
	}
	if started == 0 {
		return domain.CallEvent{}, fmt.Errorf("%w: missing start time", domain.ErrInvalidCallEvent)
	}
	ev.StartedAt = unix(started)

	if raw.Answer > 0 {
		ev.AnsweredAt = ptr(unix(raw.Answer))
	}
	if raw.Finish > 0 {
		ev.EndedAt = ptr(unix(raw.Finish))
	}

	switch raw.CallState {
	case stateAppeared:
		ev.Status = domain.CallRinging
	case stateConnected, stateOnHold:
		ev.Status = domain.CallInProgress
		if ev.AnsweredAt == nil && raw.Timestamp > 0 {
			ev.AnsweredAt = ptr(unix(raw.Timestamp))
		}
	case stateDisconnected:
		if ev.EndedAt == nil {
			ts := raw.Timestamp
			if ts == 0 {
				ts = started
			}
			ev.EndedAt = ptr(unix(ts))
		}
		ev.Status = finalStatus(raw.DisconnectReason, ev.AnsweredAt != nil)
	case "":
		// Summary events carry no state; they describe a finished call.
		if ev.EndedAt == nil {
			return domain.CallEvent{}, fmt.Errorf("%w: missing call_state", domain.ErrInvalidCallEvent)
		}
		ev.Status = finalStatus(raw.DisconnectReason, ev.AnsweredAt != nil)
	default:
		return domain.CallEvent{}, fmt.Errorf("%w: unknown call_state %q", domain.ErrInvalidCallEvent, raw.CallState)
	}
	return ev, nil
}

// direction prefers the explicit field. Without it, a call whose caller
// is not an internal extension is inbound.
func direction(raw mangoEvent) domain.CallDirection {
	switch strings.ToLower(raw.Direction) {
	case "inbound", "1":
		return domain.CallInbound
	case "outbound", "2":
		return domain.CallOutbound
	}
	if raw.From.Extension != "" {
		return domain.CallOutbound
	}
	return domain.CallInbound
}

// finalStatus maps a disconnect reason onto a call status. Mango sends
// either a textual reason or a numeric code.
func finalStatus(reason any, answered bool) domain.CallStatus {
	switch r := reason.(type) {
	case string:
		switch r {
		case "normal":
			if answered {
				return domain.CallAnswered
			}
			return domain.CallMissed
		case "busy":
			return domain.CallBusy
		case "no_answer", "cancel":
			return domain.CallNoAnswer
		case "failed":
			return domain.CallFailed
		}
	case float64:
		if r >= 1100 && r < 1200 && answered {
			return domain.CallAnswered
		}
	}
	if answered {
		return domain.CallAnswered
	}
	return domain.CallMissed
}

func unix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func ptr[T any](v T) *T { return &v }
