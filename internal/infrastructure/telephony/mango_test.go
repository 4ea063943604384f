package telephony

import (
	"context"
	"errors"
	"testing"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

type stubCredentials struct {
	creds map[string]*domain.IntegrationCredential
	err   error
}

func (s *stubCredentials) FindByAPIKey(_ context.Context, provider, apiKey string) (*domain.IntegrationCredential, error) {
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.creds[provider+"|"+apiKey]
	if !ok {
		return nil, domain.ErrCredentialNotFound
	}
	return c, nil
}

const (
	testKey  = "key-123"
	testSalt = "salt-xyz"
)

func newTestMango() *Mango {
	return NewMango(&stubCredentials{creds: map[string]*domain.IntegrationCredential{
		ProviderMango + "|" + testKey: {
			ID: "cred-1", TenantID: "tenant-a", BranchID: "a-north",
			Provider: ProviderMango, APIKey: testKey, Secret: testSalt,
		},
	}})
}

func signed(payload string) WebhookForm {
	return WebhookForm{APIKey: testKey, Sign: Sign(testKey, payload, testSalt), JSON: payload}
}

func TestSign_KnownVector(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sign("a", "b", "c"); got != want {
		t.Fatalf("Sign = %s, want %s", got, want)
	}
	if !Verify("a", "b", "c", want) {
		t.Fatalf("expected signature to verify")
	}
	if Verify("a", "b", "d", want) {
		t.Fatalf("signature verified with the wrong salt")
	}
}

func TestMango_Parse_Ringing(t *testing.T) {
	payload := `{"call_id":"c-1","seq":1,"timestamp":1772359200,"call_state":"Appeared",
		"from":{"number":"79161234567"},"to":{"extension":"101","number":"74951112233"}}`

	ev, err := newTestMango().Parse(context.Background(), signed(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.TenantID != "tenant-a" || ev.BranchID != "a-north" {
		t.Fatalf("scope must come from the credential, got %s/%s", ev.TenantID, ev.BranchID)
	}
	if ev.Direction != domain.CallInbound || ev.Status != domain.CallRinging {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Extension != "101" || ev.StartedAt.Unix() != 1772359200 || ev.Finished() {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestMango_Parse_DisconnectStatuses(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    domain.CallStatus
		missed  bool
	}{
		{
			"missed",
			`{"call_id":"c","seq":3,"timestamp":1772359230,"call_state":"Disconnected","disconnect_reason":"normal","from":{"number":"7916"}}`,
			domain.CallMissed, true,
		},
		{
			"answered",
			`{"call_id":"c","seq":3,"start":1772359200,"answer":1772359205,"timestamp":1772359260,"call_state":"Disconnected","disconnect_reason":"normal"}`,
			domain.CallAnswered, false,
		},
		{
			"busy",
			`{"call_id":"c","seq":2,"timestamp":1772359210,"call_state":"Disconnected","disconnect_reason":"busy"}`,
			domain.CallBusy, true,
		},
		{
			"cancel",
			`{"call_id":"c","seq":2,"timestamp":1772359210,"call_state":"Disconnected","disconnect_reason":"cancel"}`,
			domain.CallNoAnswer, true,
		},
		{
			"numeric reason",
			`{"call_id":"c","seq":2,"timestamp":1772359210,"call_state":"Disconnected","disconnect_reason":1110}`,
			domain.CallMissed, true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := newTestMango().Parse(context.Background(), signed(tc.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ev.Status != tc.want {
				t.Fatalf("status = %s, want %s", ev.Status, tc.want)
			}
			if ev.Missed() != tc.missed {
				t.Fatalf("Missed() = %v, want %v", ev.Missed(), tc.missed)
			}
		})
	}
}

func TestMango_Parse_Connected(t *testing.T) {
	payload := `{"call_id":"c-2","seq":2,"timestamp":1772359205,"start":1772359200,"call_state":"Connected"}`

	ev, err := newTestMango().Parse(context.Background(), signed(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Status != domain.CallInProgress || ev.AnsweredAt == nil || ev.AnsweredAt.Unix() != 1772359205 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.StartedAt.Unix() != 1772359200 {
		t.Fatalf("start should prefer the start field, got %v", ev.StartedAt)
	}
}

func TestMango_Parse_Outbound(t *testing.T) {
	payload := `{"call_id":"c-3","timestamp":1772359200,"call_state":"Appeared",
		"from":{"extension":"102","number":"74951112233"},"to":{"number":"79161234567"}}`

	ev, err := newTestMango().Parse(context.Background(), signed(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Direction != domain.CallOutbound || ev.Extension != "102" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.CustomerNumber() != "79161234567" {
		t.Fatalf("unexpected customer number %q", ev.CustomerNumber())
	}
}

func TestMango_Parse_Rejects(t *testing.T) {
	ctx := context.Background()
	m := newTestMango()
	payload := `{"call_id":"c","timestamp":1,"call_state":"Appeared"}`

	bad := signed(payload)
	bad.Sign = Sign(testKey, payload, "other")
	if _, err := m.Parse(ctx, bad); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	unknown := signed(payload)
	unknown.APIKey = "nope"
	if _, err := m.Parse(ctx, unknown); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for unknown key, got %v", err)
	}

	if _, err := m.Parse(ctx, WebhookForm{}); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for empty form, got %v", err)
	}

	for _, p := range []string{
		`not json`,
		`{"timestamp":1,"call_state":"Appeared"}`,
		`{"call_id":"c","call_state":"Appeared"}`,
		`{"call_id":"c","timestamp":1,"call_state":"Teleported"}`,
	} {
		if _, err := m.Parse(ctx, signed(p)); !errors.Is(err, domain.ErrInvalidCallEvent) {
			t.Fatalf("payload %s: expected ErrInvalidCallEvent, got %v", p, err)
		}
	}
}

func TestMango_Parse_StoreError(t *testing.T) {
	m := NewMango(&stubCredentials{err: errors.New("db down")})
	_, err := m.Parse(context.Background(), signed(`{}`))
	if err == nil || errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}
