package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/queue"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/telephony"
)

type stubParser struct {
	got telephony.WebhookForm
	err error
}

func (p *stubParser) Parse(_ context.Context, form telephony.WebhookForm) (domain.CallEvent, error) {
	p.got = form
	if p.err != nil {
		return domain.CallEvent{}, p.err
	}
	return domain.CallEvent{TenantID: "t1", ExternalCallID: "c-1", Status: domain.CallRinging}, nil
}

type stubQueue struct {
	events []domain.CallEvent
	err    error
}

func (q *stubQueue) TryEnqueue(ev domain.CallEvent) error {
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, ev)
	return nil
}

func webhookRequest() *http.Request {
	form := url.Values{}
	form.Set("vpbx_api_key", "key")
	form.Set("sign", "abc")
	form.Set("json", `{"call_id":"c-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/integrations/telephony/events", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestTelephonyHandler_Accepts(t *testing.T) {
	e := newTestEcho()
	parser, q := &stubParser{}, &stubQueue{}
	h := NewTelephonyHandler(parser, q, zerolog.Nop())

	rec := httptest.NewRecorder()
	if err := h.Event(e.NewContext(webhookRequest(), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if parser.got.APIKey != "key" || parser.got.Sign != "abc" || parser.got.JSON != `{"call_id":"c-1"}` {
		t.Fatalf("form not bound: %+v", parser.got)
	}
	if len(q.events) != 1 || q.events[0].ExternalCallID != "c-1" {
		t.Fatalf("event not queued: %+v", q.events)
	}
}

func TestTelephonyHandler_Rejects(t *testing.T) {
	e := newTestEcho()

	bad := NewTelephonyHandler(&stubParser{err: domain.ErrInvalidSignature}, &stubQueue{}, zerolog.Nop())
	if err := bad.Event(e.NewContext(webhookRequest(), httptest.NewRecorder())); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	full := &stubQueue{err: queue.ErrQueueFull}
	busy := NewTelephonyHandler(&stubParser{}, full, zerolog.Nop())
	if err := busy.Event(e.NewContext(webhookRequest(), httptest.NewRecorder())); !errors.Is(err, queue.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}
