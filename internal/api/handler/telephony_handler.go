package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/api/metrics"
	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/infrastructure/telephony"
)

// WebhookParser authenticates a telephony webhook and decodes its event.
type WebhookParser interface {
	Parse(ctx context.Context, form telephony.WebhookForm) (domain.CallEvent, error)
}

// CallQueue accepts events without blocking.
type CallQueue interface {
	TryEnqueue(event domain.CallEvent) error
}

// TelephonyHandler receives call events from the telephony provider.
type TelephonyHandler struct {
	parser WebhookParser
	queue  CallQueue
	log    zerolog.Logger
}

func NewTelephonyHandler(parser WebhookParser, queue CallQueue, log zerolog.Logger) *TelephonyHandler {
	return &TelephonyHandler{parser: parser, queue: queue, log: log}
}

// Event accepts a signed call event and queues it for processing.
//
// @Summary      Telephony webhook
// @Tags         integrations
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        vpbx_api_key  formData  string  true  "Account api key"
// @Param        sign          formData  string  true  "sha256(api_key + json + api_salt)"
// @Param        json          formData  string  true  "Event payload"
// @Success      202  {object}  acceptedResponse
// @Failure      401  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/integrations/telephony/events [post]
func (h *TelephonyHandler) Event(c echo.Context) error {
	var form telephony.WebhookForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	ev, err := h.parser.Parse(c.Request().Context(), form)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			metrics.CallEventsTotal.WithLabelValues("rejected_signature").Inc()
			h.log.Warn().Str("remote_ip", c.RealIP()).Msg("telephony webhook with invalid signature")
		case errors.Is(err, domain.ErrInvalidCallEvent):
			metrics.CallEventsTotal.WithLabelValues("invalid").Inc()
		}
		return err
	}

	if err := h.queue.TryEnqueue(ev); err != nil {
		metrics.CallEventsTotal.WithLabelValues("queue_full").Inc()
		h.log.Error().Err(err).Str("call_id", ev.ExternalCallID).Msg("call event dropped")
		return err
	}

	metrics.CallEventsTotal.WithLabelValues("accepted").Inc()
	return c.JSON(http.StatusAccepted, acceptedResponse{Status: "accepted"})
}
