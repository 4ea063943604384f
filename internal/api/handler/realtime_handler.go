package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// RealtimeServer upgrades a request into a push connection for sess.
type RealtimeServer interface {
	Serve(w http.ResponseWriter, r *http.Request, sess domain.SessionContext) error
}

// RealtimeHandler serves GET /ws.
type RealtimeHandler struct {
	hub RealtimeServer
}

func NewRealtimeHandler(hub RealtimeServer) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Connect opens the incoming-call channel. Rooms follow from the session.
//
// @Summary      Realtime channel
// @Tags         realtime
// @Success      101
// @Failure      401  {object}  errorResponse
// @Router       /ws [get]
func (h *RealtimeHandler) Connect(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	// The upgrader has already answered the client on failure.
	_ = h.hub.Serve(c.Response(), c.Request(), sess)
	return nil
}
