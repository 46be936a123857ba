package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	redisbus "github.com/yungbote/personapost-backend/internal/clients/redis"
	"github.com/yungbote/personapost-backend/internal/http/response"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type EventHandler struct {
	log *logger.Logger
	bus redisbus.EventBus
}

func NewEventHandler(log *logger.Logger, bus redisbus.EventBus) *EventHandler {
	if bus == nil {
		bus = redisbus.NopEventBus{}
	}
	return &EventHandler{log: log.With("handler", "EventHandler"), bus: bus}
}

// GET /api/events
// Streams post lifecycle events as server-sent events until the client goes away.
func (h *EventHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	events := make(chan redisbus.PostEvent, 64)
	err := h.bus.Subscribe(ctx, func(ev redisbus.PostEvent) {
		select {
		case events <- ev:
		default:
			h.log.Warn("event stream slow consumer, dropping event", "type", ev.Type, "post_id", ev.PostID)
		}
	})
	if err != nil {
		response.RespondError(c, http.StatusServiceUnavailable, "events_unavailable", err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-events:
			c.SSEvent(ev.Type, ev)
			return true
		}
	})
}
