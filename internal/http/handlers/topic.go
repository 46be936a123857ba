package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/personapost-backend/internal/http/response"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/services"
)

type TopicHandler struct {
	pool      services.TopicPoolService
	selector  services.TopicSelector
	personas  services.PersonaService
	retention time.Duration
}

func NewTopicHandler(pool services.TopicPoolService, selector services.TopicSelector, personas services.PersonaService, retention time.Duration) *TopicHandler {
	return &TopicHandler{pool: pool, selector: selector, personas: personas, retention: retention}
}

// GET /api/topics?type=manual|trending
func (h *TopicHandler) List(c *gin.Context) {
	out, err := h.pool.List(c.Request.Context(), strings.ToLower(strings.TrimSpace(c.Query("type"))))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topics": out})
}

// POST /api/topics
func (h *TopicHandler) CreateManual(c *gin.Context) {
	var req services.ManualTopicInput
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.pool.CreateManual(c.Request.Context(), req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"topic": t})
}

// DELETE /api/topics/:id
func (h *TopicHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.pool.Delete(c.Request.Context(), id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /api/topics/sync
func (h *TopicHandler) Sync(c *gin.Context) {
	res, err := h.pool.SyncTrends(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// POST /api/topics/cleanup?retention=168h
func (h *TopicHandler) Cleanup(c *gin.Context) {
	retention := h.retention
	if raw := strings.TrimSpace(c.Query("retention")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			response.RespondDomainError(c, perr.Validationf("invalid retention %q", raw))
			return
		}
		retention = d
	}
	res, err := h.pool.CleanupTopics(c.Request.Context(), retention)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// POST /api/topics/select
// Previews what the selector would pick for a persona; nothing is saved.
func (h *TopicHandler) Select(c *gin.Context) {
	var req struct {
		PersonaID uuid.UUID `json:"persona_id"`
		Exclude   []string  `json:"exclude"`
	}
	if !bindJSON(c, &req) {
		return
	}
	persona, err := h.personas.Get(c.Request.Context(), req.PersonaID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	topic, err := h.selector.SelectTopic(c.Request.Context(), persona, req.Exclude)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topic": topic})
}
