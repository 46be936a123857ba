package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/personapost-backend/internal/http/response"
	"github.com/yungbote/personapost-backend/internal/services"
)

type ScheduleHandler struct {
	schedules services.ScheduleService
}

func NewScheduleHandler(schedules services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// GET /api/schedules?persona_id=
func (h *ScheduleHandler) List(c *gin.Context) {
	personaID, ok := queryID(c, "persona_id")
	if !ok {
		return
	}
	out, err := h.schedules.List(c.Request.Context(), personaID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"schedules": out})
}

// GET /api/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.schedules.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"schedule": s})
}

// POST /api/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req services.ScheduleInput
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.schedules.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"schedule": s})
}

// PATCH /api/schedules/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.SchedulePatch
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.schedules.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"schedule": s})
}

// POST /api/schedules/:id/activate
func (h *ScheduleHandler) Activate(c *gin.Context) { h.setActive(c, true) }

// POST /api/schedules/:id/deactivate
func (h *ScheduleHandler) Deactivate(c *gin.Context) { h.setActive(c, false) }

func (h *ScheduleHandler) setActive(c *gin.Context, active bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.schedules.SetActive(c.Request.Context(), id, active)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"schedule": s})
}

// DELETE /api/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.schedules.Delete(c.Request.Context(), id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondNoContent(c)
}
