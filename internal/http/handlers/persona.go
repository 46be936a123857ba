package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/personapost-backend/internal/http/response"
	"github.com/yungbote/personapost-backend/internal/services"
)

type PersonaHandler struct {
	personas services.PersonaService
}

func NewPersonaHandler(personas services.PersonaService) *PersonaHandler {
	return &PersonaHandler{personas: personas}
}

// GET /api/personas?active=true
func (h *PersonaHandler) List(c *gin.Context) {
	activeOnly := strings.EqualFold(strings.TrimSpace(c.Query("active")), "true")
	out, err := h.personas.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"personas": out})
}

// GET /api/personas/:id
func (h *PersonaHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.personas.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"persona": p})
}

// POST /api/personas
func (h *PersonaHandler) Create(c *gin.Context) {
	var req services.PersonaInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.personas.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"persona": p})
}

// PATCH /api/personas/:id
func (h *PersonaHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.PersonaPatch
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.personas.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"persona": p})
}

// DELETE /api/personas/:id
func (h *PersonaHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.personas.Delete(c.Request.Context(), id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /api/personas/draft
func (h *PersonaHandler) Draft(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.personas.Draft(c.Request.Context(), req.Name)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}
