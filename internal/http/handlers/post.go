package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/personapost-backend/internal/http/response"
	"github.com/yungbote/personapost-backend/internal/services"
)

type PostHandler struct {
	posts services.PostService
}

func NewPostHandler(posts services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// GET /api/posts?status=&persona_id=&limit=&offset=
func (h *PostHandler) List(c *gin.Context) {
	personaID, ok := queryID(c, "persona_id")
	if !ok {
		return
	}
	out, err := h.posts.List(c.Request.Context(), services.PostListInput{
		Status:    strings.ToLower(strings.TrimSpace(c.Query("status"))),
		PersonaID: personaID,
		Limit:     queryInt(c, "limit", 50),
		Offset:    queryInt(c, "offset", 0),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"posts": out})
}

// GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": p})
}

// POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req services.CreatePostInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.posts.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"post": p})
}

// POST /api/posts/generate
func (h *PostHandler) Generate(c *gin.Context) {
	var req services.GenerateDraftInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.posts.GenerateDraft(c.Request.Context(), req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"post": p})
}

// PATCH /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdatePostInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.posts.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": p})
}

// POST /api/posts/:id/approve
func (h *PostHandler) Approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.posts.Approve(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": p})
}

// POST /api/posts/:id/reject
func (h *PostHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.posts.Reject(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": p})
}

// POST /api/posts/:id/schedule
func (h *PostHandler) Schedule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.SchedulePostInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.posts.Schedule(c.Request.Context(), id, req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": p})
}

// POST /api/posts/:id/publish
// A platform failure still returns the FAILED post alongside the error.
func (h *PostHandler) Publish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.posts.PublishNow(c.Request.Context(), id)
	if err != nil {
		if p != nil {
			c.Error(err)
			response.RespondOK(c, gin.H{"post": p, "error": err.Error()})
			return
		}
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": p})
}

// DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondNoContent(c)
}
