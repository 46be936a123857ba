package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/personapost-backend/internal/http/response"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/services"
)

type AccountHandler struct {
	log      *logger.Logger
	accounts services.AccountService
}

func NewAccountHandler(log *logger.Logger, accounts services.AccountService) *AccountHandler {
	return &AccountHandler{log: log.With("handler", "AccountHandler"), accounts: accounts}
}

// GET /api/accounts
func (h *AccountHandler) List(c *gin.Context) {
	out, err := h.accounts.List(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"accounts": out})
}

// POST /api/accounts
func (h *AccountHandler) CreateManual(c *gin.Context) {
	var req services.ManualAccountInput
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.accounts.CreateManual(c.Request.Context(), req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"account": a})
}

// GET /api/accounts/oauth/start
// Redirects to the platform consent page unless ?format=json is given.
func (h *AccountHandler) OAuthStart(c *gin.Context) {
	url, err := h.accounts.AuthorizeURL()
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if strings.EqualFold(c.Query("format"), "json") {
		response.RespondOK(c, gin.H{"authorize_url": url})
		return
	}
	c.Redirect(http.StatusFound, url)
}

// GET /api/accounts/oauth/callback?code=&state=
func (h *AccountHandler) OAuthCallback(c *gin.Context) {
	if reason := strings.TrimSpace(c.Query("error")); reason != "" {
		h.log.Warn("oauth denied", "reason", reason, "description", c.Query("error_description"))
		response.RespondError(c, http.StatusBadRequest, "oauth_denied", errString(reason))
		return
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_code", errString("missing code"))
		return
	}
	a, err := h.accounts.CompleteOAuth(c.Request.Context(), code, c.Query("state"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"account": a})
}

// POST /api/accounts/:id/disconnect
func (h *AccountHandler) Disconnect(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.accounts.Disconnect(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"account": a})
}

type errString string

func (e errString) Error() string { return string(e) }
