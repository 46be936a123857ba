package response

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/personapost-backend/internal/platform/apierr"
)

// RespondDomainError maps a service error onto its HTTP status and code.
func RespondDomainError(c *gin.Context, err error) {
	ae := apierr.FromError(err)
	if ae == nil {
		RespondNoContent(c)
		return
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}
