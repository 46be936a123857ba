package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/personapost-backend/internal/pkg/ctxutil"
)

// AttachRequestContext makes sure every handler sees a non-nil request context.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.Default(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
