package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/personapost-backend/internal/http/handlers"
	httpMW "github.com/yungbote/personapost-backend/internal/http/middleware"
	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	ServiceName string

	PersonaHandler  *httpH.PersonaHandler
	PostHandler     *httpH.PostHandler
	ScheduleHandler *httpH.ScheduleHandler
	AccountHandler  *httpH.AccountHandler
	TopicHandler    *httpH.TopicHandler
	EventHandler    *httpH.EventHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Personas
		if cfg.PersonaHandler != nil {
			api.GET("/personas", cfg.PersonaHandler.List)
			api.POST("/personas", cfg.PersonaHandler.Create)
			api.POST("/personas/draft", cfg.PersonaHandler.Draft)
			api.GET("/personas/:id", cfg.PersonaHandler.Get)
			api.PATCH("/personas/:id", cfg.PersonaHandler.Update)
			api.DELETE("/personas/:id", cfg.PersonaHandler.Delete)
		}

		// Posts
		if cfg.PostHandler != nil {
			api.GET("/posts", cfg.PostHandler.List)
			api.POST("/posts", cfg.PostHandler.Create)
			api.POST("/posts/generate", cfg.PostHandler.Generate)
			api.GET("/posts/:id", cfg.PostHandler.Get)
			api.PATCH("/posts/:id", cfg.PostHandler.Update)
			api.DELETE("/posts/:id", cfg.PostHandler.Delete)
			api.POST("/posts/:id/approve", cfg.PostHandler.Approve)
			api.POST("/posts/:id/reject", cfg.PostHandler.Reject)
			api.POST("/posts/:id/schedule", cfg.PostHandler.Schedule)
			api.POST("/posts/:id/publish", cfg.PostHandler.Publish)
		}

		// Schedules
		if cfg.ScheduleHandler != nil {
			api.GET("/schedules", cfg.ScheduleHandler.List)
			api.POST("/schedules", cfg.ScheduleHandler.Create)
			api.GET("/schedules/:id", cfg.ScheduleHandler.Get)
			api.PATCH("/schedules/:id", cfg.ScheduleHandler.Update)
			api.DELETE("/schedules/:id", cfg.ScheduleHandler.Delete)
			api.POST("/schedules/:id/activate", cfg.ScheduleHandler.Activate)
			api.POST("/schedules/:id/deactivate", cfg.ScheduleHandler.Deactivate)
		}

		// Accounts
		if cfg.AccountHandler != nil {
			api.GET("/accounts", cfg.AccountHandler.List)
			api.POST("/accounts", cfg.AccountHandler.CreateManual)
			api.GET("/accounts/oauth/start", cfg.AccountHandler.OAuthStart)
			api.GET("/accounts/oauth/callback", cfg.AccountHandler.OAuthCallback)
			api.POST("/accounts/:id/disconnect", cfg.AccountHandler.Disconnect)
		}

		// Topics
		if cfg.TopicHandler != nil {
			api.GET("/topics", cfg.TopicHandler.List)
			api.POST("/topics", cfg.TopicHandler.CreateManual)
			api.POST("/topics/sync", cfg.TopicHandler.Sync)
			api.POST("/topics/cleanup", cfg.TopicHandler.Cleanup)
			api.POST("/topics/select", cfg.TopicHandler.Select)
			api.DELETE("/topics/:id", cfg.TopicHandler.Delete)
		}

		// Events (SSE)
		if cfg.EventHandler != nil {
			api.GET("/events", cfg.EventHandler.Stream)
		}
	}

	return r
}
