package app

import (
	"context"

	"gorm.io/gorm"

	apphttp "github.com/yungbote/personapost-backend/internal/http"
	httpH "github.com/yungbote/personapost-backend/internal/http/handlers"
	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Persona  *httpH.PersonaHandler
	Post     *httpH.PostHandler
	Schedule *httpH.ScheduleHandler
	Account  *httpH.AccountHandler
	Topic    *httpH.TopicHandler
	Event    *httpH.EventHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, s Services, c Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(pingDB(db)),
		Persona:  httpH.NewPersonaHandler(s.Personas),
		Post:     httpH.NewPostHandler(s.Posts),
		Schedule: httpH.NewScheduleHandler(s.Schedules),
		Account:  httpH.NewAccountHandler(log, s.Accounts),
		Topic:    httpH.NewTopicHandler(s.TopicPool, s.Selector, s.Personas, cfg.Scheduler.TopicRetention),
		Event:    httpH.NewEventHandler(log, c.EventBus),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, h Handlers) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		CORSOrigins:     cfg.CORSOrigins,
		ServiceName:     ServiceName,
		HealthHandler:   h.Health,
		PersonaHandler:  h.Persona,
		PostHandler:     h.Post,
		ScheduleHandler: h.Schedule,
		AccountHandler:  h.Account,
		TopicHandler:    h.Topic,
		EventHandler:    h.Event,
	})
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
