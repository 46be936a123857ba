package app

import (
	"github.com/facebookgo/clock"
	"gorm.io/gorm"

	"github.com/yungbote/personapost-backend/internal/jobs/scheduler"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/services"
)

type Services struct {
	Personas   services.PersonaService
	Accounts   services.AccountService
	Posts      services.PostService
	Schedules  services.ScheduleService
	TopicPool  services.TopicPoolService
	Selector   services.TopicSelector
	Pipeline   services.PublishPipeline
	Generation services.GenerationService
	Scheduler  *scheduler.Scheduler
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clk clock.Clock, r Repos, c Clients) Services {
	log.Info("Wiring services...")

	notifier := services.NewPostNotifier(log, c.EventBus)
	lifecycle := services.NewPostLifecycle(log, r.Post, notifier, clk)
	accounts := services.NewAccountService(log, r.Account, c.Threads, c.Cipher, cfg.OAuthStateSecret, cfg.Threads.RedirectURI, clk)
	pipeline := services.NewPublishPipeline(log, lifecycle, accounts, c.Threads)
	selector := services.NewTopicSelector(log, c.Trends, r.Topic, nil, nil)
	generator := services.NewContentGenerator(log, c.OpenAI, cfg.GenerationTimeout)
	analyzer := services.NewPersonaAnalyzer(log, c.OpenAI)
	pool := services.NewTopicPoolService(log, r.Topic, c.Trends, clk)
	generation := services.NewGenerationService(
		log, r.Post, r.Persona, r.Schedule, selector, generator, notifier, clk, cfg.AutoApproveJitter, nil,
	)

	svc := Services{
		Personas:   services.NewPersonaService(db, log, r.Persona, r.Post, r.Schedule, analyzer, cfg.PersonaDeletePolicy),
		Accounts:   accounts,
		Posts:      services.NewPostService(log, r.Post, r.Persona, r.Account, lifecycle, pipeline, selector, generator, notifier),
		Schedules:  services.NewScheduleService(log, r.Schedule, r.Persona, r.Account),
		TopicPool:  pool,
		Selector:   selector,
		Pipeline:   pipeline,
		Generation: generation,
	}
	svc.Scheduler = scheduler.New(log, clk, cfg.Scheduler, scheduler.Deps{
		Posts:      r.Post,
		Schedules:  r.Schedule,
		Pipeline:   pipeline,
		Generation: generation,
		TopicPool:  pool,
		Accounts:   accounts,
	})
	return svc
}
