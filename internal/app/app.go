package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/facebookgo/clock"
	"gorm.io/gorm"

	"github.com/yungbote/personapost-backend/internal/data/db"
	apphttp "github.com/yungbote/personapost-backend/internal/http"
	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *apphttp.Server
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error

	mu     sync.Mutex
	cancel context.CancelFunc
}

const ServiceName = "personapost"

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: ServiceName,
		Environment: cfg.LogMode,
	})
	metrics := observability.Init(log)

	dbService, err := db.Open(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	theDB := dbService.DB()
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			_ = dbService.Close()
			log.Sync()
			return nil, err
		}
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	clk := clock.New()
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, clk, reposet, clients)
	handlerset := wireHandlers(log, theDB, cfg, serviceset, clients)
	server := wireServer(log, cfg, metrics, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// StartScheduler launches the periodic tasks. It is a no-op when already started.
func (a *App) StartScheduler(ctx context.Context) {
	if a == nil || a.Services.Scheduler == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.Services.Scheduler.Start(ctx)
	a.Log.Info("scheduler started")
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("http server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Shutdown stops the HTTP server, then waits for in-flight scheduler ticks to finish.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var err error
	if a.Server != nil {
		err = a.Server.Shutdown(ctx)
	}
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
		a.Services.Scheduler.Wait()
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	_ = a.Shutdown(context.Background())
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
