package app

import (
	"testing"
	"time"

	"github.com/yungbote/personapost-backend/internal/services"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PERSONA_DELETE_POLICY", "SWEEP_INTERVAL", "TOPIC_RETENTION", "TREND_SOURCES", "DB_DRIVER"} {
		t.Setenv(k, "")
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PersonaDeletePolicy != services.DeleteRestrict {
		t.Fatalf("delete policy: %q", cfg.PersonaDeletePolicy)
	}
	if cfg.Scheduler.SweepInterval != time.Minute || cfg.Scheduler.GenerateInterval != time.Hour {
		t.Fatalf("intervals: %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.TopicRetention != 168*time.Hour {
		t.Fatalf("retention: %s", cfg.Scheduler.TopicRetention)
	}
	if len(cfg.TrendSources) != 3 || cfg.DB.Driver != "postgres" {
		t.Fatalf("sources=%v driver=%q", cfg.TrendSources, cfg.DB.Driver)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PERSONA_DELETE_POLICY", "cascade")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("TREND_SOURCES", "reddit")
	t.Setenv("DB_DRIVER", "sqlite")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PersonaDeletePolicy != services.DeleteCascade || cfg.Scheduler.SweepInterval != 30*time.Second {
		t.Fatalf("overrides: %+v", cfg)
	}
	if len(cfg.TrendSources) != 1 || cfg.TrendSources[0] != "reddit" || cfg.DB.Driver != "sqlite" {
		t.Fatalf("sources=%v driver=%q", cfg.TrendSources, cfg.DB.Driver)
	}
}

func TestLoadConfigRejectsUnknownDeletePolicy(t *testing.T) {
	t.Setenv("PERSONA_DELETE_POLICY", "shred")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("unknown delete policy should fail")
	}
}

func TestNewWiresSQLiteApp(t *testing.T) {
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", t.TempDir()+"/app.db")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("TREND_SOURCES", "hackernews")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	a, err := New(t.Context(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if a.Services.Scheduler == nil || len(a.Services.Scheduler.Tasks()) != 5 {
		t.Fatalf("scheduler not wired")
	}
	if a.Server == nil || a.Server.Engine == nil {
		t.Fatalf("server not wired")
	}
	if a.Clients.Trends == nil || len(a.Clients.Trends.Sources()) != 1 {
		t.Fatalf("trend sources not wired")
	}
}
