package app

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/personapost-backend/internal/data/db"
	"github.com/yungbote/personapost-backend/internal/jobs/scheduler"
	"github.com/yungbote/personapost-backend/internal/platform/envutil"
	"github.com/yungbote/personapost-backend/internal/platform/openai"
	"github.com/yungbote/personapost-backend/internal/platform/threads"
	"github.com/yungbote/personapost-backend/internal/services"
)

type Config struct {
	LogMode     string
	Port        string
	CORSOrigins []string
	AutoMigrate bool

	DB db.Config

	RedisAddr    string
	RedisChannel string

	OpenAI  openai.Config
	Threads threads.Config

	OAuthStateSecret    string
	TokenEncryptionKey  string
	PersonaDeletePolicy services.DeletePolicy

	TrendSources        []string
	TrendGeo            string
	ExternalCallTimeout time.Duration
	GenerationTimeout   time.Duration
	AutoApproveJitter   time.Duration

	SchedulerEnabled bool
	Scheduler        scheduler.Config

	OtelEnabled bool
}

// LoadEnvFiles loads .env.local then .env when present. Variables already set in the
// process environment win.
func LoadEnvFiles() error {
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadConfig() (Config, error) {
	policy, err := services.ParseDeletePolicy(envutil.String("PERSONA_DELETE_POLICY", string(services.DeleteRestrict)))
	if err != nil {
		return Config{}, err
	}
	def := scheduler.DefaultConfig()
	cfg := Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		Port:        envutil.String("PORT", "8080"),
		CORSOrigins: envutil.CSV("CORS_ORIGINS", nil),
		AutoMigrate: envutil.Bool("AUTO_MIGRATE", true),
		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", "postgres"),
			SQLitePath: envutil.String("SQLITE_PATH", "personapost.db"),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "personapost"),
			SSLMode:    envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		RedisAddr:           envutil.String("REDIS_ADDR", ""),
		RedisChannel:        envutil.String("REDIS_CHANNEL", "post-events"),
		OpenAI:              openai.ConfigFromEnv(),
		Threads:             threads.ConfigFromEnv(),
		OAuthStateSecret:    envutil.String("OAUTH_STATE_SECRET", ""),
		TokenEncryptionKey:  envutil.String("TOKEN_ENCRYPTION_KEY", ""),
		PersonaDeletePolicy: policy,
		TrendSources:        envutil.CSV("TREND_SOURCES", []string{"hackernews", "reddit", "google_trends"}),
		TrendGeo:            envutil.String("TREND_GEO", "US"),
		ExternalCallTimeout: envutil.Duration("EXTERNAL_CALL_TIMEOUT", 30*time.Second),
		GenerationTimeout:   envutil.Duration("GENERATION_TIMEOUT", 90*time.Second),
		AutoApproveJitter:   envutil.Duration("AUTO_APPROVE_JITTER", 10*time.Minute),
		SchedulerEnabled:    envutil.Bool("SCHEDULER_ENABLED", true),
		Scheduler: scheduler.Config{
			SweepInterval:             envutil.Duration("SWEEP_INTERVAL", def.SweepInterval),
			GenerateInterval:          envutil.Duration("GENERATE_INTERVAL", def.GenerateInterval),
			TrendSyncInterval:         envutil.Duration("TREND_SYNC_INTERVAL", def.TrendSyncInterval),
			CredentialRefreshInterval: envutil.Duration("CREDENTIAL_REFRESH_INTERVAL", def.CredentialRefreshInterval),
			TopicCleanupInterval:      envutil.Duration("TOPIC_CLEANUP_INTERVAL", def.TopicCleanupInterval),
			TopicRetention:            envutil.Duration("TOPIC_RETENTION", def.TopicRetention),
			CredentialRefreshWindow:   envutil.Duration("CREDENTIAL_REFRESH_WINDOW", def.CredentialRefreshWindow),
			SweepBatch:                envutil.Int("SWEEP_BATCH", def.SweepBatch),
		},
		OtelEnabled: envutil.Bool("OTEL_ENABLED", false),
	}
	if cfg.Threads.Timeout <= 0 {
		cfg.Threads.Timeout = cfg.ExternalCallTimeout
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Scheduler.TopicRetention <= 0 {
		return fmt.Errorf("TOPIC_RETENTION must be positive")
	}
	for name, d := range map[string]time.Duration{
		"SWEEP_INTERVAL":              c.Scheduler.SweepInterval,
		"GENERATE_INTERVAL":           c.Scheduler.GenerateInterval,
		"TREND_SYNC_INTERVAL":         c.Scheduler.TrendSyncInterval,
		"CREDENTIAL_REFRESH_INTERVAL": c.Scheduler.CredentialRefreshInterval,
		"TOPIC_CLEANUP_INTERVAL":      c.Scheduler.TopicCleanupInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.AutoApproveJitter < 0 {
		return fmt.Errorf("AUTO_APPROVE_JITTER cannot be negative")
	}
	return nil
}
