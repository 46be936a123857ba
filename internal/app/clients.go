package app

import (
	"fmt"
	"net/http"

	redisbus "github.com/yungbote/personapost-backend/internal/clients/redis"
	"github.com/yungbote/personapost-backend/internal/platform/crypto"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/platform/openai"
	"github.com/yungbote/personapost-backend/internal/platform/threads"
	"github.com/yungbote/personapost-backend/internal/platform/trends"
)

type Clients struct {
	EventBus redisbus.EventBus
	OpenAI   openai.Client
	Threads  threads.Client
	Trends   *trends.Aggregator
	Cipher   *crypto.TokenCipher
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var bus redisbus.EventBus = redisbus.NopEventBus{}
	if cfg.RedisAddr != "" {
		b, err := redisbus.NewEventBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		bus = b
	} else {
		log.Info("REDIS_ADDR not set, post events are dropped")
	}

	// Openai
	var ai openai.Client
	if c, err := openai.NewClient(log, cfg.OpenAI); err != nil {
		log.Warn("openai client disabled, generation will fail until configured", "error", err)
	} else {
		ai = c
	}

	// Token cipher
	cipher, err := crypto.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		_ = bus.Close()
		return Clients{}, fmt.Errorf("init token cipher: %w", err)
	}
	if cipher == nil {
		log.Warn("TOKEN_ENCRYPTION_KEY not set, access tokens are stored in plaintext")
	}

	// Trend feeds
	hc := &http.Client{Timeout: cfg.ExternalCallTimeout}
	sources, unknown := trends.BuildSources(hc, cfg.TrendSources, cfg.TrendGeo)
	if len(unknown) > 0 {
		log.Warn("ignoring unknown trend sources", "sources", unknown)
	}

	return Clients{
		EventBus: bus,
		OpenAI:   ai,
		Threads:  threads.NewClient(log, cfg.Threads),
		Trends:   trends.NewAggregator(log, cfg.ExternalCallTimeout, sources...),
		Cipher:   cipher,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.EventBus != nil {
		_ = c.EventBus.Close()
	}
}
