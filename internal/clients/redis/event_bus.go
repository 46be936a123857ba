package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

const (
	EventPostCreated       = "post.created"
	EventPostStatusChanged = "post.status_changed"
	EventPostPublished     = "post.published"
	EventPostFailed        = "post.failed"
	EventPostDeleted       = "post.deleted"
)

// PostEvent is the payload published for every post lifecycle change.
type PostEvent struct {
	Type      string    `json:"type"`
	PostID    string    `json:"post_id"`
	PersonaID string    `json:"persona_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

type EventBus interface {
	Publish(ctx context.Context, ev PostEvent) error
	Subscribe(ctx context.Context, onEvent func(ev PostEvent)) error
	Close() error
}

type eventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewEventBus connects to addr and verifies the connection with a ping.
func NewEventBus(log *logger.Logger, addr, channel string) (EventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "post-events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &eventBus{
		log:     log.With("service", "RedisEventBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *eventBus) Publish(ctx context.Context, ev PostEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe starts delivering events to onEvent until ctx is done.
func (b *eventBus) Subscribe(ctx context.Context, onEvent func(ev PostEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev PostEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad post event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}

func (b *eventBus) Close() error {
	return b.rdb.Close()
}

// NopEventBus drops every event. It is used when no redis address is configured.
type NopEventBus struct{}

func (NopEventBus) Publish(context.Context, PostEvent) error { return nil }

func (NopEventBus) Subscribe(ctx context.Context, _ func(ev PostEvent)) error {
	return fmt.Errorf("event bus disabled: set REDIS_ADDR")
}

func (NopEventBus) Close() error { return nil }
