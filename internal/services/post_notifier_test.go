package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	redisbus "github.com/yungbote/personapost-backend/internal/clients/redis"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type recordingBus struct {
	redisbus.NopEventBus
	mu     sync.Mutex
	events []redisbus.PostEvent
	err    error
}

func (b *recordingBus) Publish(_ context.Context, ev redisbus.PostEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return b.err
}

func TestPostNotifierEventTypes(t *testing.T) {
	bus := &recordingBus{}
	n := NewPostNotifier(logger.Nop(), bus)
	msg := "Duplicate post"
	post := &types.Post{ID: uuid.New(), PersonaID: uuid.New(), Status: types.PostStatusDraft}

	n.PostCreated(context.Background(), post)
	post.Status = types.PostStatusApproved
	n.PostTransitioned(context.Background(), post, types.PostStatusDraft)
	post.Status = types.PostStatusFailed
	post.Error = &msg
	n.PostTransitioned(context.Background(), post, types.PostStatusApproved)
	n.PostDeleted(context.Background(), post)

	want := []string{redisbus.EventPostCreated, redisbus.EventPostStatusChanged, redisbus.EventPostFailed, redisbus.EventPostDeleted}
	if len(bus.events) != len(want) {
		t.Fatalf("events: want=%d got=%d", len(want), len(bus.events))
	}
	for i, w := range want {
		if bus.events[i].Type != w {
			t.Fatalf("event %d: want=%q got=%q", i, w, bus.events[i].Type)
		}
	}
	if bus.events[2].Error != msg || bus.events[2].PostID != post.ID.String() {
		t.Fatalf("failed event: %+v", bus.events[2])
	}
}

func TestPostNotifierSwallowsBusErrors(t *testing.T) {
	bus := &recordingBus{err: errors.New("redis down")}
	n := NewPostNotifier(logger.Nop(), bus)
	n.PostCreated(context.Background(), &types.Post{ID: uuid.New()})
	if len(bus.events) != 1 {
		t.Fatalf("publish not attempted")
	}
}
