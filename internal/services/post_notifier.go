package services

import (
	"context"
	"time"

	redisbus "github.com/yungbote/personapost-backend/internal/clients/redis"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/pointers"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

// PostNotifier fans post lifecycle changes out to the event bus. Delivery is best effort.
type PostNotifier interface {
	PostCreated(ctx context.Context, post *types.Post)
	PostTransitioned(ctx context.Context, post *types.Post, from string)
	PostDeleted(ctx context.Context, post *types.Post)
}

type postNotifier struct {
	log *logger.Logger
	bus redisbus.EventBus
}

func NewPostNotifier(log *logger.Logger, bus redisbus.EventBus) PostNotifier {
	if bus == nil {
		bus = redisbus.NopEventBus{}
	}
	return &postNotifier{log: log.With("service", "PostNotifier"), bus: bus}
}

func (n *postNotifier) PostCreated(ctx context.Context, post *types.Post) {
	n.publish(ctx, redisbus.EventPostCreated, post)
}

func (n *postNotifier) PostTransitioned(ctx context.Context, post *types.Post, from string) {
	evType := redisbus.EventPostStatusChanged
	switch post.Status {
	case types.PostStatusPublished:
		evType = redisbus.EventPostPublished
	case types.PostStatusFailed:
		evType = redisbus.EventPostFailed
	}
	n.publish(ctx, evType, post)
}

func (n *postNotifier) PostDeleted(ctx context.Context, post *types.Post) {
	n.publish(ctx, redisbus.EventPostDeleted, post)
}

func (n *postNotifier) publish(ctx context.Context, evType string, post *types.Post) {
	if post == nil {
		return
	}
	ev := redisbus.PostEvent{
		Type:      evType,
		PostID:    post.ID.String(),
		PersonaID: post.PersonaID.String(),
		Status:    post.Status,
		Error:     pointers.Deref(post.Error),
		At:        time.Now().UTC(),
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := n.bus.Publish(pubCtx, ev); err != nil {
		n.log.Warn("post event publish failed", "type", evType, "post_id", post.ID, "error", err)
	}
}
