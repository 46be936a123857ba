package services

import (
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

// postTransitions is the complete edge set of the post state machine. Deletion is not an
// edge; it is legal from every state.
var postTransitions = map[string][]string{
	types.PostStatusDraft:     {types.PostStatusApproved, types.PostStatusRejected},
	types.PostStatusPending:   {types.PostStatusApproved, types.PostStatusRejected},
	types.PostStatusApproved:  {types.PostStatusScheduled, types.PostStatusPublished, types.PostStatusFailed},
	types.PostStatusScheduled: {types.PostStatusPublished, types.PostStatusFailed},
}

// editableStatuses may have their content changed in place.
var editableStatuses = []string{types.PostStatusDraft, types.PostStatusPending, types.PostStatusApproved}

func CanTransition(from, to string) bool {
	for _, s := range postTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckPostInvariants reports the first field/status inconsistency on p, or nil.
func CheckPostInvariants(p *types.Post) error {
	if p == nil {
		return nil
	}
	if (p.PublishedAt != nil) != (p.Status == types.PostStatusPublished) {
		return perr.Validationf("post %s: published_at set=%t with status %s", p.ID, p.PublishedAt != nil, p.Status)
	}
	if p.Error != nil && p.Status != types.PostStatusFailed {
		return perr.Validationf("post %s: error set with status %s", p.ID, p.Status)
	}
	if p.Status == types.PostStatusScheduled && (p.ScheduledAt == nil || p.AccountID == nil) {
		return perr.Validationf("post %s: scheduled without scheduled_at and account", p.ID)
	}
	return nil
}

// PostLifecycle applies state machine edges. Every edge is a compare-and-set on the post's
// current status, so a concurrent writer makes the loser fail with ErrConflict.
type PostLifecycle struct {
	log      *logger.Logger
	posts    repos.PostRepo
	notifier PostNotifier
	clock    clock.Clock
}

func NewPostLifecycle(log *logger.Logger, posts repos.PostRepo, notifier PostNotifier, clk clock.Clock) *PostLifecycle {
	if clk == nil {
		clk = clock.New()
	}
	return &PostLifecycle{
		log:      log.With("service", "PostLifecycle"),
		posts:    posts,
		notifier: notifier,
		clock:    clk,
	}
}

func (l *PostLifecycle) Approve(dbc dbctx.Context, p *types.Post) (*types.Post, error) {
	return l.transition(dbc, p, types.PostStatusApproved, nil)
}

func (l *PostLifecycle) Reject(dbc dbctx.Context, p *types.Post) (*types.Post, error) {
	return l.transition(dbc, p, types.PostStatusRejected, nil)
}

// Schedule needs both a time and an account. A past scheduledAt is legal and means the next sweep.
func (l *PostLifecycle) Schedule(dbc dbctx.Context, p *types.Post, scheduledAt *time.Time, accountID *uuid.UUID) (*types.Post, error) {
	if scheduledAt == nil || scheduledAt.IsZero() {
		return nil, perr.Validationf("scheduled_at is required to schedule a post")
	}
	if accountID == nil || *accountID == uuid.Nil {
		return nil, perr.Validationf("account_id is required to schedule a post")
	}
	at := scheduledAt.UTC()
	return l.transition(dbc, p, types.PostStatusScheduled, map[string]interface{}{
		"scheduled_at": at,
		"account_id":   *accountID,
	})
}

func (l *PostLifecycle) MarkPublished(dbc dbctx.Context, p *types.Post, externalID string) (*types.Post, error) {
	return l.transition(dbc, p, types.PostStatusPublished, map[string]interface{}{
		"published_at": l.clock.Now().UTC(),
		"external_id":  externalID,
		"error":        nil,
	})
}

func (l *PostLifecycle) MarkFailed(dbc dbctx.Context, p *types.Post, reason string) (*types.Post, error) {
	return l.transition(dbc, p, types.PostStatusFailed, map[string]interface{}{
		"error":        reason,
		"published_at": nil,
	})
}

func (l *PostLifecycle) transition(dbc dbctx.Context, p *types.Post, to string, fields map[string]interface{}) (*types.Post, error) {
	if p == nil {
		return nil, perr.NotFoundf("post not found")
	}
	from := p.Status
	if p.IsTerminal() {
		return nil, perr.InvalidTransition(from, to)
	}
	if !CanTransition(from, to) {
		return nil, perr.InvalidTransition(from, to)
	}
	updated, err := l.posts.Transition(dbc, p.ID, []string{from}, to, fields)
	if err != nil {
		return updated, err
	}
	observability.Current().IncPostTransition(from, to)
	l.log.Debug("post transitioned", "post_id", p.ID, "from", from, "to", to)
	if l.notifier != nil {
		l.notifier.PostTransitioned(dbc.Ctx, updated, from)
	}
	return updated, nil
}
