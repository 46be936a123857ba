package services

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/platform/threads"
)

// PublishPipeline pushes one approved or scheduled post to the platform and records the
// outcome. It never retries the publish itself: a failed post stays failed until an
// operator acts. Only the PUBLISHED status write after a successful commit is retried.
type PublishPipeline interface {
	Publish(ctx context.Context, post *types.Post) (*types.Post, error)
}

type publishPipeline struct {
	log         *logger.Logger
	lifecycle   *PostLifecycle
	credentials CredentialResolver
	platform    threads.Client
	record      retrypolicy.RetryPolicy[*types.Post]
}

func NewPublishPipeline(baseLog *logger.Logger, lifecycle *PostLifecycle, credentials CredentialResolver, platform threads.Client) PublishPipeline {
	return &publishPipeline{
		log:         baseLog.With("service", "PublishPipeline"),
		lifecycle:   lifecycle,
		credentials: credentials,
		platform:    platform,
		record:      newRecordRetry(),
	}
}

// newRecordRetry retries transient store errors only. A lost compare-and-set means another
// writer already moved the post, so it is final.
func newRecordRetry() retrypolicy.RetryPolicy[*types.Post] {
	return retrypolicy.NewBuilder[*types.Post]().
		HandleIf(func(_ *types.Post, err error) bool {
			return err != nil &&
				!errors.Is(err, perr.ErrConflict) &&
				!errors.Is(err, perr.ErrInvalidTransition) &&
				!errors.Is(err, perr.ErrNotFound)
		}).
		WithBackoff(50*time.Millisecond, time.Second).
		WithMaxRetries(4).
		ReturnLastFailure().
		Build()
}

// Publish returns the post in its final state. When the publish failed, the returned error
// is the cause and the returned post is already FAILED with that message recorded.
func (pp *publishPipeline) Publish(ctx context.Context, post *types.Post) (out *types.Post, err error) {
	if post == nil {
		return nil, perr.NotFoundf("post not found")
	}
	if post.Status != types.PostStatusApproved && post.Status != types.PostStatusScheduled {
		return nil, perr.InvalidTransition(post.Status, types.PostStatusPublished)
	}
	ctx, span := observability.StartSpan(ctx, "publish_post",
		attribute.String("post.id", post.ID.String()),
		attribute.String("post.status", post.Status),
	)
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
	}()

	cred, err := pp.credentials.ResolveCredential(ctx, post.AccountID)
	if err != nil {
		if !errors.Is(err, perr.ErrNoCredential) {
			return post, err
		}
		return pp.fail(ctx, post, err, "no_credential", start)
	}

	containerID, err := pp.platform.CreateContainer(ctx, cred, post.Content)
	if err != nil {
		return pp.fail(ctx, post, err, "failed", start)
	}
	remoteID, err := pp.platform.Commit(ctx, cred, containerID)
	if err != nil {
		return pp.fail(ctx, post, err, "failed", start)
	}

	recordCtx := context.WithoutCancel(ctx)
	updated, err := failsafe.With[*types.Post](pp.record).WithContext(recordCtx).Get(func() (*types.Post, error) {
		return pp.lifecycle.MarkPublished(dbctx.New(recordCtx), post, remoteID)
	})
	if err != nil {
		pp.log.Error("post published remotely but status update failed",
			"post_id", post.ID, "external_id", remoteID, "error", err)
		return updated, err
	}
	observability.Current().IncPublishOutcome("published")
	pp.log.Info("post published", "post_id", post.ID, "external_id", remoteID, "duration_ms", time.Since(start).Milliseconds())
	return updated, nil
}

// fail records cause verbatim on the post. The returned error is cause unless the status
// write itself lost a race.
func (pp *publishPipeline) fail(ctx context.Context, post *types.Post, cause error, outcome string, start time.Time) (*types.Post, error) {
	observability.Current().IncPublishOutcome(outcome)
	updated, err := pp.lifecycle.MarkFailed(dbctx.New(context.WithoutCancel(ctx)), post, cause.Error())
	if err != nil {
		pp.log.Error("could not record publish failure", "post_id", post.ID, "cause", cause, "error", err)
		return updated, err
	}
	pp.log.Warn("post publish failed",
		"post_id", post.ID, "outcome", outcome, "error", cause, "duration_ms", time.Since(start).Milliseconds())
	return updated, cause
}
