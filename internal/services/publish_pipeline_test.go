package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	"github.com/yungbote/personapost-backend/internal/data/repos/testutil"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/pkg/pointers"
)

func TestPublishWithoutTokenFailsWithoutNetworkCalls(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "", nil)
	post := testutil.SeedPost(t, h.db, persona.ID, &acct.ID, types.PostStatusScheduled, pointers.Time(now.Add(-time.Minute)))

	got, err := h.pipeline.Publish(context.Background(), post)
	if !errors.Is(err, perr.ErrNoCredential) {
		t.Fatalf("want ErrNoCredential, got %v", err)
	}
	if h.platform.calls() != 0 {
		t.Fatalf("network calls: want=0 got=%d", h.platform.calls())
	}
	if got.Status != types.PostStatusFailed || got.Error == nil || !strings.Contains(*got.Error, "no access token") {
		t.Fatalf("failed post: %+v", got)
	}
	noError(t, CheckPostInvariants(got), "invariants")
}

func TestPublishWithExpiredTokenOrMissingAccountFails(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	persona := testutil.SeedPersona(t, h.db, "ada")
	expired := testutil.SeedAccount(t, h.db, "tok", pointers.Time(now.Add(-time.Hour)))

	p1 := testutil.SeedPost(t, h.db, persona.ID, &expired.ID, types.PostStatusScheduled, pointers.Time(now))
	got, err := h.pipeline.Publish(context.Background(), p1)
	if !errors.Is(err, perr.ErrNoCredential) || !strings.Contains(*got.Error, "expired") {
		t.Fatalf("expired token: err=%v post=%+v", err, got)
	}

	missing := uuid.New()
	p2 := testutil.SeedPost(t, h.db, persona.ID, &missing, types.PostStatusScheduled, pointers.Time(now))
	got, err = h.pipeline.Publish(context.Background(), p2)
	if !errors.Is(err, perr.ErrNoCredential) || got.Status != types.PostStatusFailed {
		t.Fatalf("missing account: err=%v post=%+v", err, got)
	}
	if h.platform.calls() != 0 {
		t.Fatalf("network calls: want=0 got=%d", h.platform.calls())
	}
}

func TestPublishSuccessRecordsRemoteID(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok-123", pointers.Time(now.Add(24*time.Hour)))
	post := testutil.SeedPost(t, h.db, persona.ID, &acct.ID, types.PostStatusScheduled, pointers.Time(now))

	got, err := h.pipeline.Publish(context.Background(), post)
	noError(t, err, "Publish")
	if got.Status != types.PostStatusPublished || pointers.Deref(got.ExternalID) != "remote-container-1" {
		t.Fatalf("published post: %+v", got)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(now) {
		t.Fatalf("published_at: want=%s got=%v", now, got.PublishedAt)
	}
	if h.platform.lastCred.AccessToken != "tok-123" || h.platform.lastCred.UserID != pointers.Deref(acct.PlatformUserID) {
		t.Fatalf("credential: %+v", h.platform.lastCred)
	}
	if h.platform.lastText != post.Content {
		t.Fatalf("text: %q", h.platform.lastText)
	}
	noError(t, CheckPostInvariants(got), "invariants")
}

func TestPublishRecordsRemoteErrorVerbatim(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	for _, step := range []string{"container", "commit"} {
		t.Run(step, func(t *testing.T) {
			h := newHarness(t, now)
			if step == "container" {
				h.platform.containerErr = errPlatformDuplicate
			} else {
				h.platform.commitErr = errPlatformDuplicate
			}
			persona := testutil.SeedPersona(t, h.db, "ada")
			acct := testutil.SeedAccount(t, h.db, "tok", nil)
			post := testutil.SeedPost(t, h.db, persona.ID, &acct.ID, types.PostStatusApproved, nil)

			got, err := h.pipeline.Publish(context.Background(), post)
			if !errors.Is(err, perr.ErrPlatform) {
				t.Fatalf("want ErrPlatform, got %v", err)
			}
			if got.Status != types.PostStatusFailed || pointers.Deref(got.Error) != errPlatformDuplicate.Error() {
				t.Fatalf("failed post: %+v", got)
			}
			noError(t, CheckPostInvariants(got), "invariants")
		})
	}
}

func TestPublishRejectsPostsOutsidePublishableStates(t *testing.T) {
	h := newHarness(t, time.Now())
	persona := testutil.SeedPersona(t, h.db, "ada")
	for _, status := range []string{types.PostStatusDraft, types.PostStatusPending, types.PostStatusPublished, types.PostStatusFailed} {
		post := testutil.SeedPost(t, h.db, persona.ID, nil, status, nil)
		if _, err := h.pipeline.Publish(context.Background(), post); !errors.Is(err, perr.ErrInvalidTransition) {
			t.Fatalf("%s: want ErrInvalidTransition, got %v", status, err)
		}
	}
	if h.platform.calls() != 0 {
		t.Fatalf("network calls: want=0 got=%d", h.platform.calls())
	}
}

// flakyPosts fails the first failures PUBLISHED writes with a transient store error.
type flakyPosts struct {
	repos.PostRepo
	failures int
	attempts int
}

func (f *flakyPosts) Transition(dbc dbctx.Context, id uuid.UUID, from []string, to string, fields map[string]interface{}) (*types.Post, error) {
	if to == types.PostStatusPublished {
		f.attempts++
		if f.attempts <= f.failures {
			return nil, errors.New("database is locked")
		}
	}
	return f.PostRepo.Transition(dbc, id, from, to, fields)
}

func TestPublishRetriesStatusWriteAfterRemoteCommit(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok", nil)
	post := testutil.SeedPost(t, h.db, persona.ID, &acct.ID, types.PostStatusScheduled, pointers.Time(now))

	flaky := &flakyPosts{PostRepo: h.posts, failures: 2}
	lifecycle := NewPostLifecycle(h.log, flaky, NewPostNotifier(h.log, nil), h.clock)
	pipeline := NewPublishPipeline(h.log, lifecycle, h.accountSvc, h.platform)

	got, err := pipeline.Publish(context.Background(), post)
	noError(t, err, "Publish")
	if got.Status != types.PostStatusPublished || got.ExternalID == nil {
		t.Fatalf("published post: %+v", got)
	}
	if flaky.attempts != 3 {
		t.Fatalf("status write attempts: want=3 got=%d", flaky.attempts)
	}
	if h.platform.commits != 1 {
		t.Fatalf("remote commits: want=1 got=%d", h.platform.commits)
	}

	due, err := h.posts.ListDueScheduled(dbctx.New(context.Background()), now.Add(time.Hour), 10)
	noError(t, err, "ListDueScheduled")
	if len(due) != 0 {
		t.Fatalf("post still due after publish: %d", len(due))
	}
}

func TestPublishDoesNotRetryLostStatusRace(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok", nil)
	post := testutil.SeedPost(t, h.db, persona.ID, &acct.ID, types.PostStatusScheduled, pointers.Time(now))

	// Another writer fails the post between commit and the status write.
	stale := *post
	_, err := h.lifecycle.MarkFailed(dbctx.New(context.Background()), post, "cancelled by operator")
	noError(t, err, "MarkFailed")

	_, err = h.pipeline.Publish(context.Background(), &stale)
	if !errors.Is(err, perr.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}
