package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/personapost-backend/internal/data/repos/testutil"
	types "github.com/yungbote/personapost-backend/internal/domain"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/pkg/pointers"
	"github.com/yungbote/personapost-backend/internal/platform/trends"
)

func TestPostServiceApproveScheduleFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Now())
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok", nil)

	post, err := h.postSvc.Create(ctx, CreatePostInput{PersonaID: persona.ID, Content: "  first light  ", Topic: "dawn"})
	noError(t, err, "Create")
	if post.Status != types.PostStatusDraft || post.Content != "first light" || pointers.Deref(post.Topic) != "dawn" {
		t.Fatalf("created post: %+v", post)
	}

	if _, err := h.postSvc.Schedule(ctx, post.ID, SchedulePostInput{ScheduledAt: pointers.Time(time.Now()), AccountID: &acct.ID}); !errors.Is(err, perr.ErrInvalidTransition) {
		t.Fatalf("scheduling a draft: want ErrInvalidTransition, got %v", err)
	}

	post, err = h.postSvc.Approve(ctx, post.ID)
	noError(t, err, "Approve")
	if _, err := h.postSvc.Schedule(ctx, post.ID, SchedulePostInput{ScheduledAt: pointers.Time(time.Now())}); !errors.Is(err, perr.ErrValidation) {
		t.Fatalf("schedule without account: want ErrValidation, got %v", err)
	}
	post, err = h.postSvc.Schedule(ctx, post.ID, SchedulePostInput{ScheduledAt: pointers.Time(time.Now().Add(time.Hour)), AccountID: &acct.ID})
	noError(t, err, "Schedule")
	if post.Status != types.PostStatusScheduled {
		t.Fatalf("status: %s", post.Status)
	}

	if _, err := h.postSvc.Update(ctx, post.ID, UpdatePostInput{Content: pointers.String("edited")}); !errors.Is(err, perr.ErrConflict) {
		t.Fatalf("editing a scheduled post: want ErrConflict, got %v", err)
	}
	if _, err := h.postSvc.PublishNow(ctx, post.ID); !errors.Is(err, perr.ErrInvalidTransition) {
		t.Fatalf("publish now on scheduled: want ErrInvalidTransition, got %v", err)
	}
}

func TestPostServicePublishNowSkipsScheduled(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Now())
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok", nil)
	post := testutil.SeedPost(t, h.db, persona.ID, &acct.ID, types.PostStatusApproved, nil)

	got, err := h.postSvc.PublishNow(ctx, post.ID)
	noError(t, err, "PublishNow")
	if got.Status != types.PostStatusPublished || got.ScheduledAt != nil {
		t.Fatalf("published post: %+v", got)
	}
	if _, err := h.postSvc.Reject(ctx, post.ID); !errors.Is(err, perr.ErrInvalidTransition) {
		t.Fatalf("reject after publish: want ErrInvalidTransition, got %v", err)
	}
	noError(t, h.postSvc.Delete(ctx, post.ID), "Delete published")
	if _, err := h.postSvc.Get(ctx, post.ID); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("deleted post: want ErrNotFound, got %v", err)
	}
}

func TestPostServiceRejectIsTerminal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Now())
	persona := testutil.SeedPersona(t, h.db, "ada")
	post := testutil.SeedPost(t, h.db, persona.ID, nil, types.PostStatusPending, nil)

	got, err := h.postSvc.Reject(ctx, post.ID)
	noError(t, err, "Reject")
	if got.Status != types.PostStatusRejected {
		t.Fatalf("status: %s", got.Status)
	}
	if _, err := h.postSvc.Approve(ctx, post.ID); !errors.Is(err, perr.ErrInvalidTransition) {
		t.Fatalf("approve rejected: want ErrInvalidTransition, got %v", err)
	}
}

func TestGenerateDraftSelectsTopicAndSurfacesErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, time.Now())
	persona := testutil.SeedPersona(t, h.db, "ada")
	h.trends.pool = []trends.Candidate{candidate("Fusion breakthrough", 90)}

	post, err := h.postSvc.GenerateDraft(ctx, GenerateDraftInput{PersonaID: persona.ID})
	noError(t, err, "GenerateDraft")
	if post.Status != types.PostStatusDraft || pointers.Deref(post.Topic) != "Fusion breakthrough" {
		t.Fatalf("draft: %+v", post)
	}

	h.generator.err = perr.Generationf("provider returned 500")
	_, err = h.postSvc.GenerateDraft(ctx, GenerateDraftInput{PersonaID: persona.ID, Topic: "anything"})
	if !errors.Is(err, perr.ErrGeneration) {
		t.Fatalf("want ErrGeneration, got %v", err)
	}
	all, err := h.postSvc.List(ctx, PostListInput{PersonaID: &persona.ID})
	noError(t, err, "List")
	if len(all) != 1 {
		t.Fatalf("failed generation must not save a post: got %d posts", len(all))
	}
}

func TestPostServiceListRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t, time.Now())
	if _, err := h.postSvc.List(context.Background(), PostListInput{Status: "bogus"}); !errors.Is(err, perr.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}
