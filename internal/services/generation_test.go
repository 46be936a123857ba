package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/personapost-backend/internal/data/repos/testutil"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/pkg/pointers"
	"github.com/yungbote/personapost-backend/internal/platform/trends"
)

var threeSlots = []string{"09:00", "15:00", "21:00"}

func TestGenerateForScheduleCreatesPendingPost(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.trends.pool = []trends.Candidate{candidate("Deep sea mining", 80)}
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok", nil)
	sched := testutil.SeedSchedule(t, h.db, persona.ID, acct.ID, threeSlots, false)

	post, err := h.generation.GenerateForSchedule(context.Background(), sched)
	noError(t, err, "GenerateForSchedule")
	if post.Status != types.PostStatusPending || post.ScheduledAt != nil {
		t.Fatalf("pending post: %+v", post)
	}
	if pointers.Deref(post.Topic) != "Deep sea mining" {
		t.Fatalf("topic: %v", post.Topic)
	}
	if post.ScheduleID == nil || *post.ScheduleID != sched.ID || post.AccountID == nil || *post.AccountID != acct.ID {
		t.Fatalf("schedule/account refs: %+v", post)
	}
	stored, err := h.schedules.GetByID(dbctx.New(context.Background()), sched.ID)
	noError(t, err, "GetByID schedule")
	if stored.LastRunAt == nil || !stored.LastRunAt.Equal(now) {
		t.Fatalf("last_run_at: %v", stored.LastRunAt)
	}
}

func TestGenerateForScheduleAutoApproveJitter(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.trends.pool = []trends.Candidate{candidate("Deep sea mining", 80)}
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok", nil)
	sched := testutil.SeedSchedule(t, h.db, persona.ID, acct.ID, threeSlots, true)

	post, err := h.generation.GenerateForSchedule(context.Background(), sched)
	noError(t, err, "GenerateForSchedule")
	if post.Status != types.PostStatusScheduled || post.ScheduledAt == nil {
		t.Fatalf("scheduled post: %+v", post)
	}
	if post.ScheduledAt.Before(now) || !post.ScheduledAt.Before(now.Add(10*time.Minute)) {
		t.Fatalf("scheduled_at %s outside [now, now+10m)", post.ScheduledAt)
	}
	noError(t, CheckPostInvariants(post), "invariants")
}

func TestGenerateForScheduleRespectsDailyCap(t *testing.T) {
	now := time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.trends.pool = []trends.Candidate{candidate("One", 80), candidate("Two", 70), candidate("Three", 60)}
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok", nil)
	sched := testutil.SeedSchedule(t, h.db, persona.ID, acct.ID, []string{"09:00", "21:00"}, false)

	for i := 0; i < 2; i++ {
		_, err := h.generation.GenerateForSchedule(context.Background(), sched)
		noError(t, err, "GenerateForSchedule")
	}
	_, err := h.generation.GenerateForSchedule(context.Background(), sched)
	if !errors.Is(err, ErrDailyCapReached) || !IsSkip(err) {
		t.Fatalf("third run: want ErrDailyCapReached, got %v", err)
	}

	// The cap resets at 00:00 UTC.
	h.clock.Add(12 * time.Hour)
	_, err = h.generation.GenerateForSchedule(context.Background(), sched)
	noError(t, err, "GenerateForSchedule next day")
}

func TestGenerateForScheduleExcludesRecentTopics(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	h.trends.pool = []trends.Candidate{candidate("Solar eclipse tonight", 90), candidate("Chess world final", 50)}
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok", nil)
	sched := testutil.SeedSchedule(t, h.db, persona.ID, acct.ID, threeSlots, false)
	prior := testutil.SeedPost(t, h.db, persona.ID, &acct.ID, types.PostStatusPublished, nil)
	noError(t, h.db.Model(prior).Update("topic", "Solar eclipse").Error, "set prior topic")

	post, err := h.generation.GenerateForSchedule(context.Background(), sched)
	noError(t, err, "GenerateForSchedule")
	if pointers.Deref(post.Topic) != "Chess world final" {
		t.Fatalf("topic: want %q got %q", "Chess world final", pointers.Deref(post.Topic))
	}
}

func TestGenerateForScheduleSkipsWithoutTopicOrOnGenerationError(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	persona := testutil.SeedPersona(t, h.db, "ada")
	acct := testutil.SeedAccount(t, h.db, "tok", nil)
	sched := testutil.SeedSchedule(t, h.db, persona.ID, acct.ID, threeSlots, false)

	_, err := h.generation.GenerateForSchedule(context.Background(), sched)
	if !errors.Is(err, perr.ErrNoTopicAvailable) {
		t.Fatalf("empty pools: want ErrNoTopicAvailable, got %v", err)
	}
	if h.generator.calls != 0 {
		t.Fatalf("generator called without a topic")
	}

	h.trends.pool = []trends.Candidate{candidate("Anything", 10)}
	h.generator.err = perr.Generationf("rate limited")
	_, err = h.generation.GenerateForSchedule(context.Background(), sched)
	if !errors.Is(err, perr.ErrGeneration) {
		t.Fatalf("want ErrGeneration, got %v", err)
	}
	n, err := h.posts.CountCreatedSince(dbctx.New(context.Background()), sched.ID, StartOfDayUTC(now))
	noError(t, err, "CountCreatedSince")
	if n != 0 {
		t.Fatalf("posts created on failure: %d", n)
	}
}
