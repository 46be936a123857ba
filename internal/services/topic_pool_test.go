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
	"github.com/yungbote/personapost-backend/internal/platform/trends"
)

func TestSyncTrendsTwiceSkipsEverything(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testNow())
	h.trends.pool = []trends.Candidate{
		candidate("Fusion breakthrough", 90),
		{Title: "Ocean cleanup", Source: trends.SourceReddit, URL: "https://reddit.example/r/1"},
		candidate("Chess final", 40),
	}
	svc := NewTopicPoolService(h.log, h.topics, h.trends, h.clock)

	first, err := svc.SyncTrends(ctx)
	noError(t, err, "first SyncTrends")
	if first.Created != 3 || first.Skipped != 0 || first.Total != 3 {
		t.Fatalf("first: %+v", first)
	}
	second, err := svc.SyncTrends(ctx)
	noError(t, err, "second SyncTrends")
	if second.Created != 0 || second.Skipped != 3 || second.Total != 3 {
		t.Fatalf("second: %+v", second)
	}

	// Same URL under a new title is still a duplicate.
	h.trends.pool = []trends.Candidate{{Title: "Ocean cleanup (updated)", Source: trends.SourceReddit, URL: "https://reddit.example/r/1"}}
	third, err := svc.SyncTrends(ctx)
	noError(t, err, "third SyncTrends")
	if third.Created != 0 || third.Skipped != 1 {
		t.Fatalf("third: %+v", third)
	}

	stored, err := svc.List(ctx, types.TopicTypeTrending)
	noError(t, err, "List")
	if len(stored) != 3 {
		t.Fatalf("stored trending topics: %d", len(stored))
	}
}

func TestSyncTrendsRefreshesLastFetched(t *testing.T) {
	ctx := context.Background()
	now := testNow()
	h := newHarness(t, now)
	h.trends.pool = []trends.Candidate{candidate("Fusion breakthrough", 90)}
	svc := NewTopicPoolService(h.log, h.topics, h.trends, h.clock)

	_, err := svc.SyncTrends(ctx)
	noError(t, err, "first SyncTrends")
	h.clock.Add(3 * time.Hour)
	res, err := svc.SyncTrends(ctx)
	noError(t, err, "second SyncTrends")
	if res.Created != 0 || res.Skipped != 1 {
		t.Fatalf("second: %+v", res)
	}

	stored, err := svc.List(ctx, types.TopicTypeTrending)
	noError(t, err, "List")
	if len(stored) != 1 || stored[0].LastFetched == nil {
		t.Fatalf("stored: %+v", stored)
	}
	if want := now.Add(3 * time.Hour); !stored[0].LastFetched.Equal(want) {
		t.Fatalf("last_fetched: want=%s got=%s", want, stored[0].LastFetched)
	}
}

func TestCleanupTopicsKeepsManualAndFresh(t *testing.T) {
	ctx := context.Background()
	now := testNow()
	h := newHarness(t, now)
	svc := NewTopicPoolService(h.log, h.topics, h.trends, h.clock)

	old := now.Add(-10 * 24 * time.Hour)
	staleTrend := testutil.SeedTopic(t, h.db, "stale trend", types.TopicTypeTrending, old)
	freshTrend := testutil.SeedTopic(t, h.db, "fresh trend", types.TopicTypeTrending, now.Add(-24*time.Hour))
	oldManual := testutil.SeedTopic(t, h.db, "evergreen", types.TopicTypeManual, now.Add(-365*24*time.Hour))

	res, err := svc.CleanupTopics(ctx, 7*24*time.Hour)
	noError(t, err, "CleanupTopics")
	if res.Deleted != 1 {
		t.Fatalf("deleted: want=1 got=%d", res.Deleted)
	}
	dbc := dbctx.New(ctx)
	if _, err := h.topics.GetByID(dbc, staleTrend.ID); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("stale trend survived: %v", err)
	}
	for _, keep := range []*types.Topic{freshTrend, oldManual} {
		if _, err := h.topics.GetByID(dbc, keep.ID); err != nil {
			t.Fatalf("%q removed: %v", keep.Title, err)
		}
	}

	if _, err := svc.CleanupTopics(ctx, 0); !errors.Is(err, perr.ErrValidation) {
		t.Fatalf("zero retention: want ErrValidation, got %v", err)
	}
}
