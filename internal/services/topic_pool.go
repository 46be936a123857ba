package services

import (
	"context"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/pkg/pointers"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type SyncResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

type CleanupResult struct {
	Deleted int64 `json:"deleted"`
}

type ManualTopicInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// TopicPoolService maintains the persisted topic cache. Selection never reads trending rows
// from here; they are an audit trail and a source of manual fallbacks only.
type TopicPoolService interface {
	SyncTrends(ctx context.Context) (SyncResult, error)
	CleanupTopics(ctx context.Context, retention time.Duration) (CleanupResult, error)
	CreateManual(ctx context.Context, in ManualTopicInput) (*types.Topic, error)
	List(ctx context.Context, topicType string) ([]*types.Topic, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type topicPoolService struct {
	log    *logger.Logger
	topics repos.TopicRepo
	trends TrendFetcher
	clock  clock.Clock
}

func NewTopicPoolService(baseLog *logger.Logger, topics repos.TopicRepo, fetcher TrendFetcher, clk clock.Clock) TopicPoolService {
	if clk == nil {
		clk = clock.New()
	}
	return &topicPoolService{
		log:    baseLog.With("service", "TopicPoolService"),
		topics: topics,
		trends: fetcher,
		clock:  clk,
	}
}

// SyncTrends persists every fetched candidate not already stored under the same title or URL.
// Candidates already stored as trending get last_fetched refreshed and count as skipped.
func (s *topicPoolService) SyncTrends(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	if s.trends == nil {
		return res, nil
	}
	candidates := s.trends.Fetch(ctx)
	res.Total = len(candidates)
	dbc := dbctx.New(ctx)
	now := s.clock.Now().UTC()
	for _, c := range candidates {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		exists, err := s.topics.ExistsByTitleOrURL(dbc, c.Title, c.URL)
		if err != nil {
			return res, err
		}
		if exists {
			if _, err := s.topics.TouchTrending(dbc, c.Title, c.URL, now); err != nil {
				s.log.Warn("refresh trending topic failed", "title", c.Title, "error", err)
			}
			res.Skipped++
			continue
		}
		t := &types.Topic{
			Title:       c.Title,
			Type:        types.TopicTypeTrending,
			Source:      pointers.String(c.Source),
			Score:       c.Score,
			LastFetched: pointers.Time(now),
			Active:      true,
			CreatedAt:   now,
		}
		if c.URL != "" {
			t.URL = pointers.String(c.URL)
		}
		if c.Description != "" {
			t.Description = pointers.String(c.Description)
		}
		if _, err := s.topics.Create(dbc, t); err != nil {
			s.log.Warn("persist trending topic failed", "title", c.Title, "error", err)
			res.Skipped++
			continue
		}
		res.Created++
	}
	s.log.Info("trend sync finished", "created", res.Created, "skipped", res.Skipped, "total", res.Total)
	return res, nil
}

// CleanupTopics removes trending rows older than retention. Manual topics are never touched.
func (s *topicPoolService) CleanupTopics(ctx context.Context, retention time.Duration) (CleanupResult, error) {
	if retention <= 0 {
		return CleanupResult{}, perr.Validationf("retention must be positive")
	}
	cutoff := s.clock.Now().UTC().Add(-retention)
	n, err := s.topics.DeleteTrendingOlderThan(dbctx.New(ctx), cutoff)
	if err != nil {
		return CleanupResult{}, err
	}
	s.log.Info("topic cleanup finished", "deleted", n, "cutoff", cutoff)
	return CleanupResult{Deleted: n}, nil
}

func (s *topicPoolService) CreateManual(ctx context.Context, in ManualTopicInput) (*types.Topic, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, perr.Validationf("title is required")
	}
	t := &types.Topic{
		Title:  title,
		Type:   types.TopicTypeManual,
		Active: true,
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		t.Description = pointers.String(d)
	}
	if u := strings.TrimSpace(in.URL); u != "" {
		t.URL = pointers.String(u)
	}
	return s.topics.Create(dbctx.New(ctx), t)
}

func (s *topicPoolService) List(ctx context.Context, topicType string) ([]*types.Topic, error) {
	switch topicType {
	case "", types.TopicTypeManual, types.TopicTypeTrending:
	default:
		return nil, perr.Validationf("unknown topic type %q", topicType)
	}
	return s.topics.List(dbctx.New(ctx), topicType)
}

func (s *topicPoolService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.topics.Delete(dbctx.New(ctx), id)
}
