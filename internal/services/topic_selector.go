package services

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/pkg/pointers"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/platform/trends"
)

const selectTopK = 5

// TrendFetcher returns the current ranked trending pool. *trends.Aggregator implements it.
type TrendFetcher interface {
	Fetch(ctx context.Context) []trends.Candidate
}

// SelectedTopic is the chosen subject for one generation.
type SelectedTopic struct {
	Title       string  `json:"title"`
	Source      string  `json:"source"`
	URL         string  `json:"url,omitempty"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	// Relaxed is set when every candidate matched the exclusion list and the top-ranked one was used anyway.
	Relaxed bool `json:"relaxed,omitempty"`
	Manual  bool `json:"manual,omitempty"`
}

// Context is the extra material handed to the content generator.
func (t *SelectedTopic) Context() string {
	parts := make([]string, 0, 2)
	if t.Description != "" {
		parts = append(parts, t.Description)
	}
	if t.URL != "" {
		parts = append(parts, "Source: "+t.URL)
	}
	return strings.Join(parts, "\n")
}

type TopicSelector interface {
	// SelectTopic fails with ErrNoTopicAvailable only when both pools are empty.
	SelectTopic(ctx context.Context, persona *types.Persona, exclude []string) (*SelectedTopic, error)
}

type topicSelector struct {
	log    *logger.Logger
	trends TrendFetcher
	topics repos.TopicRepo
	scorer TopicScorer

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewTopicSelector wires a selector. A nil scorer means DefaultTopicScorer; a nil rnd is
// seeded from the wall clock.
func NewTopicSelector(baseLog *logger.Logger, fetcher TrendFetcher, topics repos.TopicRepo, scorer TopicScorer, rnd *rand.Rand) TopicSelector {
	if scorer == nil {
		scorer = DefaultTopicScorer
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &topicSelector{
		log:    baseLog.With("service", "TopicSelector"),
		trends: fetcher,
		topics: topics,
		scorer: scorer,
		rnd:    rnd,
	}
}

func (ts *topicSelector) SelectTopic(ctx context.Context, persona *types.Persona, exclude []string) (*SelectedTopic, error) {
	var pool []trends.Candidate
	if ts.trends != nil {
		pool = ts.trends.Fetch(ctx)
	}
	if len(pool) == 0 {
		return ts.selectManual(ctx, exclude)
	}

	survivors := FilterExcluded(pool, exclude)
	if len(survivors) == 0 {
		top := pool[0]
		ts.log.Debug("every trending candidate excluded, relaxing filter", "title", top.Title, "pool", len(pool))
		return fromCandidate(top, top.EffectiveScore(), true), nil
	}

	type scored struct {
		c     trends.Candidate
		score float64
	}
	ranked := make([]scored, len(survivors))
	for i, c := range survivors {
		ranked[i] = scored{c: c, score: ts.scorer(persona, c)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	k := selectTopK
	if len(ranked) < k {
		k = len(ranked)
	}
	pick := ranked[ts.intn(k)]
	return fromCandidate(pick.c, pick.score, false), nil
}

// selectManual picks at random among active manual topics, preferring ones not excluded.
func (ts *topicSelector) selectManual(ctx context.Context, exclude []string) (*SelectedTopic, error) {
	manual, err := ts.topics.ListActiveByType(dbctx.New(ctx), types.TopicTypeManual)
	if err != nil {
		return nil, err
	}
	if len(manual) == 0 {
		return nil, perr.NoTopicf("no trending candidates and no manual topics")
	}
	candidates := manual[:0:0]
	for _, t := range manual {
		if !matchesAny(t.Title, exclude) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		candidates = manual
	}
	t := candidates[ts.intn(len(candidates))]
	out := &SelectedTopic{
		Title:       t.Title,
		Source:      types.TopicTypeManual,
		URL:         pointers.Deref(t.URL),
		Description: pointers.Deref(t.Description),
		Score:       pointers.Deref(t.Score),
		Manual:      true,
	}
	if t.Source != nil && *t.Source != "" {
		out.Source = *t.Source
	}
	return out, nil
}

func (ts *topicSelector) intn(n int) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.rnd.Intn(n)
}

func fromCandidate(c trends.Candidate, score float64, relaxed bool) *SelectedTopic {
	return &SelectedTopic{
		Title:       c.Title,
		Source:      c.Source,
		URL:         c.URL,
		Description: c.Description,
		Score:       score,
		Relaxed:     relaxed,
	}
}

// FilterExcluded drops candidates whose title contains, or is contained in, any excluded
// title (case-insensitive). Order is preserved.
func FilterExcluded(pool []trends.Candidate, exclude []string) []trends.Candidate {
	out := make([]trends.Candidate, 0, len(pool))
	for _, c := range pool {
		if !matchesAny(c.Title, exclude) {
			out = append(out, c)
		}
	}
	return out
}

func matchesAny(title string, exclude []string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	for _, e := range exclude {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if strings.Contains(t, e) || strings.Contains(e, t) {
			return true
		}
	}
	return false
}
