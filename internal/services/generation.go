package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/pkg/pointers"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

// ErrDailyCapReached means the schedule already produced its posts for the UTC day.
var ErrDailyCapReached = errors.New("daily post cap reached")

// ErrPersonaInactive means the schedule's persona is switched off.
var ErrPersonaInactive = errors.New("persona inactive")

// GenerationService runs one unattended generation cycle for a schedule:
// topic selection, content generation and post creation.
type GenerationService interface {
	GenerateForSchedule(ctx context.Context, schedule *types.Schedule) (*types.Post, error)
}

type generationService struct {
	log       *logger.Logger
	posts     repos.PostRepo
	personas  repos.PersonaRepo
	schedules repos.ScheduleRepo
	selector  TopicSelector
	generator ContentGenerator
	notifier  PostNotifier
	clock     clock.Clock
	maxJitter time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerationService(
	baseLog *logger.Logger,
	posts repos.PostRepo,
	personas repos.PersonaRepo,
	schedules repos.ScheduleRepo,
	selector TopicSelector,
	generator ContentGenerator,
	notifier PostNotifier,
	clk clock.Clock,
	maxJitter time.Duration,
	rnd *rand.Rand,
) GenerationService {
	if clk == nil {
		clk = clock.New()
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &generationService{
		log:       baseLog.With("service", "GenerationService"),
		posts:     posts,
		personas:  personas,
		schedules: schedules,
		selector:  selector,
		generator: generator,
		notifier:  notifier,
		clock:     clk,
		maxJitter: maxJitter,
		rnd:       rnd,
	}
}

// GenerateForSchedule creates one post for the schedule: PENDING for manual review, or
// SCHEDULED a jittered moment from now when the schedule auto-approves.
func (g *generationService) GenerateForSchedule(ctx context.Context, s *types.Schedule) (post *types.Post, err error) {
	now := g.clock.Now().UTC()
	dbc := dbctx.New(ctx)
	defer func() {
		if r := recover(); r != nil {
			observability.Current().IncGenerationOutcome("scheduled", "panic")
			panic(r)
		}
		observability.Current().IncGenerationOutcome("scheduled", generationOutcome(err))
	}()

	persona, err := g.personas.GetByID(dbc, s.PersonaID)
	if err != nil {
		return nil, err
	}
	if !persona.Active {
		return nil, ErrPersonaInactive
	}
	made, err := g.posts.CountCreatedSince(dbc, s.ID, StartOfDayUTC(now))
	if err != nil {
		return nil, err
	}
	if made >= int64(s.PostsPerDay) {
		return nil, ErrDailyCapReached
	}

	recent, err := g.posts.RecentTopicsForPersona(dbc, persona.ID, recentTopicHistory)
	if err != nil {
		return nil, err
	}
	topic, err := g.selector.SelectTopic(ctx, persona, recent)
	if err != nil {
		return nil, err
	}
	content, err := g.generator.Generate(ctx, persona, topic.Title, topic.Context())
	if err != nil {
		return nil, err
	}

	accountID := s.AccountID
	scheduleID := s.ID
	p := &types.Post{
		PersonaID:  persona.ID,
		AccountID:  &accountID,
		ScheduleID: &scheduleID,
		Content:    content,
		Topic:      pointers.String(topic.Title),
		Status:     types.PostStatusPending,
		CreatedAt:  now,
	}
	if s.AutoApprove {
		p.Status = types.PostStatusScheduled
		p.ScheduledAt = pointers.Time(now.Add(g.jitter()))
	}
	post, err = g.posts.Create(dbc, p)
	if err != nil {
		return nil, err
	}
	if err := g.schedules.MarkRun(dbc, s.ID, now); err != nil {
		g.log.Warn("mark schedule run failed", "schedule_id", s.ID, "error", err)
	}
	if g.notifier != nil {
		g.notifier.PostCreated(ctx, post)
	}
	g.log.Info("post generated",
		"post_id", post.ID, "schedule_id", s.ID, "persona_id", persona.ID,
		"status", post.Status, "topic", topic.Title, "relaxed", topic.Relaxed)
	return post, nil
}

func (g *generationService) jitter() time.Duration {
	if g.maxJitter <= 0 {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Duration(g.rnd.Int63n(int64(g.maxJitter)))
}

func generationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDailyCapReached), errors.Is(err, ErrPersonaInactive):
		return "skipped"
	case errors.Is(err, perr.ErrNoTopicAvailable):
		return "no_topic"
	case errors.Is(err, perr.ErrGeneration):
		return "generation_error"
	default:
		return "error"
	}
}

// IsSkip reports errors that mean "nothing to do this tick" rather than a failure.
func IsSkip(err error) bool {
	return errors.Is(err, ErrDailyCapReached) || errors.Is(err, ErrPersonaInactive) || errors.Is(err, perr.ErrNoTopicAvailable)
}
