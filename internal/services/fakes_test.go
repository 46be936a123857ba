package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"gorm.io/gorm"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	"github.com/yungbote/personapost-backend/internal/data/repos/testutil"
	types "github.com/yungbote/personapost-backend/internal/domain"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/platform/threads"
	"github.com/yungbote/personapost-backend/internal/platform/trends"
)

type fakePlatform struct {
	mu           sync.Mutex
	containerErr error
	commitErr    error
	refreshErr   error
	containers   int
	commits      int
	refreshes    int
	lastText     string
	lastCred     threads.Credential
	grant        threads.TokenGrant
	profile      threads.Profile
}

func (f *fakePlatform) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.containers + f.commits
}

func (f *fakePlatform) CreateContainer(_ context.Context, cred threads.Credential, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers++
	f.lastText = text
	f.lastCred = cred
	if f.containerErr != nil {
		return "", f.containerErr
	}
	return "container-1", nil
}

func (f *fakePlatform) Commit(_ context.Context, _ threads.Credential, containerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	if f.commitErr != nil {
		return "", f.commitErr
	}
	return "remote-" + containerID, nil
}

func (f *fakePlatform) GetProfile(context.Context, string) (threads.Profile, error) {
	return f.profile, nil
}

func (f *fakePlatform) ExchangeCode(context.Context, string, string) (threads.TokenGrant, error) {
	return f.grant, nil
}

func (f *fakePlatform) Refresh(_ context.Context, token string) (threads.TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return threads.TokenGrant{}, f.refreshErr
	}
	return threads.TokenGrant{AccessToken: token + "-refreshed", ExpiresIn: 60 * 24 * 3600}, nil
}

func (f *fakePlatform) AuthorizeURL(state string) string {
	return "https://threads.example/oauth/authorize?state=" + state
}

type fakeTrends struct {
	pool  []trends.Candidate
	calls int
}

func (f *fakeTrends) Fetch(context.Context) []trends.Candidate {
	f.calls++
	out := make([]trends.Candidate, len(f.pool))
	copy(out, f.pool)
	return out
}

type fakeGenerator struct {
	text   string
	err    error
	calls  int
	topics []string
}

func (f *fakeGenerator) Generate(_ context.Context, _ *types.Persona, topic string, _ string) (string, error) {
	f.calls++
	f.topics = append(f.topics, topic)
	if f.err != nil {
		return "", f.err
	}
	if f.text != "" {
		return f.text, nil
	}
	return "Thoughts on " + topic, nil
}

type fakeAI struct {
	text    string
	obj     map[string]any
	err     error
	systems []string
	users   []string
}

func (f *fakeAI) GenerateJSON(_ context.Context, system, user, _ string, _ map[string]any) (map[string]any, error) {
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	return f.obj, f.err
}

func (f *fakeAI) GenerateText(_ context.Context, system, user string) (string, error) {
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	return f.text, f.err
}

func candidate(title string, score float64) trends.Candidate {
	s := score
	return trends.Candidate{Title: title, Source: trends.SourceHackerNews, Score: &s}
}

func mockClockAt(at time.Time) *clock.Mock {
	m := clock.NewMock()
	m.Add(at.Sub(m.Now()))
	return m
}

// harness wires every service over one test database with fake remote collaborators.
type harness struct {
	db        *gorm.DB
	log       *logger.Logger
	clock     *clock.Mock
	personas  repos.PersonaRepo
	accounts  repos.AccountRepo
	posts     repos.PostRepo
	schedules repos.ScheduleRepo
	topics    repos.TopicRepo
	platform  *fakePlatform
	trends    *fakeTrends
	generator *fakeGenerator

	lifecycle  *PostLifecycle
	accountSvc AccountService
	pipeline   PublishPipeline
	selector   TopicSelector
	postSvc    PostService
	generation GenerationService
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		db:        db,
		log:       log,
		clock:     mockClockAt(now),
		personas:  repos.NewPersonaRepo(db, log),
		accounts:  repos.NewAccountRepo(db, log),
		posts:     repos.NewPostRepo(db, log),
		schedules: repos.NewScheduleRepo(db, log),
		topics:    repos.NewTopicRepo(db, log),
		platform:  &fakePlatform{},
		trends:    &fakeTrends{},
		generator: &fakeGenerator{},
	}
	notifier := NewPostNotifier(log, nil)
	h.lifecycle = NewPostLifecycle(log, h.posts, notifier, h.clock)
	h.accountSvc = NewAccountService(log, h.accounts, h.platform, nil, "state-secret", "https://app.example/callback", h.clock)
	h.pipeline = NewPublishPipeline(log, h.lifecycle, h.accountSvc, h.platform)
	h.selector = NewTopicSelector(log, h.trends, h.topics, nil, rand.New(rand.NewSource(7)))
	h.postSvc = NewPostService(log, h.posts, h.personas, h.accounts, h.lifecycle, h.pipeline, h.selector, h.generator, notifier)
	h.generation = NewGenerationService(log, h.posts, h.personas, h.schedules, h.selector, h.generator, notifier, h.clock, 10*time.Minute, rand.New(rand.NewSource(11)))
	return h
}

func noError(t *testing.T, err error, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}

var errPlatformDuplicate = perr.Platform(400, "Duplicate post: this content was already published")

func testNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
