package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/pkg/pointers"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

const recentTopicHistory = 30

type CreatePostInput struct {
	PersonaID uuid.UUID  `json:"persona_id"`
	AccountID *uuid.UUID `json:"account_id"`
	Content   string     `json:"content"`
	Topic     string     `json:"topic"`
}

// GenerateDraftInput asks for an on-demand post. An empty Topic lets the selector choose.
type GenerateDraftInput struct {
	PersonaID uuid.UUID  `json:"persona_id"`
	AccountID *uuid.UUID `json:"account_id"`
	Topic     string     `json:"topic"`
	Context   string     `json:"context"`
}

type UpdatePostInput struct {
	Content   *string    `json:"content"`
	Topic     *string    `json:"topic"`
	AccountID *uuid.UUID `json:"account_id"`
}

type SchedulePostInput struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	AccountID   *uuid.UUID `json:"account_id"`
}

type PostListInput struct {
	Status    string
	PersonaID *uuid.UUID
	Limit     int
	Offset    int
}

// PostService is the operator-facing side of the post lifecycle. Every failure is returned
// to the caller.
type PostService interface {
	Create(ctx context.Context, in CreatePostInput) (*types.Post, error)
	GenerateDraft(ctx context.Context, in GenerateDraftInput) (*types.Post, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Post, error)
	List(ctx context.Context, in PostListInput) ([]*types.Post, error)
	Update(ctx context.Context, id uuid.UUID, in UpdatePostInput) (*types.Post, error)
	Approve(ctx context.Context, id uuid.UUID) (*types.Post, error)
	Reject(ctx context.Context, id uuid.UUID) (*types.Post, error)
	Schedule(ctx context.Context, id uuid.UUID, in SchedulePostInput) (*types.Post, error)
	PublishNow(ctx context.Context, id uuid.UUID) (*types.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postService struct {
	log       *logger.Logger
	posts     repos.PostRepo
	personas  repos.PersonaRepo
	accounts  repos.AccountRepo
	lifecycle *PostLifecycle
	pipeline  PublishPipeline
	selector  TopicSelector
	generator ContentGenerator
	notifier  PostNotifier
}

func NewPostService(
	baseLog *logger.Logger,
	posts repos.PostRepo,
	personas repos.PersonaRepo,
	accounts repos.AccountRepo,
	lifecycle *PostLifecycle,
	pipeline PublishPipeline,
	selector TopicSelector,
	generator ContentGenerator,
	notifier PostNotifier,
) PostService {
	return &postService{
		log:       baseLog.With("service", "PostService"),
		posts:     posts,
		personas:  personas,
		accounts:  accounts,
		lifecycle: lifecycle,
		pipeline:  pipeline,
		selector:  selector,
		generator: generator,
		notifier:  notifier,
	}
}

func (s *postService) Create(ctx context.Context, in CreatePostInput) (*types.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, perr.Validationf("content is required")
	}
	dbc := dbctx.New(ctx)
	if _, err := s.personas.GetByID(dbc, in.PersonaID); err != nil {
		return nil, err
	}
	if err := s.checkAccount(dbc, in.AccountID); err != nil {
		return nil, err
	}
	return s.insert(dbc, &types.Post{
		PersonaID: in.PersonaID,
		AccountID: in.AccountID,
		Content:   content,
		Topic:     optionalString(in.Topic),
		Status:    types.PostStatusDraft,
	})
}

// GenerateDraft runs one interactive generation and saves the result as a draft.
func (s *postService) GenerateDraft(ctx context.Context, in GenerateDraftInput) (*types.Post, error) {
	dbc := dbctx.New(ctx)
	persona, err := s.personas.GetByID(dbc, in.PersonaID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccount(dbc, in.AccountID); err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(in.Topic)
	extra := strings.TrimSpace(in.Context)
	if topic == "" {
		if s.selector == nil {
			return nil, perr.Validationf("topic is required")
		}
		recent, err := s.posts.RecentTopicsForPersona(dbc, persona.ID, recentTopicHistory)
		if err != nil {
			return nil, err
		}
		picked, err := s.selector.SelectTopic(ctx, persona, recent)
		if err != nil {
			return nil, err
		}
		topic = picked.Title
		if extra == "" {
			extra = picked.Context()
		}
	}
	if s.generator == nil {
		return nil, perr.Generationf("content generator is not configured")
	}
	content, err := s.generator.Generate(ctx, persona, topic, extra)
	if err != nil {
		observability.Current().IncGenerationOutcome("interactive", "error")
		return nil, err
	}
	observability.Current().IncGenerationOutcome("interactive", "ok")
	return s.insert(dbc, &types.Post{
		PersonaID: persona.ID,
		AccountID: in.AccountID,
		Content:   content,
		Topic:     optionalString(topic),
		Status:    types.PostStatusDraft,
	})
}

func (s *postService) Get(ctx context.Context, id uuid.UUID) (*types.Post, error) {
	return s.posts.GetByID(dbctx.New(ctx), id)
}

func (s *postService) List(ctx context.Context, in PostListInput) ([]*types.Post, error) {
	if in.Status != "" && !types.IsPostStatus(in.Status) {
		return nil, perr.Validationf("unknown post status %q", in.Status)
	}
	return s.posts.List(dbctx.New(ctx), repos.PostFilter{
		Status:    in.Status,
		PersonaID: in.PersonaID,
		Limit:     in.Limit,
		Offset:    in.Offset,
	})
}

// Update edits content before a post is scheduled. Scheduled and terminal posts are frozen.
func (s *postService) Update(ctx context.Context, id uuid.UUID, in UpdatePostInput) (*types.Post, error) {
	updates := map[string]interface{}{}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, perr.Validationf("content cannot be empty")
		}
		updates["content"] = content
	}
	if in.Topic != nil {
		updates["topic"] = optionalString(*in.Topic)
	}
	dbc := dbctx.New(ctx)
	if in.AccountID != nil {
		if err := s.checkAccount(dbc, in.AccountID); err != nil {
			return nil, err
		}
		updates["account_id"] = *in.AccountID
	}
	current, err := s.posts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return current, nil
	}
	if !containsString(editableStatuses, current.Status) {
		return nil, perr.Conflictf("post %s is %s and can no longer be edited", id, current.Status)
	}
	return s.posts.UpdateFieldsInStatus(dbc, id, editableStatuses, updates)
}

func (s *postService) Approve(ctx context.Context, id uuid.UUID) (*types.Post, error) {
	dbc := dbctx.New(ctx)
	p, err := s.posts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	return s.lifecycle.Approve(dbc, p)
}

func (s *postService) Reject(ctx context.Context, id uuid.UUID) (*types.Post, error) {
	dbc := dbctx.New(ctx)
	p, err := s.posts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	return s.lifecycle.Reject(dbc, p)
}

// Schedule uses the given account, or the one already on the post.
func (s *postService) Schedule(ctx context.Context, id uuid.UUID, in SchedulePostInput) (*types.Post, error) {
	dbc := dbctx.New(ctx)
	p, err := s.posts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	accountID := in.AccountID
	if accountID == nil {
		accountID = p.AccountID
	}
	if accountID != nil {
		if err := s.checkAccount(dbc, accountID); err != nil {
			return nil, err
		}
	}
	return s.lifecycle.Schedule(dbc, p, in.ScheduledAt, accountID)
}

// PublishNow skips SCHEDULED: an approved post goes straight to PUBLISHED or FAILED.
func (s *postService) PublishNow(ctx context.Context, id uuid.UUID) (*types.Post, error) {
	p, err := s.posts.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if p.Status != types.PostStatusApproved {
		return nil, perr.InvalidTransition(p.Status, types.PostStatusPublished)
	}
	return s.pipeline.Publish(ctx, p)
}

func (s *postService) Delete(ctx context.Context, id uuid.UUID) error {
	dbc := dbctx.New(ctx)
	p, err := s.posts.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(dbc, id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.PostDeleted(ctx, p)
	}
	return nil
}

func (s *postService) insert(dbc dbctx.Context, p *types.Post) (*types.Post, error) {
	out, err := s.posts.Create(dbc, p)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PostCreated(dbc.Ctx, out)
	}
	return out, nil
}

func (s *postService) checkAccount(dbc dbctx.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	_, err := s.accounts.GetByID(dbc, *id)
	return err
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return pointers.String(s)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
