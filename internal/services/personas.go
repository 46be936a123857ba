package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

// DeletePolicy decides what happens to a persona's posts and schedules when it is deleted.
type DeletePolicy string

const (
	// DeleteRestrict refuses to delete a persona that still owns posts or schedules.
	DeleteRestrict DeletePolicy = "restrict"
	// DeleteCascade removes the persona's schedules and posts with it.
	DeleteCascade DeletePolicy = "cascade"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DeleteRestrict:
		return DeleteRestrict, nil
	case DeleteCascade:
		return DeleteCascade, nil
	default:
		return "", perr.Validationf("unknown persona delete policy %q", s)
	}
}

type PersonaInput struct {
	Name         string   `json:"name"`
	Handle       string   `json:"handle"`
	Style        string   `json:"style"`
	SampleQuotes []string `json:"sample_quotes"`
	SystemPrompt string   `json:"system_prompt"`
	Occupation   string   `json:"occupation"`
	Era          string   `json:"era"`
	Active       *bool    `json:"active"`
}

// PersonaPatch updates only the non-nil fields.
type PersonaPatch struct {
	Name         *string   `json:"name"`
	Handle       *string   `json:"handle"`
	Style        *string   `json:"style"`
	SampleQuotes *[]string `json:"sample_quotes"`
	SystemPrompt *string   `json:"system_prompt"`
	Occupation   *string   `json:"occupation"`
	Era          *string   `json:"era"`
	Active       *bool     `json:"active"`
}

type PersonaService interface {
	Create(ctx context.Context, in PersonaInput) (*types.Persona, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Persona, error)
	List(ctx context.Context, activeOnly bool) ([]*types.Persona, error)
	Update(ctx context.Context, id uuid.UUID, patch PersonaPatch) (*types.Persona, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Draft(ctx context.Context, name string) (*PersonaProfile, error)
}

type personaService struct {
	tx        repos.TxRunner
	log       *logger.Logger
	personas  repos.PersonaRepo
	posts     repos.PostRepo
	schedules repos.ScheduleRepo
	analyzer  PersonaAnalyzer
	policy    DeletePolicy
}

func NewPersonaService(
	db *gorm.DB,
	baseLog *logger.Logger,
	personas repos.PersonaRepo,
	posts repos.PostRepo,
	schedules repos.ScheduleRepo,
	analyzer PersonaAnalyzer,
	policy DeletePolicy,
) PersonaService {
	if policy == "" {
		policy = DeleteRestrict
	}
	return &personaService{
		tx:        repos.NewGormTxRunner(db),
		log:       baseLog.With("service", "PersonaService"),
		personas:  personas,
		posts:     posts,
		schedules: schedules,
		analyzer:  analyzer,
		policy:    policy,
	}
}

func (ps *personaService) Create(ctx context.Context, in PersonaInput) (*types.Persona, error) {
	name := strings.TrimSpace(in.Name)
	handle := normalizeHandle(in.Handle, "")
	if name == "" {
		return nil, perr.Validationf("name is required")
	}
	if handle == "" {
		return nil, perr.Validationf("handle is required")
	}
	p := &types.Persona{
		Name:         name,
		Handle:       handle,
		Style:        strings.TrimSpace(in.Style),
		SampleQuotes: datatypes.JSONSlice[string](cleanQuotes(in.SampleQuotes)),
		SystemPrompt: strings.TrimSpace(in.SystemPrompt),
		Occupation:   strings.TrimSpace(in.Occupation),
		Era:          strings.TrimSpace(in.Era),
		Active:       in.Active == nil || *in.Active,
	}
	return ps.personas.Create(dbctx.New(ctx), p)
}

func (ps *personaService) Get(ctx context.Context, id uuid.UUID) (*types.Persona, error) {
	return ps.personas.GetByID(dbctx.New(ctx), id)
}

func (ps *personaService) List(ctx context.Context, activeOnly bool) ([]*types.Persona, error) {
	return ps.personas.List(dbctx.New(ctx), activeOnly)
}

func (ps *personaService) Update(ctx context.Context, id uuid.UUID, patch PersonaPatch) (*types.Persona, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, perr.Validationf("name cannot be empty")
		}
		updates["name"] = name
	}
	if patch.Handle != nil {
		handle := normalizeHandle(*patch.Handle, "")
		if handle == "" {
			return nil, perr.Validationf("handle cannot be empty")
		}
		updates["handle"] = handle
	}
	if patch.Style != nil {
		updates["style"] = strings.TrimSpace(*patch.Style)
	}
	if patch.SampleQuotes != nil {
		updates["sample_quotes"] = datatypes.JSONSlice[string](cleanQuotes(*patch.SampleQuotes))
	}
	if patch.SystemPrompt != nil {
		updates["system_prompt"] = strings.TrimSpace(*patch.SystemPrompt)
	}
	if patch.Occupation != nil {
		updates["occupation"] = strings.TrimSpace(*patch.Occupation)
	}
	if patch.Era != nil {
		updates["era"] = strings.TrimSpace(*patch.Era)
	}
	if patch.Active != nil {
		updates["active"] = *patch.Active
	}
	dbc := dbctx.New(ctx)
	if err := ps.personas.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return ps.personas.GetByID(dbc, id)
}

// Delete applies the configured policy inside one transaction.
func (ps *personaService) Delete(ctx context.Context, id uuid.UUID) error {
	return ps.tx.InTx(ctx, func(inner dbctx.Context) error {
		if _, err := ps.personas.GetByID(inner, id); err != nil {
			return err
		}
		postCount, err := ps.posts.CountByPersona(inner, id)
		if err != nil {
			return err
		}
		scheduleCount, err := ps.schedules.CountByPersona(inner, id)
		if err != nil {
			return err
		}
		if postCount > 0 || scheduleCount > 0 {
			if ps.policy != DeleteCascade {
				return perr.Conflictf("persona %s still has %d posts and %d schedules", id, postCount, scheduleCount)
			}
			if _, err := ps.schedules.DeleteByPersona(inner, id); err != nil {
				return err
			}
			if _, err := ps.posts.DeleteByPersona(inner, id); err != nil {
				return err
			}
			ps.log.Info("persona cascade delete", "persona_id", id, "posts", postCount, "schedules", scheduleCount)
		}
		return ps.personas.Delete(inner, id)
	})
}

func (ps *personaService) Draft(ctx context.Context, name string) (*PersonaProfile, error) {
	if ps.analyzer == nil {
		return nil, perr.Generationf("persona analyzer is not configured")
	}
	return ps.analyzer.Analyze(ctx, name)
}

func cleanQuotes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, q := range in {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
