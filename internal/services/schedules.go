package services

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

var slotPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):00$`)

// HourSlot is the "HH:00" label for t's UTC hour.
func HourSlot(t time.Time) string {
	return t.UTC().Format("15") + ":00"
}

// StartOfDayUTC is 00:00 UTC on t's UTC date.
func StartOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizePostingTimes validates whole-hour labels, rejects duplicates and sorts them.
func NormalizePostingTimes(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, perr.Validationf("posting_times needs at least one HH:00 slot")
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		slot := strings.TrimSpace(raw)
		if len(slot) == 4 && slot[1] == ':' {
			slot = "0" + slot
		}
		if !slotPattern.MatchString(slot) {
			return nil, perr.Validationf("posting time %q is not a whole-hour HH:00 slot", raw)
		}
		if seen[slot] {
			return nil, perr.Validationf("posting time %s is listed twice", slot)
		}
		seen[slot] = true
		out = append(out, slot)
	}
	sort.Strings(out)
	return out, nil
}

type ScheduleInput struct {
	PersonaID    uuid.UUID `json:"persona_id"`
	AccountID    uuid.UUID `json:"account_id"`
	PostsPerDay  int       `json:"posts_per_day"`
	PostingTimes []string  `json:"posting_times"`
	Timezone     string    `json:"timezone"`
	AutoApprove  bool      `json:"auto_approve"`
	Active       *bool     `json:"active"`
}

type SchedulePatch struct {
	PostsPerDay  *int      `json:"posts_per_day"`
	PostingTimes *[]string `json:"posting_times"`
	Timezone     *string   `json:"timezone"`
	AutoApprove  *bool     `json:"auto_approve"`
	Active       *bool     `json:"active"`
}

type ScheduleService interface {
	Create(ctx context.Context, in ScheduleInput) (*types.Schedule, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Schedule, error)
	List(ctx context.Context, personaID *uuid.UUID) ([]*types.Schedule, error)
	Update(ctx context.Context, id uuid.UUID, patch SchedulePatch) (*types.Schedule, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.Schedule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type scheduleService struct {
	log       *logger.Logger
	schedules repos.ScheduleRepo
	personas  repos.PersonaRepo
	accounts  repos.AccountRepo
}

func NewScheduleService(baseLog *logger.Logger, schedules repos.ScheduleRepo, personas repos.PersonaRepo, accounts repos.AccountRepo) ScheduleService {
	return &scheduleService{
		log:       baseLog.With("service", "ScheduleService"),
		schedules: schedules,
		personas:  personas,
		accounts:  accounts,
	}
}

// Create rejects a second schedule for the same persona and account with ErrConflict.
func (ss *scheduleService) Create(ctx context.Context, in ScheduleInput) (*types.Schedule, error) {
	if in.PersonaID == uuid.Nil || in.AccountID == uuid.Nil {
		return nil, perr.Validationf("persona_id and account_id are required")
	}
	if err := validatePostsPerDay(in.PostsPerDay); err != nil {
		return nil, err
	}
	slots, err := NormalizePostingTimes(in.PostingTimes)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	if _, err := ss.personas.GetByID(dbc, in.PersonaID); err != nil {
		return nil, err
	}
	if _, err := ss.accounts.GetByID(dbc, in.AccountID); err != nil {
		return nil, err
	}
	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	s := &types.Schedule{
		PersonaID:    in.PersonaID,
		AccountID:    in.AccountID,
		PostsPerDay:  in.PostsPerDay,
		PostingTimes: datatypes.JSONSlice[string](slots),
		Timezone:     tz,
		AutoApprove:  in.AutoApprove,
		Active:       in.Active == nil || *in.Active,
	}
	out, err := ss.schedules.Create(dbc, s)
	if err != nil {
		return nil, err
	}
	ss.log.Info("schedule created", "schedule_id", out.ID, "persona_id", out.PersonaID, "slots", slots)
	return out, nil
}

func (ss *scheduleService) Get(ctx context.Context, id uuid.UUID) (*types.Schedule, error) {
	return ss.schedules.GetByID(dbctx.New(ctx), id)
}

func (ss *scheduleService) List(ctx context.Context, personaID *uuid.UUID) ([]*types.Schedule, error) {
	return ss.schedules.List(dbctx.New(ctx), personaID)
}

func (ss *scheduleService) Update(ctx context.Context, id uuid.UUID, patch SchedulePatch) (*types.Schedule, error) {
	updates := map[string]interface{}{}
	if patch.PostsPerDay != nil {
		if err := validatePostsPerDay(*patch.PostsPerDay); err != nil {
			return nil, err
		}
		updates["posts_per_day"] = *patch.PostsPerDay
	}
	if patch.PostingTimes != nil {
		slots, err := NormalizePostingTimes(*patch.PostingTimes)
		if err != nil {
			return nil, err
		}
		updates["posting_times"] = datatypes.JSONSlice[string](slots)
	}
	if patch.Timezone != nil {
		updates["timezone"] = strings.TrimSpace(*patch.Timezone)
	}
	if patch.AutoApprove != nil {
		updates["auto_approve"] = *patch.AutoApprove
	}
	if patch.Active != nil {
		updates["active"] = *patch.Active
	}
	dbc := dbctx.New(ctx)
	if err := ss.schedules.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return ss.schedules.GetByID(dbc, id)
}

func (ss *scheduleService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.Schedule, error) {
	return ss.Update(ctx, id, SchedulePatch{Active: &active})
}

func (ss *scheduleService) Delete(ctx context.Context, id uuid.UUID) error {
	return ss.schedules.Delete(dbctx.New(ctx), id)
}

func validatePostsPerDay(n int) error {
	if n < 1 || n > 24 {
		return perr.Validationf("posts_per_day must be between 1 and 24, got %d", n)
	}
	return nil
}
