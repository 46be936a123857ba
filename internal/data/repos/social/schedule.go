package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type ScheduleRepo interface {
	Create(dbc dbctx.Context, s *types.Schedule) (*types.Schedule, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Schedule, error)
	List(dbc dbctx.Context, personaID *uuid.UUID) ([]*types.Schedule, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	ListActiveForSlot(dbc dbctx.Context, slot string) ([]*types.Schedule, error)
	MarkRun(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	CountByPersona(dbc dbctx.Context, personaID uuid.UUID) (int64, error)
	DeleteByPersona(dbc dbctx.Context, personaID uuid.UUID) (int64, error)
}

type scheduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduleRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleRepo {
	return &scheduleRepo{
		db:  db,
		log: baseLog.With("repo", "ScheduleRepo"),
	}
}

func (r *scheduleRepo) Create(dbc dbctx.Context, s *types.Schedule) (*types.Schedule, error) {
	if err := dbc.DB(r.db).Create(s).Error; err != nil {
		return nil, translate(err, "schedule for this persona and account")
	}
	return s, nil
}

func (r *scheduleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Schedule, error) {
	var s types.Schedule
	if err := dbc.DB(r.db).Where("id = ?", id).Take(&s).Error; err != nil {
		return nil, translate(err, "schedule")
	}
	return &s, nil
}

func (r *scheduleRepo) List(dbc dbctx.Context, personaID *uuid.UUID) ([]*types.Schedule, error) {
	q := dbc.DB(r.db).Order("created_at ASC")
	if personaID != nil {
		q = q.Where("persona_id = ?", *personaID)
	}
	var out []*types.Schedule
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scheduleRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Schedule{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error, "schedule for this persona and account")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "schedule")
	}
	return nil
}

func (r *scheduleRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Schedule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "schedule")
	}
	return nil
}

// ListActiveForSlot returns active schedules whose posting times contain slot. Posting times
// live in a JSON column, so the slot match happens here rather than in SQL.
func (r *scheduleRepo) ListActiveForSlot(dbc dbctx.Context, slot string) ([]*types.Schedule, error) {
	var active []*types.Schedule
	if err := dbc.DB(r.db).Where("active = ?", true).Order("created_at ASC").Find(&active).Error; err != nil {
		return nil, err
	}
	out := make([]*types.Schedule, 0, len(active))
	for _, s := range active {
		if s.HasSlot(slot) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *scheduleRepo) MarkRun(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(r.db).Model(&types.Schedule{}).Where("id = ?", id).Update("last_run_at", at).Error
}

func (r *scheduleRepo) CountByPersona(dbc dbctx.Context, personaID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Schedule{}).Where("persona_id = ?", personaID).Count(&n).Error
	return n, err
}

func (r *scheduleRepo) DeleteByPersona(dbc dbctx.Context, personaID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("persona_id = ?", personaID).Delete(&types.Schedule{})
	return res.RowsAffected, res.Error
}
