package social

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type PersonaRepo interface {
	Create(dbc dbctx.Context, p *types.Persona) (*types.Persona, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Persona, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]*types.Persona, error)
	List(dbc dbctx.Context, activeOnly bool) ([]*types.Persona, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type personaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonaRepo(db *gorm.DB, baseLog *logger.Logger) PersonaRepo {
	return &personaRepo{
		db:  db,
		log: baseLog.With("repo", "PersonaRepo"),
	}
}

func (r *personaRepo) Create(dbc dbctx.Context, p *types.Persona) (*types.Persona, error) {
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, translate(err, "persona")
	}
	return p, nil
}

func (r *personaRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Persona, error) {
	var p types.Persona
	if err := dbc.DB(r.db).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, translate(err, "persona")
	}
	return &p, nil
}

func (r *personaRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]*types.Persona, error) {
	out := map[uuid.UUID]*types.Persona{}
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*types.Persona
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *personaRepo) List(dbc dbctx.Context, activeOnly bool) ([]*types.Persona, error) {
	q := dbc.DB(r.db).Order("created_at ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []*types.Persona
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *personaRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Persona{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error, "persona")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "persona")
	}
	return nil
}

func (r *personaRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Persona{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "persona")
	}
	return nil
}
