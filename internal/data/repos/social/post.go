package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type PostFilter struct {
	Status    string
	PersonaID *uuid.UUID
	Limit     int
	Offset    int
}

type PostRepo interface {
	Create(dbc dbctx.Context, p *types.Post) (*types.Post, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error)
	List(dbc dbctx.Context, f PostFilter) ([]*types.Post, error)
	ListDueScheduled(dbc dbctx.Context, now time.Time, limit int) ([]*types.Post, error)
	Transition(dbc dbctx.Context, id uuid.UUID, from []string, to string, fields map[string]interface{}) (*types.Post, error)
	UpdateFieldsInStatus(dbc dbctx.Context, id uuid.UUID, allowed []string, fields map[string]interface{}) (*types.Post, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	RecentTopicsForPersona(dbc dbctx.Context, personaID uuid.UUID, limit int) ([]string, error)
	CountCreatedSince(dbc dbctx.Context, scheduleID uuid.UUID, since time.Time) (int64, error)
	CountByPersona(dbc dbctx.Context, personaID uuid.UUID) (int64, error)
	DeleteByPersona(dbc dbctx.Context, personaID uuid.UUID) (int64, error)
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	return &postRepo{
		db:  db,
		log: baseLog.With("repo", "PostRepo"),
	}
}

func (r *postRepo) Create(dbc dbctx.Context, p *types.Post) (*types.Post, error) {
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, translate(err, "post")
	}
	return p, nil
}

func (r *postRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error) {
	var p types.Post
	if err := dbc.DB(r.db).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, translate(err, "post")
	}
	return &p, nil
}

func (r *postRepo) List(dbc dbctx.Context, f PostFilter) ([]*types.Post, error) {
	q := dbc.DB(r.db).Order("created_at DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PersonaID != nil {
		q = q.Where("persona_id = ?", *f.PersonaID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []*types.Post
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListDueScheduled returns SCHEDULED posts with scheduled_at <= now, oldest first.
func (r *postRepo) ListDueScheduled(dbc dbctx.Context, now time.Time, limit int) ([]*types.Post, error) {
	q := dbc.DB(r.db).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", types.PostStatusScheduled, now).
		Order("scheduled_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Post
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Transition moves a post to status `to` only if it is still in one of `from`. Losing that
// race returns ErrConflict and leaves the row untouched.
func (r *postRepo) Transition(dbc dbctx.Context, id uuid.UUID, from []string, to string, fields map[string]interface{}) (*types.Post, error) {
	updates := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["status"] = to
	return r.updateGuarded(dbc, id, from, updates)
}

// UpdateFieldsInStatus edits a post without changing its status, guarded the same way.
func (r *postRepo) UpdateFieldsInStatus(dbc dbctx.Context, id uuid.UUID, allowed []string, fields map[string]interface{}) (*types.Post, error) {
	return r.updateGuarded(dbc, id, allowed, fields)
}

func (r *postRepo) updateGuarded(dbc dbctx.Context, id uuid.UUID, allowed []string, updates map[string]interface{}) (*types.Post, error) {
	db := dbc.DB(r.db)
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = db.NowFunc()
	}
	res := db.Model(&types.Post{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	current, err := r.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return current, perr.Conflictf("post %s is %s, expected one of %v", id, current.Status, allowed)
	}
	return current, nil
}

func (r *postRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "post")
	}
	return nil
}

// RecentTopicsForPersona returns the topic labels of the persona's most recent posts.
func (r *postRepo) RecentTopicsForPersona(dbc dbctx.Context, personaID uuid.UUID, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 30
	}
	var topics []*string
	err := dbc.DB(r.db).Model(&types.Post{}).
		Where("persona_id = ? AND topic IS NOT NULL AND topic <> ''", personaID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("topic", &topics).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *postRepo) CountCreatedSince(dbc dbctx.Context, scheduleID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Post{}).
		Where("schedule_id = ? AND created_at >= ?", scheduleID, since).
		Count(&n).Error
	return n, err
}

func (r *postRepo) CountByPersona(dbc dbctx.Context, personaID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Post{}).Where("persona_id = ?", personaID).Count(&n).Error
	return n, err
}

func (r *postRepo) DeleteByPersona(dbc dbctx.Context, personaID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("persona_id = ?", personaID).Delete(&types.Post{})
	return res.RowsAffected, res.Error
}
