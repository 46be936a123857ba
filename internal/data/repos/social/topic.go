package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type TopicRepo interface {
	Create(dbc dbctx.Context, t *types.Topic) (*types.Topic, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error)
	List(dbc dbctx.Context, topicType string) ([]*types.Topic, error)
	ListActiveByType(dbc dbctx.Context, topicType string) ([]*types.Topic, error)
	ExistsByTitleOrURL(dbc dbctx.Context, title, url string) (bool, error)
	TouchTrending(dbc dbctx.Context, title, url string, at time.Time) (int64, error)
	DeleteTrendingOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{
		db:  db,
		log: baseLog.With("repo", "TopicRepo"),
	}
}

func (r *topicRepo) Create(dbc dbctx.Context, t *types.Topic) (*types.Topic, error) {
	if err := dbc.DB(r.db).Create(t).Error; err != nil {
		return nil, translate(err, "topic")
	}
	return t, nil
}

func (r *topicRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error) {
	var t types.Topic
	if err := dbc.DB(r.db).Where("id = ?", id).Take(&t).Error; err != nil {
		return nil, translate(err, "topic")
	}
	return &t, nil
}

func (r *topicRepo) List(dbc dbctx.Context, topicType string) ([]*types.Topic, error) {
	q := dbc.DB(r.db).Order("created_at DESC")
	if topicType != "" {
		q = q.Where("type = ?", topicType)
	}
	var out []*types.Topic
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicRepo) ListActiveByType(dbc dbctx.Context, topicType string) ([]*types.Topic, error) {
	var out []*types.Topic
	err := dbc.DB(r.db).
		Where("type = ? AND active = ?", topicType, true).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExistsByTitleOrURL matches any persisted topic with the exact title, or the exact url when
// one is given.
func (r *topicRepo) ExistsByTitleOrURL(dbc dbctx.Context, title, url string) (bool, error) {
	q := dbc.DB(r.db).Model(&types.Topic{})
	if url != "" {
		q = q.Where("title = ? OR url = ?", title, url)
	} else {
		q = q.Where("title = ?", title)
	}
	var n int64
	if err := q.Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// TouchTrending stamps last_fetched on trending rows matching title or url.
func (r *topicRepo) TouchTrending(dbc dbctx.Context, title, url string, at time.Time) (int64, error) {
	q := dbc.DB(r.db).Model(&types.Topic{}).Where("type = ?", types.TopicTypeTrending)
	if url != "" {
		q = q.Where("title = ? OR url = ?", title, url)
	} else {
		q = q.Where("title = ?", title)
	}
	res := q.Update("last_fetched", at)
	return res.RowsAffected, res.Error
}

// DeleteTrendingOlderThan removes trending topics created before cutoff. Manual topics are
// never matched.
func (r *topicRepo) DeleteTrendingOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := dbc.DB(r.db).
		Where("type = ? AND created_at < ?", types.TopicTypeTrending, cutoff).
		Delete(&types.Topic{})
	return res.RowsAffected, res.Error
}

func (r *topicRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Topic{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "topic")
	}
	return nil
}
