package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type AccountRepo interface {
	Create(dbc dbctx.Context, a *types.Account) (*types.Account, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Account, error)
	List(dbc dbctx.Context) ([]*types.Account, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpsertByPlatformUserID(dbc dbctx.Context, a *types.Account) (*types.Account, error)
	ListActiveExpiringBefore(dbc dbctx.Context, cutoff time.Time) ([]*types.Account, error)
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return &accountRepo{
		db:  db,
		log: baseLog.With("repo", "AccountRepo"),
	}
}

func (r *accountRepo) Create(dbc dbctx.Context, a *types.Account) (*types.Account, error) {
	if err := dbc.DB(r.db).Create(a).Error; err != nil {
		return nil, translate(err, "account")
	}
	return a, nil
}

func (r *accountRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Account, error) {
	var a types.Account
	if err := dbc.DB(r.db).Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, translate(err, "account")
	}
	return &a, nil
}

func (r *accountRepo) List(dbc dbctx.Context) ([]*types.Account, error) {
	var out []*types.Account
	if err := dbc.DB(r.db).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accountRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Account{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error, "account")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "account")
	}
	return nil
}

// UpsertByPlatformUserID inserts a, or refreshes the credentials and profile of the row that
// already carries a.PlatformUserID. The stored row is returned.
func (r *accountRepo) UpsertByPlatformUserID(dbc dbctx.Context, a *types.Account) (*types.Account, error) {
	if a.PlatformUserID == nil || *a.PlatformUserID == "" {
		return nil, perr.Validationf("platform user id required for upsert")
	}
	db := dbc.DB(r.db)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "username", "access_token", "token_expires_at", "active", "updated_at",
		}),
	}).Create(a).Error
	if err != nil {
		return nil, translate(err, "account")
	}
	var stored types.Account
	if err := db.Where("platform_user_id = ?", *a.PlatformUserID).Take(&stored).Error; err != nil {
		return nil, translate(err, "account")
	}
	return &stored, nil
}

// ListActiveExpiringBefore returns connected, active accounts whose token expires before cutoff.
func (r *accountRepo) ListActiveExpiringBefore(dbc dbctx.Context, cutoff time.Time) ([]*types.Account, error) {
	var out []*types.Account
	err := dbc.DB(r.db).
		Where("active = ? AND access_token IS NOT NULL AND access_token <> '' AND token_expires_at IS NOT NULL AND token_expires_at < ?", true, cutoff).
		Order("token_expires_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
