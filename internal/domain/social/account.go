package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is one authenticated publishing identity. AccessToken holds the sealed token.
type Account struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName    string     `gorm:"column:display_name;not null" json:"display_name"`
	Username       string     `gorm:"column:username" json:"username,omitempty"`
	PlatformUserID *string    `gorm:"column:platform_user_id;uniqueIndex" json:"platform_user_id,omitempty"`
	AccessToken    *string    `gorm:"column:access_token;type:text" json:"-"`
	TokenExpiresAt *time.Time `gorm:"column:token_expires_at;index" json:"token_expires_at,omitempty"`
	Active         bool       `gorm:"column:active;not null;index" json:"active"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "account" }

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// HasUsableCredential reports whether the account can publish at now: a token and a platform
// user id are present and the token has not expired. A nil expiry counts as non-expiring.
func (a *Account) HasUsableCredential(now time.Time) bool {
	if a == nil || a.AccessToken == nil || *a.AccessToken == "" {
		return false
	}
	if a.PlatformUserID == nil || *a.PlatformUserID == "" {
		return false
	}
	if a.TokenExpiresAt != nil && !a.TokenExpiresAt.After(now) {
		return false
	}
	return true
}

// Connected reports whether the account currently holds a token (expired or not).
func (a *Account) Connected() bool {
	return a != nil && a.AccessToken != nil && *a.AccessToken != ""
}
