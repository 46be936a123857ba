package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PostStatusDraft     = "draft"
	PostStatusPending   = "pending"
	PostStatusApproved  = "approved"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusRejected  = "rejected"
	PostStatusFailed    = "failed"
)

// PostStatuses lists every status in lifecycle order.
var PostStatuses = []string{
	PostStatusDraft,
	PostStatusPending,
	PostStatusApproved,
	PostStatusScheduled,
	PostStatusPublished,
	PostStatusRejected,
	PostStatusFailed,
}

func IsPostStatus(s string) bool {
	for _, v := range PostStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Post struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PersonaID   uuid.UUID  `gorm:"type:uuid;column:persona_id;not null;index" json:"persona_id"`
	AccountID   *uuid.UUID `gorm:"type:uuid;column:account_id;index" json:"account_id,omitempty"`
	ScheduleID  *uuid.UUID `gorm:"type:uuid;column:schedule_id;index" json:"schedule_id,omitempty"`
	Content     string     `gorm:"column:content;type:text;not null" json:"content"`
	Topic       *string    `gorm:"column:topic" json:"topic,omitempty"`
	Status      string     `gorm:"column:status;not null;index:idx_post_status_scheduled,priority:1" json:"status"`
	ScheduledAt *time.Time `gorm:"column:scheduled_at;index:idx_post_status_scheduled,priority:2" json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	ExternalID  *string    `gorm:"column:external_id" json:"external_id,omitempty"`
	Error       *string    `gorm:"column:error;type:text" json:"error,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Post) TableName() string { return "post" }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether no lifecycle edge leaves the post's status.
func (p *Post) IsTerminal() bool {
	switch p.Status {
	case PostStatusPublished, PostStatusRejected, PostStatusFailed:
		return true
	default:
		return false
	}
}
