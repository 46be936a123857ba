package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Schedule is a recurring generation policy for one (persona, account) pair. Slots are
// whole-hour "HH:00" labels evaluated in UTC; Timezone is informational.
type Schedule struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	PersonaID    uuid.UUID                   `gorm:"type:uuid;column:persona_id;not null;uniqueIndex:idx_schedule_persona_account,priority:1" json:"persona_id"`
	AccountID    uuid.UUID                   `gorm:"type:uuid;column:account_id;not null;uniqueIndex:idx_schedule_persona_account,priority:2;index" json:"account_id"`
	PostsPerDay  int                         `gorm:"column:posts_per_day;not null" json:"posts_per_day"`
	PostingTimes datatypes.JSONSlice[string] `gorm:"column:posting_times" json:"posting_times"`
	Timezone     string                      `gorm:"column:timezone" json:"timezone,omitempty"`
	AutoApprove  bool                        `gorm:"column:auto_approve;not null" json:"auto_approve"`
	Active       bool                        `gorm:"column:active;not null;index" json:"active"`
	LastRunAt    *time.Time                  `gorm:"column:last_run_at" json:"last_run_at,omitempty"`
	CreatedAt    time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Schedule) TableName() string { return "schedule" }

func (s *Schedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// HasSlot is an exact label match against the schedule's posting times.
func (s *Schedule) HasSlot(slot string) bool {
	for _, t := range s.PostingTimes {
		if t == slot {
			return true
		}
	}
	return false
}
