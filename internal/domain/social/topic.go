package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TopicTypeManual   = "manual"
	TopicTypeTrending = "trending"
)

// Topic is a persisted candidate subject. Trending rows are an audit and fallback cache and
// are garbage collected after a retention window; manual rows never are.
type Topic struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"column:title;not null;index" json:"title"`
	Type        string     `gorm:"column:type;not null;index" json:"type"`
	Source      *string    `gorm:"column:source;index" json:"source,omitempty"`
	URL         *string    `gorm:"column:url" json:"url,omitempty"`
	Score       *float64   `gorm:"column:score" json:"score,omitempty"`
	Description *string    `gorm:"column:description;type:text" json:"description,omitempty"`
	LastFetched *time.Time `gorm:"column:last_fetched" json:"last_fetched,omitempty"`
	Active      bool       `gorm:"column:active;not null;index" json:"active"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
