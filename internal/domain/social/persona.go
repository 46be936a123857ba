package social

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Persona is a named voice profile that posts are generated for.
type Persona struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string                      `gorm:"column:name;not null" json:"name"`
	Handle       string                      `gorm:"column:handle;not null;uniqueIndex" json:"handle"`
	Style        string                      `gorm:"column:style;type:text" json:"style"`
	SampleQuotes datatypes.JSONSlice[string] `gorm:"column:sample_quotes" json:"sample_quotes"`
	SystemPrompt string                      `gorm:"column:system_prompt;type:text" json:"system_prompt"`
	Occupation   string                      `gorm:"column:occupation" json:"occupation,omitempty"`
	Era          string                      `gorm:"column:era" json:"era,omitempty"`
	Active       bool                        `gorm:"column:active;not null;index" json:"active"`
	CreatedAt    time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Persona) TableName() string { return "persona" }

func (p *Persona) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
