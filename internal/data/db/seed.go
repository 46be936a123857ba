package db

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/personapost-backend/internal/domain"
)

// SeedFile is the on-disk shape of a seed document.
type SeedFile struct {
	Personas []SeedPersona `yaml:"personas"`
	Topics   []SeedTopic   `yaml:"topics"`
}

type SeedPersona struct {
	Name         string   `yaml:"name"`
	Handle       string   `yaml:"handle"`
	Style        string   `yaml:"style"`
	SampleQuotes []string `yaml:"sample_quotes"`
	SystemPrompt string   `yaml:"system_prompt"`
	Occupation   string   `yaml:"occupation"`
	Era          string   `yaml:"era"`
	Active       *bool    `yaml:"active"`
}

type SeedTopic struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type SeedResult struct {
	PersonasCreated int
	TopicsCreated   int
}

func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	for i, p := range f.Personas {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Handle) == "" {
			return nil, fmt.Errorf("persona #%d: name and handle are required", i+1)
		}
	}
	for i, t := range f.Topics {
		if strings.TrimSpace(t.Title) == "" {
			return nil, fmt.Errorf("topic #%d: title is required", i+1)
		}
	}
	return &f, nil
}

// ApplySeed inserts personas (keyed by handle) and manual topics (keyed by title) that do not
// exist yet. Running it twice is a no-op.
func ApplySeed(db *gorm.DB, f *SeedFile) (SeedResult, error) {
	var res SeedResult
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, sp := range f.Personas {
			var existing types.Persona
			err := tx.Where("handle = ?", strings.TrimSpace(sp.Handle)).Take(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			active := true
			if sp.Active != nil {
				active = *sp.Active
			}
			p := &types.Persona{
				Name:         strings.TrimSpace(sp.Name),
				Handle:       strings.TrimSpace(sp.Handle),
				Style:        sp.Style,
				SampleQuotes: datatypes.JSONSlice[string](sp.SampleQuotes),
				SystemPrompt: sp.SystemPrompt,
				Occupation:   sp.Occupation,
				Era:          sp.Era,
				Active:       active,
			}
			if err := tx.Create(p).Error; err != nil {
				return err
			}
			res.PersonasCreated++
		}
		for _, st := range f.Topics {
			title := strings.TrimSpace(st.Title)
			var count int64
			if err := tx.Model(&types.Topic{}).
				Where("type = ? AND title = ?", types.TopicTypeManual, title).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			t := &types.Topic{Title: title, Type: types.TopicTypeManual, Active: true}
			if d := strings.TrimSpace(st.Description); d != "" {
				t.Description = &d
			}
			if err := tx.Create(t).Error; err != nil {
				return err
			}
			res.TopicsCreated++
		}
		return nil
	})
	return res, err
}
