package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/personapost-backend/internal/domain"
)

func SeedPersona(tb testing.TB, tx *gorm.DB, handle string) *types.Persona {
	tb.Helper()
	p := &types.Persona{
		ID:           uuid.New(),
		Name:         "Persona " + handle,
		Handle:       handle,
		Style:        "dry, curious",
		SampleQuotes: datatypes.JSONSlice[string]{"Measure twice."},
		SystemPrompt: "You are a thoughtful writer.",
		Occupation:   "scientist",
		Active:       true,
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed persona: %v", err)
	}
	return p
}

// SeedAccount creates a connected account. A nil expiresAt means the token never expires.
func SeedAccount(tb testing.TB, tx *gorm.DB, token string, expiresAt *time.Time) *types.Account {
	tb.Helper()
	platformID := uuid.NewString()
	a := &types.Account{
		ID:             uuid.New(),
		DisplayName:    "Account",
		Username:       "acct",
		PlatformUserID: &platformID,
		TokenExpiresAt: expiresAt,
		Active:         true,
	}
	if token != "" {
		a.AccessToken = &token
	}
	if err := tx.Create(a).Error; err != nil {
		tb.Fatalf("seed account: %v", err)
	}
	return a
}

func SeedSchedule(tb testing.TB, tx *gorm.DB, personaID, accountID uuid.UUID, slots []string, autoApprove bool) *types.Schedule {
	tb.Helper()
	s := &types.Schedule{
		ID:           uuid.New(),
		PersonaID:    personaID,
		AccountID:    accountID,
		PostsPerDay:  len(slots),
		PostingTimes: datatypes.JSONSlice[string](slots),
		Timezone:     "UTC",
		AutoApprove:  autoApprove,
		Active:       true,
	}
	if err := tx.Create(s).Error; err != nil {
		tb.Fatalf("seed schedule: %v", err)
	}
	return s
}

func SeedPost(tb testing.TB, tx *gorm.DB, personaID uuid.UUID, accountID *uuid.UUID, status string, scheduledAt *time.Time) *types.Post {
	tb.Helper()
	p := &types.Post{
		ID:          uuid.New(),
		PersonaID:   personaID,
		AccountID:   accountID,
		Content:     "hello from a test",
		Status:      status,
		ScheduledAt: scheduledAt,
	}
	if status == types.PostStatusPublished {
		now := time.Now().UTC()
		ext := "remote-" + p.ID.String()
		p.PublishedAt = &now
		p.ExternalID = &ext
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed post: %v", err)
	}
	return p
}

// SeedTopic creates an active topic; a non-zero createdAt backdates it.
func SeedTopic(tb testing.TB, tx *gorm.DB, title, topicType string, createdAt time.Time) *types.Topic {
	tb.Helper()
	t := &types.Topic{
		ID:        uuid.New(),
		Title:     title,
		Type:      topicType,
		Active:    true,
		CreatedAt: createdAt,
	}
	if err := tx.Create(t).Error; err != nil {
		tb.Fatalf("seed topic: %v", err)
	}
	return t
}
