package services

import (
	"context"
	"encoding/json"
	"strings"

	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/platform/openai"
)

// PersonaProfile is an analyzer-suggested persona. It is never saved by the analyzer.
type PersonaProfile struct {
	Name         string   `json:"name"`
	Handle       string   `json:"handle"`
	Era          string   `json:"era"`
	Occupation   string   `json:"occupation"`
	Style        string   `json:"style"`
	SampleQuotes []string `json:"sample_quotes"`
	SystemPrompt string   `json:"system_prompt"`
}

type PersonaAnalyzer interface {
	Analyze(ctx context.Context, personName string) (*PersonaProfile, error)
}

type personaAnalyzer struct {
	log *logger.Logger
	ai  openai.Client
}

func NewPersonaAnalyzer(baseLog *logger.Logger, ai openai.Client) PersonaAnalyzer {
	return &personaAnalyzer{log: baseLog.With("service", "PersonaAnalyzer"), ai: ai}
}

var personaProfileSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"name", "handle", "era", "occupation", "style", "sample_quotes", "system_prompt"},
	"properties": map[string]any{
		"name":          map[string]any{"type": "string"},
		"handle":        map[string]any{"type": "string"},
		"era":           map[string]any{"type": "string"},
		"occupation":    map[string]any{"type": "string"},
		"style":         map[string]any{"type": "string"},
		"sample_quotes": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"system_prompt": map[string]any{"type": "string"},
	},
}

func (a *personaAnalyzer) Analyze(ctx context.Context, personName string) (*PersonaProfile, error) {
	personName = strings.TrimSpace(personName)
	if personName == "" {
		return nil, perr.Validationf("name is required")
	}
	if a.ai == nil {
		return nil, perr.Generationf("persona analyzer is not configured")
	}
	system := "You build writing personas for social media accounts. Describe how the person writes, " +
		"not their biography. The handle is lowercase letters, digits and underscores."
	user := "Build a persona for: " + personName
	obj, err := a.ai.GenerateJSON(ctx, system, user, "persona_profile", personaProfileSchema)
	if err != nil {
		return nil, perr.Generation(err)
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, perr.Generation(err)
	}
	var out PersonaProfile
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, perr.Generationf("malformed persona profile: %v", err)
	}
	out.Name = strings.TrimSpace(out.Name)
	if out.Name == "" {
		return nil, perr.Generationf("malformed persona profile: missing name")
	}
	out.Handle = normalizeHandle(out.Handle, out.Name)
	a.log.Debug("persona drafted", "name", out.Name, "handle", out.Handle)
	return &out, nil
}

func normalizeHandle(handle, fallback string) string {
	src := strings.TrimSpace(handle)
	if src == "" {
		src = fallback
	}
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimPrefix(src, "@")) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
