package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	types "github.com/yungbote/personapost-backend/internal/domain"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/platform/openai"
)

const (
	maxPostLength   = 500
	maxPromptQuotes = 5
)

// ContentGenerator writes one post in a persona's voice.
type ContentGenerator interface {
	Generate(ctx context.Context, persona *types.Persona, topic string, extraContext string) (string, error)
}

type contentGenerator struct {
	log     *logger.Logger
	ai      openai.Client
	timeout time.Duration
}

// NewContentGenerator returns a generator whose calls are bounded by timeout (0 = caller's ctx only).
func NewContentGenerator(baseLog *logger.Logger, ai openai.Client, timeout time.Duration) ContentGenerator {
	return &contentGenerator{
		log:     baseLog.With("service", "ContentGenerator"),
		ai:      ai,
		timeout: timeout,
	}
}

func (g *contentGenerator) Generate(ctx context.Context, persona *types.Persona, topic string, extraContext string) (string, error) {
	if g.ai == nil {
		return "", perr.Generationf("content generator is not configured")
	}
	if persona == nil {
		return "", perr.Validationf("persona is required")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", perr.Validationf("topic is required")
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	system := buildPersonaSystemPrompt(persona)
	user := buildPostPrompt(topic, extraContext)
	raw, err := g.ai.GenerateText(ctx, system, user)
	if err != nil {
		g.log.Warn("content generation failed", "persona_id", persona.ID, "topic", topic, "error", err)
		return "", perr.Generation(err)
	}
	text := CleanGeneratedText(raw)
	if text == "" {
		return "", perr.Generationf("provider returned empty content")
	}
	return truncateRunes(text, maxPostLength), nil
}

func buildPersonaSystemPrompt(p *types.Persona) string {
	var b strings.Builder
	if sp := strings.TrimSpace(p.SystemPrompt); sp != "" {
		b.WriteString(sp)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "You are writing as %s.", p.Name)
	if p.Occupation != "" || p.Era != "" {
		b.WriteString(" Background:")
		if p.Occupation != "" {
			b.WriteString(" " + p.Occupation)
		}
		if p.Era != "" {
			b.WriteString(" (" + p.Era + ")")
		}
		b.WriteString(".")
	}
	if p.Style != "" {
		b.WriteString("\nVoice and style: " + p.Style)
	}
	quotes := p.SampleQuotes
	if len(quotes) > maxPromptQuotes {
		quotes = quotes[:maxPromptQuotes]
	}
	if len(quotes) > 0 {
		b.WriteString("\nThings you have said:")
		for _, q := range quotes {
			if q = strings.TrimSpace(q); q != "" {
				b.WriteString("\n- " + q)
			}
		}
	}
	b.WriteString("\nStay in character. Never mention that you are an AI.")
	return b.String()
}

func buildPostPrompt(topic, extra string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write one social media post about: %s\n", topic)
	if extra = strings.TrimSpace(extra); extra != "" {
		b.WriteString("Context:\n" + extra + "\n")
	}
	fmt.Fprintf(&b, "Keep it under %d characters. No hashtags unless they feel natural. Return only the post text.", maxPostLength)
	return b.String()
}

// CleanGeneratedText trims whitespace, code fences and one layer of wrapping quotes.
func CleanGeneratedText(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " \t") {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}} {
		if len(s) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			inner := s[len(pair[0]) : len(s)-len(pair[1])]
			if !strings.Contains(inner, pair[0]) {
				s = strings.TrimSpace(inner)
				break
			}
		}
	}
	return s
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}
