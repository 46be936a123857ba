package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"gorm.io/datatypes"

	types "github.com/yungbote/personapost-backend/internal/domain"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

func TestCleanGeneratedText(t *testing.T) {
	cases := map[string]string{
		"  plain text  ":                 "plain text",
		`"quoted post"`:                  "quoted post",
		"“curly quoted”":                 "curly quoted",
		"```\nfenced post\n```":          "fenced post",
		"```text\nfenced with lang\n```": "fenced with lang",
		`"one" and "two"`:                `"one" and "two"`,
	}
	for in, want := range cases {
		if got := CleanGeneratedText(in); got != want {
			t.Fatalf("CleanGeneratedText(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestContentGeneratorPromptAndLimits(t *testing.T) {
	ai := &fakeAI{text: `"` + strings.Repeat("x", 700) + `"`}
	gen := NewContentGenerator(logger.Nop(), ai, 0)
	persona := &types.Persona{
		Name:         "Ada Lovelace",
		Occupation:   "mathematician",
		Era:          "19th century",
		Style:        "precise",
		SystemPrompt: "Be kind.",
		SampleQuotes: datatypes.JSONSlice[string]{"q1", "q2", "q3", "q4", "q5", "q6"},
	}
	out, err := gen.Generate(context.Background(), persona, "Analytical engines", "Context line")
	noError(t, err, "Generate")
	if utf8.RuneCountInString(out) != maxPostLength {
		t.Fatalf("length: %d", utf8.RuneCountInString(out))
	}
	system := ai.systems[0]
	for _, want := range []string{"Be kind.", "Ada Lovelace", "mathematician", "19th century", "precise", "q5"} {
		if !strings.Contains(system, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, system)
		}
	}
	if strings.Contains(system, "q6") {
		t.Fatalf("system prompt carries more than %d quotes", maxPromptQuotes)
	}
	if !strings.Contains(ai.users[0], "Analytical engines") || !strings.Contains(ai.users[0], "Context line") {
		t.Fatalf("user prompt: %s", ai.users[0])
	}
}

func TestContentGeneratorErrors(t *testing.T) {
	persona := &types.Persona{Name: "Ada"}
	gen := NewContentGenerator(logger.Nop(), &fakeAI{err: errors.New("openai 500")}, 0)
	if _, err := gen.Generate(context.Background(), persona, "t", ""); !errors.Is(err, perr.ErrGeneration) {
		t.Fatalf("provider error: want ErrGeneration, got %v", err)
	}
	gen = NewContentGenerator(logger.Nop(), &fakeAI{text: "  \"\"  "}, 0)
	if _, err := gen.Generate(context.Background(), persona, "t", ""); !errors.Is(err, perr.ErrGeneration) {
		t.Fatalf("empty output: want ErrGeneration, got %v", err)
	}
	gen = NewContentGenerator(logger.Nop(), nil, 0)
	if _, err := gen.Generate(context.Background(), persona, "t", ""); !errors.Is(err, perr.ErrGeneration) {
		t.Fatalf("unconfigured: want ErrGeneration, got %v", err)
	}
}

func TestPersonaAnalyzer(t *testing.T) {
	ai := &fakeAI{obj: map[string]any{
		"name":          "Marie Curie",
		"handle":        "@Marie Curie",
		"era":           "1900s",
		"occupation":    "physicist",
		"style":         "measured",
		"sample_quotes": []any{"Nothing in life is to be feared."},
		"system_prompt": "You are Marie Curie.",
	}}
	profile, err := NewPersonaAnalyzer(logger.Nop(), ai).Analyze(context.Background(), "Marie Curie")
	noError(t, err, "Analyze")
	if profile.Handle != "marie_curie" || len(profile.SampleQuotes) != 1 || profile.Occupation != "physicist" {
		t.Fatalf("profile: %+v", profile)
	}

	bad := &fakeAI{obj: map[string]any{"name": 42}}
	if _, err := NewPersonaAnalyzer(logger.Nop(), bad).Analyze(context.Background(), "X"); !errors.Is(err, perr.ErrGeneration) {
		t.Fatalf("malformed: want ErrGeneration, got %v", err)
	}
	missing := &fakeAI{obj: map[string]any{"handle": "x"}}
	if _, err := NewPersonaAnalyzer(logger.Nop(), missing).Analyze(context.Background(), "X"); !errors.Is(err, perr.ErrGeneration) {
		t.Fatalf("missing name: want ErrGeneration, got %v", err)
	}
}
