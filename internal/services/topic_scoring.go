package services

import (
	"strings"
	"unicode"

	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/platform/trends"
)

// TopicScorer ranks a trending candidate for a persona. Higher is better.
type TopicScorer func(persona *types.Persona, c trends.Candidate) float64

const (
	categoryBoost  = 1.5
	universalBoost = 1.2
)

// occupationCategories maps an occupation-category to the occupation words that select it
// and the title keywords it boosts.
var occupationCategories = map[string]struct {
	occupations []string
	keywords    []string
}{
	"science": {
		occupations: []string{"scientist", "physicist", "chemist", "biologist", "astronomer", "naturalist", "mathematician", "doctor", "physician"},
		keywords:    []string{"science", "research", "study", "space", "nasa", "physics", "climate", "discovery", "quantum", "biology", "health", "medicine", "planet", "species"},
	},
	"tech": {
		occupations: []string{"engineer", "inventor", "programmer", "developer", "technologist", "founder"},
		keywords:    []string{"ai", "tech", "software", "app", "robot", "chip", "startup", "computer", "internet", "code", "apple", "google", "openai", "data"},
	},
	"business": {
		occupations: []string{"entrepreneur", "industrialist", "investor", "banker", "executive", "economist", "merchant"},
		keywords:    []string{"market", "stock", "economy", "business", "company", "ceo", "deal", "billion", "trade", "inflation", "bank", "earnings"},
	},
	"philosophy": {
		occupations: []string{"philosopher", "writer", "poet", "theologian", "author", "playwright", "novelist"},
		keywords:    []string{"meaning", "life", "ethics", "truth", "mind", "happiness", "death", "freedom", "culture", "art", "book"},
	},
	"politics": {
		occupations: []string{"politician", "president", "statesman", "senator", "general", "diplomat", "activist", "revolutionary", "king", "queen", "emperor"},
		keywords:    []string{"election", "president", "government", "law", "war", "policy", "vote", "senate", "congress", "court", "minister", "rights"},
	},
}

var engagingKeywords = map[string]bool{
	"why": true, "how": true, "vs": true, "versus": true, "secret": true,
	"future": true, "first": true, "surprising": true, "mystery": true,
}

// OccupationCategory returns the category a persona's occupation falls into, or "".
func OccupationCategory(occupation string) string {
	words := titleWords(occupation)
	for _, name := range []string{"science", "tech", "business", "philosophy", "politics"} {
		for _, occ := range occupationCategories[name].occupations {
			for w := range words {
				if strings.HasPrefix(w, occ) {
					return name
				}
			}
		}
	}
	return ""
}

// DefaultTopicScorer is popularity times keyword-affinity boosts.
func DefaultTopicScorer(persona *types.Persona, c trends.Candidate) float64 {
	score := c.EffectiveScore()
	words := titleWords(c.Title)
	if persona != nil {
		if cat := OccupationCategory(persona.Occupation); cat != "" {
			for _, kw := range occupationCategories[cat].keywords {
				if words[kw] {
					score *= categoryBoost
					break
				}
			}
		}
	}
	for w := range words {
		if engagingKeywords[w] {
			score *= universalBoost
			break
		}
	}
	return score
}

func titleWords(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}
