package trends

import (
	"sort"
	"strings"
	"unicode"
)

const dedupePrefixLen = 48

// DedupeKey lowercases title, keeps letters and digits only, and cuts it to the first
// dedupePrefixLen runes.
func DedupeKey(title string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.ToLower(title) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
		n++
		if n >= dedupePrefixLen {
			break
		}
	}
	return b.String()
}

// Dedupe keeps one candidate per DedupeKey, preferring the higher score. First-seen order is kept.
func Dedupe(in []Candidate) []Candidate {
	index := make(map[string]int, len(in))
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		key := DedupeKey(c.Title)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			if c.EffectiveScore() > out[i].EffectiveScore() {
				out[i] = c
			}
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	return out
}

// Rank sorts by effective score, highest first. Ties keep input order.
func Rank(in []Candidate) []Candidate {
	out := append([]Candidate(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveScore() > out[j].EffectiveScore()
	})
	return out
}

// ScaleScores rescales each source's scores onto 0..100 against that source's maximum, so
// feeds that count upvotes and feeds that count searches rank against each other.
func ScaleScores(in []Candidate) []Candidate {
	maxBySource := map[string]float64{}
	for _, c := range in {
		if c.Score != nil && *c.Score > maxBySource[c.Source] {
			maxBySource[c.Source] = *c.Score
		}
	}
	out := make([]Candidate, len(in))
	for i, c := range in {
		out[i] = c
		if c.Score == nil {
			continue
		}
		max := maxBySource[c.Source]
		if max <= 0 {
			out[i].Score = scorePtr(0)
			continue
		}
		out[i].Score = scorePtr(100 * *c.Score / max)
	}
	return out
}
