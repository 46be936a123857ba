package trends

import (
	"net/http"
	"strings"
)

// BuildSources maps configured source tags to feed clients. Unknown tags are returned separately.
func BuildSources(hc *http.Client, names []string, geo string) ([]Source, []string) {
	var (
		out     []Source
		unknown []string
		seen    = map[string]bool{}
	)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		switch name {
		case SourceHackerNews:
			out = append(out, NewHackerNews(hc))
		case SourceReddit:
			out = append(out, NewReddit(hc))
		case SourceGoogleTrends:
			out = append(out, NewGoogleTrends(hc, geo))
		default:
			unknown = append(unknown, raw)
		}
	}
	return out, unknown
}
