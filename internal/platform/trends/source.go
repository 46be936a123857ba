package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/yungbote/personapost-backend/internal/pkg/httpx"
)

const (
	SourceHackerNews   = "hackernews"
	SourceReddit       = "reddit"
	SourceGoogleTrends = "google_trends"
)

// DefaultScore ranks candidates whose feed reported no popularity.
const DefaultScore = 50.0

// Candidate is a trending topic as fetched, before it is persisted as a Topic.
type Candidate struct {
	Title       string
	Source      string
	URL         string
	Score       *float64
	Description string
}

// EffectiveScore is Score, or DefaultScore when the feed gave none.
func (c Candidate) EffectiveScore() float64 {
	if c.Score == nil {
		return DefaultScore
	}
	return *c.Score
}

// Source is one pollable trend feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Candidate, error)
}

const userAgent = "personapost-trends/1.0"

func getBody(ctx context.Context, hc *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.StatusError{StatusCode: resp.StatusCode, Body: httpx.Truncate(string(raw), 256)}
	}
	return raw, nil
}

func getJSON(ctx context.Context, hc *http.Client, rawURL string, out any) error {
	raw, err := getBody(ctx, hc, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("malformed feed response from %s: %w", rawURL, err)
	}
	return nil
}

func scorePtr(v float64) *float64 { return &v }
