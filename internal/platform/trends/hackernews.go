package trends

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
)

type HackerNews struct {
	BaseURL string
	Limit   int
	Client  *http.Client
}

func NewHackerNews(hc *http.Client) *HackerNews {
	return &HackerNews{BaseURL: "https://hacker-news.firebaseio.com", Limit: 15, Client: hc}
}

func (h *HackerNews) Name() string { return SourceHackerNews }

type hnItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
	Type  string `json:"type"`
	Dead  bool   `json:"dead"`
}

func (h *HackerNews) Fetch(ctx context.Context) ([]Candidate, error) {
	base := strings.TrimRight(h.BaseURL, "/")
	var ids []int64
	if err := getJSON(ctx, h.Client, base+"/v0/topstories.json", &ids); err != nil {
		return nil, err
	}
	limit := h.Limit
	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}
	items := make([]hnItem, limit)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)
	for i := 0; i < limit; i++ {
		g.Go(func() error {
			return getJSON(gctx, h.Client, fmt.Sprintf("%s/v0/item/%d.json", base, ids[i]), &items[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, limit)
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" || it.Dead || (it.Type != "" && it.Type != "story") {
			continue
		}
		link := it.URL
		if link == "" {
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
		}
		out = append(out, Candidate{
			Title:  title,
			Source: SourceHackerNews,
			URL:    link,
			Score:  scorePtr(float64(it.Score)),
		})
	}
	return out, nil
}
