package trends

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type Reddit struct {
	BaseURL   string
	Subreddit string
	Limit     int
	Client    *http.Client
}

func NewReddit(hc *http.Client) *Reddit {
	return &Reddit{BaseURL: "https://www.reddit.com", Subreddit: "popular", Limit: 25, Client: hc}
}

func (r *Reddit) Name() string { return SourceReddit }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				URL       string `json:"url"`
				Permalink string `json:"permalink"`
				Ups       int    `json:"ups"`
				Selftext  string `json:"selftext"`
				Over18    bool   `json:"over_18"`
				Stickied  bool   `json:"stickied"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *Reddit) Fetch(ctx context.Context) ([]Candidate, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = 25
	}
	endpoint := fmt.Sprintf("%s/r/%s/top.json?t=day&limit=%d", strings.TrimRight(r.BaseURL, "/"), r.Subreddit, limit)
	var listing redditListing
	if err := getJSON(ctx, r.Client, endpoint, &listing); err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		title := strings.TrimSpace(d.Title)
		if title == "" || d.Over18 || d.Stickied {
			continue
		}
		link := d.URL
		if d.Permalink != "" {
			link = "https://www.reddit.com" + d.Permalink
		}
		out = append(out, Candidate{
			Title:       title,
			Source:      SourceReddit,
			URL:         link,
			Score:       scorePtr(float64(d.Ups)),
			Description: shorten(d.Selftext, 280),
		})
	}
	return out, nil
}

func shorten(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}
