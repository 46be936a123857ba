package trends

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// GoogleTrends reads the daily trending searches RSS feed.
type GoogleTrends struct {
	BaseURL string
	Geo     string
	Client  *http.Client
}

func NewGoogleTrends(hc *http.Client, geo string) *GoogleTrends {
	if geo == "" {
		geo = "US"
	}
	return &GoogleTrends{BaseURL: "https://trends.google.com", Geo: geo, Client: hc}
}

func (g *GoogleTrends) Name() string { return SourceGoogleTrends }

type trendsRSS struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			Traffic string `xml:"approx_traffic"`
			News    []struct {
				Title string `xml:"news_item_title"`
				URL   string `xml:"news_item_url"`
			} `xml:"news_item"`
		} `xml:"item"`
	} `xml:"channel"`
}

func (g *GoogleTrends) Fetch(ctx context.Context) ([]Candidate, error) {
	endpoint := fmt.Sprintf("%s/trending/rss?geo=%s", strings.TrimRight(g.BaseURL, "/"), url.QueryEscape(g.Geo))
	raw, err := getBody(ctx, g.Client, endpoint)
	if err != nil {
		return nil, err
	}
	var feed trendsRSS
	if err := xml.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("malformed trends rss: %w", err)
	}
	out := make([]Candidate, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		c := Candidate{Title: title, Source: SourceGoogleTrends, URL: strings.TrimSpace(it.Link)}
		if len(it.News) > 0 {
			c.Description = strings.TrimSpace(it.News[0].Title)
			if c.URL == "" {
				c.URL = strings.TrimSpace(it.News[0].URL)
			}
		}
		if traffic, ok := parseTraffic(it.Traffic); ok {
			c.Score = scorePtr(traffic)
		}
		out = append(out, c)
	}
	return out, nil
}

// parseTraffic reads labels like "200,000+" or "2K+".
func parseTraffic(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "+"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		mult, s = 1e3, s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		mult, s = 1e6, s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}
