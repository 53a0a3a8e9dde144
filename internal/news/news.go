// Package news collects recent headlines for a keyword from an RSS/Atom search feed.
package news

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/hyperjump/trendlens/pkg/utils"
)

// Config configures a Feed.
type Config struct {
	// FeedURL may contain one %s, replaced by the query-escaped keyword.
	FeedURL    string
	MaxItems   int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Feed fetches headlines from a search feed.
type Feed struct {
	cfg    Config
	client *http.Client
	policy *bluemonday.Policy
	logger *zap.Logger
}

// NewFeed returns a Feed. MaxItems defaults to 10 and Timeout to 5s.
func NewFeed(cfg Config) *Feed {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{cfg: cfg, client: client, policy: bluemonday.StrictPolicy(), logger: logger}
}

// Headline is one feed item reduced to plain text.
type Headline struct {
	Title       string
	Description string
	Link        string
	Published   *time.Time
}

// Text returns the title followed by the description when it adds anything.
func (h Headline) Text() string {
	if h.Description == "" || strings.Contains(h.Title, h.Description) {
		return h.Title
	}
	return h.Title + ". " + h.Description
}

// Headlines fetches up to MaxItems headlines for keyword.
func (f *Feed) Headlines(ctx context.Context, keyword string) ([]Headline, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = f.client
	feed, err := fp.ParseURLWithContext(f.feedURL(keyword), ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch news feed: %w", err)
	}

	out := make([]Headline, 0, min(len(feed.Items), f.cfg.MaxItems))
	for _, item := range feed.Items {
		if len(out) >= f.cfg.MaxItems {
			break
		}
		title := f.plain(item.Title)
		if title == "" {
			continue
		}
		out = append(out, Headline{
			Title:       title,
			Description: descriptionText(item.Description),
			Link:        item.Link,
			Published:   item.PublishedParsed,
		})
	}
	f.logger.Debug("news headlines fetched", zap.String("keyword", keyword), zap.Int("count", len(out)))
	return out, nil
}

func (f *Feed) feedURL(keyword string) string {
	if strings.Contains(f.cfg.FeedURL, "%s") {
		return fmt.Sprintf(f.cfg.FeedURL, url.QueryEscape(keyword))
	}
	return f.cfg.FeedURL
}

func (f *Feed) plain(s string) string {
	return utils.CollapseSpace(html.UnescapeString(f.policy.Sanitize(s)))
}

// descriptionText extracts readable text from an HTML item description.
func descriptionText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return utils.CollapseSpace(raw)
	}
	return utils.CollapseSpace(doc.Text())
}

// Corpus joins headline texts into one document for sentiment scoring.
func Corpus(headlines []Headline) string {
	parts := make([]string, 0, len(headlines))
	for _, h := range headlines {
		parts = append(parts, h.Text())
	}
	return strings.Join(parts, "\n")
}

// Titles returns the headline titles in order.
func Titles(headlines []Headline) []string {
	out := make([]string, len(headlines))
	for i, h := range headlines {
		out[i] = h.Title
	}
	return out
}
