// Package rss fetches headlines from RSS and Atom feeds
package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

const (
	ProviderName = "RSS"
	DefaultLimit = 25
)

// generalFeeds are always included in the default feed set.
var generalFeeds = []string{
	"https://news.google.com/rss/search?q=stock+market&hl=en-US&gl=US&ceid=US:en",
	"https://feeds.marketwatch.com/marketwatch/topstories",
}

// DefaultFeeds returns the general market feeds plus two ticker-specific
// feeds when ticker is non-empty.
func DefaultFeeds(ticker string) []string {
	feeds := append([]string(nil), generalFeeds...)
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return feeds
	}
	feeds = append(feeds,
		fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en", url.QueryEscape(ticker+" stock")),
		fmt.Sprintf("https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US", url.QueryEscape(ticker)),
	)
	return feeds
}

// Client implements interfaces.NewsProvider for generic feeds.
type Client struct {
	parser  *gofeed.Parser
	logger  *common.Logger
	timeout time.Duration
	feeds   []string
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the per-feed HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithFeeds replaces the default feed set for requests that carry no feeds
func WithFeeds(feeds []string) ClientOption {
	return func(c *Client) {
		c.feeds = append([]string(nil), feeds...)
	}
}

// NewClient creates a new feed client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		logger:  common.NewSilentLogger(),
		timeout: common.DefaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.parser = gofeed.NewParser()
	c.parser.Client = &http.Client{Timeout: c.timeout}
	c.parser.UserAgent = "Mozilla/5.0 (compatible; nestegg/1.0)"

	return c
}

func (c *Client) Name() string { return ProviderName }

// feedsFor resolves the feed list: request override, then configured feeds,
// then the built-in defaults.
func (c *Client) feedsFor(req models.NewsRequest) []string {
	if len(req.Feeds) > 0 {
		return req.Feeds
	}
	if len(c.feeds) > 0 {
		return c.feeds
	}
	return DefaultFeeds(req.Ticker)
}

// FetchNews parses each feed and takes up to req.Limit entries per feed,
// keeping only titles containing req.Query (case-insensitive) when set.
// Items from working feeds are returned with a common.PartialError naming the
// broken ones. The call fails outright only when every feed fails.
func (c *Client) FetchNews(ctx context.Context, req models.NewsRequest) ([]models.NewsItem, error) {
	feeds := c.feedsFor(req)
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := strings.ToLower(strings.TrimSpace(req.Query))

	var (
		items    []models.NewsItem
		failures []string
	)
	for _, feedURL := range feeds {
		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			c.logger.Warn().Str("feed", feedURL).Err(err).Msg("Failed to parse feed")
			failures = append(failures, fmt.Sprintf("%s: %v", feedURL, err))
			continue
		}
		items = append(items, entriesFrom(feed, feedURL, limit, query)...)
	}

	if len(feeds) > 0 && len(failures) == len(feeds) {
		return nil, &common.ProviderError{
			Provider: ProviderName,
			Message:  fmt.Sprintf("all %d feeds failed: %s", len(feeds), strings.Join(failures, "; ")),
		}
	}
	if len(failures) > 0 {
		return items, &common.PartialError{Provider: ProviderName, Failures: failures}
	}
	return items, nil
}

func entriesFrom(feed *gofeed.Feed, feedURL string, limit int, query string) []models.NewsItem {
	source := feed.Title
	if source == "" {
		source = feedURL
	}

	entries := feed.Items
	if len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]models.NewsItem, 0, len(entries))
	for _, e := range entries {
		if query != "" && !strings.Contains(strings.ToLower(e.Title), query) {
			continue
		}
		item := models.NewsItem{
			Source: source,
			Title:  e.Title,
			Link:   e.Link,
		}
		raw := e.Published
		if raw == "" {
			raw = e.Updated
		}
		if raw != "" {
			item.Published = models.ParsePublished(raw)
			if item.Published.Time == nil && e.PublishedParsed != nil {
				t := e.PublishedParsed.UTC()
				item.Published.Time = &t
			}
		}
		items = append(items, item)
	}
	return items
}

// Ensure Client implements NewsProvider
var _ interfaces.NewsProvider = (*Client)(nil)
