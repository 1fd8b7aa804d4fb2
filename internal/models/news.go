package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// NewsSource selects a news provider.
type NewsSource string

const (
	NewsSourceRSS     NewsSource = "rss"
	NewsSourceAlpha   NewsSource = "alpha"
	NewsSourceFinnhub NewsSource = "finnhub"
)

// ParseNewsSources splits a comma-separated list, dropping unknown and
// duplicate names. Order of first appearance is kept.
func ParseNewsSources(s string) []NewsSource {
	var out []NewsSource
	seen := make(map[NewsSource]bool)
	for _, part := range strings.Split(s, ",") {
		src := NewsSource(strings.ToLower(strings.TrimSpace(part)))
		switch src {
		case NewsSourceRSS, NewsSourceAlpha, NewsSourceFinnhub:
			if !seen[src] {
				seen[src] = true
				out = append(out, src)
			}
		}
	}
	return out
}

// Published is a news timestamp. Raw always holds what the provider sent;
// Time is set only when Raw could be parsed.
type Published struct {
	Time *time.Time
	Raw  string
}

// publishedLayouts covers RSS/Atom dates and the Alpha Vantage compact form.
var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"20060102T150405",
	"20060102T1504",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePublished normalises a raw provider timestamp to UTC. Integer strings
// are read as Unix seconds. Unparseable values are kept raw.
func ParsePublished(raw string) Published {
	p := Published{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return p
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		t := time.Unix(secs, 0).UTC()
		p.Time = &t
		return p
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			p.Time = &t
			return p
		}
	}
	return p
}

// IsZero reports whether the provider sent no timestamp at all.
func (p Published) IsZero() bool {
	return p.Time == nil && p.Raw == ""
}

// MarshalJSON emits RFC3339 for parsed timestamps, null when the provider
// sent nothing, and the raw string otherwise.
func (p Published) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	if p.Time != nil {
		return json.Marshal(p.Time.Format(time.RFC3339))
	}
	return json.Marshal(p.Raw)
}

// UnmarshalJSON accepts either a string or a Unix-seconds number.
func (p *Published) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ParsePublished(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = ParsePublished(n.String())
	return nil
}

// NewsItem is one headline from any provider.
type NewsItem struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published Published `json:"published"`
	Sentiment *float64  `json:"sentiment,omitempty"`
	Category  string    `json:"category,omitempty"`
}

// NewsRequest carries the per-call parameters shared by all news providers.
type NewsRequest struct {
	Ticker string
	Query  string   // case-insensitive title filter, RSS only
	Limit  int      // entries per feed or per provider
	Days   int      // lookback window for date-ranged providers
	Feeds  []string // RSS feed override; empty means the default feed set
}

// NewsWarning records one source that failed during aggregation.
type NewsWarning struct {
	Source  NewsSource `json:"source"`
	Message string     `json:"message"`
}

// NewsResult is the aggregate of all selected sources.
type NewsResult struct {
	Items    []NewsItem    `json:"items"`
	Warnings []NewsWarning `json:"warnings,omitempty"`
}
