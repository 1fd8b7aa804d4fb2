package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/models"
)

const marketFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Market Wire</title>
    <link>https://example.com</link>
    <description>Markets</description>
    <item>
      <title>Stocks rally as Apple climbs</title>
      <link>https://example.com/1</link>
      <pubDate>Wed, 27 Mar 2024 14:30:00 GMT</pubDate>
    </item>
    <item>
      <title>Bond yields slip</title>
      <link>https://example.com/2</link>
      <pubDate>Wed, 27 Mar 2024 13:00:00 GMT</pubDate>
    </item>
    <item>
      <title>APPLE supplier update</title>
      <link>https://example.com/3</link>
    </item>
  </channel>
</rss>`

const untitledAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Atom headline</title>
    <link href="https://example.com/atom/1"/>
    <updated>2024-03-27T10:00:00Z</updated>
  </entry>
</feed>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/market.xml":
			w.Header().Set("Content-Type", "application/rss+xml")
			w.Write([]byte(marketFeed))
		case "/atom.xml":
			w.Header().Set("Content-Type", "application/atom+xml")
			w.Write([]byte(untitledAtom))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDefaultFeeds(t *testing.T) {
	assert.Len(t, DefaultFeeds(""), 2)

	withTicker := DefaultFeeds("AAPL")
	require.Len(t, withTicker, 4)
	assert.Contains(t, withTicker[2], "q=AAPL+stock")
	assert.Contains(t, withTicker[3], "s=AAPL")
}

func TestFetchNews_TagsSourceAndParsesDates(t *testing.T) {
	srv := feedServer(t)

	client := NewClient()
	items, err := client.FetchNews(context.Background(), models.NewsRequest{
		Feeds: []string{srv.URL + "/market.xml"},
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	for _, it := range items {
		assert.Equal(t, "Market Wire", it.Source)
	}
	require.NotNil(t, items[0].Published.Time)
	assert.Equal(t, time.Date(2024, 3, 27, 14, 30, 0, 0, time.UTC), *items[0].Published.Time)
	assert.True(t, items[2].Published.IsZero(), "entries without a date carry none")
}

func TestFetchNews_LimitPerFeed(t *testing.T) {
	srv := feedServer(t)

	items, err := NewClient().FetchNews(context.Background(), models.NewsRequest{
		Feeds: []string{srv.URL + "/market.xml", srv.URL + "/atom.xml"},
		Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, items, 2, "one entry from each feed")
	assert.Equal(t, "Stocks rally as Apple climbs", items[0].Title)
	assert.Equal(t, "Atom headline", items[1].Title)
}

func TestFetchNews_QueryFilterIsCaseInsensitive(t *testing.T) {
	srv := feedServer(t)

	items, err := NewClient().FetchNews(context.Background(), models.NewsRequest{
		Feeds: []string{srv.URL + "/market.xml"},
		Query: "apple",
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Contains(t, strings.ToLower(it.Title), "apple")
	}
}

func TestFetchNews_UntitledFeedUsesURL(t *testing.T) {
	srv := feedServer(t)
	feedURL := srv.URL + "/atom.xml"

	items, err := NewClient().FetchNews(context.Background(), models.NewsRequest{Feeds: []string{feedURL}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, feedURL, items[0].Source)
	require.NotNil(t, items[0].Published.Time)
}

func TestFetchNews_BrokenFeedReportedWithItems(t *testing.T) {
	srv := feedServer(t)

	items, err := NewClient().FetchNews(context.Background(), models.NewsRequest{
		Feeds: []string{srv.URL + "/missing.xml", srv.URL + "/market.xml"},
	})
	assert.Len(t, items, 3)

	partial, ok := common.AsPartial(err)
	require.True(t, ok, "expected PartialError, got %v", err)
	require.Len(t, partial.Failures, 1)
	assert.Contains(t, partial.Failures[0], "/missing.xml")
}

func TestFetchNews_AllFeedsFail(t *testing.T) {
	srv := feedServer(t)

	_, err := NewClient().FetchNews(context.Background(), models.NewsRequest{
		Feeds: []string{srv.URL + "/missing.xml"},
	})
	require.Error(t, err)
	assert.True(t, common.IsProviderError(err))
}

func TestFetchNews_ConfiguredFeedsUsedWhenRequestHasNone(t *testing.T) {
	srv := feedServer(t)

	client := NewClient(WithFeeds([]string{srv.URL + "/atom.xml"}))
	items, err := client.FetchNews(context.Background(), models.NewsRequest{Ticker: "AAPL"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Atom headline", items[0].Title)
}
