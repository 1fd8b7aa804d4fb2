package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nestegg/internal/clients/rss"
	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

type mockNews struct {
	name  string
	items []models.NewsItem
	err   error
	delay time.Duration
	calls int32
	req   models.NewsRequest
}

func (m *mockNews) Name() string { return m.name }

func (m *mockNews) FetchNews(_ context.Context, req models.NewsRequest) ([]models.NewsItem, error) {
	atomic.AddInt32(&m.calls, 1)
	m.req = req
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.items, m.err
}

func items(source string, titles ...string) []models.NewsItem {
	out := make([]models.NewsItem, len(titles))
	for i, t := range titles {
		out[i] = models.NewsItem{Source: source, Title: t}
	}
	return out
}

func TestFetchNews_FailingSourceBecomesWarning(t *testing.T) {
	wire := &mockNews{name: "RSS", items: items("Market Wire", "a", "b")}
	alpha := &mockNews{name: "Alpha Vantage", err: &common.ConfigurationError{Setting: "ALPHAVANTAGE_API_KEY", Provider: "Alpha Vantage"}}

	svc := NewService(map[models.NewsSource]interfaces.NewsProvider{
		models.NewsSourceRSS:   wire,
		models.NewsSourceAlpha: alpha,
	}, common.NewSilentLogger())

	res := svc.FetchNews(context.Background(), []models.NewsSource{models.NewsSourceRSS, models.NewsSourceAlpha}, models.NewsRequest{Ticker: "AAPL"})

	require.Len(t, res.Items, 2)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, models.NewsSourceAlpha, res.Warnings[0].Source)
	assert.Contains(t, res.Warnings[0].Message, "ALPHAVANTAGE_API_KEY")
}

func TestFetchNews_ConcatenatesInRequestOrder(t *testing.T) {
	// The first source is slowest so completion order differs from request order.
	finnhub := &mockNews{name: "Finnhub", items: items("Finnhub", "f1"), delay: 30 * time.Millisecond}
	wire := &mockNews{name: "RSS", items: items("Wire", "r1", "r2")}
	alpha := &mockNews{name: "Alpha Vantage", items: items("Alpha Vantage", "a1")}

	svc := NewService(map[models.NewsSource]interfaces.NewsProvider{
		models.NewsSourceRSS:     wire,
		models.NewsSourceAlpha:   alpha,
		models.NewsSourceFinnhub: finnhub,
	}, common.NewSilentLogger())

	res := svc.FetchNews(context.Background(),
		[]models.NewsSource{models.NewsSourceFinnhub, models.NewsSourceRSS, models.NewsSourceAlpha},
		models.NewsRequest{Ticker: "AAPL", Limit: 5})

	titles := make([]string, len(res.Items))
	for i, it := range res.Items {
		titles[i] = it.Title
	}
	assert.Equal(t, []string{"f1", "r1", "r2", "a1"}, titles)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 5, wire.req.Limit, "request is passed through")
}

func TestFetchNews_UnregisteredSourceWarns(t *testing.T) {
	svc := NewService(map[models.NewsSource]interfaces.NewsProvider{
		models.NewsSourceRSS: &mockNews{name: "RSS", items: items("Wire", "r1")},
	}, common.NewSilentLogger())

	res := svc.FetchNews(context.Background(), []models.NewsSource{models.NewsSourceFinnhub, models.NewsSourceRSS}, models.NewsRequest{})
	require.Len(t, res.Items, 1)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, models.NewsSourceFinnhub, res.Warnings[0].Source)
}

func TestFetchNews_NoSources(t *testing.T) {
	svc := NewService(nil, common.NewSilentLogger())

	res := svc.FetchNews(context.Background(), nil, models.NewsRequest{})
	require.NotNil(t, res)
	assert.NotNil(t, res.Items, "items encode as [] rather than null")
	assert.Empty(t, res.Items)
	assert.Empty(t, res.Warnings)
}

func TestFetchNews_AllSourcesFail(t *testing.T) {
	svc := NewService(map[models.NewsSource]interfaces.NewsProvider{
		models.NewsSourceRSS:     &mockNews{name: "RSS", err: &common.ProviderError{Provider: "RSS", Message: "all feeds failed"}},
		models.NewsSourceFinnhub: &mockNews{name: "Finnhub", err: &common.ProviderError{Provider: "Finnhub", Message: "API limit reached"}},
	}, common.NewSilentLogger())

	res := svc.FetchNews(context.Background(), []models.NewsSource{models.NewsSourceRSS, models.NewsSourceFinnhub}, models.NewsRequest{Ticker: "AAPL"})
	assert.Empty(t, res.Items)
	assert.Len(t, res.Warnings, 2)
}

func TestFetchNews_BrokenFeedBecomesWarningAndKeepsItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/good.xml" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Good Feed</title>
<item><title>Markets open higher</title><link>https://example.com/1</link></item></channel></rss>`))
	}))
	defer srv.Close()

	svc := NewService(map[models.NewsSource]interfaces.NewsProvider{
		models.NewsSourceRSS: rss.NewClient(),
	}, common.NewSilentLogger())

	res := svc.FetchNews(context.Background(), []models.NewsSource{models.NewsSourceRSS}, models.NewsRequest{
		Feeds: []string{srv.URL + "/good.xml", srv.URL + "/broken.xml"},
	})

	require.Len(t, res.Items, 1)
	assert.Equal(t, "Good Feed", res.Items[0].Source)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, models.NewsSourceRSS, res.Warnings[0].Source)
	assert.Contains(t, res.Warnings[0].Message, "/broken.xml")
}
