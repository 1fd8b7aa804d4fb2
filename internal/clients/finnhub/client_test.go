package finnhub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/models"
)

var fixedNow = time.Date(2024, 3, 28, 12, 0, 0, 0, time.UTC)

func newTestClient(url string) *Client {
	return NewClient("test-token",
		WithBaseURL(url),
		WithRateLimit(0),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func TestGetPrices_MissingKeyFailsBeforeNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).GetPrices(context.Background(), "AAPL", 60)
	require.Error(t, err)
	assert.True(t, common.IsConfigurationError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGetPrices_ParsesCandles(t *testing.T) {
	var captured *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		json.NewEncoder(w).Encode(map[string]interface{}{
			"s": "ok",
			"t": []int64{1711497600, 1711411200},
			"o": []float64{171.0, 170.0},
			"h": []float64{172.5, 171.5},
			"l": []float64{170.2, 169.1},
			"c": []float64{172.0, 170.9},
			"v": []float64{5000000, 4800000},
		})
	}))
	defer srv.Close()

	bars, err := newTestClient(srv.URL).GetPrices(context.Background(), "aapl", 60)
	require.NoError(t, err)

	assert.Equal(t, "/stock/candle", captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, "AAPL", q.Get("symbol"))
	assert.Equal(t, "D", q.Get("resolution"))
	assert.Equal(t, "1711627200", q.Get("to"))
	assert.Equal(t, "1706443200", q.Get("from"), "from = now - 60 days")
	assert.Equal(t, "test-token", q.Get("token"))

	require.Len(t, bars, 2)
	assert.Equal(t, "2024-03-26", bars[0].Date.Format("2006-01-02"))
	assert.Equal(t, 170.9, bars[0].Close)
	assert.Equal(t, int64(5000000), bars[1].Volume)
	assert.Nil(t, bars[1].AdjustedClose)
}

func TestGetPrices_NoDataStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetPrices(context.Background(), "AAPL", 60)
	require.Error(t, err)
	assert.True(t, common.IsNoData(err))
}

func TestGetPrices_AccessDeniedIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"You don't have access to this resource."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetPrices(context.Background(), "AAPL", 60)
	require.Error(t, err)
	assert.True(t, common.IsProviderError(err))
	assert.Contains(t, err.Error(), "access to this resource")
}

func TestFetchNews_DateRangeAndLimit(t *testing.T) {
	var captured *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"category": "company", "datetime": 1711540800, "headline": "Apple event", "source": "Reuters", "url": "https://example.com/1"},
			{"category": "company", "datetime": 1711454400, "headline": "Supplier news", "source": "CNBC", "url": "https://example.com/2"},
			{"category": "company", "datetime": 1711368000, "headline": "Older item", "source": "CNBC", "url": "https://example.com/3"},
		})
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).FetchNews(context.Background(), models.NewsRequest{Ticker: "aapl", Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, "/company-news", captured.URL.Path)
	q := captured.URL.Query()
	assert.Equal(t, "AAPL", q.Get("symbol"))
	assert.Equal(t, "2024-03-14", q.Get("from"), "default window is 14 days")
	assert.Equal(t, "2024-03-28", q.Get("to"))

	require.Len(t, items, 2)
	assert.Equal(t, ProviderName, items[0].Source)
	assert.Equal(t, "Apple event", items[0].Title)
	assert.Equal(t, "company", items[0].Category)
	require.NotNil(t, items[0].Published.Time)
	assert.Equal(t, time.Unix(1711540800, 0).UTC(), *items[0].Published.Time)
}

func TestFetchNews_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"API limit reached. Please try again later."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchNews(context.Background(), models.NewsRequest{Ticker: "AAPL"})
	require.Error(t, err)
	assert.True(t, common.IsProviderError(err))
	assert.Contains(t, err.Error(), "API limit reached")
}

func TestFetchNews_MissingKey(t *testing.T) {
	_, err := NewClient("").FetchNews(context.Background(), models.NewsRequest{Ticker: "AAPL"})
	assert.True(t, common.IsConfigurationError(err))
}
