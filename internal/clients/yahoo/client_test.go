package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nestegg/internal/common"
)

var fixedNow = time.Date(2024, 3, 28, 15, 30, 0, 0, time.UTC)

const chartBody = `{
  "chart": {
    "result": [{
      "timestamp": [1711546200, 1711459800, 1711632600],
      "indicators": {
        "quote": [{
          "open":   [171.75, 170.00, null],
          "high":   [173.60, 171.90, 172.00],
          "low":    [170.90, 169.50, 170.10],
          "close":  [173.31, 171.48, 171.20],
          "volume": [60273300, 57388400, 41000000]
        }],
        "adjclose": [{"adjclose": [172.90, 171.08, 170.80]}]
      }
    }],
    "error": null
  }
}`

func TestGetPrices_ParsesAndSortsBars(t *testing.T) {
	var captured *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithClock(func() time.Time { return fixedNow }))
	bars, err := client.GetPrices(context.Background(), "AAPL", 120)
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, "/v8/finance/chart/AAPL", captured.URL.Path)
	q := captured.URL.Query()
	today := time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "1d", q.Get("interval"))
	assert.Equal(t, "1711584000", q.Get("period2"), "period2 is today at midnight UTC")
	assert.Equal(t, today.AddDate(0, 0, -120).Unix(), mustInt(t, q.Get("period1")))

	// The null-open bar is skipped; the rest are ascending.
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Date.Before(bars[1].Date))
	assert.Equal(t, 171.48, bars[0].Close)
	assert.Equal(t, 173.31, bars[1].Close)
	assert.Equal(t, int64(60273300), bars[1].Volume)
	require.NotNil(t, bars[1].AdjustedClose)
	assert.Equal(t, 172.90, *bars[1].AdjustedClose)
}

func TestGetPrices_DatesBarsOnExchangeDay(t *testing.T) {
	// ASX opens at 10:00 AEDT, which is 23:00 UTC on the previous day.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{
			"meta":{"gmtoffset":39600,"exchangeTimezoneName":"Australia/Sydney"},
			"timestamp":[1709506800,1709593200],
			"indicators":{"quote":[{"open":[45.1,45.3],"high":[45.6,45.9],"low":[44.9,45.0],"close":[45.4,45.7],"volume":[100,200]}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithClock(func() time.Time { return fixedNow }))
	bars, err := client.GetPrices(context.Background(), "BHP.AX", 30)
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, time.Monday, bars[0].Date.Weekday())
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), bars[1].Date)
}

func TestGetPrices_EmptyResultIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GetPrices(context.Background(), "ZZZZ", 30)
	require.Error(t, err)
	assert.True(t, common.IsNoData(err), "got %v", err)
}

func TestGetPrices_UnknownSymbolIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GetPrices(context.Background(), "NOPE", 30)
	require.Error(t, err)
	assert.True(t, common.IsProviderError(err))
	assert.Contains(t, err.Error(), "delisted")
}

func TestGetPrices_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GetPrices(context.Background(), "AAPL", 30)
	require.Error(t, err)
	assert.True(t, common.IsProviderError(err))
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, ProviderName, NewClient().Name())
}

func mustInt(t *testing.T, s string) int64 {
	t.Helper()
	v, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	return v
}
