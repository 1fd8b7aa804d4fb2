package market

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

type mockProvider struct {
	name       string
	bars       []models.PriceBar
	err        error
	calls      int
	lastTicker string
	lastDays   int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) GetPrices(_ context.Context, ticker string, days int) ([]models.PriceBar, error) {
	m.calls++
	m.lastTicker = ticker
	m.lastDays = days
	return m.bars, m.err
}

func sampleBars() []models.PriceBar {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, 5)
	for i := range bars {
		c := 100 + float64(i)*1.5
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return bars
}

func newTestService(providers map[models.PriceSource]interfaces.PriceProvider) *Service {
	return NewService(providers, common.NewSilentLogger())
}

func TestGetPrices_NormalisesTickerAndWrapsHistory(t *testing.T) {
	yahoo := &mockProvider{name: "Yahoo Finance", bars: sampleBars()}
	svc := newTestService(map[models.PriceSource]interfaces.PriceProvider{models.PriceSourceYahoo: yahoo})

	h, err := svc.GetPrices(context.Background(), "  aapl ", 90, models.PriceSourceYahoo)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", yahoo.lastTicker)
	assert.Equal(t, 90, yahoo.lastDays)
	assert.Equal(t, "AAPL", h.Ticker)
	assert.Equal(t, models.PriceSourceYahoo, h.Source)
	assert.Equal(t, 90, h.Days)
	assert.Len(t, h.Bars, 5)
}

func TestGetPrices_SelectsRegisteredSource(t *testing.T) {
	yahoo := &mockProvider{name: "Yahoo Finance", bars: sampleBars()}
	alpha := &mockProvider{name: "Alpha Vantage", bars: sampleBars()}
	svc := newTestService(map[models.PriceSource]interfaces.PriceProvider{
		models.PriceSourceYahoo: yahoo,
		models.PriceSourceAlpha: alpha,
	})

	h, err := svc.GetPrices(context.Background(), "IBM", 60, models.PriceSourceAlpha)
	require.NoError(t, err)
	assert.Equal(t, models.PriceSourceAlpha, h.Source)
	assert.Equal(t, 1, alpha.calls)
	assert.Equal(t, 0, yahoo.calls)
}

func TestGetPrices_UnregisteredSourceFallsBackToYahoo(t *testing.T) {
	yahoo := &mockProvider{name: "Yahoo Finance", bars: sampleBars()}
	svc := newTestService(map[models.PriceSource]interfaces.PriceProvider{models.PriceSourceYahoo: yahoo})

	h, err := svc.GetPrices(context.Background(), "MSFT", 60, models.PriceSourceFinnhub)
	require.NoError(t, err)
	assert.Equal(t, models.PriceSourceYahoo, h.Source)
	assert.Equal(t, 1, yahoo.calls)
}

func TestGetPrices_ErrorsPropagateWithoutFallback(t *testing.T) {
	cfgErr := &common.ConfigurationError{Setting: "FINNHUB_API_KEY", Provider: "Finnhub"}
	yahoo := &mockProvider{name: "Yahoo Finance", bars: sampleBars()}
	finnhub := &mockProvider{name: "Finnhub", err: cfgErr}
	svc := newTestService(map[models.PriceSource]interfaces.PriceProvider{
		models.PriceSourceYahoo:   yahoo,
		models.PriceSourceFinnhub: finnhub,
	})

	_, err := svc.GetPrices(context.Background(), "AAPL", 60, models.PriceSourceFinnhub)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cfgErr))
	assert.True(t, common.IsConfigurationError(err))
	assert.Equal(t, 0, yahoo.calls, "a failed provider is not retried elsewhere")
}

func TestGetPrices_EmptyResultIsNoData(t *testing.T) {
	yahoo := &mockProvider{name: "Yahoo Finance"}
	svc := newTestService(map[models.PriceSource]interfaces.PriceProvider{models.PriceSourceYahoo: yahoo})

	_, err := svc.GetPrices(context.Background(), "ZZZZ", 60, models.PriceSourceYahoo)
	require.Error(t, err)
	assert.True(t, common.IsNoData(err))
	assert.Contains(t, err.Error(), "ZZZZ")
}

func TestGetPrices_EmptyTicker(t *testing.T) {
	yahoo := &mockProvider{name: "Yahoo Finance", bars: sampleBars()}
	svc := newTestService(map[models.PriceSource]interfaces.PriceProvider{models.PriceSourceYahoo: yahoo})

	_, err := svc.GetPrices(context.Background(), "   ", 60, models.PriceSourceYahoo)
	require.Error(t, err)
	assert.Equal(t, 0, yahoo.calls)
}

func TestRenderChart_ProducesPNG(t *testing.T) {
	svc := newTestService(nil)

	png, err := svc.RenderChart(&models.PriceHistory{Ticker: "AAPL", Bars: sampleBars()})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "expected PNG signature")
}

func TestRenderChart_TooFewBarsIsNoData(t *testing.T) {
	_, err := RenderPriceChart("AAPL", sampleBars()[:1])
	require.Error(t, err)
	assert.True(t, common.IsNoData(err), "got %v", err)
	assert.Contains(t, err.Error(), "AAPL")

	_, err = newTestService(nil).RenderChart(nil)
	assert.True(t, common.IsNoData(err), "got %v", err)
}
