// Package market provides price history across interchangeable providers
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

// Service implements MarketService
type Service struct {
	providers map[models.PriceSource]interfaces.PriceProvider
	logger    *common.Logger
}

// NewService creates a new market service. providers maps each source to
// its client; models.PriceSourceYahoo is used when a request names a source
// with no registered provider.
func NewService(providers map[models.PriceSource]interfaces.PriceProvider, logger *common.Logger) *Service {
	registry := make(map[models.PriceSource]interfaces.PriceProvider, len(providers))
	for src, p := range providers {
		if p != nil {
			registry[src] = p
		}
	}
	return &Service{
		providers: registry,
		logger:    logger,
	}
}

// provider resolves source, falling back to Yahoo.
func (s *Service) provider(source models.PriceSource) (models.PriceSource, interfaces.PriceProvider, error) {
	if p, ok := s.providers[source]; ok {
		return source, p, nil
	}
	if p, ok := s.providers[models.PriceSourceYahoo]; ok {
		return models.PriceSourceYahoo, p, nil
	}
	return source, nil, fmt.Errorf("no price provider registered for %q", source)
}

// GetPrices fetches daily bars for ticker from the selected source.
// Provider errors are returned unchanged.
func (s *Service) GetPrices(ctx context.Context, ticker string, days int, source models.PriceSource) (*models.PriceHistory, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	resolved, p, err := s.provider(source)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	bars, err := p.GetPrices(ctx, ticker, days)
	if err != nil {
		s.logger.Warn().
			Str("ticker", ticker).
			Str("source", string(resolved)).
			Err(err).
			Msg("Price fetch failed")
		return nil, err
	}
	if len(bars) == 0 {
		return nil, &common.NoDataError{Provider: p.Name(), Ticker: ticker}
	}

	s.logger.Debug().
		Str("ticker", ticker).
		Str("source", string(resolved)).
		Int("bars", len(bars)).
		Dur("elapsed", time.Since(start)).
		Msg("Prices fetched")

	return &models.PriceHistory{
		Ticker: ticker,
		Source: resolved,
		Days:   days,
		Bars:   bars,
	}, nil
}

// RenderChart renders the close-price line for a fetched history.
func (s *Service) RenderChart(history *models.PriceHistory) ([]byte, error) {
	if history == nil {
		return nil, &common.NoDataError{Provider: ChartProvider}
	}
	return RenderPriceChart(history.Ticker, history.Bars)
}

// Ensure Service implements MarketService
var _ interfaces.MarketService = (*Service)(nil)
