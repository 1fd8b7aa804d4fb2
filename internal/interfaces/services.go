// Package interfaces defines service contracts for Nestegg
package interfaces

import (
	"context"

	"github.com/bobmcallan/nestegg/internal/models"
)

// MarketService selects a price provider and returns its history
type MarketService interface {
	// GetPrices fetches history for ticker from source. Errors are returned
	// as-is; there is no retry and no fallback to another provider.
	GetPrices(ctx context.Context, ticker string, days int, source models.PriceSource) (*models.PriceHistory, error)

	// RenderChart renders a close-price PNG for a fetched history
	RenderChart(history *models.PriceHistory) ([]byte, error)
}

// NewsService aggregates headlines across providers
type NewsService interface {
	// FetchNews queries every selected source independently. Per-source
	// failures are reported as warnings in the result, never as an error.
	FetchNews(ctx context.Context, sources []models.NewsSource, req models.NewsRequest) *models.NewsResult
}
