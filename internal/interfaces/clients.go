// Package interfaces defines service contracts for Nestegg
package interfaces

import (
	"context"

	"github.com/bobmcallan/nestegg/internal/models"
)

// PriceProvider fetches daily price history from one upstream source.
// Implementations return common.ConfigurationError before any network call
// when their credential is missing, and common.NoDataError on empty results.
type PriceProvider interface {
	// Name is the human-readable provider name used in messages
	Name() string

	// GetPrices returns ascending daily bars covering roughly the last days calendar days
	GetPrices(ctx context.Context, ticker string, days int) ([]models.PriceBar, error)
}

// NewsProvider fetches headlines from one upstream source.
type NewsProvider interface {
	// Name is the human-readable provider name used in messages
	Name() string

	// FetchNews returns normalised headlines for the request
	FetchNews(ctx context.Context, req models.NewsRequest) ([]models.NewsItem, error)
}
