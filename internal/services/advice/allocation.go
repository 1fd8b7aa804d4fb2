package advice

import "github.com/bobmcallan/nestegg/internal/models"

// Tickers are illustrative UCITS-friendly examples.
const (
	assetEquity      = "Global Equity (e.g., VWCE)"
	assetBonds       = "Global Bonds (e.g., AGGH/EUNA)"
	assetTechTilt    = "AI/Tech Tilt (e.g., IUIT/NDX ETF)"
	assetCash        = "Cash / T-Bills"
	assetCashDetails = "Cash / T-Bills (e.g., BIL/EU cash)"
)

var (
	conservativeTemplate = models.AllocationTable{
		{Asset: assetEquity, Percent: 20},
		{Asset: assetBonds, Percent: 60},
		{Asset: assetCashDetails, Percent: 20},
	}

	balancedTemplate = models.AllocationTable{
		{Asset: assetEquity, Percent: 50},
		{Asset: assetTechTilt, Percent: 10},
		{Asset: assetBonds, Percent: 30},
		{Asset: assetCash, Percent: 10},
	}

	growthTemplate = models.AllocationTable{
		{Asset: assetEquity, Percent: 70},
		{Asset: assetTechTilt, Percent: 15},
		{Asset: assetBonds, Percent: 10},
		{Asset: assetCash, Percent: 5},
	}
)

// AllocationForScore returns a copy of the model portfolio for the score's
// band. Any integer falls into a band, including negatives and values over 100.
func AllocationForScore(score int) models.AllocationTable {
	var tpl models.AllocationTable
	switch {
	case score < BalancedThreshold:
		tpl = conservativeTemplate
	case score < GrowthThreshold:
		tpl = balancedTemplate
	default:
		tpl = growthTemplate
	}
	return append(models.AllocationTable(nil), tpl...)
}
