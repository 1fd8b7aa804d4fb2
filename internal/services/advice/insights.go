package advice

import "github.com/bobmcallan/nestegg/internal/models"

var (
	conservativeInsights = []string{
		"Prioritize stability and low drawdowns.",
		"Use broad bond exposure; keep a cash buffer.",
		"Smaller equity slice for long-term growth.",
	}

	balancedInsights = []string{
		"Mix growth and stability; rebalance annually.",
		"Add a small theme tilt (e.g., AI/Tech).",
		"Diversify across regions and durations.",
	}

	growthInsights = []string{
		"Maximize long-term equity growth; accept volatility.",
		"Keep a modest bond/cash ballast for liquidity.",
		"Use disciplined rebalancing to control risk.",
	}
)

// InsightsForLabel returns the advisory bullets for a label. Labels other than
// Conservative and Balanced, including unknown ones, get the Growth bullets.
func InsightsForLabel(label models.RiskLabel) []string {
	var src []string
	switch label {
	case models.RiskConservative:
		src = conservativeInsights
	case models.RiskBalanced:
		src = balancedInsights
	default:
		src = growthInsights
	}
	return append([]string(nil), src...)
}
