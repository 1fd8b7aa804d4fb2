// Package advice turns questionnaire answers into a risk profile, a model
// allocation and advisory text. Everything here is pure.
package advice

import (
	"math"

	"github.com/bobmcallan/nestegg/internal/models"
)

// Label thresholds on the 0-100 composite score.
const (
	BalancedThreshold = 35
	GrowthThreshold   = 70
)

// ScoreToLabel maps a composite score to its risk band.
func ScoreToLabel(score int) models.RiskLabel {
	if score < BalancedThreshold {
		return models.RiskConservative
	}
	if score < GrowthThreshold {
		return models.RiskBalanced
	}
	return models.RiskGrowth
}

// ComputeRisk scores the answers as round(sum*2). Sub-scores are summed
// without validation: out-of-range answers can push the score outside 0-100.
func ComputeRisk(answers models.RiskAnswers) models.RiskProfile {
	score := int(math.Round(float64(answers.Sum()) * 2))
	return models.RiskProfile{
		Score:   score,
		Label:   ScoreToLabel(score),
		Answers: answers,
	}
}
