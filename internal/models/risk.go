// Package models defines data structures for Nestegg
package models

// RiskLabel is the categorical risk band derived from a composite score.
type RiskLabel string

const (
	RiskConservative RiskLabel = "Conservative"
	RiskBalanced     RiskLabel = "Balanced"
	RiskGrowth       RiskLabel = "Growth"
)

// RiskAnswers holds the five questionnaire sub-scores, each nominally 0-10.
// Keys missing from a JSON body decode to 0.
type RiskAnswers struct {
	Horizon         int `json:"horizon"`
	Drawdown        int `json:"drawdown"`
	Experience      int `json:"experience"`
	IncomeStability int `json:"income_stability"`
	GoalFocus       int `json:"goal_focus"`
}

// RiskAnswersFromMap builds answers from a loose key/value map. Unknown keys
// are ignored and missing keys default to 0.
func RiskAnswersFromMap(m map[string]int) RiskAnswers {
	return RiskAnswers{
		Horizon:         m["horizon"],
		Drawdown:        m["drawdown"],
		Experience:      m["experience"],
		IncomeStability: m["income_stability"],
		GoalFocus:       m["goal_focus"],
	}
}

// Sum returns the unweighted total of all sub-scores.
func (a RiskAnswers) Sum() int {
	return a.Horizon + a.Drawdown + a.Experience + a.IncomeStability + a.GoalFocus
}

// RiskProfile is the scored result of one questionnaire submission.
type RiskProfile struct {
	Score   int         `json:"score"`
	Label   RiskLabel   `json:"label"`
	Answers RiskAnswers `json:"answers"`
}
