package models

import "time"

// WizardStep names one screen of the advisory wizard.
type WizardStep string

const (
	StepLogin         WizardStep = "login"
	StepRiskProfile   WizardStep = "risk_profile"
	StepInsights      WizardStep = "insights"
	StepMockPortfolio WizardStep = "mock_portfolio"
	StepPrices        WizardStep = "prices"
	StepNews          WizardStep = "news"
)

// WizardSteps is the suggested order. Any step may be visited at any time.
var WizardSteps = []WizardStep{
	StepLogin,
	StepRiskProfile,
	StepInsights,
	StepMockPortfolio,
	StepPrices,
	StepNews,
}

// WizardSession is the per-visitor state held between steps.
type WizardSession struct {
	ID         string          `json:"id"`
	User       *string         `json:"user"`
	Risk       *RiskProfile    `json:"risk"`
	Allocation AllocationTable `json:"allocation"`
	CreatedAt  time.Time       `json:"created_at"`
	LastSeen   time.Time       `json:"last_seen"`
}

// Clone returns a deep copy so stored sessions are never shared.
func (s *WizardSession) Clone() *WizardSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	if s.Risk != nil {
		r := *s.Risk
		c.Risk = &r
	}
	if s.Allocation != nil {
		c.Allocation = append(AllocationTable(nil), s.Allocation...)
	}
	return &c
}

// StepStatus is one menu entry with its completion state.
type StepStatus struct {
	Step     WizardStep `json:"step"`
	Complete bool       `json:"complete"`
	Advisory string     `json:"advisory,omitempty"`
}

// RiskExport is the risk block of the export document.
type RiskExport struct {
	Score   int         `json:"score"`
	Label   RiskLabel   `json:"label"`
	Answers RiskAnswers `json:"answers"`
}

// SessionExport is the downloadable snapshot of a session.
type SessionExport struct {
	User       *string         `json:"user"`
	Risk       *RiskExport     `json:"risk"`
	Allocation AllocationTable `json:"allocation"`
}
