// Package wizard drives the advisory wizard steps against a session
package wizard

import (
	"context"
	"errors"
	"strings"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
	"github.com/bobmcallan/nestegg/internal/services/advice"
)

// Soft guidance shown when a step is visited out of order.
const (
	AdvisoryLoginFirst = "Please login first."
	AdvisoryRiskFirst  = "Please fill risk profile first."
)

const (
	DefaultTicker = "AAPL"
	DefaultDays   = 120
	MinDays       = 30
	MaxDays       = 365
)

// ErrUserRequired is returned by Login for an empty name.
var ErrUserRequired = errors.New("user name is required")

// DefaultNewsSources is used when a request selects none. RSS needs no credential.
var DefaultNewsSources = []models.NewsSource{models.NewsSourceRSS}

// Controller implements the wizard operations. It holds no session state;
// every call works on the session passed in and the caller persists it.
type Controller struct {
	market interfaces.MarketService
	news   interfaces.NewsService
	logger *common.Logger
}

// NewController creates a new wizard controller
func NewController(market interfaces.MarketService, news interfaces.NewsService, logger *common.Logger) *Controller {
	return &Controller{
		market: market,
		news:   news,
		logger: logger,
	}
}

// RiskResult is the outcome of a risk questionnaire submission.
type RiskResult struct {
	Profile    models.RiskProfile     `json:"profile"`
	Allocation models.AllocationTable `json:"allocation"`
	Advisory   string                 `json:"advisory,omitempty"`
}

// InsightsResult carries the advisory bullets for the session's risk label.
type InsightsResult struct {
	Label    models.RiskLabel `json:"label,omitempty"`
	Score    int              `json:"score"`
	Insights []string         `json:"insights"`
	Advisory string           `json:"advisory,omitempty"`
}

// PortfolioResult carries the mock allocation for the session's score.
type PortfolioResult struct {
	Label      models.RiskLabel       `json:"label,omitempty"`
	Score      int                    `json:"score"`
	Allocation models.AllocationTable `json:"allocation"`
	Advisory   string                 `json:"advisory,omitempty"`
}

// Login records the user name on the session.
func (c *Controller) Login(sess *models.WizardSession, user string) error {
	user = strings.TrimSpace(user)
	if user == "" {
		return ErrUserRequired
	}
	sess.User = &user
	c.logger.Info().Str("session_id", sess.ID).Str("user", user).Msg("User logged in")
	return nil
}

// SubmitRisk scores the answers and stores the profile and allocation.
// Without a login the result is still computed, with an advisory attached.
func (c *Controller) SubmitRisk(sess *models.WizardSession, answers models.RiskAnswers) *RiskResult {
	profile := advice.ComputeRisk(answers)
	allocation := advice.AllocationForScore(profile.Score)

	sess.Risk = &profile
	sess.Allocation = allocation

	result := &RiskResult{
		Profile:    profile,
		Allocation: allocation,
	}
	if sess.User == nil {
		result.Advisory = AdvisoryLoginFirst
	}

	c.logger.Info().
		Str("session_id", sess.ID).
		Int("score", profile.Score).
		Str("label", string(profile.Label)).
		Msg("Risk profile computed")
	return result
}

// Insights returns the bullets for the stored risk label.
func (c *Controller) Insights(sess *models.WizardSession) *InsightsResult {
	if sess.Risk == nil {
		return &InsightsResult{Insights: []string{}, Advisory: AdvisoryRiskFirst}
	}
	return &InsightsResult{
		Label:    sess.Risk.Label,
		Score:    sess.Risk.Score,
		Insights: advice.InsightsForLabel(sess.Risk.Label),
	}
}

// Portfolio returns the mock allocation for the stored score.
func (c *Controller) Portfolio(sess *models.WizardSession) *PortfolioResult {
	if sess.Risk == nil {
		return &PortfolioResult{Allocation: models.AllocationTable{}, Advisory: AdvisoryRiskFirst}
	}
	allocation := sess.Allocation
	if len(allocation) == 0 {
		allocation = advice.AllocationForScore(sess.Risk.Score)
	}
	return &PortfolioResult{
		Label:      sess.Risk.Label,
		Score:      sess.Risk.Score,
		Allocation: append(models.AllocationTable(nil), allocation...),
	}
}

// Prices fetches history; available regardless of wizard progress.
func (c *Controller) Prices(ctx context.Context, sess *models.WizardSession, ticker string, days int, source models.PriceSource) (*models.PriceHistory, error) {
	ticker, days = normalizeQuery(ticker, days)
	history, err := c.market.GetPrices(ctx, ticker, days, source)
	if err != nil {
		c.logger.Warn().Str("session_id", sess.ID).Str("ticker", ticker).Err(err).Msg("Prices step failed")
		return nil, err
	}
	return history, nil
}

// Chart fetches history and renders it as a PNG.
func (c *Controller) Chart(ctx context.Context, sess *models.WizardSession, ticker string, days int, source models.PriceSource) ([]byte, error) {
	history, err := c.Prices(ctx, sess, ticker, days, source)
	if err != nil {
		return nil, err
	}
	return c.market.RenderChart(history)
}

// News aggregates headlines from the selected sources. Provider failures
// arrive as warnings in the result.
func (c *Controller) News(ctx context.Context, sess *models.WizardSession, sources []models.NewsSource, req models.NewsRequest) *models.NewsResult {
	if len(sources) == 0 {
		sources = DefaultNewsSources
	}
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	result := c.news.FetchNews(ctx, sources, req)
	c.logger.Debug().
		Str("session_id", sess.ID).
		Int("items", len(result.Items)).
		Int("warnings", len(result.Warnings)).
		Msg("News step complete")
	return result
}

// Export builds the downloadable snapshot of the session.
func (c *Controller) Export(sess *models.WizardSession) *models.SessionExport {
	export := &models.SessionExport{
		Allocation: append(models.AllocationTable{}, sess.Allocation...),
	}
	if sess.User != nil {
		u := *sess.User
		export.User = &u
	}
	if sess.Risk != nil {
		export.Risk = &models.RiskExport{
			Score:   sess.Risk.Score,
			Label:   sess.Risk.Label,
			Answers: sess.Risk.Answers,
		}
	}
	return export
}

// Reset clears the wizard state (logout). The session id is kept.
func (c *Controller) Reset(sess *models.WizardSession) {
	sess.User = nil
	sess.Risk = nil
	sess.Allocation = nil
	c.logger.Info().Str("session_id", sess.ID).Msg("Session reset")
}

// Steps returns the wizard menu with completion flags and advisories.
func (c *Controller) Steps(sess *models.WizardSession) []models.StepStatus {
	steps := make([]models.StepStatus, 0, len(models.WizardSteps))
	for _, step := range models.WizardSteps {
		st := models.StepStatus{Step: step}
		switch step {
		case models.StepLogin:
			st.Complete = sess.User != nil
		case models.StepRiskProfile:
			st.Complete = sess.Risk != nil
			if sess.User == nil {
				st.Advisory = AdvisoryLoginFirst
			}
		case models.StepInsights, models.StepMockPortfolio:
			st.Complete = sess.Risk != nil
			if sess.Risk == nil {
				st.Advisory = AdvisoryRiskFirst
			}
		}
		steps = append(steps, st)
	}
	return steps
}

// ClampDays bounds a requested history length to [MinDays, MaxDays];
// zero or negative selects DefaultDays.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days < MinDays:
		return MinDays
	case days > MaxDays:
		return MaxDays
	default:
		return days
	}
}

func normalizeQuery(ticker string, days int) (string, int) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		ticker = DefaultTicker
	}
	return ticker, ClampDays(days)
}
