package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/models"
	"github.com/bobmcallan/nestegg/internal/services/wizard"
)

// ExportFilename is the download name of the session export.
const ExportFilename = "risk_profile.json"

// Answer bounds enforced on the risk questionnaire.
const (
	minAnswer = 0
	maxAnswer = 10
)

// session returns the wizard session resolved by sessionMiddleware.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*models.WizardSession, bool) {
	sess := common.SessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, http.StatusInternalServerError, "No session")
		return nil, false
	}
	return sess, true
}

type stepsResponse struct {
	User  *string             `json:"user"`
	Steps []models.StepStatus `json:"steps"`
}

func (s *Server) handleWizardSteps(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, stepsResponse{User: sess.User, Steps: s.app.Wizard.Steps(sess)})
}

type loginRequest struct {
	User string `json:"user"`
}

func (s *Server) handleWizardLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := s.app.Wizard.Login(sess, req.User); err != nil {
		if errors.Is(err, wizard.ErrUserRequired) {
			WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), CodeValidation)
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, stepsResponse{User: sess.User, Steps: s.app.Wizard.Steps(sess)})
}

func (s *Server) handleWizardLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.app.Wizard.Reset(sess)
	WriteJSON(w, http.StatusOK, stepsResponse{User: nil, Steps: s.app.Wizard.Steps(sess)})
}

func (s *Server) handleWizardRisk(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var raw map[string]int
	if !DecodeJSON(w, r, &raw) {
		return
	}
	answers := models.RiskAnswersFromMap(raw)
	if err := validateAnswers(answers); err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), CodeValidation)
		return
	}

	WriteJSON(w, http.StatusOK, s.app.Wizard.SubmitRisk(sess, answers))
}

func validateAnswers(a models.RiskAnswers) error {
	fields := []struct {
		name  string
		value int
	}{
		{"horizon", a.Horizon},
		{"drawdown", a.Drawdown},
		{"experience", a.Experience},
		{"income_stability", a.IncomeStability},
		{"goal_focus", a.GoalFocus},
	}
	for _, f := range fields {
		if f.value < minAnswer || f.value > maxAnswer {
			return fmt.Errorf("%s must be between %d and %d, got %d", f.name, minAnswer, maxAnswer, f.value)
		}
	}
	return nil
}

func (s *Server) handleWizardInsights(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Wizard.Insights(sess))
}

func (s *Server) handleWizardPortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Wizard.Portfolio(sess))
}

// priceQuery holds the parsed ticker/days/source parameters.
type priceQuery struct {
	ticker string
	days   int
	source models.PriceSource
}

func parsePriceQuery(w http.ResponseWriter, r *http.Request) (priceQuery, bool) {
	q := r.URL.Query()
	days, ok := QueryInt(w, q, "days", wizard.DefaultDays)
	if !ok {
		return priceQuery{}, false
	}
	return priceQuery{
		ticker: q.Get("ticker"),
		days:   days,
		source: models.ParsePriceSource(q.Get("source")),
	}, true
}

func (s *Server) handleWizardPrices(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pq, ok := parsePriceQuery(w, r)
	if !ok {
		return
	}

	history, err := s.app.Wizard.Prices(r.Context(), sess, pq.ticker, pq.days, pq.source)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, history)
}

func (s *Server) handleWizardPriceChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pq, ok := parsePriceQuery(w, r)
	if !ok {
		return
	}

	png, err := s.app.Wizard.Chart(r.Context(), sess, pq.ticker, pq.days, pq.source)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handleWizardNews(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, ok := QueryInt(w, q, "limit", s.app.Config.News.Limit)
	if !ok {
		return
	}
	days, ok := QueryInt(w, q, "days", s.app.Config.News.FinnhubDays)
	if !ok {
		return
	}

	ticker := strings.TrimSpace(q.Get("ticker"))
	if ticker == "" {
		ticker = wizard.DefaultTicker
	}

	var sources []models.NewsSource
	if raw := q.Get("sources"); raw != "" {
		sources = models.ParseNewsSources(raw)
		if len(sources) == 0 {
			WriteErrorWithCode(w, http.StatusBadRequest, "No valid news sources in "+raw, CodeValidation)
			return
		}
	}

	result := s.app.Wizard.News(r.Context(), sess, sources, models.NewsRequest{
		Ticker: ticker,
		Query:  q.Get("query"),
		Limit:  limit,
		Days:   days,
	})
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleWizardExport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	data, err := json.MarshalIndent(s.app.Wizard.Export(sess), "", "  ")
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to encode export")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ExportFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
