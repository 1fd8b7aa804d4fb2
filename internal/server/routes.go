package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/nestegg/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Wizard
	mux.HandleFunc("/api/wizard/steps", s.handleWizardSteps)
	mux.HandleFunc("/api/wizard/login", s.handleWizardLogin)
	mux.HandleFunc("/api/wizard/logout", s.handleWizardLogout)
	mux.HandleFunc("/api/wizard/risk", s.handleWizardRisk)
	mux.HandleFunc("/api/wizard/insights", s.handleWizardInsights)
	mux.HandleFunc("/api/wizard/portfolio", s.handleWizardPortfolio)
	mux.HandleFunc("/api/wizard/prices", s.handleWizardPrices)
	mux.HandleFunc("/api/wizard/prices/chart", s.handleWizardPriceChart)
	mux.HandleFunc("/api/wizard/news", s.handleWizardNews)
	mux.HandleFunc("/api/wizard/export", s.handleWizardExport)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.app.Sessions.Len(),
		"uptime":   time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
