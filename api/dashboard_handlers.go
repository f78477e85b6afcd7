package api

import (
	"net/http"

	"unified-console/core/catalog"
	"unified-console/core/store"
)

type dashboardResponse struct {
	*store.DashboardStats
	DefectDojoConnected bool `json:"defectdojo_connected"`
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dashboard.Stats(r.Context())
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	apps, err := s.apps.List(r.Context())
	if err != nil {
		s.writeDomainErr(w, err)
		return
	}
	// Connectivity is inferred from sync history, no network call on
	// the dashboard path.
	connected := false
	for _, a := range apps {
		if a.AppType == string(catalog.AppTypeDefectDojo) && a.IsActive && a.LastRoleSync != nil {
			connected = true
			break
		}
	}
	writeJSON(w, http.StatusOK, dashboardResponse{DashboardStats: stats, DefectDojoConnected: connected})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Templates())
}
