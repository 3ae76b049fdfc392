package web

import (
	"net/http"

	"github.com/vbonduro/dikaadmin/internal/domain"
	"github.com/vbonduro/dikaadmin/internal/logging"
	"github.com/vbonduro/dikaadmin/internal/service"
)

type dashboardView struct {
	*service.Dashboard
	Statuses []domain.OrderStatus
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard.Summary(r.Context(), token(r))
	if err != nil {
		s.apiFailed(w, r, err, "Gagal memuat ringkasan", "/dashboard")
		return
	}

	p := s.newPage(w, r, "Dashboard", "dashboard", dashboardView{Dashboard: d, Statuses: domain.Statuses})
	if err := s.renderPage(w, p, "base.html", "pages/dashboard.html"); err != nil {
		logging.FromContext(r.Context()).Error("render page failed", "error", err)
	}
}
