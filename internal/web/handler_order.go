package web

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gorilla/csrf"

	"github.com/vbonduro/dikaadmin/internal/domain"
	"github.com/vbonduro/dikaadmin/internal/logging"
	"github.com/vbonduro/dikaadmin/internal/order"
	"github.com/vbonduro/dikaadmin/internal/service"
)

// orderCard is one order as rendered, with the controls its status allows.
type orderCard struct {
	domain.Order
	CanDelete bool
	Targets   []domain.OrderStatus
	Filter    domain.OrderStatus
}

type ordersView struct {
	CSRFField template.HTML
	Filter    domain.OrderStatus
	Statuses  []domain.OrderStatus
	Counts    map[domain.OrderStatus]int
	Cards     []orderCard
}

func (s *Server) ordersView(board *service.OrderBoard) ordersView {
	v := ordersView{
		Filter:   board.Filter,
		Statuses: domain.Statuses,
		Counts:   board.Counts,
	}
	for _, o := range board.Orders {
		v.Cards = append(v.Cards, orderCard{
			Order:     o,
			CanDelete: order.CanDelete(o),
			Targets:   s.svc.Orders.Targets(o),
			Filter:    board.Filter,
		})
	}
	return v
}

func ordersURL(filter domain.OrderStatus) string {
	return "/orders?status=" + url.QueryEscape(string(filter))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	filter := order.ParseFilter(r.URL.Query().Get("status"))

	// A plain page load fetches fresh orders; switching tabs reuses them.
	if !isHTMX(r) {
		if _, err := s.svc.Orders.Load(r.Context(), sid, token(r)); err != nil {
			s.apiFailed(w, r, err, "Gagal memuat pesanan", "/orders")
			return
		}
	}
	board, err := s.svc.Orders.Board(r.Context(), sid, token(r), filter)
	if err != nil {
		s.apiFailed(w, r, err, "Gagal memuat pesanan", "/orders")
		return
	}
	s.renderOrders(w, r, board)
}

func (s *Server) renderOrders(w http.ResponseWriter, r *http.Request, board *service.OrderBoard) {
	log := logging.FromContext(r.Context())
	v := s.ordersView(board)
	v.CSRFField = csrf.TemplateField(r)
	if isHTMX(r) {
		if err := s.renderPartial(w, "partials/order_list.html", "order_list", v); err != nil {
			log.Error("render partial failed", "error", err)
		}
		return
	}
	p := s.newPage(w, r, "Pesanan", "orders", v)
	if err := s.renderPage(w, p, "base.html", "pages/orders.html", "partials/order_list.html"); err != nil {
		log.Error("render page failed", "error", err)
	}
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	filter := order.ParseFilter(r.FormValue("filter"))
	to := domain.OrderStatus(r.FormValue("status"))

	_, err := s.svc.Orders.UpdateStatus(r.Context(), sid, token(r), s.sessions.Actor(r), id, to)
	if err != nil {
		s.orderMutationFailed(w, r, err, "Gagal memperbarui status", filter)
		return
	}
	s.afterOrderMutation(w, r, sid, filter, "Status pesanan diperbarui")
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	filter := order.ParseFilter(r.FormValue("filter"))

	if err := s.svc.Orders.Delete(r.Context(), sid, token(r), s.sessions.Actor(r), id); err != nil {
		s.orderMutationFailed(w, r, err, "Gagal menghapus pesanan", filter)
		return
	}
	s.afterOrderMutation(w, r, sid, filter, "Pesanan dihapus")
}

// afterOrderMutation re-renders the list for HTMX requests, or redirects back
// to the filtered page.
func (s *Server) afterOrderMutation(w http.ResponseWriter, r *http.Request, sid string, filter domain.OrderStatus, msg string) {
	if !isHTMX(r) {
		s.sessions.AddFlash(w, r, "success", msg)
		http.Redirect(w, r, ordersURL(filter), http.StatusSeeOther)
		return
	}
	board, err := s.svc.Orders.Board(r.Context(), sid, token(r), filter)
	if err != nil {
		s.apiFailed(w, r, err, "Gagal memuat pesanan", ordersURL(filter))
		return
	}
	s.renderOrders(w, r, board)
}

func (s *Server) orderMutationFailed(w http.ResponseWriter, r *http.Request, err error, fallback string, filter domain.OrderStatus) {
	var msg string
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		msg = "Pesanan tidak ditemukan"
	case errors.Is(err, order.ErrNotDeletable):
		msg = "Hanya pesanan selesai atau dibatalkan yang dapat dihapus"
	case errors.Is(err, order.ErrIllegalTransition), errors.Is(err, order.ErrUnknownStatus):
		msg = "Perubahan status tidak diizinkan"
	default:
		s.apiFailed(w, r, err, fallback, ordersURL(filter))
		return
	}
	logging.FromContext(r.Context()).Warn("order change rejected", "order_id", r.PathValue("id"), "error", err)
	s.notice(w, r, msg, ordersURL(filter))
}

// notice shows msg as a blocking notice: swapped into #notice for HTMX
// requests, flashed on the back page otherwise.
func (s *Server) notice(w http.ResponseWriter, r *http.Request, msg, back string) {
	if !isHTMX(r) {
		s.sessions.AddFlash(w, r, "error", msg)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	w.Header().Set("HX-Retarget", "#notice")
	w.Header().Set("HX-Reswap", "innerHTML")
	if err := s.renderPartial(w, "partials/notice.html", "notice", msg); err != nil {
		logging.FromContext(r.Context()).Error("render partial failed", "error", err)
	}
}
