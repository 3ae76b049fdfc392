package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/vbonduro/dikaadmin/internal/api"
	"github.com/vbonduro/dikaadmin/internal/customer"
	"github.com/vbonduro/dikaadmin/internal/domain"
	"github.com/vbonduro/dikaadmin/internal/logging"
)

type customersView struct {
	Query     string
	Customers []domain.Customer
}

type customerForm struct {
	Customer domain.Customer
	Values   url.Values
	Error    string
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	// HTMX search keystrokes filter the list already fetched.
	if !isHTMX(r) {
		if _, err := s.svc.Customers.Load(r.Context(), sid, token(r)); err != nil {
			s.apiFailed(w, r, err, "Gagal memuat pelanggan", "/customers")
			return
		}
	}
	list, err := s.svc.Customers.Search(r.Context(), sid, token(r), query)
	if err != nil {
		s.apiFailed(w, r, err, "Gagal memuat pelanggan", "/customers")
		return
	}

	v := customersView{Query: query, Customers: list}
	if isHTMX(r) {
		if err := s.renderPartial(w, "partials/customer_list.html", "customer_list", v); err != nil {
			log.Error("render partial failed", "error", err)
		}
		return
	}
	p := s.newPage(w, r, "Pelanggan", "customers", v)
	if err := s.renderPage(w, p, "base.html", "pages/customers.html", "partials/customer_list.html"); err != nil {
		log.Error("render page failed", "error", err)
	}
}

func (s *Server) handleEditCustomer(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	c, found, err := s.svc.Customers.Get(r.Context(), sid, token(r), r.PathValue("id"))
	if err != nil {
		s.apiFailed(w, r, err, "Gagal memuat pelanggan", "/customers")
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	s.renderCustomerForm(w, r, http.StatusOK, customerForm{
		Customer: c,
		Values:   url.Values{"name": {c.Name}, "whatsapp": {c.WhatsApp}},
	})
}

func (s *Server) renderCustomerForm(w http.ResponseWriter, r *http.Request, status int, f customerForm) {
	p := s.newPage(w, r, "Ubah Pelanggan", "customers", f)
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	if err := s.renderPage(w, p, "base.html", "pages/customer_edit.html"); err != nil {
		logging.FromContext(r.Context()).Error("render page failed", "error", err)
	}
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	sid, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	form := customerForm{Customer: domain.Customer{ID: id}, Values: r.PostForm}
	if c, found, err := s.svc.Customers.Get(r.Context(), sid, token(r), id); err == nil && found {
		form.Customer = c
	}

	upd, err := customer.ParseUpdate(r.PostForm)
	if err != nil {
		form.Error = err.Error()
		s.renderCustomerForm(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	if _, err := s.svc.Customers.Update(r.Context(), sid, token(r), id, upd); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.apiFailed(w, r, err, "", "/customers")
			return
		}
		logging.FromContext(r.Context()).Error("update customer failed", "customer_id", id, "error", err)
		form.Error = api.Message(err, "Gagal memperbarui pelanggan")
		s.renderCustomerForm(w, r, http.StatusBadGateway, form)
		return
	}
	s.sessions.AddFlash(w, r, "success", "Data pelanggan diperbarui")
	http.Redirect(w, r, "/customers", http.StatusSeeOther)
}
