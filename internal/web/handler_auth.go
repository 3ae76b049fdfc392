package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vbonduro/dikaadmin/internal/api"
	"github.com/vbonduro/dikaadmin/internal/logging"
	"github.com/vbonduro/dikaadmin/internal/service"
	"github.com/vbonduro/dikaadmin/internal/session"
)

type loginView struct {
	Username string
	Error    string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, http.StatusOK, loginView{})
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, v loginView) {
	p := s.newPage(w, r, "Login Admin", "", v)
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	if err := s.renderPage(w, p, "base.html", "pages/login.html"); err != nil {
		logging.FromContext(r.Context()).Error("render page failed", "error", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	token, err := s.svc.Auth.Login(r.Context(), username, password)
	if err != nil {
		v := loginView{Username: username}
		status := http.StatusUnauthorized
		switch {
		case errors.Is(err, service.ErrCredentialsRequired):
			v.Error = "Username dan password wajib diisi"
			status = http.StatusBadRequest
		default:
			v.Error = api.Message(err, "Login gagal, coba lagi")
			var apiErr *api.Error
			if !errors.As(err, &apiErr) {
				status = http.StatusBadGateway
			}
		}
		s.renderLogin(w, r, status, v)
		return
	}

	if err := s.sessions.Login(w, r, token, username); err != nil {
		log.Error("store session failed", "error", err)
		s.renderLogin(w, r, http.StatusInternalServerError, loginView{Username: username, Error: "Sesi tidak dapat disimpan"})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sid, err := s.sessions.ID(w, r); err == nil {
		s.svc.Orders.Forget(sid)
		s.svc.Catalog.Forget(sid)
		s.svc.Customers.Forget(sid)
	}
	if err := s.sessions.Logout(r); err != nil {
		logging.FromContext(r.Context()).Error("logout failed", "error", err)
	}
	redirect(w, r, loginPath)
}

// sessionID returns the browser session id for a guarded request.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, err := s.sessions.ID(w, r)
	if err != nil {
		logging.FromContext(r.Context()).Error("session id unavailable", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return "", false
	}
	return sid, true
}

// apiFailed handles an error from the shop API. An unauthorized response
// means the stored token is no longer accepted, so the browser is logged out.
// A failed page load renders an error page; a failed change flashes the
// server message and sends the browser to back.
func (s *Server) apiFailed(w http.ResponseWriter, r *http.Request, err error, fallback, back string) {
	log := logging.FromContext(r.Context())
	if errors.Is(err, api.ErrUnauthorized) {
		log.Warn("api rejected stored token", "path", r.URL.Path)
		if lerr := s.sessions.Logout(r); lerr != nil {
			log.Error("logout failed", "error", lerr)
		}
		s.sessions.AddFlash(w, r, "error", "Sesi berakhir, silakan login kembali")
		redirect(w, r, loginPath)
		return
	}
	log.Error("api request failed", "path", r.URL.Path, "error", err)
	msg := api.Message(err, fallback)
	if r.Method == http.MethodGet {
		s.renderError(w, r, http.StatusBadGateway, msg)
		return
	}
	s.sessions.AddFlash(w, r, "error", msg)
	redirect(w, r, back)
}

type errorView struct {
	Status  int
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	p := s.newPage(w, r, "Terjadi kesalahan", "", errorView{Status: status, Message: msg})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderPage(w, p, "base.html", "pages/error.html"); err != nil {
		logging.FromContext(r.Context()).Error("render page failed", "error", err)
	}
}

func token(r *http.Request) string {
	return session.TokenFromContext(r.Context())
}
