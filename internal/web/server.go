package web

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"github.com/vbonduro/dikaadmin/internal/customer"
	"github.com/vbonduro/dikaadmin/internal/domain"
	"github.com/vbonduro/dikaadmin/internal/photostore"
	"github.com/vbonduro/dikaadmin/internal/service"
	"github.com/vbonduro/dikaadmin/internal/session"
)

const loginPath = "/login"

// Services are the screens the server renders.
type Services struct {
	Auth      *service.AuthService
	Orders    *service.OrderService
	Catalog   *service.CatalogService
	Customers *service.CustomerService
	Dashboard *service.DashboardService
}

type Options struct {
	// CSRFKey enables CSRF protection when non-empty. It must be 32 bytes.
	CSRFKey         string
	CookieSecure    bool
	TrustedOrigins  []string
	LoginRatePerMin int
	// ViewTTL is how long a session's fetched lists are kept without use.
	// Zero means defaultViewTTL.
	ViewTTL time.Duration
}

const defaultViewTTL = 30 * time.Minute

type Server struct {
	svc        Services
	sessions   *session.Manager
	photoStore photostore.PhotoStore
	templates  fs.FS
	tmplFuncs  template.FuncMap
	mux        *http.ServeMux
	handler    http.Handler
	limiter    *loginLimiter
	viewTTL    time.Duration
	logger     *slog.Logger
}

func NewServer(svc Services, sessions *session.Manager, ps photostore.PhotoStore, tmpl fs.FS, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		svc:        svc,
		sessions:   sessions,
		photoStore: ps,
		templates:  tmpl,
		mux:        http.NewServeMux(),
		limiter:    newLoginLimiter(opts.LoginRatePerMin),
		viewTTL:    opts.ViewTTL,
		logger:     logger,
		tmplFuncs: template.FuncMap{
			"inc":        func(i int) int { return i + 1 },
			"rupiah":     rupiah,
			"chatLink":   customer.ChatLink,
			"statusSlug": statusSlug,
			"datetime":   func(t time.Time) string { return t.Local().Format("02 Jan 2006 15:04") },
		},
	}
	s.registerRoutes()

	var h http.Handler = s.mux
	if opts.CSRFKey != "" {
		h = csrf.Protect(
			[]byte(opts.CSRFKey),
			csrf.Secure(opts.CookieSecure),
			csrf.Path("/"),
			csrf.TrustedOrigins(opts.TrustedOrigins),
			csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)),
		)(h)
	}
	s.handler = requestID(logger, requestLogger(securityHeaders(h)))
	return s
}

func (s *Server) registerRoutes() {
	guard := func(h http.HandlerFunc) http.Handler {
		return s.sessions.Guard(loginPath, h)
	}

	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.Handle("POST /login", s.limiter.Middleware(http.HandlerFunc(s.handleLogin)))
	s.mux.Handle("POST /logout", guard(s.handleLogout))

	s.mux.Handle("GET /{$}", guard(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}))
	s.mux.Handle("GET /dashboard", guard(s.handleDashboard))

	s.mux.Handle("GET /orders", guard(s.handleListOrders))
	s.mux.Handle("POST /orders/{id}/status", guard(s.handleUpdateOrderStatus))
	s.mux.Handle("DELETE /orders/{id}", guard(s.handleDeleteOrder))
	s.mux.Handle("POST /orders/{id}/delete", guard(s.handleDeleteOrder))

	s.mux.Handle("GET /products", guard(s.handleListProducts))
	s.mux.Handle("GET /products/new", guard(s.handleNewProduct))
	s.mux.Handle("GET /products/{id}/edit", guard(s.handleEditProduct))
	s.mux.Handle("POST /products", guard(s.handleCreateProduct))
	s.mux.Handle("POST /products/{id}", guard(s.handleUpdateProduct))
	s.mux.Handle("POST /products/{id}/delete", guard(s.handleDeleteProduct))

	s.mux.Handle("POST /drafts/{draft}/display", guard(s.handleDraftDisplay))
	s.mux.Handle("POST /drafts/{draft}/details", guard(s.handleDraftDetail))
	s.mux.Handle("POST /drafts/{draft}/details/{index}/delete", guard(s.handleDraftRemoveDetail))
	s.mux.Handle("POST /drafts/{draft}/discard", guard(s.handleDraftDiscard))
	s.mux.Handle("GET /previews/{key}", guard(s.handlePreview))

	s.mux.Handle("GET /customers", guard(s.handleListCustomers))
	s.mux.Handle("GET /customers/{id}/edit", guard(s.handleEditCustomer))
	s.mux.Handle("POST /customers/{id}", guard(s.handleUpdateCustomer))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// HTTPServer returns an http.Server for addr serving s.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// RunJanitor sweeps per-session state every interval until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, interval)
		}
	}
}

// sweep forgets login rate limit entries idle for longer than limiterIdle,
// session lists unused for longer than the view TTL, and tokens of expired
// browser sessions.
func (s *Server) sweep(ctx context.Context, limiterIdle time.Duration) {
	s.limiter.Cleanup(limiterIdle)

	ttl := s.viewTTL
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	evicted := s.svc.Orders.Evict(ttl) + s.svc.Catalog.Evict(ttl) + s.svc.Customers.Evict(ttl)
	if evicted > 0 {
		s.logger.Debug("evicted idle session lists", "count", evicted)
	}

	if err := s.sessions.Prune(ctx); err != nil {
		s.logger.Error("failed to prune sessions", "error", err)
	}
}

// page is the data every full page receives.
type page struct {
	Title     string
	ActiveNav string
	Admin     *domain.Admin
	Flashes   []session.Flash
	CSRFField template.HTML
	CSRFToken string
	Data      any
}

func (s *Server) newPage(w http.ResponseWriter, r *http.Request, title, nav string, data any) page {
	var admin *domain.Admin
	if a, ok := s.sessions.Admin(r); ok {
		admin = &a
	}
	return page{
		Title:     title,
		ActiveNav: nav,
		Admin:     admin,
		Flashes:   s.sessions.Flashes(w, r),
		CSRFField: csrf.TemplateField(r),
		CSRFToken: csrf.Token(r),
		Data:      data,
	}
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses file and executes the template it defines under name.
func (s *Server) renderPartial(w http.ResponseWriter, file, name string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, name, data)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends the browser to target, through HX-Redirect for HTMX requests.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn("csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "forbidden", http.StatusForbidden)
}

// statusSlug turns an order status into a CSS class name.
func statusSlug(st domain.OrderStatus) string {
	return strings.ToLower(strings.ReplaceAll(string(st), " ", "-"))
}
