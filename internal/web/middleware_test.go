package web

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dikaadmin/internal/domain"
	"github.com/vbonduro/dikaadmin/internal/logging"
)

func TestRequestIDAssignedAndPropagated(t *testing.T) {
	var sawLogger bool
	h := requestID(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = logging.FromContext(r.Context()) != slog.Default()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	require.NoError(t, err)
	assert.True(t, sawLogger)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(requestIDHeader))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	securityHeaders(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	requestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLoginLimiter(t *testing.T) {
	l := newLoginLimiter(2)
	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "limits are per client")

	l.Cleanup(-time.Second)
	assert.Empty(t, l.visitors)
	assert.True(t, l.allow("10.0.0.1"))
}

func TestLoginLimiterDisabled(t *testing.T) {
	l := newLoginLimiter(0)
	for i := 0; i < 100; i++ {
		require.True(t, l.allow("10.0.0.1"))
	}
}

func TestLoginLimiterMiddleware(t *testing.T) {
	h := newLoginLimiter(1).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestRupiah(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "Rp 0"},
		{"999", "Rp 999"},
		{"1000", "Rp 1.000"},
		{"450000", "Rp 450.000"},
		{"1250000.4", "Rp 1.250.000"},
		{"-15000", "-Rp 15.000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, rupiah(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestStatusSlug(t *testing.T) {
	assert.Equal(t, "menunggu-konfirmasi", statusSlug(domain.StatusAwaiting))
	assert.Equal(t, "selesai", statusSlug(domain.StatusCompleted))
}
