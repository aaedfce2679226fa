package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestVisitorStore_SweepsStaleVisitors(t *testing.T) {
	now := time.Now()
	s := newVisitorStore(rate.Every(time.Second), 1, time.Minute)
	s.nowFunc = func() time.Time { return now }
	s.lastSweep = now

	s.getVisitor("10.0.0.1")
	s.getVisitor("10.0.0.2")
	assert.Equal(t, 2, s.len())

	now = now.Add(2 * time.Minute)
	s.getVisitor("10.0.0.3")

	assert.Equal(t, 1, s.len())
}

func TestRateLimit_PerIP(t *testing.T) {
	s := newVisitorStore(rate.Every(time.Hour), 1, time.Hour)
	h := rateLimit(s, slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}
