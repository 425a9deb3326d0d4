package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Spok95/eduhere-client/internal/models"
	"github.com/Spok95/eduhere-client/internal/school"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestRoutes(t *testing.T) {
	h := Routes(pinger{}, func() school.StatusMap { return school.StatusMap{"2025-03-14-7": models.Present} })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attendance", nil))
	if !strings.Contains(rec.Body.String(), `"2025-03-14-7":"present"`) {
		t.Fatalf("attendance: %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "eduhere_") {
		t.Fatalf("metrics: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	Routes(pinger{err: errors.New("redis: connection refused")}, nil).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the store is down, got %d", rec.Code)
	}
}
