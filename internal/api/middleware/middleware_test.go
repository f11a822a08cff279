package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/taxease/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		method      string
		wantStatus  int
		wantOrigin  string
		wantCredHdr string
	}{
		{"configured origin", "http://localhost:3000", http.MethodGet, http.StatusTeapot, "http://localhost:3000", "true"},
		{"wildcard", "*", http.MethodGet, http.StatusTeapot, "*", ""},
		{"preflight", "http://localhost:3000", http.MethodOptions, http.StatusNoContent, "http://localhost:3000", "true"},
		{"disabled", "", http.MethodGet, http.StatusTeapot, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			CORS(tt.origin)(okHandler()).ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/chat", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredHdr {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCredHdr)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(rec, req)
	if seen != "abc" || rec.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("request id = %q / %q, want abc", seen, rec.Header().Get("X-Request-ID"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if seen == "" || seen == "abc" {
		t.Errorf("expected generated request id, got %q", seen)
	}
}

func TestLoggerAndRecovery(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewWithOptions(logger.Options{Out: buf})

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := Chain(panicky, RequestID, Recovery(log), Logger(log))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	req.Header.Set("X-Request-ID", "req-1")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Errorf("body = %s", rec.Body.String())
	}
	out := buf.String()
	if !strings.Contains(out, "Panic recovered") || !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("log output = %s", out)
	}
}

func TestLogger_StoresRequestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewWithOptions(logger.Options{Out: buf})

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logger.FromContext(r.Context())
		l.Info().Msg("inside handler")
		w.WriteHeader(http.StatusCreated)
	}), RequestID, Logger(log))

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil).WithContext(context.Background())
	req.Header.Set("X-Request-ID", "req-2")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Count(out, `"request_id":"req-2"`) != 2 {
		t.Errorf("expected handler and access log tagged with request id: %s", out)
	}
	if !strings.Contains(out, `"status":201`) {
		t.Errorf("access log missing status: %s", out)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "Summary not found for session")

	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Summary not found for session"}` {
		t.Errorf("body = %s", got)
	}
}
