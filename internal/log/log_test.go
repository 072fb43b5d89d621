package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: ComponentWorker})
	l.Info("hello", FieldMonth, "2024-01")
	l.WithComponent(ComponentSheets).Debug("export")

	out := buf.String()
	if !strings.Contains(out, `"component":"worker"`) || !strings.Contains(out, `"month":"2024-01"`) {
		t.Fatalf("missing attrs: %s", out)
	}
	if !strings.Contains(out, `"component":"sheets"`) {
		t.Fatalf("WithComponent not applied: %s", out)
	}
}

func TestMiddlewareCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf, Format: "json"})

	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Fatalf("request id not logged: %s", buf.String())
	}
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Fatalf("fallback component = %q", got)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Format: "json", Component: ComponentLedger}))

	sl.LogTransactionSaved(context.Background(), "expense", "id-1", 1250, "2024-02", "cat-4")
	sl.LogError(context.Background(), "boom", errors.New("disk full"), OpImport, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/expenses", nil)
	sl.LogHTTPEnd(context.Background(), r, 503, 12, "10.0.0.1")

	out := buf.String()
	for _, want := range []string{`"amount_cents":1250`, `"error":"disk full"`, `"status_code":503`, `"level":"ERROR"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}
