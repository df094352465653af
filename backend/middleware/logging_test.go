// ABOUTME: Tests for request logging middleware
// ABOUTME: Verifies path sanitization prevents log injection attacks

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestSanitizePath_RemovesNewlines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "path with newline injection",
			input: "/api/v1/dashboard\nAdmin access granted for user attacker",
			want:  "/api/v1/dashboardAdmin access granted for user attacker",
		},
		{
			name:  "path with carriage return",
			input: "/api/test\rmalicious",
			want:  "/api/testmalicious",
		},
		{
			name:  "path with CRLF",
			input: "/api/test\r\ninjected line",
			want:  "/api/testinjected line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizePath(tt.input)
			if got != tt.want {
				t.Errorf("sanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizePath_RemovesControlCharacters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "path with tab",
			input: "/api/test\tvalue",
			want:  "/api/testvalue",
		},
		{
			name:  "path with null byte",
			input: "/api/test\x00value",
			want:  "/api/testvalue",
		},
		{
			name:  "path with bell character",
			input: "/api/test\x07value",
			want:  "/api/testvalue",
		},
		{
			name:  "path with escape sequence",
			input: "/api/test\x1b[31mred\x1b[0m",
			want:  "/api/test[31mred[0m",
		},
		{
			name:  "path with DEL character",
			input: "/api/test\x7fvalue",
			want:  "/api/testvalue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizePath(tt.input)
			if got != tt.want {
				t.Errorf("sanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizePath_PreservesValidCharacters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "normal path",
			input: "/api/v1/dashboard",
			want:  "/api/v1/dashboard",
		},
		{
			name:  "path with query string chars",
			input: "/api/v1/snapshot?limit=10&offset=0",
			want:  "/api/v1/snapshot?limit=10&offset=0",
		},
		{
			name:  "path with URL encoded chars",
			input: "/api/v1/hosts%2Ftest",
			want:  "/api/v1/hosts%2Ftest",
		},
		{
			name:  "path with hyphens and underscores",
			input: "/plugin/main-tab.html",
			want:  "/plugin/main-tab.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizePath(tt.input)
			if got != tt.want {
				t.Errorf("sanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogRequest_SetsRequestIDHeader(t *testing.T) {
	handler := LogRequest(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	requestID := rec.Header().Get("X-Request-ID")
	if requestID == "" {
		t.Error("X-Request-ID header should be set")
	}
	if _, err := uuid.Parse(requestID); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID: %v", requestID, err)
	}
}

func TestLogRequest_KeepsIncomingRequestID(t *testing.T) {
	handler := LogRequest(func(w http.ResponseWriter, r *http.Request) {})

	incoming := "2f1f5d0c-8f0e-4c53-9a53-6f1e9c7b1a2d"
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("X-Request-ID", incoming)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != incoming {
		t.Errorf("X-Request-ID = %q, want %q", got, incoming)
	}
}

func TestLogRequest_ReplacesMalformedRequestID(t *testing.T) {
	handler := LogRequest(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("X-Request-ID", "abc\ninjected")
	rec := httptest.NewRecorder()
	handler(rec, req)

	got := rec.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID: %v", got, err)
	}
}

func TestLogRequest_CapturesStatusCode(t *testing.T) {
	handler := LogRequest(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusCreated)
	}
}
