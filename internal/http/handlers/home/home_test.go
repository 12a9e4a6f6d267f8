package home_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aanand-mishra/school-api/internal/http/handlers/home"
	"github.com/aanand-mishra/school-api/internal/messages"
)

func TestWelcome(t *testing.T) {
	rec := httptest.NewRecorder()
	home.Welcome(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Message != messages.Welcome {
		t.Errorf("message: got %q, want %q", body.Message, messages.Welcome)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	home.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
}
