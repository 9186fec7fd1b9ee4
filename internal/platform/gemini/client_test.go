package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/apierr"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/logger"
)

func newTestClient(t *testing.T, baseURL string) Client {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", baseURL)
	t.Setenv("GEMINI_MODEL", "gemini-1.5-flash")
	t.Setenv("GEMINI_MAX_RETRIES", "2")
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func candidateBody(text string) string {
	raw, _ := json.Marshal(generateResponse{
		Candidates: []candidate{{Content: promptContent{Parts: []contentPart{{Text: text}}}}},
	})
	return string(raw)
}

func TestGenerateContent_ReturnsCandidateText(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_, _ = w.Write([]byte(candidateBody(`{"weeks": []}`)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	text, err := c.GenerateContent(context.Background(), "make a roadmap")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"weeks": []}` {
		t.Fatalf("unexpected text %q", text)
	}
	if gotPath != "/v1beta/models/gemini-1.5-flash:generateContent" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header not set")
	}
}

func TestGenerateContent_RetriesOn503(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(candidateBody("ok")))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	text, err := c.GenerateContent(context.Background(), "p")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if text != "ok" || attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d (text %q)", attempts, text)
	}
}

func TestGenerateContent_DoesNotRetry400(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.GenerateContent(context.Background(), "p"); err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 1 {
		t.Fatalf("4xx must not retry, saw %d attempts", attempts)
	}
}

func TestGenerateContent_UnauthorizedTaggedAsConfigError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "API key not valid", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GenerateContent(context.Background(), "p")

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *apierr.Error, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Code != "config_error" {
		t.Fatalf("unexpected classification %d/%s", apiErr.Status, apiErr.Code)
	}
}

func TestGenerateContent_BlockedPromptFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": [], "promptFeedback": {"blockReason": "SAFETY"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GenerateContent(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "blocked") {
		t.Fatalf("expected blocked error, got %v", err)
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if _, err := NewClient(log); err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}
