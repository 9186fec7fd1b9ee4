package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/modules/roadmap/content"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/modules/roadmap/repair"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/apierr"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/logger"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/services"
)

type stubGenerator struct {
	params  services.GenerateParams
	program *content.MultiMonthRoadmap
	err     error
	called  bool
}

func (s *stubGenerator) GenerateProgram(ctx context.Context, params services.GenerateParams) (*content.MultiMonthRoadmap, error) {
	s.called = true
	s.params = params
	return s.program, s.err
}

func newTestRouter(t *testing.T, gen RoadmapGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	r := gin.New()
	h := NewRoadmapHandler(log, gen)
	r.POST("/api/roadmap/generate", h.Generate)
	return r
}

func doGenerate(t *testing.T, r *gin.Engine, query string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/roadmap/generate"+query, nil)
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, w.Body.String())
	}
	return env
}

func TestGenerate_Success(t *testing.T) {
	gen := &stubGenerator{program: &content.MultiMonthRoadmap{
		PersonaType: "builder",
		TotalMonths: 2,
	}}
	r := newTestRouter(t, gen)

	w := doGenerate(t, r, "?persona_type=builder&duration_months=2&user_id=u1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gen.params.PersonaType != "builder" || gen.params.DurationMonths != 2 || gen.params.UserID != "u1" {
		t.Fatalf("unexpected params %+v", gen.params)
	}
	var got content.MultiMonthRoadmap
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TotalMonths != 2 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestGenerate_SingleMonthReturnsBareRoadmap(t *testing.T) {
	month := content.MonthlyRoadmap{
		PersonaType:    "builder",
		DurationMonths: 1,
		RequestedMonth: 1,
	}
	gen := &stubGenerator{program: &content.MultiMonthRoadmap{
		PersonaType:     "builder",
		TotalMonths:     1,
		MonthlyRoadmaps: []content.MonthlyRoadmap{month},
	}}
	r := newTestRouter(t, gen)

	w := doGenerate(t, r, "?persona_type=builder&duration_months=1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := raw["total_months"]; ok {
		t.Fatalf("single-month response must not carry the aggregate wrapper: %s", w.Body.String())
	}
	if _, ok := raw["monthly_roadmaps"]; ok {
		t.Fatalf("single-month response must not nest the month: %s", w.Body.String())
	}
	if raw["requested_month"] != float64(1) || raw["persona_type"] != "builder" {
		t.Fatalf("unexpected payload %s", w.Body.String())
	}
}

func TestGenerate_RejectsMissingPersona(t *testing.T) {
	gen := &stubGenerator{}
	r := newTestRouter(t, gen)

	w := doGenerate(t, r, "?duration_months=2")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decodeError(t, w); env.Error.Code != "invalid_request" {
		t.Fatalf("expected invalid_request, got %q", env.Error.Code)
	}
	if gen.called {
		t.Fatalf("generator must not run on invalid input")
	}
}

func TestGenerate_RejectsBadDuration(t *testing.T) {
	for _, q := range []string{
		"?persona_type=x",
		"?persona_type=x&duration_months=0",
		"?persona_type=x&duration_months=-3",
		"?persona_type=x&duration_months=forever",
		"?persona_type=x&duration_months=25",
	} {
		gen := &stubGenerator{}
		r := newTestRouter(t, gen)
		w := doGenerate(t, r, q)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestGenerate_HonorsTaggedAPIError(t *testing.T) {
	// Errors already carrying a status and code pass through untouched, even
	// when wrapped by the month pipeline.
	cause := apierr.New(http.StatusInternalServerError, "config_error", errors.New("gemini API key rejected"))
	gen := &stubGenerator{err: fmt.Errorf("month 1: %w", cause)}
	r := newTestRouter(t, gen)

	w := doGenerate(t, r, "?persona_type=x&duration_months=1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if env := decodeError(t, w); env.Error.Code != "config_error" {
		t.Fatalf("expected config_error, got %q", env.Error.Code)
	}
}

func TestGenerate_ClassifiesConfigError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("missing GEMINI_API_KEY: API key not configured")}
	r := newTestRouter(t, gen)

	w := doGenerate(t, r, "?persona_type=x&duration_months=1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if env := decodeError(t, w); env.Error.Code != "config_error" {
		t.Fatalf("expected config_error, got %q", env.Error.Code)
	}
}

func TestGenerate_ClassifiesMalformedResponse(t *testing.T) {
	cases := []error{
		&repair.ParseError{Err: errors.New("unexpected EOF"), Text: "{"},
		&content.StructureError{Reason: "no valid weeks could be processed"},
		errors.New("invalid control character in string literal"),
		errors.New("cannot decode candidate payload"),
	}
	for _, cause := range cases {
		gen := &stubGenerator{err: cause}
		r := newTestRouter(t, gen)
		w := doGenerate(t, r, "?persona_type=x&duration_months=1")
		if w.Code != http.StatusBadGateway {
			t.Fatalf("%v: expected 502, got %d", cause, w.Code)
		}
		if env := decodeError(t, w); env.Error.Code != "malformed_ai_response" {
			t.Fatalf("%v: expected malformed_ai_response, got %q", cause, env.Error.Code)
		}
	}
}

func TestGenerate_DefaultsToGenerationFailed(t *testing.T) {
	gen := &stubGenerator{err: errors.New("something else broke")}
	r := newTestRouter(t, gen)

	w := doGenerate(t, r, "?persona_type=x&duration_months=1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if env := decodeError(t, w); env.Error.Code != "generation_failed" {
		t.Fatalf("expected generation_failed, got %q", env.Error.Code)
	}
}
