package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/modules/roadmap/content"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/modules/roadmap/repair"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/apierr"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/logger"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/services"
)

// RoadmapGenerator is the slice of the generation service the handler uses.
type RoadmapGenerator interface {
	GenerateProgram(ctx context.Context, params services.GenerateParams) (*content.MultiMonthRoadmap, error)
}

type RoadmapHandler struct {
	log       *logger.Logger
	generator RoadmapGenerator
}

func NewRoadmapHandler(log *logger.Logger, generator RoadmapGenerator) *RoadmapHandler {
	return &RoadmapHandler{
		log:       log.With("handler", "RoadmapHandler"),
		generator: generator,
	}
}

const maxDurationMonths = 24

// Generate handles POST /api/roadmap/generate. Parameters come as query
// values so the endpoint stays trivially callable from a frontend form.
func (h *RoadmapHandler) Generate(c *gin.Context) {
	personaType := strings.TrimSpace(c.Query("persona_type"))
	if personaType == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("persona_type is required"))
		return
	}

	durationStr := strings.TrimSpace(c.Query("duration_months"))
	duration, err := strconv.Atoi(durationStr)
	if err != nil || duration < 1 || duration > maxDurationMonths {
		RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("duration_months must be an integer between 1 and %d", maxDurationMonths))
		return
	}

	params := services.GenerateParams{
		UserID:         strings.TrimSpace(c.Query("user_id")),
		PersonaType:    personaType,
		DurationMonths: duration,
	}

	program, err := h.generator.GenerateProgram(c.Request.Context(), params)
	if err != nil {
		status, code := classifyGenerationError(err)
		h.log.Error("Roadmap generation failed",
			"persona_type", personaType,
			"duration_months", duration,
			"code", code,
			"error", err.Error(),
		)
		RespondError(c, status, code, err)
		return
	}

	// A one-month request answers with the bare month; the aggregate wrapper
	// is the multi-month shape only.
	if program.TotalMonths == 1 && len(program.MonthlyRoadmaps) == 1 {
		RespondOK(c, program.MonthlyRoadmaps[0])
		return
	}
	RespondOK(c, program)
}

// classifyGenerationError maps pipeline failures to a status and a stable
// error code. Configuration problems are the operator's fault, malformed
// model output is the provider's, everything else is reported as a plain
// generation failure.
func classifyGenerationError(err error) (int, string) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, apiErr.Code
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "api key") {
		return http.StatusInternalServerError, "config_error"
	}

	var parseErr *repair.ParseError
	var structErr *content.StructureError
	switch {
	case errors.As(err, &parseErr),
		errors.As(err, &structErr),
		strings.Contains(msg, "control character"),
		strings.Contains(msg, "decode"):
		return http.StatusBadGateway, "malformed_ai_response"
	}

	return http.StatusInternalServerError, "generation_failed"
}
