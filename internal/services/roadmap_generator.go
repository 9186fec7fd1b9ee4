package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/modules/roadmap/content"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/modules/roadmap/repair"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/gemini"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/logger"
)

// batchSize bounds how many months are generated concurrently for long
// programs. Programs under twelve months run fully parallel.
const batchSize = 6

// GenerateParams describes one program request.
type GenerateParams struct {
	UserID         string
	PersonaType    string
	DurationMonths int
}

// RoadmapGeneratorService owns the full month pipeline: prompt the model,
// repair-parse its output, validate and enrich the structure, and assemble
// months into a program.
type RoadmapGeneratorService struct {
	log     *logger.Logger
	ai      gemini.Client
	builder *content.RoadmapBuilder
	now     func() time.Time
}

func NewRoadmapGeneratorService(log *logger.Logger, ai gemini.Client, finder content.ResourceFinder) *RoadmapGeneratorService {
	svcLog := log.With("service", "RoadmapGeneratorService")
	return &RoadmapGeneratorService{
		log:     svcLog,
		ai:      ai,
		builder: content.NewRoadmapBuilder(svcLog, finder),
		now:     time.Now,
	}
}

// GenerateMonth produces one validated month. Transport failures are wrapped
// so the handler can distinguish them from parse and structure failures.
func (s *RoadmapGeneratorService) GenerateMonth(ctx context.Context, params GenerateParams, month int) (*content.MonthlyRoadmap, error) {
	prompt := buildMonthPrompt(params.PersonaType, params.DurationMonths, month)

	raw, err := s.ai.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	doc, err := repair.Parse(raw)
	if err != nil {
		return nil, err
	}

	start := s.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, (month-1)*30)
	return s.builder.Build(ctx, doc, content.BuildParams{
		UserID:         params.UserID,
		PersonaType:    params.PersonaType,
		DurationMonths: params.DurationMonths,
		Month:          month,
		StartDate:      start,
	})
}

// GenerateProgram generates every month of the program and combines them.
// Months within a batch run concurrently; any month failing fails the whole
// program, though the remaining months in the batch run to completion before
// the error surfaces.
func (s *RoadmapGeneratorService) GenerateProgram(ctx context.Context, params GenerateParams) (*content.MultiMonthRoadmap, error) {
	if params.DurationMonths < 1 {
		return nil, fmt.Errorf("duration_months must be at least 1")
	}
	if strings.TrimSpace(params.PersonaType) == "" {
		return nil, fmt.Errorf("persona_type required")
	}

	runID := uuid.NewString()
	log := s.log.With("run_id", runID, "persona_type", params.PersonaType, "months", params.DurationMonths)
	log.Info("Roadmap generation started")

	months := make([]content.MonthlyRoadmap, params.DurationMonths)

	size := params.DurationMonths
	if params.DurationMonths >= 12 {
		size = batchSize
	}

	for lo := 1; lo <= params.DurationMonths; lo += size {
		hi := lo + size - 1
		if hi > params.DurationMonths {
			hi = params.DurationMonths
		}

		var g errgroup.Group
		for m := lo; m <= hi; m++ {
			month := m
			g.Go(func() error {
				roadmap, err := s.GenerateMonth(ctx, params, month)
				if err != nil {
					log.Error("Month generation failed", "month", month, "error", err.Error())
					return fmt.Errorf("month %d: %w", month, err)
				}
				months[month-1] = *roadmap
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		log.Debug("Batch completed", "from", lo, "to", hi)
	}

	combined := content.CombineMonths(params.UserID, params.PersonaType, months)
	log.Info("Roadmap generation completed", "total_months", combined.TotalMonths)
	return combined, nil
}

// buildMonthPrompt renders the generation prompt for one month. Week numbers
// continue across months so a six month program runs weeks 1 through 24.
func buildMonthPrompt(personaType string, durationMonths, month int) string {
	firstWeek := (month-1)*4 + 1
	lastWeek := month * 4

	var position string
	switch {
	case durationMonths == 1:
		position = "This is a single-month plan, so cover fundamentals through a small finished outcome."
	case month == 1:
		position = "This is the first month of the program, so start from fundamentals and build momentum."
	case month == durationMonths:
		position = "This is the final month of the program, so focus on consolidation, portfolio work and next steps."
	default:
		position = fmt.Sprintf("This is month %d of %d, so build on the prior months and raise the difficulty.", month, durationMonths)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a career mentor creating month %d of a %d-month personalized learning roadmap for a %q persona.\n\n", month, durationMonths, personaType)
	b.WriteString(position)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Produce exactly 4 weeks, numbered %d through %d.\n", firstWeek, lastWeek)
	b.WriteString(`Each week needs a "theme" and 2 to 4 quests. Each quest must have:
- "task_type": one of Learn, Practice, Build, Review
- "task_name": a short concrete title
- "time_slot": a daily time window like "7:00 PM - 8:30 PM"
- "time_commitment": weekly hours like "5 hours/week"
- "activity": numbered step-by-step instructions ("1. ...", "2. ...")

Respond with ONLY a JSON object in exactly this shape, no markdown, no commentary:
{
  "weeks": [
    {
      "week_number": <number>,
      "theme": "<string>",
      "quests": [ { "task_type": "...", "task_name": "...", "time_slot": "...", "time_commitment": "...", "activity": "..." } ]
    }
  ],
  "overall_goals": ["<goal>", "<goal>"]
}
`)
	return b.String()
}
