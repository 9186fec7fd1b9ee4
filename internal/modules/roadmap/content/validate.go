package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/modules/roadmap/repair"
	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/platform/logger"
)

// StructureError reports a month-level failure: required top-level fields
// missing, or no weeks surviving repair. Task- and week-level problems are
// absorbed before they ever become one of these.
type StructureError struct {
	Reason string
}

func (e *StructureError) Error() string {
	return "invalid roadmap structure: " + e.Reason
}

// ResourceFinder supplies best-effort resource links for a task. It must not
// fail: when nothing useful can be found it returns an empty slice.
type ResourceFinder interface {
	FindResources(ctx context.Context, taskName string, activity string, month int) []string
}

var requiredTaskFields = []string{"task_type", "task_name", "time_slot", "time_commitment", "activity"}

var requiredWeekFields = []string{"week_number", "theme", "quests"}

// BuildParams carries the request-scoped metadata stamped onto the validated
// roadmap.
type BuildParams struct {
	UserID         string
	PersonaType    string
	DurationMonths int
	Month          int
	StartDate      time.Time
}

// RoadmapBuilder walks a parsed roadmap document month -> week -> task,
// enforcing required fields at each level and containing failures to the
// smallest unit: a malformed quest is dropped, a week left with no quests is
// dropped, and only a month with no surviving weeks fails the build.
type RoadmapBuilder struct {
	log    *logger.Logger
	finder ResourceFinder
}

func NewRoadmapBuilder(log *logger.Logger, finder ResourceFinder) *RoadmapBuilder {
	return &RoadmapBuilder{log: log, finder: finder}
}

func (b *RoadmapBuilder) Build(ctx context.Context, doc *repair.Object, p BuildParams) (*MonthlyRoadmap, error) {
	if doc == nil {
		return nil, &StructureError{Reason: "empty document"}
	}
	if !doc.Has("weeks") || !doc.Has("overall_goals") {
		return nil, &StructureError{Reason: "missing required fields weeks/overall_goals"}
	}

	weeksRaw, _ := doc.Get("weeks")
	weekList, ok := weeksRaw.([]any)
	if !ok {
		return nil, &StructureError{Reason: fmt.Sprintf("weeks is %T, expected a list", weeksRaw)}
	}

	weeks := make([]WeekPlan, 0, len(weekList))
	for i, weekRaw := range weekList {
		week, ok := b.buildWeek(ctx, i, weekRaw, p.Month)
		if !ok {
			continue
		}
		weeks = append(weeks, week)
	}
	if len(weeks) == 0 {
		return nil, &StructureError{Reason: "no valid weeks could be processed"}
	}

	goalsRaw, _ := doc.Get("overall_goals")
	start := NewDate(p.StartDate)

	return &MonthlyRoadmap{
		UserID:         p.UserID,
		PersonaType:    p.PersonaType,
		DurationMonths: p.DurationMonths,
		RequestedMonth: p.Month,
		StartDate:      start,
		EndDate:        start.AddDays(30),
		Weeks:          weeks,
		OverallGoals:   FlattenGoals(goalsRaw),
	}, nil
}

// buildWeek returns the validated week and whether it survived. Order among
// survivors is input order; nothing is re-sorted.
func (b *RoadmapBuilder) buildWeek(ctx context.Context, index int, weekRaw any, month int) (WeekPlan, bool) {
	week, ok := weekRaw.(*repair.Object)
	if !ok {
		b.dropWeek(index, "not an object")
		return WeekPlan{}, false
	}
	for _, field := range requiredWeekFields {
		if !week.Has(field) {
			b.dropWeek(index, "missing required field "+field)
			return WeekPlan{}, false
		}
	}

	weekNumber, ok := intFromAny(mustGet(week, "week_number"))
	if !ok || weekNumber <= 0 {
		b.dropWeek(index, "week_number is not a positive integer")
		return WeekPlan{}, false
	}

	questsRaw := mustGet(week, "quests")
	questList, ok := questsRaw.([]any)
	if !ok {
		b.dropWeek(index, fmt.Sprintf("quests is %T, expected a list", questsRaw))
		return WeekPlan{}, false
	}

	tasks := make([]WeeklyTask, 0, len(questList))
	for qi, questRaw := range questList {
		task, ok := b.buildTask(ctx, weekNumber, qi, questRaw, month)
		if !ok {
			continue
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		b.dropWeek(index, fmt.Sprintf("no valid quests for week %d", weekNumber))
		return WeekPlan{}, false
	}

	return WeekPlan{WeekNumber: weekNumber, Tasks: tasks}, true
}

func (b *RoadmapBuilder) buildTask(ctx context.Context, weekNumber, index int, questRaw any, month int) (WeeklyTask, bool) {
	quest, ok := questRaw.(*repair.Object)
	if !ok {
		b.dropTask(weekNumber, index, "not an object")
		return WeeklyTask{}, false
	}
	for _, field := range requiredTaskFields {
		if !quest.Has(field) {
			b.dropTask(weekNumber, index, "missing required field "+field)
			return WeeklyTask{}, false
		}
	}

	taskName := stringFromAny(mustGet(quest, "task_name"))
	practice := FormatActivity(mustGet(quest, "activity"))

	resources := []string{}
	if b.finder != nil {
		if found := b.finder.FindResources(ctx, taskName, practice, month); found != nil {
			resources = found
		}
	}

	return WeeklyTask{
		TaskType:       stringFromAny(mustGet(quest, "task_type")),
		TaskName:       taskName,
		Resources:      resources,
		TimeSlot:       stringFromAny(mustGet(quest, "time_slot")),
		TimeCommitment: stringFromAny(mustGet(quest, "time_commitment")),
		Practice:       practice,
	}, true
}

func (b *RoadmapBuilder) dropWeek(index int, reason string) {
	if b.log != nil {
		b.log.Warn("dropping week", "week_index", index, "reason", reason)
	}
}

func (b *RoadmapBuilder) dropTask(weekNumber, index int, reason string) {
	if b.log != nil {
		b.log.Warn("dropping quest", "week_number", weekNumber, "quest_index", index, "reason", reason)
	}
}

// FlattenGoals normalizes the overall_goals field. A flat list is used as-is;
// a mapping of category -> goals is flattened in document order, with
// scalar-valued categories tagged "<category>: <value>". Any other shape
// yields an empty list.
func FlattenGoals(raw any) []string {
	switch goals := raw.(type) {
	case []any:
		out := make([]string, 0, len(goals))
		for _, g := range goals {
			out = append(out, stringFromAny(g))
		}
		return out
	case *repair.Object:
		out := make([]string, 0, goals.Len())
		for _, category := range goals.Keys() {
			v, _ := goals.Get(category)
			switch vv := v.(type) {
			case []any:
				for _, g := range vv {
					out = append(out, stringFromAny(g))
				}
			case string:
				out = append(out, category+": "+vv)
			}
		}
		return out
	default:
		return []string{}
	}
}

func mustGet(obj *repair.Object, key string) any {
	v, _ := obj.Get(key)
	return v
}

func stringFromAny(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers: render integers without a mantissa.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func intFromAny(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}
