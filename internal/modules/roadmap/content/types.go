package content

import (
	"fmt"
	"strings"
	"time"
)

// Date serializes as a bare YYYY-MM-DD string, the shape the roadmap API has
// always spoken.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// WeeklyTask is one quest inside a week: timing metadata, a numbered
// step-by-step practice, and best-effort resource links.
type WeeklyTask struct {
	TaskType       string   `json:"task_type"`
	TaskName       string   `json:"task_name"`
	Resources      []string `json:"resources"`
	TimeSlot       string   `json:"time_slot"`
	TimeCommitment string   `json:"time_commitment"`
	Practice       string   `json:"practice"`
}

type WeekPlan struct {
	WeekNumber int          `json:"week_number"`
	Tasks      []WeeklyTask `json:"tasks"`
}

type MonthlyRoadmap struct {
	UserID         string     `json:"user_id,omitempty"`
	PersonaType    string     `json:"persona_type"`
	DurationMonths int        `json:"duration_months"`
	RequestedMonth int        `json:"requested_month"`
	StartDate      Date       `json:"start_date"`
	EndDate        Date       `json:"end_date"`
	Weeks          []WeekPlan `json:"weeks"`
	OverallGoals   []string   `json:"overall_goals"`
}

type MultiMonthRoadmap struct {
	UserID          string           `json:"user_id,omitempty"`
	PersonaType     string           `json:"persona_type"`
	TotalMonths     int              `json:"total_months"`
	MonthlyRoadmaps []MonthlyRoadmap `json:"monthly_roadmaps"`
	CombinedGoals   []string         `json:"combined_goals"`
	StartDate       Date             `json:"start_date"`
	EndDate         Date             `json:"end_date"`
}
