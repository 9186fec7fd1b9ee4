package content

// CombineMonths folds already-validated monthly roadmaps into one program
// document. Goals are concatenated across months and deduplicated by exact
// string equality, first occurrence winning; dates come from the first and
// last month. No per-field validation happens here.
func CombineMonths(userID, personaType string, months []MonthlyRoadmap) *MultiMonthRoadmap {
	if len(months) == 0 {
		return nil
	}

	goals := make([]string, 0)
	for _, m := range months {
		goals = append(goals, m.OverallGoals...)
	}

	return &MultiMonthRoadmap{
		UserID:          userID,
		PersonaType:     personaType,
		TotalMonths:     len(months),
		MonthlyRoadmaps: months,
		CombinedGoals:   dedupeStrings(goals),
		StartDate:       months[0].StartDate,
		EndDate:         months[len(months)-1].EndDate,
	}
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
