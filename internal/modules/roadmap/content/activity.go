package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/SayedLabib/AI-Career-Roadmap-Guide/internal/modules/roadmap/repair"
)

var (
	stepNumberRE     = regexp.MustCompile(`^\d+\.`)
	bareStepNumberRE = regexp.MustCompile(`^\d+\.$`)
)

// ValidActivityFormat reports whether every non-blank line of the text is a
// numbered step ("<n>." prefix).
func ValidActivityFormat(activity string) bool {
	lines := nonBlankLines(activity)
	if len(lines) == 0 {
		return false
	}
	for _, line := range lines {
		if !stepNumberRE.MatchString(line) {
			return false
		}
	}
	return true
}

// FormatActivity coerces whatever shape the model produced for an activity
// (string, list of steps, anything else) into a canonical numbered step list:
// newline-joined, one step per line, numbers ascending by one from 1, no blank
// lines. It never fails; the result is always the best effort for the input.
func FormatActivity(activity any) string {
	lines := activityStepLines(activity)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(renumberSteps(lines), "\n")
}

// activityStepLines resolves the input shape to one line per step. List
// elements are step boundaries in their own right, numbered or not; only
// plain text goes through wrapped-continuation merging.
func activityStepLines(activity any) []string {
	switch v := activity.(type) {
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return listStepLines(items)
	case []any:
		return listStepLines(v)
	}

	text := cleanActivityText(coerceActivityText(activity))
	if ValidActivityFormat(text) {
		return splitNumberedSteps(text)
	}
	// Wrapped continuation lines are folded into their step before any
	// renumbering happens.
	return splitNumberedSteps(strings.Join(mergeWrappedSteps(text), "\n"))
}

func listStepLines(items []any) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if str, ok := item.(string); ok {
			s = str
		} else {
			s = fmt.Sprint(item)
		}
		s = cleanActivityText(s)
		if strings.TrimSpace(s) == "" {
			continue
		}
		lines = append(lines, splitNumberedSteps(s)...)
	}
	return lines
}

func cleanActivityText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return repair.StripControlCharacters(text)
}

func coerceActivityText(activity any) string {
	switch v := activity.(type) {
	case string:
		return v
	case nil:
		return ""
	case *repair.Object:
		// An object-shaped activity has no step order to preserve; its JSON
		// text becomes the raw material for numbering.
		raw, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		return fmt.Sprint(v)
	}
}

func nonBlankLines(text string) []string {
	out := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitNumberedSteps guarantees one step per line, re-inserting newlines
// before digit-dot markers that ended up mid-line. Markers are checked from 10
// down to 1 so multi-digit numbers up to that bound are not split apart.
// Numbers of 11 and above can still be cut at their trailing digit ("11."
// splits at the inner "1."); renumberSteps restores sequential numbering
// afterwards, so the output invariant holds even when step text is imperfect.
func splitNumberedSteps(text string) []string {
	var b strings.Builder
	for _, line := range nonBlankLines(text) {
		if b.Len() > 0 && stepNumberRE.MatchString(line) {
			b.WriteString("\n")
		}
		b.WriteString(line)
		if bareStepNumberRE.MatchString(line) {
			b.WriteString(" ")
		}
	}

	joined := b.String()
	for i := 10; i >= 1; i-- {
		marker := strconv.Itoa(i) + ". "
		joined = strings.ReplaceAll(joined, marker, "\n"+marker)
	}

	return nonBlankLines(joined)
}

// mergeWrappedSteps treats any line without a number prefix as a wrapped
// continuation of the step before it.
func mergeWrappedSteps(text string) []string {
	merged := make([]string, 0)
	current := ""
	for _, line := range nonBlankLines(text) {
		switch {
		case stepNumberRE.MatchString(line):
			if current != "" {
				merged = append(merged, current)
			}
			current = line
		case current != "":
			current += " " + line
		default:
			current = line
		}
	}
	if current != "" {
		merged = append(merged, current)
	}
	return merged
}

// renumberSteps rewrites each line as "<n>. <text>" with n ascending from 1.
// A line whose existing number already matches its position keeps it; any
// skipped, duplicated or missing number is replaced.
func renumberSteps(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		rest := line
		if m := stepNumberRE.FindString(line); m != "" {
			rest = strings.TrimSpace(line[len(m):])
		}
		out = append(out, fmt.Sprintf("%d. %s", i+1, rest))
	}
	return out
}
