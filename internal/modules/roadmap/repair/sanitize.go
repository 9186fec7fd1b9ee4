package repair

import (
	"regexp"
	"strings"
)

var (
	// ASCII control characters that break encoding/json, minus the newline
	// that the document structure still needs.
	controlCharRE = regexp.MustCompile(`[\x00-\x09\x0B\x0C\x0E-\x1F\x7F]`)

	// Matches an activity value up to the first quote that closes it (a quote
	// followed by "," or "}"). The value itself may contain raw newlines and
	// unescaped quotes, which is exactly what this pass repairs.
	activityValueRE = regexp.MustCompile(`(?s)("activity":\s*")(.*?)("\s*[,}])`)
)

// StripControlCharacters removes the control characters that commonly leak
// into model output, keeping newlines.
func StripControlCharacters(s string) string {
	return controlCharRE.ReplaceAllString(s, "")
}

// Sanitize repairs the common formatting slips in near-JSON model output:
// mixed line endings, stray control characters, and raw backslashes, newlines
// or double quotes embedded in "activity" string values. Everything outside
// the activity values is left untouched. The transform is pure and best-effort.
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = StripControlCharacters(text)

	text = activityValueRE.ReplaceAllStringFunc(text, func(match string) string {
		groups := activityValueRE.FindStringSubmatch(match)
		if groups == nil {
			return match
		}
		value := groups[2]
		value = strings.ReplaceAll(value, `\`, `\\`)
		value = strings.ReplaceAll(value, "\n", `\n`)
		value = strings.ReplaceAll(value, `"`, `\"`)
		return groups[1] + value + groups[3]
	})

	return text
}

// sanitizeLineByLine is the last-resort repair pass: it rebuilds the document
// line by line, treating everything between an "activity" key and the next
// line that ends in an unescaped quote as one multi-line string value. The
// collected value is re-escaped and emitted as a single line. Lines outside an
// activity value pass through unchanged.
func sanitizeLineByLine(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	inActivity := false
	var prefix string
	var buf string

	closeActivity := func() string {
		escaped := strings.ReplaceAll(buf, `"`, `\"`)
		return prefix + escaped + `"`
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		switch {
		case strings.Contains(stripped, `"activity":`):
			parts := strings.SplitN(stripped, `"activity":`, 2)
			prefix = parts[0] + `"activity": "`
			content := strings.TrimSpace(parts[1])

			// Value opens and closes on this line.
			if strings.HasSuffix(stripped, `"`) && strings.Count(stripped, `"`) > 3 &&
				strings.HasPrefix(content, `"`) && strings.HasSuffix(content, `"`) {
				content = content[1 : len(content)-1]
				content = strings.ReplaceAll(content, `"`, `\"`)
				result = append(result, prefix+content+`"`)
				continue
			}

			content = strings.TrimPrefix(content, `"`)
			buf = content
			inActivity = true

		case inActivity:
			if strings.HasSuffix(stripped, `"`) && !strings.HasSuffix(stripped, `\"`) {
				buf += `\n` + stripped[:len(stripped)-1]
				result = append(result, closeActivity())
				inActivity = false
				buf = ""
			} else {
				buf += `\n` + stripped
			}

		default:
			result = append(result, stripped)
		}
	}

	// Unterminated value at EOF: close it rather than drop it.
	if inActivity {
		result = append(result, closeActivity())
	}

	return strings.Join(result, "\n")
}
