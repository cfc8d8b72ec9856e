package pipeline

import "strings"

// ExtractCode pulls fenced code out of free model text. A line that, after
// trimming and case-folding, equals "```" or "```"+lang toggles an
// inside-code flag and is discarded; lines while the flag is set accumulate
// in order and the joined result is trimmed. An unterminated block yields
// whatever accumulated (best effort, not an error), and alternating multiple
// blocks concatenate. The two-state toggle is kept deliberately simple; a
// fence-looking line inside a string literal will toggle it.
func ExtractCode(text, lang string) string {
	open := "```"
	tagged := "```" + strings.ToLower(lang)

	var out []string
	inside := false
	for _, line := range strings.Split(text, "\n") {
		marker := strings.ToLower(strings.TrimSpace(line))
		if marker == open || marker == tagged {
			inside = !inside
			continue
		}
		if inside {
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
