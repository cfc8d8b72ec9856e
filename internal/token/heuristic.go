package token

import "strings"

// Heuristic counts whitespace-delimited words. Rough, but token budgets
// here gate context size, not billing.
type Heuristic struct{}

func (Heuristic) Count(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}
