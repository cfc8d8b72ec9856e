package pipeline

import (
	"context"
	"fmt"
	"strings"

	"uismith/internal/catalog"
	"uismith/internal/llm"
)

// buildComponentContext resolves the design decision's component list into
// one prompt message per matched catalog entry. Matching is case-insensitive
// and de-duplicated via a lookup set; catalog order (not request order) is
// preserved. Example snippets are attached greedily until the cumulative
// example tokens for that component would exceed the ceiling: the first
// overflowing example stops the scan, dropping later examples even if they
// would individually fit. This order-dependent truncation is intentional.
func (e *Engine) buildComponentContext(_ context.Context, in designed, _ Completer) (contextualized, error) {
	if len(in.Decision.Components) == 0 {
		return contextualized{designed: in}, nil
	}

	needed := make(map[string]struct{}, len(in.Decision.Components))
	for _, name := range in.Decision.Components {
		needed[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	var matched []catalog.ComponentDoc
	for _, c := range in.Library.Components {
		if _, ok := needed[strings.ToLower(c.Name)]; ok {
			matched = append(matched, c)
		}
	}

	blocks := make([]llm.Message, 0, len(matched))
	for i, component := range matched {
		consumed := 0
		var examples []catalog.Snippet
		for _, example := range component.Docs.Examples {
			consumed += e.counter.Count(example.Code)
			if consumed > e.cfg.ExampleTokenLimit {
				break
			}
			examples = append(examples, example)
		}

		var sb strings.Builder
		sb.WriteString("Library components can be used while making the new React component\n\n")
		sb.WriteString(fmt.Sprintf("Suggested library component (%d/%d) : %s - %s\n\n\n",
			i+1, len(matched), component.Name, component.Description))
		sb.WriteString(fmt.Sprintf("# %s can be imported into the new component like this:\n", component.Name))
		sb.WriteString("```" + e.cfg.Language + "\n" + strings.TrimSpace(component.Docs.Import.Code) + "\n```\n\n---\n\n")
		sb.WriteString(fmt.Sprintf("# examples of how %s can be used inside the new component:\n", component.Name))
		for j, use := range component.Docs.Use {
			if j > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString("```" + e.cfg.Language + "\n" + strings.TrimSpace(use.Code) + "\n```")
		}
		sb.WriteString("\n\n---")
		if len(examples) > 0 {
			sb.WriteString("\n\n")
			sb.WriteString(fmt.Sprintf("# full code examples of React components that use %s :\n", component.Name))
			for j, example := range examples {
				if j > 0 {
					sb.WriteString("\n\n")
				}
				sb.WriteString("```" + example.Source + "\n" + strings.TrimSpace(example.Code) + "\n```")
			}
		}

		blocks = append(blocks, llm.Message{Role: llm.RoleUser, Content: sb.String()})
	}

	return contextualized{designed: in, Blocks: blocks}, nil
}
