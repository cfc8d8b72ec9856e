package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uismith/internal/catalog"
	"uismith/internal/token"
)

func testLibrary(t *testing.T, components ...catalog.ComponentDoc) *catalog.Library {
	t.Helper()
	lib, err := catalog.New(components, nil)
	require.NoError(t, err)
	return lib
}

func componentWithExamples(name string, examples ...string) catalog.ComponentDoc {
	c := catalog.ComponentDoc{Name: name, Description: name + " component"}
	c.Docs.Import = catalog.Snippet{Source: name + ".mdx", Code: "import { " + name + " } from \"@/components/ui/" + strings.ToLower(name) + "\""}
	c.Docs.Use = []catalog.Snippet{{Source: name + ".mdx", Code: "<" + name + " />"}}
	for _, code := range examples {
		c.Docs.Examples = append(c.Docs.Examples, catalog.Snippet{Source: "demo.tsx", Code: code})
	}
	return c
}

func newTestEngine(lib *catalog.Library, cfg Config) *Engine {
	return NewEngine(func() (*catalog.Library, error) { return lib, nil }, token.Heuristic{}, cfg)
}

func TestComponentContextDeduplicatesCaseInsensitively(t *testing.T) {
	lib := testLibrary(t, componentWithExamples("Button"))
	e := newTestEngine(lib, Config{})

	in := designed{
		libraryContext: libraryContext{Library: lib},
		Decision:       DesignDecision{Name: "X", Components: []string{"Button", "button"}},
	}
	out, err := e.buildComponentContext(context.Background(), in, nil)
	require.NoError(t, err)
	require.Len(t, out.Blocks, 1)
	assert.Contains(t, out.Blocks[0].Content, "Suggested library component (1/1) : Button")
}

func TestComponentContextTokenCeiling(t *testing.T) {
	// Each example costs exactly 40 tokens under a word counter.
	example := strings.TrimSpace(strings.Repeat("word ", 40))
	lib := testLibrary(t, componentWithExamples("Card", example, example, example))
	e := newTestEngine(lib, Config{ExampleTokenLimit: 100})

	in := designed{
		libraryContext: libraryContext{Library: lib},
		Decision:       DesignDecision{Name: "X", Components: []string{"Card"}},
	}
	out, err := e.buildComponentContext(context.Background(), in, nil)
	require.NoError(t, err)
	require.Len(t, out.Blocks, 1)

	// 40+40 = 80 <= 100 keeps two examples; the third (cumulative 120) is cut.
	assert.Equal(t, 2, strings.Count(out.Blocks[0].Content, example))
}

func TestComponentContextPreservesCatalogOrder(t *testing.T) {
	lib := testLibrary(t,
		componentWithExamples("Alert"),
		componentWithExamples("Button"),
		componentWithExamples("Card"),
	)
	e := newTestEngine(lib, Config{})

	in := designed{
		libraryContext: libraryContext{Library: lib},
		Decision:       DesignDecision{Name: "X", Components: []string{"Card", "Alert"}},
	}
	out, err := e.buildComponentContext(context.Background(), in, nil)
	require.NoError(t, err)
	require.Len(t, out.Blocks, 2)
	assert.Contains(t, out.Blocks[0].Content, "(1/2) : Alert")
	assert.Contains(t, out.Blocks[1].Content, "(2/2) : Card")
}

func TestComponentContextNilComponentsYieldsNoBlocks(t *testing.T) {
	lib := testLibrary(t, componentWithExamples("Button"))
	e := newTestEngine(lib, Config{})

	in := designed{libraryContext: libraryContext{Library: lib}, Decision: DesignDecision{Name: "X"}}
	out, err := e.buildComponentContext(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Blocks)
}
