package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCodeStripsFences(t *testing.T) {
	assert.Equal(t, "const x = 1;", ExtractCode("```tsx\nconst x = 1;\n```", "tsx"))
}

func TestExtractCodeNoFences(t *testing.T) {
	assert.Equal(t, "", ExtractCode("no fences here", "tsx"))
}

func TestExtractCodeExtractedOutputHasNoFences(t *testing.T) {
	// Extraction strips every fence line, so re-running the extractor on its
	// own output finds nothing fenced and yields the empty string.
	clean := ExtractCode("```tsx\nexport default function A() {\n  return <div />;\n}\n```", "tsx")
	assert.NotContains(t, clean, "```")
	assert.Equal(t, "", ExtractCode(clean, "tsx"))
}

func TestExtractCodeBareFence(t *testing.T) {
	assert.Equal(t, "let y = 2;", ExtractCode("some text\n```\nlet y = 2;\n```\ntrailing", "tsx"))
}

func TestExtractCodeCaseAndWhitespaceOnFence(t *testing.T) {
	assert.Equal(t, "a", ExtractCode("  ```TSX  \na\n```", "tsx"))
}

func TestExtractCodeUnterminatedBlock(t *testing.T) {
	assert.Equal(t, "partial\nlines", ExtractCode("```tsx\npartial\nlines", "tsx"))
}

func TestExtractCodeMultipleBlocksConcatenate(t *testing.T) {
	text := "```tsx\nfirst\n```\nprose in between\n```tsx\nsecond\n```"
	assert.Equal(t, "first\nsecond", ExtractCode(text, "tsx"))
}

func TestExtractCodeIgnoresOtherLanguageTags(t *testing.T) {
	// A fence tagged with a different language does not toggle; its body is
	// treated as outside text.
	assert.Equal(t, "", ExtractCode("```python\nprint(1)\n```python", "tsx"))
}
