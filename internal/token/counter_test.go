package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicCount(t *testing.T) {
	h := Heuristic{}
	assert.Equal(t, 0, h.Count(""))
	assert.Equal(t, 0, h.Count("   \n\t"))
	assert.Equal(t, 3, h.Count("three word sentence"))
	assert.Equal(t, 1, h.Count("x"))
	// Text without whitespace is a single field, so it counts as one word
	// regardless of length.
	assert.Equal(t, 1, h.Count("abcdefghijklmnop"))
}

func TestCachedCountsOnce(t *testing.T) {
	calls := 0
	c := NewCached(CounterFunc(func(text string) int {
		calls++
		return len(text)
	}), 8)

	assert.Equal(t, 5, c.Count("hello"))
	assert.Equal(t, 5, c.Count("hello"))
	assert.Equal(t, 1, calls)
}

func TestCachedEvicts(t *testing.T) {
	calls := 0
	c := NewCached(CounterFunc(func(text string) int {
		calls++
		return len(text)
	}), 1)

	c.Count("a")
	c.Count("b") // evicts "a"
	c.Count("a")
	assert.Equal(t, 3, calls)
}
