// Package token estimates prompt token counts for logging and for the
// example budget in component context assembly.
package token

import lru "github.com/hashicorp/golang-lru/v2"

// Counter estimates how many tokens a text costs.
type Counter interface {
	Count(text string) int
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(text string) int

func (f CounterFunc) Count(text string) int { return f(text) }

// Cached memoizes an inner Counter. Catalog examples are counted on every
// run, and they never change between runs.
type Cached struct {
	inner Counter
	cache *lru.Cache[string, int]
}

func NewCached(inner Counter, size int) *Cached {
	if size <= 0 {
		size = 1024
	}
	cache, _ := lru.New[string, int](size)
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Count(text string) int {
	if n, ok := c.cache.Get(text); ok {
		return n
	}
	n := c.inner.Count(text)
	c.cache.Add(text, n)
	return n
}
