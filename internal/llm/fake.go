package llm

import (
	"context"
	"sync"
)

// Fake is a scripted Client for tests. Each Complete call consumes the next
// scripted completion and records the request it saw.
type Fake struct {
	mu       sync.Mutex
	script   []Completion
	err      error
	Requests []Request
}

// NewFake returns a Fake that answers with the given completions in order.
// When the script runs out, it returns empty completions.
func NewFake(script ...Completion) *Fake {
	return &Fake{script: script}
}

// Fail makes every subsequent call return err.
func (f *Fake) Fail(err error) { f.err = err }

func (f *Fake) Name() string { return "FakeLLM" }
func (f *Fake) Close() error { return nil }

func (f *Fake) Complete(_ context.Context, req Request) (Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	if f.err != nil {
		return Completion{}, f.err
	}
	if len(f.script) == 0 {
		return Completion{}, nil
	}
	out := f.script[0]
	f.script = f.script[1:]
	return out, nil
}

// Calls reports how many requests the fake has served.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}
