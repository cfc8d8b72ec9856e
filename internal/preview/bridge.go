package preview

import (
	"context"
	"log"
	"sync"

	"uismith/internal/sandbox"
)

// Status is what clients get to know about the preview sandbox. URL is
// populated only once the sandbox is ready; before that clients render the
// state itself (booting, installing, failed).
type Status struct {
	State sandbox.State `json:"state"`
	URL   string        `json:"url,omitempty"`
}

// Bridge pushes generated component code into the sandbox and publishes
// status changes. The sandbox boots lazily on the first push.
type Bridge struct {
	prov     *sandbox.Provisioner
	notifier *Notifier
	// Entry is the project file generated components are written to.
	Entry string

	mu     sync.Mutex
	handle *sandbox.Handle
}

func NewBridge(prov *sandbox.Provisioner, notifier *Notifier) *Bridge {
	return &Bridge{
		prov:     prov,
		notifier: notifier,
		Entry:    "src/App.tsx",
	}
}

// Status reports the current sandbox state, with the dev server URL once
// provisioning has finished.
func (b *Bridge) Status() Status {
	st := Status{State: b.prov.State()}
	b.mu.Lock()
	if b.handle != nil && st.State == sandbox.StateReady {
		st.URL = b.handle.URL()
	}
	b.mu.Unlock()
	return st
}

// Push writes component code into the sandbox's entry file, booting the
// sandbox first if needed. Concurrent pushes race as last-write-wins.
func (b *Bridge) Push(ctx context.Context, code string) error {
	b.notifier.Broadcast()
	handle, err := b.prov.Boot(ctx)
	if err != nil {
		b.notifier.Broadcast()
		return err
	}
	b.mu.Lock()
	b.handle = handle
	b.mu.Unlock()

	if err := handle.PushSource(b.Entry, code); err != nil {
		log.Printf("preview: push %s: %v", b.Entry, err)
		return err
	}
	b.notifier.Broadcast()
	return nil
}

// Subscribe proxies the notifier for status feeds.
func (b *Bridge) Subscribe() chan struct{} { return b.notifier.Subscribe() }

// Unsubscribe proxies the notifier.
func (b *Bridge) Unsubscribe(ch chan struct{}) { b.notifier.Unsubscribe(ch) }
