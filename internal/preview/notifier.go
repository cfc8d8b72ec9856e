// Package preview connects generated component code to the running sandbox
// and streams sandbox status to connected clients.
package preview

import "sync"

// Notifier broadcasts update pings to subscribed listeners. Listeners
// receive an empty struct and re-query the bridge for the current status.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[chan struct{}]struct{})}
}

// Subscribe returns a channel pinged on every status change. Callers must
// Unsubscribe when done.
func (n *Notifier) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast pings every listener. Non-blocking: a listener with a pending
// ping catches up on its next read.
func (n *Notifier) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
