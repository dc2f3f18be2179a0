package dispatch

import "sync"

// Gate serializes broadcast sessions. The transport's credential is a single
// shared resource, so at most one session may drive it at a time; ordinary
// one-off sends are not gated.
type Gate struct {
	mu     sync.Mutex
	active bool
}

// TryAcquire claims the gate without blocking. It returns false when a
// session already holds it.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return false
	}
	g.active = true
	return true
}

func (g *Gate) Release() {
	g.mu.Lock()
	g.active = false
	g.mu.Unlock()
}

// Active reports whether a session currently holds the gate.
func (g *Gate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}
