package ws

import "sync"

// registry tracks the identities with a live connection so a display name is
// never shared by two active sessions. A name becomes available again the
// moment its connection tears down.
type registry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newRegistry() *registry {
	return &registry{active: make(map[string]struct{})}
}

// Claim reserves identity for one connection; false when already active.
func (r *registry) Claim(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[identity]; ok {
		return false
	}
	r.active[identity] = struct{}{}
	return true
}

func (r *registry) Release(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, identity)
}

func (r *registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
