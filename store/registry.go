package store

import "sync"

// Registry owns one Store per user. Stores are built on first use by the
// factory, which is where persistence listeners get attached. The factory
// runs outside the registry lock, so a slow load only holds up callers
// asking for the same user.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*entry
	factory func(userID string) (*Store, error)
}

// entry is a store that may still be under construction. ready is closed
// once store and err are set.
type entry struct {
	ready chan struct{}
	store *Store
	err   error
}

func NewRegistry(factory func(userID string) (*Store, error)) *Registry {
	if factory == nil {
		factory = func(string) (*Store, error) { return New(), nil }
	}
	return &Registry{
		stores:  make(map[string]*entry),
		factory: factory,
	}
}

// For returns the store owned by userID, creating it if needed. Concurrent
// callers for the same user share one factory call. A failed call is
// reported to everyone waiting on it but not cached.
func (r *Registry) For(userID string) (*Store, error) {
	r.mu.Lock()
	if e, ok := r.stores[userID]; ok {
		r.mu.Unlock()
		<-e.ready
		return e.store, e.err
	}
	e := &entry{ready: make(chan struct{})}
	r.stores[userID] = e
	r.mu.Unlock()

	e.store, e.err = r.factory(userID)
	if e.err != nil {
		r.mu.Lock()
		if r.stores[userID] == e {
			delete(r.stores, userID)
		}
		r.mu.Unlock()
	}
	close(e.ready)
	return e.store, e.err
}

// Drop forgets the store for userID; the next For call builds a new one.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, userID)
}

// Len counts stores, including ones still being built.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
