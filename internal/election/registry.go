package election

import (
	"context"
	"sync"
)

// Registry is an in-process exclusive-lock service keyed by name.
//
// Acquire blocks until the named lock is granted; grants are strictly FIFO
// among waiters. The zero value is not usable; construct with NewRegistry.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*lockState
}

// lockState tracks one named lock: whether it is currently held and the
// queue of waiters in arrival order.
type lockState struct {
	held    bool
	waiters []chan struct{}
}

// NewRegistry creates an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{
		locks: make(map[string]*lockState),
	}
}

// Acquire blocks until the named exclusive lock is granted or ctx is done.
//
// On grant it returns a Lease that MUST eventually be released, otherwise
// the lock is held for the remaining process lifetime (which is exactly
// what leadership election wants). If ctx is cancelled while waiting, the
// claim is withdrawn and the caller never becomes a holder.
func (r *Registry) Acquire(ctx context.Context, name string) (*Lease, error) {
	r.mu.Lock()

	st, ok := r.locks[name]
	if !ok {
		st = &lockState{}
		r.locks[name] = st
	}

	if !st.held {
		st.held = true
		r.mu.Unlock()
		return &Lease{registry: r, name: name}, nil
	}

	// Buffered so release never blocks handing the lock over.
	grant := make(chan struct{}, 1)
	st.waiters = append(st.waiters, grant)
	r.mu.Unlock()

	select {
	case <-grant:
		return &Lease{registry: r, name: name}, nil

	case <-ctx.Done():
		if !r.withdraw(name, grant) {
			// The grant raced the cancellation and already handed us the
			// lock. We are not going to use it, so pass it on.
			r.release(name)
		}
		return nil, ctx.Err()
	}
}

// Held reports whether the named lock currently has a holder.
func (r *Registry) Held(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.locks[name]
	return ok && st.held
}

// withdraw removes a waiter from the queue. Returns false if the waiter is
// no longer queued, meaning it has already been granted the lock.
func (r *Registry) withdraw(name string, grant chan struct{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.locks[name]
	if !ok {
		return false
	}

	for i, w := range st.waiters {
		if w == grant {
			st.waiters = append(st.waiters[:i], st.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// release hands the lock to the oldest waiter, or marks it free when the
// queue is empty.
func (r *Registry) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.locks[name]
	if !ok || !st.held {
		return
	}

	if len(st.waiters) == 0 {
		st.held = false
		return
	}

	next := st.waiters[0]
	st.waiters = st.waiters[1:]
	// held stays true: ownership transfers directly to the waiter.
	next <- struct{}{}
}

// Lease represents holding a named exclusive lock.
type Lease struct {
	registry *Registry
	name     string
	once     sync.Once
}

// Name returns the lock name this lease holds.
func (l *Lease) Name() string {
	return l.name
}

// Release returns the lock, granting it to the next waiter in line.
// Releasing more than once is a no-op.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.registry.release(l.name)
	})
}
