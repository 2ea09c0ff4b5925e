package coord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/soloq/internal/bus"
	"github.com/roach88/soloq/internal/election"
	"github.com/roach88/soloq/internal/envelope"
	"github.com/roach88/soloq/internal/storage"
)

// Protocol error texts. These exact strings cross the bus, so they are
// part of the wire contract, capitalization included.
var (
	// ErrNotInitialized is reported when the leader's database handle is
	// absent, either because initialization is still in flight or because
	// it failed.
	ErrNotInitialized = errors.New("Database not initialized")

	// ErrQueryTimeout is reported when no response arrives for a
	// forwarded query within the timeout window.
	ErrQueryTimeout = errors.New("Query timeout")
)

// ErrAlreadyStarted is returned by Start on a started worker.
var ErrAlreadyStarted = errors.New("worker already started")

// Worker is one isolated execution context participating in the cluster.
//
// A worker owns its identity, its leadership flag, the database handle
// (leader only) and the correlation table for its own forwarded queries.
// Workers share nothing with each other; all cross-worker coordination
// goes through the lock registry and the bus.
type Worker struct {
	id       string
	bus      bus.Bus
	registry *election.Registry
	opener   storage.Opener
	logger   *slog.Logger
	timeout  time.Duration
	lockName string
	ids      IDGenerator

	// Monotonic false->true, set exactly once on lock grant.
	isLeader atomic.Bool

	mu      sync.Mutex
	handle  storage.Handle
	pending map[string]chan outcome
	lease   *election.Lease
	closed  bool

	sub       bus.Subscription
	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// outcome is a settled forwarded query: either a result or an error text.
type outcome struct {
	result  string
	errText string
	isErr   bool
}

func (o outcome) unpack() (string, error) {
	if o.isErr {
		return "", errors.New(o.errText)
	}
	return o.result, nil
}

// New creates a worker. It does nothing until Start is called.
func New(b bus.Bus, registry *election.Registry, opener storage.Opener, opts ...Option) *Worker {
	w := &Worker{
		bus:      b,
		registry: registry,
		opener:   opener,
		logger:   slog.Default(),
		timeout:  DefaultQueryTimeout,
		lockName: DefaultLockName,
		ids:      uuidGenerator{},
		pending:  make(map[string]chan outcome),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.id == "" {
		w.id = w.ids.Generate()
	}

	return w
}

// ID returns the worker's immutable identity.
func (w *Worker) ID() string {
	return w.id
}

// IsLeader reports whether this worker won the election.
func (w *Worker) IsLeader() bool {
	return w.isLeader.Load()
}

// Start installs the bus listener and fires the leadership attempt.
//
// It returns immediately; election effects surface later through the
// leadership flag, the database handle and the new-leader announcement.
// ctx bounds the worker's background work and the wait for the lock.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.New("worker closed")
	}
	if w.runCtx != nil {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.runCtx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	sub, err := w.bus.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe to bus: %w", err)
	}

	w.mu.Lock()
	w.sub = sub
	w.mu.Unlock()

	w.wg.Add(2)
	go w.listen()
	go w.attemptLeadership()

	return nil
}

// attemptLeadership claims the well-known exclusive lock, and on grant
// flips the leadership flag, initializes the database and announces
// leadership. Fire-and-forget: nobody awaits it, and on lock acquisition
// failure the worker simply stays a follower for good.
func (w *Worker) attemptLeadership() {
	defer w.wg.Done()

	lease, err := w.registry.Acquire(w.runCtx, w.lockName)
	if err != nil {
		w.logger.Warn("lock acquisition failed, remaining follower",
			"worker", w.id, "error", err)
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		lease.Release()
		return
	}
	w.lease = lease
	w.mu.Unlock()

	w.isLeader.Store(true)
	w.logger.Info("acquired database lock", "worker", w.id, "lock", w.lockName)

	handle, err := w.opener.Initialize(w.runCtx)
	if err != nil {
		// Leadership is never reverted: the flag stays true and every
		// routed or local execution reports the uninitialized database.
		w.logger.Error("database initialization failed",
			"worker", w.id, "error", err)
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		handle.Close()
		return
	}
	w.handle = handle
	w.mu.Unlock()

	if err := w.bus.Publish(envelope.NewLeaderAnnouncement(w.id)); err != nil {
		w.logger.Debug("leadership announcement failed", "error", err)
	}
	w.logger.Info("database initialized, leadership announced", "worker", w.id)
}

// ExecuteQuery executes a statement, locally if this worker is the
// leader, otherwise forwarded to the leader over the bus.
//
// ctx applies to local execution only. Once a forwarded query is
// registered there is no cancellation: the call returns when the matching
// response arrives or the timeout window elapses, whichever comes first.
func (w *Worker) ExecuteQuery(ctx context.Context, query string) (string, error) {
	if w.isLeader.Load() {
		handle := w.currentHandle()
		if handle == nil {
			return "", ErrNotInitialized
		}
		return handle.Execute(ctx, query)
	}

	id := w.ids.Generate()
	ch := make(chan outcome, 1)

	w.mu.Lock()
	w.pending[id] = ch
	w.mu.Unlock()

	if err := w.bus.Publish(envelope.NewQueryRequest(id, query)); err != nil {
		w.mu.Lock()
		delete(w.pending, id)
		w.mu.Unlock()
		return "", fmt.Errorf("forward query: %w", err)
	}

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		return out.unpack()
	case <-timer.C:
	}

	// The timer fired first. If the entry is still registered the query
	// is abandoned and any late response will find no entry. If it is
	// already gone, a response won the race and its outcome is buffered.
	w.mu.Lock()
	_, present := w.pending[id]
	if present {
		delete(w.pending, id)
	}
	w.mu.Unlock()

	if !present {
		out := <-ch
		return out.unpack()
	}
	return "", ErrQueryTimeout
}

// Close stops the listener, releases the election lock (granting it to
// the next waiting worker) and closes the database handle. Forwarded
// queries still pending elsewhere are left to time out.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		sub := w.sub
		cancel := w.cancel
		w.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if sub != nil {
			sub.Close()
		}
		w.wg.Wait()

		w.mu.Lock()
		lease, handle := w.lease, w.handle
		w.lease, w.handle = nil, nil
		w.mu.Unlock()

		if lease != nil {
			lease.Release()
		}
		if handle != nil {
			if err := handle.Close(); err != nil {
				w.logger.Error("closing database handle", "error", err)
			}
		}
	})

	return nil
}

// currentHandle returns the database handle, or nil when absent.
func (w *Worker) currentHandle() storage.Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handle
}

// pendingCount reports the size of the correlation table.
func (w *Worker) pendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
