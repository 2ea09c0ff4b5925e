package coord

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLockName is the well-known exclusive-lock name all workers
	// claim. Must match byte-for-byte across every participating worker.
	DefaultLockName = "sqlite-database"

	// DefaultQueryTimeout bounds how long a follower waits for a
	// forwarded query's response.
	DefaultQueryTimeout = 5 * time.Second
)

// IDGenerator produces unique string identifiers. The worker identity and
// every correlation id come from here; tests substitute deterministic
// generators.
type IDGenerator interface {
	Generate() string
}

// uuidGenerator is the production generator: random (version 4) UUIDs.
type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the worker's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithQueryTimeout overrides the forwarded-query timeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.timeout = d
	}
}

// WithLockName overrides the election lock name. All workers of one
// cluster must agree on it.
func WithLockName(name string) Option {
	return func(w *Worker) {
		w.lockName = name
	}
}

// WithIDGenerator substitutes the correlation-id generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(w *Worker) {
		w.ids = gen
	}
}

// WithID fixes the worker identity instead of generating one. Used by the
// harness for deterministic leadership announcements.
func WithID(id string) Option {
	return func(w *Worker) {
		w.id = id
	}
}
