package storage

import "context"

// Opener initializes the persistent store and yields a Handle.
// The elected leader calls Initialize exactly once.
type Opener interface {
	Initialize(ctx context.Context) (Handle, error)
}

// Handle is an initialized database owned by exactly one worker.
//
// Execute returns the encoded result set on success, or the engine's
// error text verbatim on failure. Implementations must tolerate
// concurrent calls.
type Handle interface {
	Execute(ctx context.Context, sql string) (string, error)
	Close() error
}
