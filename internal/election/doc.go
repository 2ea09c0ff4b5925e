// Package election provides the exclusive-lock primitive leadership is
// built on.
//
// A Registry hands out named exclusive locks first-come-first-served: at
// most one holder per name at a time, with every other claimant blocked in
// arrival order until the holder releases. Leadership is simply "whoever
// holds the well-known lock", held for the holder's remaining lifetime;
// releasing the lease models the holder terminating, at which point the
// next waiter is granted the lock and runs the same election.
package election
