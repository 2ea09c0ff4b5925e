// Package coord elects a single database owner among isolated workers and
// forwards every other worker's queries to it.
//
// ARCHITECTURE:
//
// Every worker starts as a follower and fires one leadership attempt at
// startup: a claim on a well-known exclusive lock. Exactly one claim is
// granted; that worker flips its leadership flag (monotonic, never
// reverted), initializes the database handle, and announces itself on the
// bus. The lock is held for the worker's remaining lifetime, so leadership
// only moves when the leader goes away and the platform grants the lock to
// the next waiter.
//
// Every worker keeps exactly one bus listener. Dispatch:
//   - query-request: acted on only by the leader, which executes the
//     statement asynchronously and publishes exactly one response tagged
//     with the original id.
//   - query-response: settles the matching pending entry in the observing
//     worker's correlation table; an unknown id is inert (the response was
//     broadcast to everyone but meant for someone else).
//   - new-leader: informational only.
//   - anything unparseable: dropped silently.
//
// ExecuteQuery is the single public operation. On the leader it runs
// locally against the handle with no bus round trip. On a follower it
// registers a pending entry under a fresh correlation id, publishes the
// request, and races the response against a fixed timeout; whichever
// settles first wins and the loser has no further effect.
//
// Error texts "Database not initialized" and "Query timeout" are protocol
// constants; engine errors travel verbatim.
package coord
