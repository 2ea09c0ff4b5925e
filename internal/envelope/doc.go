// Package envelope defines the wire format shared by every worker on the
// broadcast bus.
//
// The protocol has exactly three message kinds, encoded as one JSON object
// per message:
//
//	{"type":"query-request",  "queryId":"...", "sql":"..."}
//	{"type":"query-response", "queryId":"...", "result":"..."} (or "error")
//	{"type":"new-leader",     "leaderId":"..."}
//
// Decoding is strict: a payload with an unknown type tag or a missing
// required field is rejected with an error, and receivers drop it without
// surfacing anything to callers. A malformed message may well be a future
// protocol version, so availability wins over diagnostics here.
//
// Field names are protocol constants and must match byte-for-byte across
// all participating workers.
package envelope
