// Package harness runs conformance scenarios against real worker
// clusters.
//
// A scenario is a YAML file describing a cluster size, setup statements,
// and a sequence of queries issued from specific workers with expected
// results or error texts. Scenario files are validated against an
// embedded CUE schema before execution, so a malformed scenario fails
// with a schema error rather than a confusing runtime one.
//
// Each scenario runs against a fresh in-memory bus, lock registry and
// SQLite database. Worker 0 is always started first and becomes the
// leader, which keeps leadership - and therefore the bus trace -
// deterministic. With fixed query ids the full message trace is stable
// enough for golden-file comparison.
package harness
