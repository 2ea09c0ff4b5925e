// Package storage is the database collaborator consumed by the
// coordination layer.
//
// The coordinator only ever sees two operations: Opener.Initialize, run
// once by the elected leader, and Handle.Execute, run for every statement.
// Everything SQL-specific (driver, pragmas, result encoding) lives behind
// those two interfaces, which keeps the coordination layer testable with
// scripted fakes.
//
// Result sets are encoded as a JSON array of row objects keyed by column
// name, e.g. SELECT 1 yields `[{"1":1}]`. Statements producing no rows
// yield `[]`. Serializing actual SQL execution is the engine's own
// responsibility; Execute may be called concurrently.
package storage
