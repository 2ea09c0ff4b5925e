package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/width"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failure, query error
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// renderResult writes an encoded result set in the requested format.
// JSON format passes the protocol encoding through untouched; text format
// renders an aligned table.
func renderResult(w io.Writer, format, result string) {
	if format == "json" {
		fmt.Fprintln(w, result)
		return
	}
	renderTable(w, result)
}

// renderTable renders a JSON-array-of-rows result as an aligned table.
// Anything that is not a result set is printed verbatim.
func renderTable(w io.Writer, result string) {
	var rows []map[string]any
	if err := json.Unmarshal([]byte(result), &rows); err != nil {
		fmt.Fprintln(w, result)
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	columns := columnNames(rows)

	cells := make([][]string, len(rows))
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = displayWidth(col)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(columns))
		for i, col := range columns {
			cell := formatCell(row[col])
			cells[r][i] = cell
			if dw := displayWidth(cell); dw > widths[i] {
				widths[i] = dw
			}
		}
	}

	writeRow(w, columns, widths)
	rule := make([]string, len(columns))
	for i := range rule {
		rule[i] = strings.Repeat("-", widths[i])
	}
	writeRow(w, rule, widths)
	for _, row := range cells {
		writeRow(w, row, widths)
	}
}

// columnNames collects the union of row keys in sorted order. JSON
// objects carry no column order, so sorting is the only stable choice.
func columnNames(rows []map[string]any) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func writeRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = cell + strings.Repeat(" ", widths[i]-displayWidth(cell))
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}

// displayWidth measures a string in terminal cells, counting East Asian
// wide and fullwidth runes as two.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
