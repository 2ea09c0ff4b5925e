package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roach88/soloq/internal/storage"
)

// Ensure the fakes satisfy the storage collaborator interfaces.
var (
	_ storage.Opener = (*ScriptedOpener)(nil)
	_ storage.Handle = (*ScriptedHandle)(nil)
)

// ScriptedOpener is a storage.Opener with a canned outcome.
//
// Set Err to simulate initialization failure (the leader then reports
// "Database not initialized" forever). Otherwise Initialize returns
// Handle, defaulting to an empty ScriptedHandle.
type ScriptedOpener struct {
	Err    error
	Handle storage.Handle

	mu    sync.Mutex
	calls int
}

// Initialize returns the scripted handle or error.
func (o *ScriptedOpener) Initialize(context.Context) (storage.Handle, error) {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()

	if o.Err != nil {
		return nil, o.Err
	}
	if o.Handle != nil {
		return o.Handle, nil
	}
	return &ScriptedHandle{}, nil
}

// Calls reports how many times Initialize ran. Exactly one worker per
// cluster should ever initialize.
func (o *ScriptedOpener) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// ScriptedHandle is a storage.Handle with per-statement canned results.
//
// Execute looks the statement up in Results, then Errors; unscripted
// statements return "[]". Delay, when set, is applied before answering so
// tests can force timeouts and late responses.
type ScriptedHandle struct {
	Results map[string]string
	Errors  map[string]string
	Delay   time.Duration

	mu       sync.Mutex
	executed []string
	closed   bool
}

// Execute answers from the script.
func (h *ScriptedHandle) Execute(ctx context.Context, sql string) (string, error) {
	h.mu.Lock()
	h.executed = append(h.executed, sql)
	h.mu.Unlock()

	if h.Delay > 0 {
		select {
		case <-time.After(h.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if res, ok := h.Results[sql]; ok {
		return res, nil
	}
	if errText, ok := h.Errors[sql]; ok {
		return "", errors.New(errText)
	}
	return "[]", nil
}

// Close marks the handle closed.
func (h *ScriptedHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Executed returns the statements seen so far, in order.
func (h *ScriptedHandle) Executed() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.executed...)
}

// Closed reports whether Close was called.
func (h *ScriptedHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
