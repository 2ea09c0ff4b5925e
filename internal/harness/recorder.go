package harness

import (
	"fmt"
	"sync"
	"time"

	"github.com/roach88/soloq/internal/bus"
	"github.com/roach88/soloq/internal/envelope"
)

// recorder taps the bus and renders every frame as one trace line.
// It also signals the first leadership announcement, which the runner
// uses to sequence worker startup.
type recorder struct {
	tap bus.Subscription

	mu    sync.Mutex
	lines []string

	leaderOnce sync.Once
	leader     chan struct{}
	done       chan struct{}
}

func newRecorder(tap bus.Subscription) *recorder {
	r := &recorder{
		tap:    tap,
		leader: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *recorder) loop() {
	defer close(r.done)

	for frame := range r.tap.C() {
		msg, err := envelope.Decode(frame)

		var line string
		if err != nil {
			line = fmt.Sprintf("malformed frame=%q", string(frame))
		} else {
			line = renderLine(msg)
		}

		r.mu.Lock()
		r.lines = append(r.lines, line)
		r.mu.Unlock()

		if err == nil && msg.Type == envelope.KindNewLeader {
			r.leaderOnce.Do(func() { close(r.leader) })
		}
	}
}

// renderLine formats one message for the trace. The format is part of the
// golden files; change it and every golden file changes with it.
func renderLine(msg envelope.Message) string {
	switch msg.Type {
	case envelope.KindQueryRequest:
		return fmt.Sprintf("query-request id=%s sql=%s", msg.QueryID, msg.SQL)
	case envelope.KindQueryResponse:
		if msg.IsError() {
			return fmt.Sprintf("query-response id=%s error=%s", msg.QueryID, *msg.Error)
		}
		return fmt.Sprintf("query-response id=%s result=%s", msg.QueryID, *msg.Result)
	case envelope.KindNewLeader:
		return fmt.Sprintf("new-leader leader=%s", msg.LeaderID)
	default:
		return fmt.Sprintf("unknown type=%s", msg.Type)
	}
}

// LeaderElected is closed when the first new-leader announcement lands.
func (r *recorder) LeaderElected() <-chan struct{} {
	return r.leader
}

// WaitFor blocks until n lines are recorded or the timeout elapses.
func (r *recorder) WaitFor(n int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		r.mu.Lock()
		got := len(r.lines)
		r.mu.Unlock()

		if got >= n {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("trace incomplete: %d of %d messages after %v", got, n, timeout)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// Lines returns a copy of the trace so far.
func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Stop detaches the tap and waits for the loop to exit.
func (r *recorder) Stop() {
	r.tap.Close()
	<-r.done
}
