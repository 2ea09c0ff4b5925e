package bus

import (
	"errors"
	"sync"

	"github.com/roach88/soloq/internal/envelope"
)

// Ensure InMemory implements the Bus interface.
var _ Bus = (*InMemory)(nil)

// InMemory is a process-local broadcast bus.
//
// Delivery is asynchronous: each subscription owns an unbounded FIFO
// drained by its own goroutine, so a slow receiver never blocks a
// publisher or the other receivers. Frames enqueue under the bus mutex,
// which gives all subscriptions the same global frame order.
type InMemory struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}
}

// NewInMemory creates an empty bus.
func NewInMemory() *InMemory {
	return &InMemory{
		subs: make(map[*subscription]struct{}),
	}
}

// Publish encodes the message and fans it out to every subscription.
func (b *InMemory) Publish(msg envelope.Message) error {
	frame, err := msg.Encode()
	if err != nil {
		return err
	}
	return b.PublishRaw(frame)
}

// PublishRaw fans an already-encoded frame out to every subscription.
// The frame is copied once; receivers must treat it as read-only.
func (b *InMemory) PublishRaw(frame []byte) error {
	shared := make([]byte, len(frame))
	copy(shared, frame)

	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		sub.enqueue(shared)
	}
	return nil
}

// Subscribe installs a new listener and starts its delivery goroutine.
func (b *InMemory) Subscribe() (Subscription, error) {
	sub := &subscription{
		bus:    b,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan []byte),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.drain()

	return sub, nil
}

// remove detaches a subscription from the fan-out set.
func (b *InMemory) remove(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, sub)
}

// ErrSubscriptionClosed is returned by Close on an already-closed
// subscription.
var ErrSubscriptionClosed = errors.New("subscription already closed")

// subscription buffers frames in an unbounded FIFO and hands them to the
// receiver through out. The signal channel has a buffer of one so any
// number of enqueues between drains coalesce into a single wakeup.
type subscription struct {
	bus *InMemory

	mu     sync.Mutex
	frames [][]byte
	closed bool

	signal chan struct{}
	done   chan struct{}
	out    chan []byte
	once   sync.Once
}

// C returns the frame stream.
func (s *subscription) C() <-chan []byte {
	return s.out
}

// Close detaches the subscription and closes the frame stream.
func (s *subscription) Close() error {
	err := ErrSubscriptionClosed

	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.bus.remove(s)
		close(s.done)
		err = nil
	})

	return err
}

// enqueue appends a frame to the FIFO. Never blocks.
func (s *subscription) enqueue(frame []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.frames = append(s.frames, frame)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// drain moves frames from the FIFO to the out channel until closed.
// Runs in its own goroutine; it is the sole writer of out, so it may
// close it on exit.
func (s *subscription) drain() {
	defer close(s.out)

	for {
		s.mu.Lock()
		batch := s.frames
		s.frames = nil
		s.mu.Unlock()

		for _, frame := range batch {
			select {
			case s.out <- frame:
			case <-s.done:
				return
			}
		}

		select {
		case <-s.signal:
		case <-s.done:
			return
		}
	}
}
