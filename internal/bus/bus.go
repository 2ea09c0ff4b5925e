package bus

import "github.com/roach88/soloq/internal/envelope"

// Bus is the interface that groups publishing and subscribing on a shared
// broadcast channel.
type Bus interface {
	// Publish encodes the message and delivers it to every current
	// subscription, including the publisher's own.
	Publish(msg envelope.Message) error

	// PublishRaw delivers an already-encoded (possibly malformed) frame.
	// Receivers are responsible for decoding and dropping garbage.
	PublishRaw(frame []byte) error

	// Subscribe installs a new listener. The returned subscription
	// receives every frame published after this call returns.
	Subscribe() (Subscription, error)
}

// Subscription is a single listener's view of the bus.
type Subscription interface {
	// C is the frame stream. It is closed when the subscription is
	// closed or the bus shuts down.
	C() <-chan []byte

	// Close detaches the subscription from the bus and closes C.
	// Frames published after Close are not delivered.
	Close() error
}
