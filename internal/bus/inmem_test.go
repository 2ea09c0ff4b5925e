package bus

import (
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/soloq/internal/envelope"
)

// recvFrame reads one frame with a timeout so a broken fan-out fails the
// test instead of hanging it.
func recvFrame(t *testing.T, sub Subscription) []byte {
	t.Helper()
	select {
	case frame, ok := <-sub.C():
		require.True(t, ok, "subscription closed unexpectedly")
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestPublish_FanOutIncludesPublisher(t *testing.T) {
	defer leaktest.Check(t)()

	b := NewInMemory()

	subs := make([]Subscription, 3)
	for i := range subs {
		sub, err := b.Subscribe()
		require.NoError(t, err)
		subs[i] = sub
	}
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()

	// There is no sender identity at the transport level: the worker that
	// publishes holds one of these subscriptions and receives its own frame.
	require.NoError(t, b.Publish(envelope.NewLeaderAnnouncement("w-1")))

	for _, sub := range subs {
		msg, err := envelope.Decode(recvFrame(t, sub))
		require.NoError(t, err)
		assert.Equal(t, envelope.KindNewLeader, msg.Type)
		assert.Equal(t, "w-1", msg.LeaderID)
	}
}

func TestPublish_PreservesOrderPerSubscription(t *testing.T) {
	defer leaktest.Check(t)()

	b := NewInMemory()
	sub, err := b.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 50; i++ {
		require.NoError(t, b.Publish(envelope.NewQueryRequest(
			"q", "SELECT "+string(rune('0'+i%10)))))
	}

	prev := -1
	for i := 0; i < 50; i++ {
		msg, err := envelope.Decode(recvFrame(t, sub))
		require.NoError(t, err)
		got := int(msg.SQL[len(msg.SQL)-1] - '0')
		// Digits cycle 0..9; each must follow its predecessor.
		assert.Equal(t, (prev+1)%10, got)
		prev = got
	}
}

func TestPublish_SlowSubscriberDoesNotBlock(t *testing.T) {
	defer leaktest.Check(t)()

	b := NewInMemory()

	slow, err := b.Subscribe()
	require.NoError(t, err)
	defer slow.Close()

	fast, err := b.Subscribe()
	require.NoError(t, err)
	defer fast.Close()

	// Nobody reads from slow. Publishing must still complete promptly and
	// reach the other subscription.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = b.Publish(envelope.NewLeaderAnnouncement("w-1"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	for i := 0; i < 100; i++ {
		recvFrame(t, fast)
	}
}

func TestSubscription_CloseStopsDelivery(t *testing.T) {
	defer leaktest.Check(t)()

	b := NewInMemory()
	sub, err := b.Subscribe()
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	assert.ErrorIs(t, sub.Close(), ErrSubscriptionClosed)

	// A frame published after Close is not delivered; the stream is closed.
	require.NoError(t, b.Publish(envelope.NewLeaderAnnouncement("w-1")))

	select {
	case _, ok := <-sub.C():
		assert.False(t, ok, "expected closed frame stream")
	case <-time.After(2 * time.Second):
		t.Fatal("frame stream not closed after Close")
	}
}

func TestPublishRaw_DeliversGarbageVerbatim(t *testing.T) {
	defer leaktest.Check(t)()

	b := NewInMemory()
	sub, err := b.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.PublishRaw([]byte("not a protocol message")))

	frame := recvFrame(t, sub)
	assert.Equal(t, "not a protocol message", string(frame))
	_, err = envelope.Decode(frame)
	assert.Error(t, err)
}

func TestPublish_RejectsInvalidMessage(t *testing.T) {
	b := NewInMemory()
	err := b.Publish(envelope.Message{Type: "bogus"})
	assert.Error(t, err)
}
