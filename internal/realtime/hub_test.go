package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sihacare/m/domain"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub()

	first, cancelFirst := hub.Subscribe()
	second, cancelSecond := hub.Subscribe()
	defer cancelSecond()

	evt := domain.ChangeEvent{Entity: "batch", Operation: "insert", ID: "b-1"}
	hub.Notify(evt)

	require.Equal(t, evt, <-first)
	require.Equal(t, evt, <-second)

	cancelFirst()
	require.Equal(t, 1, hub.SubscriberCount())

	// Events after cancel only reach the remaining subscriber.
	hub.Notify(evt)
	require.Equal(t, evt, <-second)
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe()
	defer cancel()

	// Overfill the buffer; Notify must never block.
	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Notify(domain.ChangeEvent{Entity: "batch", Operation: "update", ID: "b"})
	}

	received := 0
	for {
		select {
		case <-events:
			received++
		default:
			require.Equal(t, subscriberBuffer, received)
			return
		}
	}
}
