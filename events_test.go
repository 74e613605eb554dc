package serialline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventHub_SubscribeAllKinds(t *testing.T) {
	h := newEventHub()
	ch, cancel := h.subscribe()
	defer cancel()

	h.emit(Event{Kind: EventData, Line: "a"})
	h.emit(Event{Kind: EventWrite, Line: "b"})

	require.Equal(t, EventData, (<-ch).Kind)
	require.Equal(t, EventWrite, (<-ch).Kind)
}

func TestEventHub_CancelIsIdempotent(t *testing.T) {
	h := newEventHub()
	ch, cancel := h.subscribe(EventData)
	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	// Emitting after cancel must not panic or deliver.
	h.emit(Event{Kind: EventData})
}

func TestEventHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := newEventHub()
	ch, cancel := h.subscribe(EventData)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			h.emit(Event{Kind: EventData})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a slow subscriber")
	}
	require.NotEmpty(t, ch)
}

func TestEventHub_SubscribeAfterClose(t *testing.T) {
	h := newEventHub()
	h.closeAll()

	ch, cancel := h.subscribe(EventData)
	cancel()
	_, ok := <-ch
	require.False(t, ok)
}
