package serialline

import "sync"

// EventKind identifies an engine lifecycle event.
type EventKind int

const (
	// EventOpen fires when the transport opens, including after a reconnect.
	EventOpen EventKind = iota + 1
	// EventClose fires once when the engine is destroyed.
	EventClose
	// EventError carries transport errors not tied to a specific command.
	EventError
	// EventDisconnected fires when the transport drops.
	EventDisconnected
	// EventData carries unsolicited lines: inbound data received while no
	// command was in flight.
	EventData
	// EventWrite echoes every payload written to the transport.
	EventWrite
)

// Event is a lifecycle notification emitted by the engine.
type Event struct {
	Kind EventKind
	Line string // EventData: the unsolicited line; EventWrite: the bytes written
	Err  error  // EventError, EventDisconnected
}

type subscription struct {
	kinds map[EventKind]bool // nil means all kinds
	ch    chan Event
}

// eventHub fans engine events out to subscribers. Slow subscribers drop
// events rather than blocking line processing.
type eventHub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscription
	closed bool
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[uint64]*subscription)}
}

// subscribe registers interest in the given event kinds (all kinds when none
// are named) and returns the delivery channel plus a cancel function. Cancel
// closes the channel; it is safe to call more than once.
func (h *eventHub) subscribe(kinds ...EventKind) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	var filter map[EventKind]bool
	if len(kinds) > 0 {
		filter = make(map[EventKind]bool, len(kinds))
		for _, k := range kinds {
			filter[k] = true
		}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = &subscription{kinds: filter, ch: ch}

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
	}
	return ch, cancel
}

func (h *eventHub) emit(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		if s.kinds != nil && !s.kinds[ev.Kind] {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// closeAll ends every subscription. Further subscribes get a closed channel.
func (h *eventHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
	}
}
