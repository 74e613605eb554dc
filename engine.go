package serialline

import (
	"sync"
	"time"
)

const (
	// DefaultEOL is the terminator appended to queued command writes.
	DefaultEOL = "\r"
	// DefaultTimeout is the response timeout used when a Send does not
	// specify one.
	DefaultTimeout = time.Second
	// DefaultRetryInterval is the fixed period between reconnect attempts.
	DefaultRetryInterval = 5 * time.Second
)

// Engine provides request/response semantics over a LineTransport: queued
// commands are written one at a time and correlated with inbound lines,
// standing watchers scan every inbound line regardless of queue state, and
// a supervisor reopens the transport after a disconnect.
//
// All queue, watcher and supervisor mutations are serialized; inbound lines,
// timer expirations and API calls never interleave mid-mutation. Watcher
// callbacks run outside the engine lock and before the completion of any
// command the same line resolves, so a callback may safely call back into
// the engine.
type Engine struct {
	transport      LineTransport
	eol            string
	defaultTimeout time.Duration
	retryInterval  time.Duration

	events     *eventHub
	supervisor *reconnectSupervisor

	mu        sync.Mutex
	opened    bool
	destroyed bool
	queue     commandQueue
	watchers  watcherRegistry
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithEOL sets the terminator appended to queued command writes.
func WithEOL(eol string) Option {
	return func(e *Engine) { e.eol = eol }
}

// WithDefaultTimeout sets the response timeout used when a Send does not
// specify one.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) { e.defaultTimeout = d }
}

// WithRetryInterval sets the fixed period between reconnect attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(e *Engine) { e.retryInterval = d }
}

// New builds an engine over t. The engine takes exclusive ownership of the
// transport; call Open before sending.
func New(t LineTransport, opts ...Option) *Engine {
	e := &Engine{
		transport:      t,
		eol:            DefaultEOL,
		defaultTimeout: DefaultTimeout,
		retryInterval:  DefaultRetryInterval,
		events:         newEventHub(),
	}
	for _, o := range opts {
		o(e)
	}
	e.queue.write = e.writeCommand
	e.queue.expire = e.expire
	e.supervisor = newReconnectSupervisor(e.retryInterval, e.reopen, func() {
		e.events.emit(Event{Kind: EventOpen})
	})
	return e
}

// Open attaches the engine to the transport and opens it.
func (e *Engine) Open() error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return ErrDestroyed
	}
	if e.opened {
		e.mu.Unlock()
		return ErrAlreadyOpen
	}
	e.mu.Unlock()

	e.transport.Attach(e.handler())
	if err := e.transport.Open(); err != nil {
		return err
	}

	e.mu.Lock()
	e.opened = true
	e.mu.Unlock()
	e.supervisor.connected()
	e.events.emit(Event{Kind: EventOpen})
	return nil
}

// Send enqueues text as a command and returns a Future resolved exactly
// once with its outcome. A nil response pattern makes the command
// fire-and-forget: it completes as soon as its write succeeds. Commands are
// written strictly in enqueue order; a command is not written until
// everything ahead of it has completed or failed.
func (e *Engine) Send(text string, response *Pattern, opts ...SendOption) *Future {
	c := &command{
		text:     text,
		response: response,
		timeout:  e.defaultTimeout,
		future:   newFuture(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout <= 0 {
		c.future.fail(ConfigError("send: timeout must be positive"))
		return c.future
	}

	e.mu.Lock()
	switch {
	case e.destroyed:
		e.mu.Unlock()
		c.future.fail(ErrDestroyed)
	case !e.opened:
		e.mu.Unlock()
		c.future.fail(ErrNotOpen)
	default:
		e.queue.enqueue(c)
		e.mu.Unlock()
	}
	return c.future
}

// Write sends data directly, bypassing the command queue: no terminator is
// appended and no response correlation happens. It neither blocks nor is
// blocked by queued commands.
func (e *Engine) Write(data string) error {
	e.mu.Lock()
	destroyed, opened := e.destroyed, e.opened
	e.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	if !opened {
		return ErrNotOpen
	}
	if err := e.transport.Write(data); err != nil {
		return err
	}
	e.events.emit(Event{Kind: EventWrite, Line: data})
	return nil
}

// Watch registers a standing watcher invoked for every occurrence of p in
// every inbound line. The returned handle removes it via Unwatch.
func (e *Engine) Watch(p *Pattern, fn WatchFunc) (*Watcher, error) {
	if p == nil {
		return nil, ConfigError("watch: nil pattern")
	}
	if fn == nil {
		return nil, ConfigError("watch: nil callback")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil, ErrDestroyed
	}
	return e.watchers.add(p, fn), nil
}

// Unwatch removes a previously registered watcher and reports whether it
// was still registered.
func (e *Engine) Unwatch(w *Watcher) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.watchers.remove(w)
}

// Subscribe returns a channel of engine events limited to the given kinds
// (all kinds when none are named) and a cancel function that closes it.
func (e *Engine) Subscribe(kinds ...EventKind) (<-chan Event, func()) {
	return e.events.subscribe(kinds...)
}

// Destroy detaches the engine from the transport, closes it, fails every
// pending command with ErrDestroyed and ends all event subscriptions. A
// second call is a no-op.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	opened := e.opened
	e.opened = false
	e.queue.failAll(ErrDestroyed)
	e.watchers.clear()
	e.mu.Unlock()

	e.supervisor.shutdown()
	e.transport.Attach(LineHandler{})
	if opened {
		e.transport.Close()
	}
	e.events.emit(Event{Kind: EventClose})
	e.events.closeAll()
}

func (e *Engine) handler() LineHandler {
	return LineHandler{
		OnLine:       e.onLine,
		OnDisconnect: e.onDisconnect,
		OnError: func(err error) {
			e.events.emit(Event{Kind: EventError, Err: err})
		},
	}
}

// onLine routes one inbound line: watchers always scan it first; the queue
// consumes it when non-empty; otherwise it surfaces as unsolicited data.
// Line processing is serialized by the transport's single reader goroutine.
func (e *Engine) onLine(line string) {
	e.mu.Lock()
	ws := e.watchers.snapshot()
	e.mu.Unlock()
	scanLine(ws, line)

	e.mu.Lock()
	queued := e.queue.len() > 0
	if queued {
		e.queue.onLine(line)
	}
	e.mu.Unlock()

	if !queued {
		e.events.emit(Event{Kind: EventData, Line: line})
	}
}

// onDisconnect surfaces the drop and hands the transport to the reconnect
// supervisor. Pending commands are left in place: each still fails on its
// own timeout if no response arrives, and completes normally should the
// transport come back first.
func (e *Engine) onDisconnect(err error) {
	e.events.emit(Event{Kind: EventDisconnected, Err: err})

	e.mu.Lock()
	destroyed := e.destroyed
	e.mu.Unlock()
	if destroyed {
		return
	}
	e.supervisor.disconnected()
}

// writeCommand is the queue's write hook: payload plus terminator, echoed
// on the write event stream.
func (e *Engine) writeCommand(text string) error {
	data := text + e.eol
	if err := e.transport.Write(data); err != nil {
		return err
	}
	e.events.emit(Event{Kind: EventWrite, Line: data})
	return nil
}

// expire is the queue's timer hook, re-entering the engine's serialized
// context before touching queue state.
func (e *Engine) expire(c *command) {
	e.mu.Lock()
	e.queue.onTimeout(c)
	e.mu.Unlock()
}

// reopen is the supervisor's retry hook.
func (e *Engine) reopen() error {
	e.transport.Attach(e.handler())
	return e.transport.Open()
}
