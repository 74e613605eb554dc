package serialline

import (
	"context"
	"time"
)

// Result carries the data a completed command resolved with. When the
// command had a scan pattern, Lines holds every matching line received while
// it was in flight, in arrival order. Otherwise Line holds the single line
// that completed it. Fire-and-forget commands resolve with a zero Result.
type Result struct {
	Line  string
	Lines []string
}

// Future is the caller's handle to a command outcome. It resolves exactly
// once, either completed with a Result or failed with an error, and waiting
// on it never blocks the engine's line processing.
type Future struct {
	done   chan struct{}
	result Result
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done is closed once the future has resolved.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the future resolves or ctx is done.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (f *Future) complete(r Result) {
	f.result = r
	close(f.done)
}

func (f *Future) fail(err error) {
	f.err = err
	close(f.done)
}

// command is one queued unit of request/response correlation, owned by the
// queue from enqueue until its terminal resolution.
type command struct {
	text     string
	response *Pattern // nil: complete immediately after a successful write
	scan     *Pattern
	timeout  time.Duration
	scanned  []string
	timer    *time.Timer
	future   *Future
}

// SendOption adjusts a single Send call.
type SendOption func(*command)

// WithTimeout overrides the engine's default response timeout.
func WithTimeout(d time.Duration) SendOption {
	return func(c *command) { c.timeout = d }
}

// WithScanPattern accumulates every line matching p received while the
// command is in flight; the command then resolves with the accumulated
// sequence instead of the completing line.
func WithScanPattern(p *Pattern) SendOption {
	return func(c *command) { c.scan = p }
}
