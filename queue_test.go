package serialline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testQueue wires a commandQueue to an in-memory write log. Timer expiry is
// driven manually through onTimeout, the same entry point the real timer
// hook uses.
type testQueue struct {
	commandQueue
	writes   []string
	writeErr error
}

func newTestQueue() *testQueue {
	q := &testQueue{}
	q.write = func(text string) error {
		if q.writeErr != nil {
			err := q.writeErr
			q.writeErr = nil
			return err
		}
		q.writes = append(q.writes, text)
		return nil
	}
	q.expire = func(c *command) { q.onTimeout(c) }
	return q
}

func queuedCommand(response, scan *Pattern) *command {
	return &command{
		text:     "cmd",
		response: response,
		scan:     scan,
		timeout:  time.Minute,
		future:   newFuture(),
	}
}

func resolved(t *testing.T, f *Future) (Result, error) {
	t.Helper()
	select {
	case <-f.Done():
	default:
		t.Fatal("future not resolved")
	}
	return f.result, f.err
}

func TestQueue_FireAndForgetCompletesAfterWrite(t *testing.T) {
	q := newTestQueue()
	c := queuedCommand(nil, nil)
	c.text = "Hello?"

	q.enqueue(c)

	require.Equal(t, []string{"Hello?"}, q.writes)
	r, err := resolved(t, c.future)
	require.NoError(t, err)
	require.Empty(t, r.Line)
	require.Nil(t, r.Lines)
	require.Zero(t, q.len())
}

func TestQueue_HeadCompletesOnMatchingLine(t *testing.T) {
	q := newTestQueue()
	c := queuedCommand(MustPattern(`OK`), nil)
	q.enqueue(c)
	t.Cleanup(func() { c.timer.Stop() })

	require.False(t, q.onLine("noise"))
	require.True(t, q.onLine("status OK"))

	r, err := resolved(t, c.future)
	require.NoError(t, err)
	require.Equal(t, "status OK", r.Line)
}

func TestQueue_StrictFIFO(t *testing.T) {
	q := newTestQueue()
	a := queuedCommand(MustPattern(`RESP-A`), nil)
	a.text = "A"
	b := queuedCommand(MustPattern(`RESP-B`), nil)
	b.text = "B"

	q.enqueue(a)
	q.enqueue(b)
	t.Cleanup(func() {
		a.timer.Stop()
		if b.timer != nil {
			b.timer.Stop()
		}
	})

	// B must not be written while A is in flight.
	require.Equal(t, []string{"A"}, q.writes)

	// A line matching B's pattern is invisible to B while A is head.
	require.False(t, q.onLine("RESP-B"))
	select {
	case <-b.future.Done():
		t.Fatal("B resolved before becoming head")
	default:
	}

	require.True(t, q.onLine("RESP-A"))
	require.Equal(t, []string{"A", "B"}, q.writes)

	require.True(t, q.onLine("RESP-B"))
	_, err := resolved(t, b.future)
	require.NoError(t, err)
}

func TestQueue_ScanAccumulationIncludesCompletingLine(t *testing.T) {
	q := newTestQueue()
	c := queuedCommand(MustPattern(`DONE`), MustPattern(`V,`))
	q.enqueue(c)
	t.Cleanup(func() { c.timer.Stop() })

	q.onLine("V,1")
	q.onLine("noise")
	q.onLine("V,2")
	require.True(t, q.onLine("V,3 DONE"))

	r, err := resolved(t, c.future)
	require.NoError(t, err)
	require.Equal(t, []string{"V,1", "V,2", "V,3 DONE"}, r.Lines)
}

func TestQueue_ScanAccumulationExcludesNonMatchingCompletingLine(t *testing.T) {
	q := newTestQueue()
	c := queuedCommand(MustPattern(`DONE`), MustPattern(`^V,`))
	q.enqueue(c)
	t.Cleanup(func() { c.timer.Stop() })

	q.onLine("V,1")
	require.True(t, q.onLine("DONE"))

	r, err := resolved(t, c.future)
	require.NoError(t, err)
	require.Equal(t, []string{"V,1"}, r.Lines)
}

func TestQueue_TimeoutFailsOnlyHead(t *testing.T) {
	q := newTestQueue()
	a := queuedCommand(MustPattern(`RESP-A`), nil)
	a.text = "A"
	b := queuedCommand(nil, nil)
	b.text = "B"

	q.enqueue(a)
	q.enqueue(b)
	a.timer.Stop()

	q.onTimeout(a)

	_, err := resolved(t, a.future)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "A", te.Command)

	// B dispatched and, being fire-and-forget, already done.
	require.Equal(t, []string{"A", "B"}, q.writes)
	_, err = resolved(t, b.future)
	require.NoError(t, err)
}

func TestQueue_StaleTimeoutIsIgnored(t *testing.T) {
	q := newTestQueue()
	a := queuedCommand(MustPattern(`RESP-A`), nil)
	q.enqueue(a)
	require.True(t, q.onLine("RESP-A"))

	// The timer lost the race; the command is long gone.
	q.onTimeout(a)
	_, err := resolved(t, a.future)
	require.NoError(t, err)
}

func TestQueue_WriteFailureCascadesToNext(t *testing.T) {
	q := newTestQueue()
	a := queuedCommand(MustPattern(`RESP-A`), nil)
	a.text = "A"
	b := queuedCommand(MustPattern(`RESP-B`), nil)
	b.text = "B"
	c := queuedCommand(nil, nil)
	c.text = "C"

	q.enqueue(a)
	q.enqueue(b)
	q.enqueue(c)
	t.Cleanup(func() {
		if b.timer != nil {
			b.timer.Stop()
		}
	})

	// B's write will fail once A completes; C must still go out.
	q.writeErr = errors.New("EBADF")
	require.True(t, q.onLine("RESP-A"))

	_, err := resolved(t, b.future)
	var we *WriteError
	require.ErrorAs(t, err, &we)
	require.Equal(t, "B", we.Command)
	require.ErrorContains(t, we, "EBADF")

	require.Equal(t, []string{"A", "C"}, q.writes)
	_, err = resolved(t, c.future)
	require.NoError(t, err)
}

func TestQueue_FailAll(t *testing.T) {
	q := newTestQueue()
	a := queuedCommand(MustPattern(`RESP-A`), nil)
	b := queuedCommand(MustPattern(`RESP-B`), nil)
	q.enqueue(a)
	q.enqueue(b)

	q.failAll(ErrDestroyed)

	_, err := resolved(t, a.future)
	require.ErrorIs(t, err, ErrDestroyed)
	_, err = resolved(t, b.future)
	require.ErrorIs(t, err, ErrDestroyed)
	require.Zero(t, q.len())
}
