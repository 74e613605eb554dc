package serialline

import "time"

// commandQueue is the strict-FIFO pipeline of pending commands. Only the
// head command is ever written to the transport, evaluated against inbound
// data, or armed with a timer; everything behind it stays pending and
// unwritten until it becomes head. The queue is not goroutine safe: the
// engine serializes every call, including the timer expiry path.
type commandQueue struct {
	cmds []*command

	// write sends one command payload to the transport, terminator included.
	write func(text string) error
	// expire is installed as the timer callback for the in-flight head.
	expire func(c *command)
}

func (q *commandQueue) len() int { return len(q.cmds) }

// enqueue appends c and, if the queue was idle, dispatches it immediately.
func (q *commandQueue) enqueue(c *command) {
	q.cmds = append(q.cmds, c)
	if len(q.cmds) == 1 {
		q.dispatch()
	}
}

// dispatch writes the head command. A write failure fails only that command
// and moves on to the next; a command without a response pattern resolves
// as soon as its write succeeds. Dispatch returns once a head is in flight
// awaiting a response, or the queue is empty.
func (q *commandQueue) dispatch() {
	for len(q.cmds) > 0 {
		head := q.cmds[0]
		if err := q.write(head.text); err != nil {
			q.pop()
			head.future.fail(&WriteError{Command: head.text, Err: err})
			continue
		}
		if head.response == nil {
			q.pop()
			head.future.complete(Result{})
			continue
		}
		head.timer = time.AfterFunc(head.timeout, func() { q.expire(head) })
		return
	}
}

// onLine evaluates line against the head command and reports whether it
// completed the head.
func (q *commandQueue) onLine(line string) bool {
	if len(q.cmds) == 0 {
		return false
	}
	head := q.cmds[0]
	ev := evaluate(head, line)
	if ev.accumulate {
		head.scanned = append(head.scanned, line)
	}
	if !ev.complete {
		return false
	}
	head.timer.Stop()
	q.pop()
	head.future.complete(resultOf(head, line))
	q.dispatch()
	return true
}

// onTimeout fails cmd if it is still the in-flight head. A completion that
// raced the timer wins: the stale fire finds the command already dequeued
// and does nothing.
func (q *commandQueue) onTimeout(cmd *command) {
	if len(q.cmds) == 0 || q.cmds[0] != cmd {
		return
	}
	q.pop()
	cmd.future.fail(&TimeoutError{Command: cmd.text, Timeout: cmd.timeout})
	q.dispatch()
}

// failAll unwinds every queued command with err.
func (q *commandQueue) failAll(err error) {
	if len(q.cmds) > 0 && q.cmds[0].timer != nil {
		q.cmds[0].timer.Stop()
	}
	for i, c := range q.cmds {
		c.future.fail(err)
		q.cmds[i] = nil
	}
	q.cmds = q.cmds[:0]
}

func (q *commandQueue) pop() {
	q.cmds[0] = nil // release for GC
	q.cmds = q.cmds[1:]
}
