// Package serialline provides request/response semantics over a
// line-oriented serial stream.
//
// A serial line is inherently asynchronous: bytes arrive whenever the
// device feels like it, whether or not a command is outstanding. The Engine
// turns that into something callers can reason about. Commands go through a
// strict FIFO queue, one in flight at a time, each correlated with the
// first inbound line matching its response pattern or failed by its own
// timeout. Standing watchers scan every inbound line for patterns,
// independent of command state, and a supervisor reopens the transport
// after a disconnect at a fixed retry interval.
//
// Features:
//   - One-command-in-flight FIFO queue with per-command timeout
//   - Response matching by containment regex, optional scan-pattern
//     accumulation of intermediate lines
//   - Standing watchers with single or global (per-occurrence) matching
//   - Automatic reconnect with fixed-interval retry
//   - Lifecycle events: open, close, error, disconnected, unsolicited data,
//     write echo
//   - Transports: raw termios TTY (Linux), go.bug.st/serial (portable), or
//     any LineTransport implementation
//
// Example usage:
//
//	transport := serialline.NewTTYTransport(serialline.TTYConfig{
//	    Device:   "/dev/ttyUSB0",
//	    BaudRate: 115200,
//	})
//	engine := serialline.New(transport, serialline.WithEOL("\r"))
//	if err := engine.Open(); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Destroy()
//
//	// Fire a command and wait for its matched response
//	future := engine.Send("AT+CSQ", serialline.MustPattern(`OK|ERROR`))
//	result, err := future.Wait(context.Background())
//
//	// Watch all inbound lines for ring alerts, solicited or not
//	engine.Watch(serialline.MustPattern(`^RING`), func(m string, _ *serialline.Pattern) {
//	    log.Println("ring:", m)
//	})
package serialline
