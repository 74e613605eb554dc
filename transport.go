package serialline

// LineTransport is the serial capability the engine drives: something that
// can be opened, written to, closed, and that delivers complete text lines
// plus disconnect and error notifications through an attached handler.
//
// Implementations frame the byte stream into lines themselves; the engine
// never sees partial reads. A dropped connection must be reported through
// OnDisconnect exactly once per open. Attach may be called before Open and
// again between reconnect attempts; the most recently attached handler
// receives events.
type LineTransport interface {
	// Attach installs the handler receiving inbound events, replacing any
	// previous handler.
	Attach(h LineHandler)
	// Open establishes the connection and starts delivering lines.
	Open() error
	// Write sends data verbatim. The engine appends the line terminator to
	// queued command payloads before calling Write.
	Write(data string) error
	// Close tears the connection down without a disconnect notification.
	// Closing an already-closed transport is a no-op.
	Close() error
}

// LineHandler receives transport events. Any field may be nil.
type LineHandler struct {
	OnLine       func(line string)
	OnDisconnect func(err error)
	OnError      func(err error)
}
