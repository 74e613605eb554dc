package serialline

import (
	"fmt"
	"strings"
	"sync"

	"go.bug.st/serial"
)

// PortConfig holds parameters for opening a port through go.bug.st/serial.
type PortConfig struct {
	Device    string
	BaudRate  int    // default 115200
	Delimiter string // inbound line delimiter, default "\r\n"
}

// PortTransport is a portable LineTransport backed by go.bug.st/serial.
// It frames inbound bytes on the configured delimiter, exactly like
// TTYTransport, and relies on Close unblocking the reader's pending Read.
type PortTransport struct {
	cfg PortConfig

	mu      sync.Mutex
	handler LineHandler
	port    serial.Port
	open    bool
}

// NewPortTransport builds a transport for the given device. The port is not
// opened until Open is called.
func NewPortTransport(cfg PortConfig) *PortTransport {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = "\r\n"
	}
	return &PortTransport{cfg: cfg}
}

// Attach installs the handler receiving inbound events.
func (t *PortTransport) Attach(h LineHandler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Open opens the port and starts the reader goroutine.
func (t *PortTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		return ErrAlreadyOpen
	}
	port, err := serial.Open(t.cfg.Device, &serial.Mode{BaudRate: t.cfg.BaudRate})
	if err != nil {
		return fmt.Errorf("open %s: %w", t.cfg.Device, err)
	}
	t.port = port
	t.open = true
	go t.readLoop(port)
	return nil
}

// Write sends data verbatim to the port.
func (t *PortTransport) Write(data string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return ErrNotOpen
	}
	_, err := t.port.Write([]byte(data))
	return err
}

// Close tears the session down; the pending Read in the reader goroutine
// fails and the loop exits without a disconnect notification.
func (t *PortTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return nil
	}
	t.open = false
	err := t.port.Close()
	t.port = nil
	return err
}

func (t *PortTransport) readLoop(port serial.Port) {
	buf := make([]byte, 4096)
	pending := ""
	for {
		n, err := port.Read(buf)
		if n > 0 {
			pending += string(buf[:n])
			for {
				idx := strings.Index(pending, t.cfg.Delimiter)
				if idx < 0 {
					break
				}
				line := pending[:idx]
				pending = pending[idx+len(t.cfg.Delimiter):]
				t.deliver(line)
			}
		}
		if err != nil {
			t.dropped(err)
			return
		}
	}
}

func (t *PortTransport) deliver(line string) {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	if h.OnLine != nil {
		h.OnLine(line)
	}
}

func (t *PortTransport) dropped(err error) {
	t.mu.Lock()
	if !t.open {
		// Deliberate Close; the failed Read is expected.
		t.mu.Unlock()
		return
	}
	t.open = false
	t.port.Close()
	t.port = nil
	h := t.handler
	t.mu.Unlock()
	if h.OnDisconnect != nil {
		h.OnDisconnect(err)
	}
}
