//go:build linux
// +build linux

package serialline

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// TTYConfig holds parameters for opening a Linux serial device.
type TTYConfig struct {
	Device    string
	BaudRate  int    // default 115200
	Delimiter string // inbound line delimiter, default "\r\n"
}

// TTYTransport is a LineTransport over a raw-mode Linux serial device. It
// polls the descriptor directly (no bufio) for low latency, frames inbound
// bytes on the configured delimiter, and uses a self-pipe so Close can
// unblock the reader at any time. The transport survives Close/Open cycles,
// which is what the reconnect supervisor relies on.
type TTYTransport struct {
	cfg TTYConfig

	mu      sync.Mutex
	handler LineHandler
	open    bool
	file    *os.File
	fd      int
	pipeR   int // self-pipe read fd
	pipeW   int // self-pipe write fd
	done    chan struct{}
}

// NewTTYTransport builds a transport for the given device. The port is not
// opened until Open is called.
func NewTTYTransport(cfg TTYConfig) *TTYTransport {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = "\r\n"
	}
	return &TTYTransport{cfg: cfg}
}

// Attach installs the handler receiving inbound events.
func (t *TTYTransport) Attach(h LineHandler) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Open configures the device for raw, non-buffered operation and starts the
// reader goroutine.
func (t *TTYTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		return ErrAlreadyOpen
	}

	fd, err := syscall.Open(t.cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.cfg.Device, err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		syscall.Close(fd)
		return fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baudToUnix(t.cfg.BaudRate)

	// VMIN=1, VTIME=0 for immediate reads
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		syscall.Close(fd)
		return fmt.Errorf("set termios: %w", err)
	}

	// Back to blocking mode now that config is done
	syscall.SetNonblock(fd, false)

	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		syscall.Close(fd)
		return fmt.Errorf("pipe: %w", err)
	}

	t.fd = fd
	t.file = os.NewFile(uintptr(fd), t.cfg.Device)
	t.pipeR = pipeFds[0]
	t.pipeW = pipeFds[1]
	t.done = make(chan struct{})
	t.open = true

	go t.readLoop(t.file, fd, t.pipeR, t.done)
	return nil
}

// Write sends data verbatim to the device.
func (t *TTYTransport) Write(data string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return ErrNotOpen
	}
	_, err := t.file.WriteString(data)
	return err
}

// Close tears the session down and unblocks the reader. No disconnect
// notification is delivered for a deliberate Close. Safe to call when
// already closed.
func (t *TTYTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return nil
	}
	t.open = false
	close(t.done)
	// Wake up poll via the self-pipe
	unix.Write(t.pipeW, []byte{1})
	err := t.file.Close()
	unix.Close(t.pipeR)
	unix.Close(t.pipeW)
	t.file = nil
	return err
}

// readLoop polls the device and the self-pipe, framing inbound bytes into
// delimiter-terminated lines. A read error ends the session and surfaces as
// a disconnect, unless Close got there first.
func (t *TTYTransport) readLoop(file *os.File, fd, pipeR int, done chan struct{}) {
	buf := make([]byte, 4096)
	pending := ""
	for {
		pfd := []unix.PollFd{
			{Fd: int32(fd), Events: unix.POLLIN},
			{Fd: int32(pipeR), Events: unix.POLLIN},
		}
		if _, err := unix.Poll(pfd, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			t.dropped(err)
			return
		}
		select {
		case <-done:
			return
		default:
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			// Drain pipe
			var b [1]byte
			unix.Read(pipeR, b[:])
			return
		}
		if pfd[0].Revents != 0 {
			n, err := file.Read(buf)
			if err != nil {
				t.dropped(err)
				return
			}
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
	}
}

func (t *TTYTransport) deliver(line string) {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	if h.OnLine != nil {
		h.OnLine(line)
	}
}

// dropped closes the session after a read failure and notifies the handler.
func (t *TTYTransport) dropped(err error) {
	t.mu.Lock()
	if !t.open {
		// Close ran concurrently; this was a deliberate teardown.
		t.mu.Unlock()
		return
	}
	t.open = false
	t.file.Close()
	unix.Close(t.pipeR)
	unix.Close(t.pipeW)
	t.file = nil
	h := t.handler
	t.mu.Unlock()
	if h.OnDisconnect != nil {
		h.OnDisconnect(err)
	}
}

func baudToUnix(baud int) uint32 {
	switch baud {
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	case 230400:
		return unix.B230400
	default:
		return unix.B115200 // fallback
	}
}
