// Package serial provides a serial port transport used for both directions of
// the link.
package serial

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	goserial "go.bug.st/serial"
)

// DefaultBaudRate is the link speed of the emulated devices.
const DefaultBaudRate = 19200

// ErrClosed is returned by operations on a closed or failed port.
var ErrClosed = errors.New("serial port closed")

const (
	readTimeout = 10 * time.Millisecond
	readChunk   = 256
)

// Option configures Open.
type Option func(*goserial.Mode)

// WithBaudRate overrides DefaultBaudRate.
func WithBaudRate(baud int) Option {
	return func(m *goserial.Mode) {
		if baud > 0 {
			m.BaudRate = baud
		}
	}
}

// Port implements ports.Input and ports.Output over one serial line.
// Only complete lines are handed to the reader; a frame still arriving stays
// buffered.
type Port struct {
	mu      sync.Mutex
	wmu     sync.Mutex
	rw      io.ReadWriteCloser
	pending []byte
	failed  bool
}

// Open opens the named port at 8N1.
func Open(name string, opts ...Option) (*Port, error) {
	mode := &goserial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	for _, opt := range opts {
		opt(mode)
	}

	p, err := goserial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}
	return New(p), nil
}

// New wraps an already open stream. Read must return (0, nil) when no bytes
// arrive within its timeout, as serial ports do.
func New(rw io.ReadWriteCloser) *Port {
	return &Port{rw: rw}
}

// List returns the serial ports present on the system.
func List() ([]string, error) {
	return goserial.GetPortsList()
}

// Available implements ports.Input and ports.Output.
func (p *Port) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rw != nil && !p.failed
}

// HasData implements ports.Input.
func (p *Port) HasData() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rw == nil || p.failed {
		return false
	}
	p.fill()
	return bytes.IndexByte(p.pending, '\n') >= 0
}

// ReadLine implements ports.Input. It returns io.EOF when no complete line
// is buffered.
func (p *Port) ReadLine() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rw == nil || p.failed {
		return nil, ErrClosed
	}
	p.fill()
	i := bytes.IndexByte(p.pending, '\n')
	if i < 0 {
		return nil, io.EOF
	}
	line := slices.Clone(p.pending[:i+1])
	p.pending = p.pending[i+1:]
	return line, nil
}

func (p *Port) fill() {
	buf := make([]byte, readChunk)
	for bytes.IndexByte(p.pending, '\n') < 0 {
		n, err := p.rw.Read(buf)
		p.pending = append(p.pending, buf[:n]...)
		if err != nil {
			p.failed = true
			return
		}
		if n == 0 {
			return
		}
	}
}

// Write implements ports.Output.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	rw, failed := p.rw, p.failed
	p.mu.Unlock()
	if rw == nil || failed {
		return 0, ErrClosed
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()
	return rw.Write(b)
}

// Close releases the port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rw == nil {
		return nil
	}
	err := p.rw.Close()
	p.rw = nil
	return err
}
