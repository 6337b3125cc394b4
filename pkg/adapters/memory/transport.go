// Package memory provides an in-memory transport for tests and embedding.
package memory

import (
	"bytes"
	"errors"
	"slices"
	"sync"
)

// ErrClosed is returned by operations on a closed Transport.
var ErrClosed = errors.New("memory transport closed")

// Transport implements ports.Input and ports.Output. Fed bytes are read back
// line by line; written frames are recorded.
type Transport struct {
	mu     sync.Mutex
	in     bytes.Buffer
	frames [][]byte
	closed bool
}

// New creates an empty transport.
func New() *Transport {
	return &Transport{}
}

// Feed queues raw bytes for ReadLine.
func (t *Transport) Feed(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.in.WriteString(data)
}

// Available implements ports.Input and ports.Output.
func (t *Transport) Available() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// HasData implements ports.Input.
func (t *Transport) HasData() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.in.Len() > 0
}

// ReadLine implements ports.Input. A trailing partial line is returned as is.
func (t *Transport) ReadLine() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	line, err := t.in.ReadBytes('\n')
	if len(line) > 0 {
		return line, nil
	}
	return nil, err
}

// Write implements ports.Output.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, ErrClosed
	}
	t.frames = append(t.frames, slices.Clone(p))
	return len(p), nil
}

// Frames returns a copy of every frame written so far.
func (t *Transport) Frames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.frames))
	for i, f := range t.frames {
		out[i] = slices.Clone(f)
	}
	return out
}

// Output returns all written frames concatenated.
func (t *Transport) Output() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return bytes.Join(t.frames, nil)
}

// Reset forgets recorded frames and pending input.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = nil
	t.in.Reset()
}

// Close makes the transport unavailable.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
