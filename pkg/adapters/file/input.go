package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
)

// ErrClosed is returned by operations on a closed transport.
var ErrClosed = errors.New("file transport closed")

const readChunk = 512

// Input reads inbound lines from a file.
type Input struct {
	mu      sync.Mutex
	f       *os.File
	pending []byte
}

// Open opens path for reading.
func Open(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	return &Input{f: f}, nil
}

// Available implements ports.Input.
func (in *Input) Available() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.f != nil
}

// HasData implements ports.Input. Bytes are buffered, not consumed.
func (in *Input) HasData() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.f == nil {
		return false
	}
	_ = in.fill()
	return len(in.pending) > 0
}

// ReadLine implements ports.Input. A trailing partial line is returned as is.
func (in *Input) ReadLine() ([]byte, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.f == nil {
		return nil, ErrClosed
	}
	if err := in.fill(); err != nil {
		return nil, err
	}
	if len(in.pending) == 0 {
		return nil, io.EOF
	}

	n := len(in.pending)
	if i := bytes.IndexByte(in.pending, '\n'); i >= 0 {
		n = i + 1
	}
	line := slices.Clone(in.pending[:n])
	in.pending = in.pending[n:]
	return line, nil
}

// fill reads until a full line is buffered or the file has nothing more.
func (in *Input) fill() error {
	buf := make([]byte, readChunk)
	for bytes.IndexByte(in.pending, '\n') < 0 {
		n, err := in.f.Read(buf)
		in.pending = append(in.pending, buf[:n]...)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
	}
	return nil
}

// Close releases the file.
func (in *Input) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.f == nil {
		return nil
	}
	err := in.f.Close()
	in.f = nil
	return err
}
