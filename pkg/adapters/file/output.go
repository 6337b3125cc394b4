package file

import (
	"fmt"
	"os"
	"sync"
)

// Output writes frames to a file.
type Output struct {
	mu sync.Mutex
	f  *os.File
}

// Create opens path for writing, truncating any previous content.
func Create(path string) (*Output, error) {
	return openOutput(path, os.O_TRUNC)
}

// Append opens path for writing after any existing content.
func Append(path string) (*Output, error) {
	return openOutput(path, os.O_APPEND)
}

func openOutput(path string, mode int) (*Output, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|mode, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &Output{f: f}, nil
}

// Available implements ports.Output.
func (o *Output) Available() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.f != nil
}

// Write implements ports.Output.
func (o *Output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.f == nil {
		return 0, ErrClosed
	}
	return o.f.Write(p)
}

// Close syncs and releases the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.f == nil {
		return nil
	}
	syncErr := o.f.Sync()
	err := o.f.Close()
	o.f = nil
	if err != nil {
		return err
	}
	return syncErr
}
