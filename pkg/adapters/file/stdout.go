package file

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Writer is an Output over any io.Writer. In escape mode, bytes a terminal
// cannot show (the text checksum byte, mostly) are written as \xNN.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	escape bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithEscape enables escape mode.
func WithEscape(on bool) WriterOption {
	return func(w *Writer) {
		w.escape = on
	}
}

// NewWriter wraps w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	wr := &Writer{w: w}
	for _, opt := range opts {
		opt(wr)
	}
	return wr
}

// Stdout returns a Writer on os.Stdout that escapes when stdout is a terminal.
func Stdout() *Writer {
	return NewWriter(os.Stdout, WithEscape(IsTerminal(os.Stdout)))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Available implements ports.Output.
func (w *Writer) Available() bool {
	return w.w != nil
}

// Write implements ports.Output. The returned count refers to p, not to the
// escaped bytes.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.escape {
		return w.w.Write(p)
	}
	if _, err := w.w.Write(Escape(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Escape renders non-printable bytes other than CR, LF and TAB as \xNN.
func Escape(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for _, b := range p {
		switch {
		case b == '\r' || b == '\n' || b == '\t':
			out = append(out, b)
		case b < 0x20 || b >= 0x7F:
			out = fmt.Appendf(out, "\\x%02x", b)
		default:
			out = append(out, b)
		}
	}
	return out
}
