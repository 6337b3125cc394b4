package tests

import (
	"testing"

	"github.com/aretw0/vemulator/pkg/ports"
)

// OutputContractTest verifies that an Output delivers frames unchanged and in
// order. written returns everything the transport has received so far.
func OutputContractTest(t *testing.T, out ports.Output, written func() []byte) {
	t.Helper()

	t.Run("Available", func(t *testing.T) {
		if !out.Available() {
			t.Fatal("expected output to be available")
		}
	})

	t.Run("Write_Order", func(t *testing.T) {
		frames := []string{":154123406\n", "\r\nV\t12800\r\nChecksum\t\x97"}
		for _, f := range frames {
			n, err := out.Write([]byte(f))
			if err != nil {
				t.Fatalf("unexpected error writing frame: %v", err)
			}
			if n != len(f) {
				t.Errorf("short write: got %d, want %d", n, len(f))
			}
		}
		want := frames[0] + frames[1]
		if got := string(written()); got != want {
			t.Errorf("content mismatch. got %q, want %q", got, want)
		}
	})
}

// InputContractTest verifies line delivery. feed appends raw bytes to the
// transport as if a peer had sent them.
func InputContractTest(t *testing.T, in ports.Input, feed func(data string)) {
	t.Helper()

	t.Run("Empty", func(t *testing.T) {
		if in.HasData() {
			t.Error("expected no data before anything was fed")
		}
	})

	t.Run("ReadLine", func(t *testing.T) {
		feed(":154\n:352\n")
		for _, want := range []string{":154\n", ":352\n"} {
			if !in.HasData() {
				t.Fatalf("expected data for %q", want)
			}
			line, err := in.ReadLine()
			if err != nil {
				t.Fatalf("unexpected error reading line: %v", err)
			}
			if string(line) != want {
				t.Errorf("line mismatch. got %q, want %q", line, want)
			}
		}
		if in.HasData() {
			t.Error("expected input to be drained")
		}
	})
}
