package ports

// Output accepts complete frames. Write is called once per frame.
type Output interface {
	// Available reports whether the transport can currently accept writes.
	Available() bool
	Write(p []byte) (int, error)
}

// Input yields inbound lines without blocking the engine loop.
type Input interface {
	Available() bool
	// HasData reports whether ReadLine would return immediately.
	HasData() bool
	// ReadLine returns the next line including its terminator, if any.
	ReadLine() ([]byte, error)
}
