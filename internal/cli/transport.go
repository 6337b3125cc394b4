package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/vemulator/pkg/adapters/file"
	"github.com/aretw0/vemulator/pkg/adapters/serial"
	"github.com/aretw0/vemulator/pkg/ports"
)

// Endpoint kinds accepted by --input and --output.
const (
	EndpointNone   = "none"
	EndpointStdout = "stdout"
	EndpointFile   = "file"
	EndpointSerial = "serial"
)

// Endpoint is a parsed transport flag such as "serial:/dev/ttyUSB0".
type Endpoint struct {
	Kind   string
	Target string
}

func (ep Endpoint) String() string {
	if ep.Target == "" {
		return ep.Kind
	}
	return ep.Kind + ":" + ep.Target
}

// ParseEndpoint reads a transport flag.
func ParseEndpoint(s string) (Endpoint, error) {
	kind, target, _ := strings.Cut(strings.TrimSpace(s), ":")
	ep := Endpoint{Kind: strings.ToLower(kind), Target: target}
	switch ep.Kind {
	case "", EndpointNone:
		return Endpoint{Kind: EndpointNone}, nil
	case EndpointStdout:
		return Endpoint{Kind: EndpointStdout}, nil
	case EndpointFile, EndpointSerial:
		if ep.Target == "" {
			return Endpoint{}, fmt.Errorf("%s endpoint needs a path, e.g. %s:/dev/ttyUSB0", ep.Kind, ep.Kind)
		}
		return ep, nil
	}
	return Endpoint{}, fmt.Errorf("unknown endpoint %q (expected none, stdout, file:<path> or serial:<port>)", s)
}

// Transports holds the opened link ends.
type Transports struct {
	Input   ports.Input
	Output  ports.Output
	closers []io.Closer
}

// Close releases every opened transport.
func (t *Transports) Close() error {
	var errs []error
	for _, c := range t.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenTransports opens input and output. A serial port named on both sides
// is opened once and used in both directions.
func OpenTransports(in, out Endpoint, baud int) (*Transports, error) {
	t := &Transports{}

	switch in.Kind {
	case EndpointNone:
	case EndpointFile:
		f, err := file.Open(in.Target)
		if err != nil {
			return nil, err
		}
		t.Input = f
		t.closers = append(t.closers, f)
	case EndpointSerial:
		p, err := serial.Open(in.Target, serial.WithBaudRate(baud))
		if err != nil {
			return nil, err
		}
		t.Input = p
		t.closers = append(t.closers, p)
		if out == in {
			t.Output = p
			return t, nil
		}
	default:
		return nil, fmt.Errorf("%s cannot be used as input", in)
	}

	switch out.Kind {
	case EndpointNone:
	case EndpointStdout:
		t.Output = file.Stdout()
	case EndpointFile:
		f, err := file.Append(out.Target)
		if err != nil {
			t.Close()
			return nil, err
		}
		t.Output = f
		t.closers = append(t.closers, f)
	case EndpointSerial:
		p, err := serial.Open(out.Target, serial.WithBaudRate(baud))
		if err != nil {
			t.Close()
			return nil, err
		}
		t.Output = p
		t.closers = append(t.closers, p)
	}
	return t, nil
}
