package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/vemulator/internal/presentation/tui"
	"github.com/aretw0/vemulator/pkg/adapters/serial"
	"github.com/aretw0/vemulator/pkg/config"
)

// Validate loads the device file at path, building every scenario, and
// returns the aggregated configuration errors if any.
func Validate(path string, overrides ...func(*config.Settings)) (*config.Config, error) {
	var opts []config.Option
	for _, fn := range overrides {
		opts = append(opts, config.WithOverrides(fn))
	}
	return config.Load(path, opts...)
}

// Describe writes a summary of cfg, rendered for the terminal unless plain.
func Describe(w io.Writer, cfg *config.Config, plain bool) error {
	out, err := tui.NewRenderer(plain)(tui.Summary(cfg))
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// ListPorts writes the serial ports present on the system, one per line.
func ListPorts(w io.Writer) error {
	names, err := serial.List()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}
