package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/vemulator/pkg/config"
)

// Summary describes a loaded device configuration as markdown.
func Summary(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cfg.Name)
	fmt.Fprintf(&b, "Device `%s`, protocol `%s`", cfg.Device, cfg.Protocol)
	if cfg.Protocol.HasHex() {
		fmt.Fprintf(&b, ", version `0x%04X`, product id `0x%04X`", cfg.Version, cfg.ProductID)
	}
	b.WriteString(".\n\n")

	s := cfg.Settings
	fmt.Fprintf(&b, "Delay %gs, seed %d, stop on `%s`", s.Delay.Seconds(), s.DefaultSeed, s.Stop)
	if s.Timed {
		b.WriteString(", timed")
	}
	if s.BitErrorRate > 0 {
		fmt.Fprintf(&b, ", bit error rate %g", s.BitErrorRate)
	}
	b.WriteString(".\n")

	section(&b, "Text fields", cfg.Text)
	section(&b, "Hex fields", cfg.Hex)
	return b.String()
}

func section(b *strings.Builder, title string, fields []config.Field) {
	if len(fields) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	b.WriteString("| Field | Key | Unit | Scenarios |\n|---|---|---|---|\n")
	for _, f := range fields {
		kinds := make([]string, len(f.Scenarios))
		for i, s := range f.Scenarios {
			kinds[i] = string(s.Kind())
		}
		fmt.Fprintf(b, "| %s | `%s` | %s | %s |\n", f.Name, f.Key, f.Unit, strings.Join(kinds, ", "))
	}
}
