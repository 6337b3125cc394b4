package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`                    _      _`,
	` __ _____ _ __ _  _| |__ _| |_ ___ _ _`,
	` \ V / -_) '  \ || | / _' |  _/ _ \ '_|`,
	`  \_/\___|_|_|_\_,_|_\__,_|\__\___/_|`,
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8"}

// PrintBanner writes the startup banner to w. Colours degrade to plain text
// when w is not a terminal.
func PrintBanner(w io.Writer, version, device string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, out.String(fmt.Sprintf("  %s  emulating %s", version, device)).Faint())
	fmt.Fprintln(w)
}
