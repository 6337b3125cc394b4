package tui

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aretw0/vemulator/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v0.3.0", "BMV-700")

	out := buf.String()
	assert.Contains(t, out, `\_/\___|_|_|_\_,_|`)
	assert.Contains(t, out, "v0.3.0  emulating BMV-700")
	assert.NotContains(t, out, "\x1b[", "a buffer is not a terminal")
}

func TestSummary(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "..", "pkg", "config", "testdata", "device.yaml"))
	require.NoError(t, err)

	md := Summary(cfg)
	assert.Contains(t, md, "protocol `text_hex`, version `0x1234`, product id `0x5678`")
	assert.Contains(t, md, "## Text fields")
	assert.Contains(t, md, "## Hex fields")
	assert.Contains(t, md, "| `0x1236` |")
	assert.Contains(t, md, "BitBuffer")
}

func TestNewRenderer_Plain(t *testing.T) {
	render := NewRenderer(true)
	out, err := render("# title")
	require.NoError(t, err)
	assert.Equal(t, "# title", out)
}
