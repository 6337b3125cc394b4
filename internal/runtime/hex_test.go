package runtime_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/vemulator/internal/runtime"
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/wire/hex"
	"github.com/aretw0/vemulator/pkg/wire/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexDevice = `
device: Test
name: test
protocol: text_hex
version: 0x1234
product_id: 0x5678
emulation:
  delay: 0
fields:
  - name: Voltage
    key: V
    values:
      - type: IntFixed
        amount: 1
        value: 1
hex_fields:
  - name: Fixed
    key: 0x1234
    values:
      - type: IntFixed
        amount: 2
        value: 0xF00F
        bits: 16
  - name: Writable
    key: 0x1235
    writable: true
    values:
      - type: IntFixed
        amount: 2
        value: 0x0FF0
        bits: 16
  - name: Packed
    key: 0x1236
    values:
      - type: BitBuffer
        values:
          - type: IntFixed
            bits: 5
            amount: 2
            value: 1
          - type: IntFixed
            bits: 3
            amount: 3
            value: 2
`

func TestEngine_HexGetSet(t *testing.T) {
	exchanges := []struct {
		in, out string
	}{
		{":83512001234C0\n", ":83512001234C0\n"},   // set writable
		{":83412001234C1\n", ":83412020FF006\n"},   // set read-only
		{":81234001234C1\n", ":812340106\n"},       // set unknown id
		{":83512001234566A\n", ":8351204F00F03\n"}, // set too large
		{":736120006\n", ":73612000AFC\n"},         // get bit buffer
		{":734120008\n", ":73412000FF009\n"},       // get
		{":712340008\n", ":712340107\n"},           // get unknown id
	}

	var input strings.Builder
	var want []string
	for _, x := range exchanges {
		input.WriteString(x.in)
		want = append(want, x.out)
	}
	want = append(want, string(text.AddChecksum([]byte("\r\nV\t1"))))

	_, tr := run(t, load(t, hexDevice), input.String())
	assert.Equal(t, want, frames(tr))
}

func TestEngine_HexCommands(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"ping", ":154\n", []string{":534120A\n"}},
		{"app version", ":352\n", []string{":134120E\n"}},
		{"product id", ":451\n", []string{":1785686\n"}},
		{"enter boot", ":055\n", []string{":4000051\n"}},
		{"restart", ":64F\n", nil},
		{"async", ":A4B\n", nil},
		{"unknown", ":253\n", []string{":3020050\n"}},
		{"bad checksum", ":155\n", []string{":4AAAAFD\n"}},
		{"noise", "\x00:1\x0054\n", []string{":534120A\n"}},
		{"not a frame", "hello\n", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, tr := run(t, load(t, hexDevice), tc.in)
			assert.Equal(t, tc.want, hexFrames(tr))
		})
	}
}

func TestEngine_HexResponsesChecksum(t *testing.T) {
	_, tr := run(t, load(t, hexDevice), ":154\n:352\n:451\n:734120008\n:253\n")
	got := hexFrames(tr)
	require.Len(t, got, 5)
	for _, f := range got {
		body := strings.TrimSuffix(strings.TrimPrefix(f, ":"), "\n")
		assert.True(t, hex.CheckChecksum(body), "bad checksum in %q", f)
	}
}

func TestEngine_SetPersists(t *testing.T) {
	e, tr := run(t, load(t, hexDevice), ":83512001234C0\n")
	require.NotEmpty(t, frames(tr))

	h, ok := e.Store().GetHex(0x1235)
	require.True(t, ok)
	assert.Equal(t, "1234", h)

	v, ok := e.Store().Get(domain.HexKey(0x1235).DisplayName())
	require.True(t, ok)
	assert.Equal(t, domain.Int(0x3412), v)
}

const signedDevice = `
device: Test
name: test
protocol: text_hex
version: 0x0100
product_id: 0x0200
emulation:
  delay: 0
fields:
  - name: Voltage
    key: V
    values:
      - type: IntFixed
        amount: 1
        value: 1
hex_fields:
  - name: Offset
    key: 0x1235
    writable: true
    values:
      - type: IntFixed
        value: 0
        bits: 16
        signed: true
`

func TestEngine_SetStoresCanonicalValue(t *testing.T) {
	tests := []struct {
		name    string
		written string
		hex     string
		value   int64
	}{
		{name: "short payload is padded to the field width", written: "0A", hex: "0A00", value: 10},
		{name: "signed field decodes two's complement", written: "FEFF", hex: "FEFF", value: -2},
		{name: "positive signed value", written: "FF7F", hex: "FF7F", value: 0x7FFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := hex.Frame(hex.CmdSet, "351200"+tt.written)
			require.NoError(t, err)
			e, tr := run(t, load(t, signedDevice), string(set))

			reply, err := hex.Frame(hex.CmdSet, "351200"+tt.written)
			require.NoError(t, err)
			assert.Contains(t, hexFrames(tr), string(reply))

			h, ok := e.Store().GetHex(0x1235)
			require.True(t, ok)
			assert.Equal(t, tt.hex, h)

			v, ok := e.Store().Get(domain.HexKey(0x1235).DisplayName())
			require.True(t, ok)
			assert.Equal(t, domain.Int(tt.value), v)
		})
	}
}

func TestEngine_AsyncInterval(t *testing.T) {
	cfg := load(t, `
device: Test
name: test
protocol: text_hex
version: 0x0100
product_id: 0x0200
emulation:
  delay: 0
fields:
  - name: Voltage
    key: V
    values:
      - type: IntFixed
        amount: 5
        value: 1
hex_fields:
  - name: Counter
    key: 0x1234
    async_interval: 2
    values:
      - type: IntFixed
        value: 0x0102
        bits: 16
`)
	_, tr := run(t, cfg, "")

	async, err := hex.Frame(hex.CmdAsync, "3412000201")
	require.NoError(t, err)
	// Run time advances one second per tick: 0, 2 and 4 are multiples of 2.
	assert.Equal(t, []string{string(async), string(async), string(async)}, hexFrames(tr))
	assert.Len(t, textFrames(tr), 5)
}

func TestEngine_AsyncChange(t *testing.T) {
	cfg := load(t, `
device: Test
name: test
protocol: text_hex
version: 0x0100
product_id: 0x0200
emulation:
  delay: 0
fields:
  - name: Voltage
    key: V
    values:
      - type: IntFixed
        amount: 1
        value: 1
hex_fields:
  - name: Setting
    key: 0x1235
    writable: true
    async_change: true
    values:
      - type: IntFixed
        value: 0x0FF0
        bits: 16
`)
	_, tr := run(t, cfg, ":83512001234C0\n:83512001234C0\n")

	async, err := hex.Frame(hex.CmdAsync, "3512001234")
	require.NoError(t, err)
	// Writing the same value twice only changes it once.
	assert.Equal(t, []string{":83512001234C0\n", ":83512001234C0\n", string(async)}, hexFrames(tr))
}

func TestEngine_CommandHooks(t *testing.T) {
	var commands []string
	var statuses []string
	var transitions []domain.Status
	hooks := domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			commands = append(commands, e.Command)
			statuses = append(statuses, e.Status)
		},
		OnStatus: func(_ context.Context, e *domain.StatusEvent) {
			transitions = append(transitions, e.To)
		},
	}
	run(t, load(t, hexDevice), ":154\n:712340008\n:155\n", runtime.WithLifecycleHooks(hooks))

	assert.Equal(t, []string{"ping", "get", "invalid"}, commands)
	assert.Equal(t, []string{"", hex.StatusUnknownID, ""}, statuses)
	assert.Equal(t, []domain.Status{domain.StatusRunning, domain.StatusStopped}, transitions)
}
