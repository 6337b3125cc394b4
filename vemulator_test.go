package vemulator_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/vemulator"
	"github.com/aretw0/vemulator/pkg/adapters/memory"
	"github.com/aretw0/vemulator/pkg/bus"
	"github.com/aretw0/vemulator/pkg/config"
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const device = `
device: Test device
name: test
protocol: text
emulation:
  delay: 0
  stop_condition: text
fields:
  - name: Voltage
    key: V
    values:
      - type: IntFixed
        value: 5
        amount: 2
`

type recorder struct {
	mu     sync.Mutex
	events []bus.Event
}

func (r *recorder) Mirror(_ context.Context, e bus.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func newEmulator(t *testing.T, opts ...vemulator.Option) (*vemulator.Emulator, *memory.Transport) {
	t.Helper()
	cfg, err := config.Parse([]byte(device))
	require.NoError(t, err)
	tr := memory.New()
	opts = append([]vemulator.Option{vemulator.WithOutput(tr)}, opts...)
	emu, err := vemulator.New(cfg, opts...)
	require.NoError(t, err)
	return emu, tr
}

func runToEnd(t *testing.T, emu *vemulator.Emulator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, emu.Run(ctx))
	require.NoError(t, ctx.Err(), "emulator did not stop on its own")
}

func TestFacade_Run(t *testing.T) {
	emu, tr := newEmulator(t)
	runToEnd(t, emu)

	assert.Len(t, tr.Frames(), 2)
	assert.Equal(t, domain.StatusStopped, emu.Status())
	assert.True(t, emu.Values()["V"].Equal(domain.Int(5)))
}

func TestFacade_NoOutput(t *testing.T) {
	cfg, err := config.Parse([]byte(device))
	require.NoError(t, err)
	emu, err := vemulator.New(cfg)
	require.NoError(t, err)

	assert.ErrorIs(t, emu.Run(context.Background()), domain.ErrNoOutput)
}

func TestFacade_NilConfig(t *testing.T) {
	_, err := vemulator.New(nil)
	assert.Error(t, err)
}

func TestFacade_RunID(t *testing.T) {
	emu, _ := newEmulator(t)
	_, err := uuid.Parse(emu.RunID())
	assert.NoError(t, err)

	emu, _ = newEmulator(t, vemulator.WithRunID("bench-1"))
	assert.Equal(t, "bench-1", emu.RunID())
}

func TestFacade_Mirror(t *testing.T) {
	rec := &recorder{}
	emu, _ := newEmulator(t, vemulator.WithMirror(rec))
	runToEnd(t, emu)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.events)
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, bus.TopicFieldUpdate, last.Topic)
	assert.Equal(t, domain.TextKey("V"), last.Key)
	assert.True(t, last.Value.Equal(domain.Int(5)))
}

func TestFacade_OverwriteNodes(t *testing.T) {
	emu, tr := newEmulator(t)

	err := emu.OverwriteNodes("nope", []any{map[string]any{"type": "IntFixed", "value": 1}})
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	err = emu.OverwriteNodes("V", []any{map[string]any{"type": "IntFixed", "value": 9, "amount": 1}})
	require.NoError(t, err)

	runToEnd(t, emu)
	assert.Len(t, tr.Frames(), 1)
	assert.True(t, emu.Values()["V"].Equal(domain.Int(9)))
}

func TestFacade_MetricsAndHandler(t *testing.T) {
	m := observability.New("test")
	emu, _ := newEmulator(t, vemulator.WithMetrics(m))
	runToEnd(t, emu)

	h := emu.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, w.Body.String(), `vemulator_frames_total{dropped="false",emulator="test",kind="text"} 2`)
	assert.Contains(t, w.Body.String(), `vemulator_status{emulator="test",status="stopped"} 1`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/info", nil))
	assert.Contains(t, w.Body.String(), emu.RunID())
	assert.Contains(t, w.Body.String(), `"device":"Test device"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/status", nil))
	assert.JSONEq(t, `{"status":"stopped"}`, w.Body.String())
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte(device), 0644))

	tr := memory.New()
	emu, err := vemulator.Open(path,
		vemulator.WithOutput(tr),
		vemulator.WithSettings(func(s *config.Settings) { s.DefaultSeed = 99 }),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(99), emu.Config().Settings.DefaultSeed)

	runToEnd(t, emu)
	assert.Len(t, tr.Frames(), 2)

	_, err = vemulator.Open(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
