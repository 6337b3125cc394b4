package vemulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/vemulator/internal/runtime"
	httpadapter "github.com/aretw0/vemulator/pkg/adapters/http"
	"github.com/aretw0/vemulator/pkg/bus"
	"github.com/aretw0/vemulator/pkg/config"
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/observability"
	"github.com/aretw0/vemulator/pkg/ports"
	"github.com/aretw0/vemulator/pkg/scenario"
	"github.com/google/uuid"
)

// Version is the release of the emulator, set at build time.
var Version = "0.1.0-dev"

// Emulator is the high-level entry point of the library. It wraps the
// runtime engine together with its optional control surfaces.
type Emulator struct {
	cfg     *config.Config
	engine  *runtime.Engine
	builder *lockedBuilder
	runID   string
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	input   ports.Input
	output  ports.Output
	mirrors []ports.ValueMirror
	metrics *observability.Metrics
	adjust  []func(*config.Settings)
}

// Option configures an Emulator.
type Option func(*Emulator)

// WithLogger sets the structured logger. Records carry the run id.
func WithLogger(l *slog.Logger) Option {
	return func(e *Emulator) {
		e.logger = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Emulator) {
		e.hooks = h
	}
}

// WithInput sets where hex commands are read from.
func WithInput(in ports.Input) Option {
	return func(e *Emulator) {
		e.input = in
	}
}

// WithOutput sets where frames are written.
func WithOutput(out ports.Output) Option {
	return func(e *Emulator) {
		e.output = out
	}
}

// WithMirror copies every field store change to m while running.
func WithMirror(m ports.ValueMirror) Option {
	return func(e *Emulator) {
		e.mirrors = append(e.mirrors, m)
	}
}

// WithMetrics feeds m from the engine hooks and scenario warnings.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Emulator) {
		e.metrics = m
	}
}

// WithRunID replaces the random run identifier.
func WithRunID(id string) Option {
	return func(e *Emulator) {
		e.runID = id
	}
}

// WithSettings adjusts the emulation settings of a file loaded by Open,
// after the file's own emulation block.
func WithSettings(fn func(*config.Settings)) Option {
	return func(e *Emulator) {
		e.adjust = append(e.adjust, fn)
	}
}

func newEmulator(opts []Option) *Emulator {
	e := &Emulator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.runID == "" {
		e.runID = uuid.NewString()
	}
	e.logger = e.logger.With("run_id", e.runID)
	return e
}

// scenarioLogger is the logger handed to scenarios, counting their warnings
// when metrics are enabled.
func (e *Emulator) scenarioLogger() *slog.Logger {
	if e.metrics != nil {
		return e.metrics.CountWarnings(e.logger)
	}
	return e.logger
}

// Open loads the device file at path and creates an Emulator for it.
func Open(path string, opts ...Option) (*Emulator, error) {
	e := newEmulator(opts)
	cfgOpts := []config.Option{config.WithLogger(e.scenarioLogger())}
	for _, fn := range e.adjust {
		cfgOpts = append(cfgOpts, config.WithOverrides(fn))
	}
	cfg, err := config.Load(path, cfgOpts...)
	if err != nil {
		return nil, err
	}
	return e.init(cfg), nil
}

// New creates an Emulator for an already loaded configuration.
func New(cfg *config.Config, opts ...Option) (*Emulator, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	return newEmulator(opts).init(cfg), nil
}

func (e *Emulator) init(cfg *config.Config) *Emulator {
	e.cfg = cfg
	e.logger = e.logger.With("device", cfg.Device)

	hooks := e.hooks
	if e.metrics != nil {
		hooks = e.metrics.Hooks(hooks)
	}
	opts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(hooks),
	}
	if e.input != nil {
		opts = append(opts, runtime.WithInput(e.input))
	}
	if e.output != nil {
		opts = append(opts, runtime.WithOutput(e.output))
	}
	e.engine = runtime.NewEngine(cfg, opts...)
	e.builder = &lockedBuilder{b: scenario.NewBuilder(cfg.Settings.DefaultSeed, scenario.WithLogger(e.scenarioLogger()))}
	return e
}

// Run emulates the device until the stop condition holds, Stop is called or
// ctx is cancelled.
func (e *Emulator) Run(ctx context.Context) error {
	e.logger.Info("emulator starting", "protocol", string(e.cfg.Protocol), "timed", e.cfg.Settings.Timed)

	if len(e.mirrors) == 0 {
		return e.engine.Run(ctx)
	}

	sub := e.engine.Bus().Subscribe(bus.TopicFieldUpdate, bus.TopicHexUpdate)
	defer sub.Close()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.forward(context.WithoutCancel(ctx), sub, done)
	}()

	err := e.engine.Run(ctx)
	close(done)
	wg.Wait()
	return err
}

// forward hands store changes to the mirrors until done, then flushes what
// is left.
func (e *Emulator) forward(ctx context.Context, sub *bus.Subscription, done <-chan struct{}) {
	for {
		select {
		case <-sub.Ready():
			e.mirror(ctx, sub.Drain())
		case <-done:
			e.mirror(ctx, sub.Drain())
			return
		}
	}
}

func (e *Emulator) mirror(ctx context.Context, events []bus.Event) {
	for _, ev := range events {
		for _, m := range e.mirrors {
			if err := m.Mirror(ctx, ev); err != nil {
				e.logger.Warn("could not mirror value", "key", ev.Key.String(), "err", err)
			}
		}
	}
}

// Stop ends the run after the current iteration.
func (e *Emulator) Stop() { e.engine.Stop() }

// Pause suspends message generation.
func (e *Emulator) Pause() { e.engine.Pause() }

// Resume continues after Pause.
func (e *Emulator) Resume() { e.engine.Resume() }

// Status reports the lifecycle state.
func (e *Emulator) Status() domain.Status { return e.engine.Status() }

// Values returns the current display value of every field.
func (e *Emulator) Values() map[string]domain.Value { return e.engine.Values() }

// Lookup finds a field by its text label or "0x" hex id.
func (e *Emulator) Lookup(name string) (domain.FieldKey, bool) { return e.engine.Lookup(name) }

// Overwrite replaces the scenario queue of a field.
func (e *Emulator) Overwrite(key domain.FieldKey, queue []scenario.Scenario) error {
	return e.engine.Overwrite(key, queue)
}

// OverwriteNodes builds scenarios from configuration nodes and replaces the
// queue of the named field with them.
func (e *Emulator) OverwriteNodes(name string, nodes []any) error {
	key, ok := e.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, name)
	}
	queue, err := e.builder.BuildList(nodes, scenario.FieldProps{Key: key})
	if err != nil {
		return err
	}
	return e.Overwrite(key, queue)
}

// Config returns the configuration the emulator was built from.
func (e *Emulator) Config() *config.Config { return e.cfg }

// RunID identifies this emulator in logs, metrics and mirrored events.
func (e *Emulator) RunID() string { return e.runID }

// Bus exposes store change events.
func (e *Emulator) Bus() *bus.Bus { return e.engine.Bus() }

// Handler returns the HTTP control API for this emulator.
func (e *Emulator) Handler() http.Handler {
	opts := []httpadapter.Option{
		httpadapter.WithBuilder(e.builder),
		httpadapter.WithBus(e.engine.Bus()),
		httpadapter.WithLogger(e.logger),
		httpadapter.WithInfo(map[string]string{
			"version": Version,
			"run_id":  e.runID,
			"device":  e.cfg.Device,
			"name":    e.cfg.Name,
		}),
	}
	if e.metrics != nil {
		opts = append(opts, httpadapter.WithMetrics(e.metrics.Handler()))
	}
	return httpadapter.NewHandler(e, opts...)
}

// lockedBuilder serializes scenario construction; the seed source is shared.
type lockedBuilder struct {
	mu sync.Mutex
	b  *scenario.Builder
}

func (l *lockedBuilder) BuildList(nodes []any, fp scenario.FieldProps) ([]scenario.Scenario, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.BuildList(nodes, fp)
}
