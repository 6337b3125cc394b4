package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/vemulator/pkg/bus"
	"github.com/aretw0/vemulator/pkg/config"
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/fieldstore"
	"github.com/aretw0/vemulator/pkg/ports"
	"github.com/aretw0/vemulator/pkg/scenario"
)

// pausePoll is how often a paused loop checks whether it may continue.
const pausePoll = 100 * time.Millisecond

// Engine owns the scenario queues of every field and drives the emulation loop.
type Engine struct {
	device   config.Config
	settings config.Settings
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	input    ports.Input
	output   ports.Output
	bus      *bus.Bus
	store    *fieldstore.Store

	// mu serializes queue access and every generate-then-publish sequence.
	// The timed scheduler shares it for its task set.
	mu       sync.Mutex
	queues   map[domain.FieldKey][]scenario.Scenario
	last     map[domain.FieldKey]scenario.Scenario
	props    map[domain.FieldKey]scenario.FieldProps
	textKeys []domain.FieldKey
	hexKeys  []domain.FieldKey

	outMu sync.Mutex
	rng   *rand.Rand

	stateMu sync.Mutex
	status  domain.Status
	paused  bool
	stopped bool

	runTime   time.Duration
	scheduler *Scheduler
	changes   *bus.Subscription
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithInput sets where hex commands are read from.
func WithInput(in ports.Input) Option {
	return func(e *Engine) { e.input = in }
}

// WithOutput sets where frames are written to.
func WithOutput(out ports.Output) Option {
	return func(e *Engine) { e.output = out }
}

// WithBus shares an event bus with other components. The engine creates its
// own when none is given.
func WithBus(b *bus.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// NewEngine takes ownership of the scenario queues in cfg.
func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		device:   *cfg,
		settings: cfg.Settings,
		logger:   slog.New(slog.DiscardHandler),
		queues:   make(map[domain.FieldKey][]scenario.Scenario),
		last:     make(map[domain.FieldKey]scenario.Scenario),
		props:    make(map[domain.FieldKey]scenario.FieldProps),
		status:   domain.StatusInitialized,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = bus.New()
	}
	e.store = fieldstore.New(e.bus)
	e.rng = rand.New(rand.NewPCG(uint64(e.settings.DefaultSeed), 0))
	e.scheduler = NewScheduler(&e.mu)

	add := func(fields []config.Field, keys *[]domain.FieldKey) {
		for _, f := range fields {
			e.queues[f.Key] = slices.Clone(f.Scenarios)
			if len(f.Scenarios) > 0 {
				e.props[f.Key] = f.Scenarios[0].FieldProps()
			} else {
				e.props[f.Key] = scenario.FieldProps{Key: f.Key}
			}
			*keys = append(*keys, f.Key)
		}
	}
	if cfg.Protocol.HasText() {
		add(cfg.Text, &e.textKeys)
	}
	if cfg.Protocol.HasHex() {
		add(cfg.Hex, &e.hexKeys)
	}
	return e
}

// Store exposes the field value store.
func (e *Engine) Store() *fieldstore.Store { return e.store }

// Bus exposes the event bus the store publishes on.
func (e *Engine) Bus() *bus.Bus { return e.bus }

// Ready reports whether the engine has everything it needs to run.
func (e *Engine) Ready() error {
	e.mu.Lock()
	empty := true
	for _, q := range e.queues {
		if len(q) > 0 {
			empty = false
			break
		}
	}
	e.mu.Unlock()
	if empty {
		return domain.ErrNoScenarios
	}
	if e.output == nil {
		return domain.ErrNoOutput
	}
	if e.input == nil && e.device.Protocol.HasHex() {
		e.logger.Warn("no input configured, hex commands will not be answered")
	}
	return nil
}

// Run drives the emulation until the stop condition holds, Stop is called or
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Ready(); err != nil {
		return err
	}
	e.changes = e.bus.Subscribe(bus.TopicHexUpdate)
	defer e.changes.Close()

	if e.settings.Timed {
		stop := e.startTimed(ctx)
		defer stop()
	}

	e.logger.Info("emulation started",
		"device", e.device.Device, "protocol", string(e.device.Protocol),
		"timed", e.settings.Timed, "stop", string(e.settings.Stop))

	for !e.done(ctx) {
		if e.waitWhilePaused(ctx) {
			continue
		}
		e.setStatus(ctx, domain.StatusRunning)

		if e.device.Protocol.HasHex() {
			e.readInput(ctx)
			e.flushChanges(ctx)
			e.sendAsyncIntervals(ctx)
		}
		e.flushChanges(ctx)
		e.sendText(ctx)
		e.flushChanges(ctx)

		if e.settings.Delay > 0 {
			sleep(ctx, e.settings.Delay)
			e.runTime += e.settings.Delay
		} else {
			// Keeps async interval arithmetic moving.
			e.runTime += time.Second
		}
	}

	e.setStatus(ctx, domain.StatusStopped)
	e.logger.Info("emulation stopped", "run_time", e.runTime)
	return nil
}

// waitWhilePaused blocks while paused and reports whether it did so.
func (e *Engine) waitWhilePaused(ctx context.Context) bool {
	waited := false
	for e.isPaused() && !e.isStopped() && ctx.Err() == nil {
		waited = true
		e.setStatus(ctx, domain.StatusPaused)
		sleep(ctx, pausePoll)
	}
	return waited && (e.isStopped() || ctx.Err() != nil)
}

func (e *Engine) done(ctx context.Context) bool {
	if ctx.Err() != nil || e.isStopped() {
		return true
	}
	switch e.settings.Stop {
	case domain.StopText:
		return e.exhausted(e.textKeys)
	case domain.StopHex:
		return e.exhausted(e.hexKeys)
	case domain.StopTextHex:
		return e.exhausted(e.textKeys) && e.exhausted(e.hexKeys)
	}
	return false
}

// exhausted reports whether every field in keys is empty or only has a
// derived Arithmetic scenario at its head.
func (e *Engine) exhausted(keys []domain.FieldKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, k := range keys {
		q := e.queues[k]
		if len(q) > 0 && q[0].Kind() != scenario.KindArithmetic {
			return false
		}
	}
	return true
}

// Stop asks the loop to end. It returns before the loop has finished.
func (e *Engine) Stop() {
	e.stateMu.Lock()
	e.stopped = true
	e.stateMu.Unlock()
	e.setStatus(context.Background(), domain.StatusStopping)
}

// Pause suspends generation and I/O at the top of the next iteration.
func (e *Engine) Pause() {
	e.stateMu.Lock()
	e.paused = true
	e.stateMu.Unlock()
	e.setStatus(context.Background(), domain.StatusPausing)
}

// Resume continues a paused emulation. It is a no-op otherwise.
func (e *Engine) Resume() {
	e.stateMu.Lock()
	if e.status != domain.StatusPausing && e.status != domain.StatusPaused {
		e.stateMu.Unlock()
		return
	}
	e.paused = false
	e.stateMu.Unlock()
	e.setStatus(context.Background(), domain.StatusResuming)
}

// Status reports the lifecycle state.
func (e *Engine) Status() domain.Status {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.status
}

func (e *Engine) isPaused() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.paused
}

func (e *Engine) isStopped() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.stopped
}

func (e *Engine) setStatus(ctx context.Context, s domain.Status) {
	e.stateMu.Lock()
	from := e.status
	e.status = s
	e.stateMu.Unlock()
	if from == s {
		return
	}
	e.logger.Debug("status changed", "from", string(from), "to", string(s))
	if e.hooks.OnStatus != nil {
		e.hooks.OnStatus(ctx, &domain.StatusEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStatusChanged},
			From:      from,
			To:        s,
		})
	}
}

// Values returns the current display value of every field.
func (e *Engine) Values() map[string]domain.Value {
	return e.store.Snapshot()
}

// Keys lists the text fields followed by the hex fields, in declaration order.
func (e *Engine) Keys() []domain.FieldKey {
	return append(slices.Clone(e.textKeys), e.hexKeys...)
}

// Lookup finds a configured field by the name used in logs and the control API:
// the text label or "0x" followed by the hex id.
func (e *Engine) Lookup(name string) (domain.FieldKey, bool) {
	for _, k := range e.Keys() {
		if k.String() == name || k.DisplayName() == name {
			return k, true
		}
	}
	return domain.FieldKey{}, false
}

// Overwrite replaces the scenario queue of a field. The new scenarios inherit
// the field level properties of the field's scenarios.
func (e *Engine) Overwrite(key domain.FieldKey, queue []scenario.Scenario) error {
	e.mu.Lock()
	if _, ok := e.queues[key]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, key)
	}
	fp := e.props[key]
	if head, ok := e.headLocked(key); ok {
		fp = head.FieldProps()
	}
	fp.Key = key
	for _, s := range queue {
		s.ApplyFieldProps(fp)
	}
	e.queues[key] = slices.Clone(queue)
	e.mu.Unlock()

	e.logger.Info("field overwritten", "key", key.String(), "scenarios", len(queue))
	e.bus.Publish(bus.Event{Topic: bus.TopicOverwrite, Key: key})
	return nil
}

// Scenarios returns a copy of the current queue of key.
func (e *Engine) Scenarios(key domain.FieldKey) []scenario.Scenario {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.queues[key])
}

// generate produces the next value of key from its head scenario.
func (e *Engine) generate(key domain.FieldKey) (domain.Value, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generateLocked(key)
}

func (e *Engine) generateLocked(key domain.FieldKey) (domain.Value, bool) {
	e.retireLocked(key)
	head, ok := e.headLocked(key)
	if !ok {
		return domain.None(), false
	}
	v := head.Next(e.store)
	e.retireLocked(key)
	e.logger.Debug("generated value", "key", key.String(), "kind", string(head.Kind()), "value", v.String())
	return v, true
}

// retireLocked drops complete scenarios from the head of key's queue.
func (e *Engine) retireLocked(key domain.FieldKey) {
	q := e.queues[key]
	for len(q) > 0 && q[0].Complete() {
		e.last[key] = q[0]
		q = q[1:]
	}
	e.queues[key] = q
}

func (e *Engine) headLocked(key domain.FieldKey) (scenario.Scenario, bool) {
	q := e.queues[key]
	if len(q) == 0 {
		return nil, false
	}
	return q[0], true
}

// current is the head of key's queue, or the scenario retired last.
func (e *Engine) current(key domain.FieldKey) (scenario.Scenario, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if head, ok := e.headLocked(key); ok {
		return head, true
	}
	s, ok := e.last[key]
	return s, ok
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
