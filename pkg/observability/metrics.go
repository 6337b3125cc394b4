package observability

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var statuses = []domain.Status{
	domain.StatusInitialized,
	domain.StatusRunning,
	domain.StatusPausing,
	domain.StatusPaused,
	domain.StatusResuming,
	domain.StatusStopping,
	domain.StatusStopped,
}

// Metrics holds the emulator collectors.
type Metrics struct {
	registry *prometheus.Registry

	Frames     *prometheus.CounterVec
	FrameBytes *prometheus.CounterVec
	BitFlips   prometheus.Counter
	Commands   *prometheus.CounterVec
	Warnings   *prometheus.CounterVec
	Status     *prometheus.GaugeVec
}

// New creates and registers the collectors. name identifies the emulator on
// every series through the constant label "emulator".
func New(name string) *Metrics {
	labels := prometheus.Labels{"emulator": name}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "vemulator_frames_total",
			Help:        "Frames handed to the output, by kind and whether they were dropped.",
			ConstLabels: labels,
		}, []string{"kind", "dropped"}),
		FrameBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "vemulator_frame_bytes_total",
			Help:        "Bytes of frames written to the output.",
			ConstLabels: labels,
		}, []string{"kind"}),
		BitFlips: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "vemulator_bit_flips_total",
			Help:        "Bits flipped by error injection.",
			ConstLabels: labels,
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "vemulator_commands_total",
			Help:        "Inbound hex commands, by command and reply status.",
			ConstLabels: labels,
		}, []string{"command", "status"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "vemulator_generation_warnings_total",
			Help:        "Values that could not be generated, by scenario kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		Status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "vemulator_status",
			Help:        "1 for the current lifecycle status, 0 otherwise.",
			ConstLabels: labels,
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.Frames, m.FrameBytes, m.BitFlips, m.Commands, m.Warnings, m.Status)
	m.setStatus(domain.StatusInitialized)
	return m
}

// Registry exposes the registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks feeding the collectors. next, if non nil,
// is called after each metric update.
func (m *Metrics) Hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFrame: func(ctx context.Context, e *domain.FrameEvent) {
			m.Frames.WithLabelValues(string(e.Kind), strconv.FormatBool(e.Dropped)).Inc()
			if !e.Dropped {
				m.FrameBytes.WithLabelValues(string(e.Kind)).Add(float64(e.Size))
			}
			m.BitFlips.Add(float64(e.Flipped))
			if next.OnFrame != nil {
				next.OnFrame(ctx, e)
			}
		},
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			m.Commands.WithLabelValues(e.Command, e.Status).Inc()
			if next.OnCommand != nil {
				next.OnCommand(ctx, e)
			}
		},
		OnStatus: func(ctx context.Context, e *domain.StatusEvent) {
			m.setStatus(e.To)
			if next.OnStatus != nil {
				next.OnStatus(ctx, e)
			}
		},
	}
}

func (m *Metrics) setStatus(current domain.Status) {
	for _, s := range statuses {
		v := 0.0
		if s == current {
			v = 1
		}
		m.Status.WithLabelValues(string(s)).Set(v)
	}
}

// CountWarnings wraps l so that every warning carrying a "kind" attribute
// increments Warnings. Pass the result to the scenario builder.
func (m *Metrics) CountWarnings(l *slog.Logger) *slog.Logger {
	return slog.New(&warningHandler{next: l.Handler(), warnings: m.Warnings})
}

type warningHandler struct {
	next     slog.Handler
	warnings *prometheus.CounterVec
	kind     string
}

func (h *warningHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// Warnings are counted even when the wrapped handler drops them.
	return level >= slog.LevelWarn || h.next.Enabled(ctx, level)
}

func (h *warningHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		kind := h.kind
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "kind" {
				kind = a.Value.String()
				return false
			}
			return true
		})
		if kind != "" {
			h.warnings.WithLabelValues(kind).Inc()
		}
	}
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *warningHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.next = h.next.WithAttrs(attrs)
	for _, a := range attrs {
		if a.Key == "kind" {
			c.kind = a.Value.String()
		}
	}
	return &c
}

func (h *warningHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.next = h.next.WithGroup(name)
	return &c
}
