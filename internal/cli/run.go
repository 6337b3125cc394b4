package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/vemulator"
	"github.com/aretw0/vemulator/internal/adapters/redis"
	"github.com/aretw0/vemulator/internal/logging"
	"github.com/aretw0/vemulator/internal/presentation/tui"
	"github.com/aretw0/vemulator/pkg/adapters/file"
	"github.com/aretw0/vemulator/pkg/config"
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/observability"
	"github.com/google/uuid"
)

const shutdownTimeout = 2 * time.Second

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	Input      string
	Output     string
	Baud       int
	HTTPAddr   string
	RedisAddr  string
	Debug      bool
	Quiet      bool
	// Overrides apply the settings flags the user set explicitly.
	Overrides []func(*config.Settings)

	// Stderr receives the banner and completion message. Defaults to os.Stderr.
	Stderr io.Writer
	// Listening, if set, is called with the control API address once bound.
	Listening func(addr string)
}

// Execute loads the device file and emulates it until it stops by itself or
// a signal arrives.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	logger := logging.New(logging.Level(opts.Debug, opts.Quiet))

	in, err := ParseEndpoint(opts.Input)
	if err != nil {
		return fmt.Errorf("invalid --input: %w", err)
	}
	out, err := ParseEndpoint(opts.Output)
	if err != nil {
		return fmt.Errorf("invalid --output: %w", err)
	}

	var metrics *observability.Metrics
	scenarioLogger := logger
	if opts.HTTPAddr != "" {
		metrics = observability.New(configName(opts.ConfigPath))
		scenarioLogger = metrics.CountWarnings(logger)
	}

	cfgOpts := []config.Option{config.WithLogger(scenarioLogger)}
	for _, fn := range opts.Overrides {
		cfgOpts = append(cfgOpts, config.WithOverrides(fn))
	}
	cfg, err := config.Load(opts.ConfigPath, cfgOpts...)
	if err != nil {
		return err
	}

	transports, err := OpenTransports(in, out, opts.Baud)
	if err != nil {
		return err
	}
	defer transports.Close()

	runID := uuid.NewString()
	emuOpts := []vemulator.Option{
		vemulator.WithRunID(runID),
		vemulator.WithLogger(logger),
		vemulator.WithInput(transports.Input),
		vemulator.WithOutput(transports.Output),
		vemulator.WithLifecycleHooks(debugHooks(logger)),
	}
	if metrics != nil {
		emuOpts = append(emuOpts, vemulator.WithMetrics(metrics))
	}
	if opts.RedisAddr != "" {
		mirror := redis.New(opts.RedisAddr, "", 0, cfg.Name, redis.WithRunID(runID))
		defer mirror.Close()
		if err := mirror.Ping(ctx); err != nil {
			return err
		}
		emuOpts = append(emuOpts, vemulator.WithMirror(mirror))
	}

	emu, err := vemulator.New(cfg, emuOpts...)
	if err != nil {
		return err
	}

	if !opts.Quiet && file.IsTerminal(os.Stderr) {
		tui.PrintBanner(opts.Stderr, vemulator.Version, cfg.Device)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	if opts.HTTPAddr != "" {
		stop, err := serveControl(sigCtx, opts.HTTPAddr, emu, logger, opts.Listening)
		if err != nil {
			return err
		}
		defer stop()
	}

	runErr := emu.Run(sigCtx)
	if runErr == nil && !opts.Quiet {
		if sig := sigCtx.Signal(); sig != nil {
			fmt.Fprintf(opts.Stderr, ">>> %s interrupted (%s).\n", cfg.Device, sig)
		} else {
			fmt.Fprintf(opts.Stderr, ">>> %s finished.\n", cfg.Device)
		}
	}
	return runErr
}

// configName is the device file name without directory and extension.
func configName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// serveControl starts the control API on addr and returns a function that
// shuts it down.
func serveControl(ctx context.Context, addr string, emu *vemulator.Emulator, logger *slog.Logger, listening func(string)) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           emu.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("control API stopped", "err", err)
		}
	}()
	logger.Info("control API listening", "addr", ln.Addr().String())
	if listening != nil {
		listening(ln.Addr().String())
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("control API shutdown", "err", err)
			srv.Close()
		}
	}, nil
}

// debugHooks log every frame, command and status change at debug level.
func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFrame: func(ctx context.Context, e *domain.FrameEvent) {
			logger.Debug("frame", "kind", string(e.Kind), "size", e.Size, "flipped", e.Flipped, "dropped", e.Dropped)
		},
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			logger.Debug("command", "command", e.Command, "status", e.Status, "replied", e.HasReplied)
		},
		OnStatus: func(ctx context.Context, e *domain.StatusEvent) {
			logger.Debug("status", "from", string(e.From), "to", string(e.To))
		},
	}
}
