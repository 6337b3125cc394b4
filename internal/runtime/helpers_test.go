package runtime_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vemulator/internal/runtime"
	"github.com/aretw0/vemulator/pkg/adapters/memory"
	"github.com/aretw0/vemulator/pkg/config"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, src string, overrides ...func(*config.Settings)) *config.Config {
	t.Helper()
	var opts []config.Option
	for _, fn := range overrides {
		opts = append(opts, config.WithOverrides(fn))
	}
	cfg, err := config.Parse([]byte(src), opts...)
	require.NoError(t, err)
	return cfg
}

// run executes an engine to completion against an in-memory transport fed
// with input.
func run(t *testing.T, cfg *config.Config, input string, opts ...runtime.Option) (*runtime.Engine, *memory.Transport) {
	t.Helper()
	tr := memory.New()
	tr.Feed(input)
	opts = append([]runtime.Option{runtime.WithInput(tr), runtime.WithOutput(tr)}, opts...)
	e := runtime.NewEngine(cfg, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Run(ctx))
	require.NoError(t, ctx.Err(), "engine did not stop on its own")
	return e, tr
}

func frames(tr *memory.Transport) []string {
	var out []string
	for _, f := range tr.Frames() {
		out = append(out, string(f))
	}
	return out
}

func textFrames(tr *memory.Transport) []string {
	var out []string
	for _, f := range frames(tr) {
		if strings.HasPrefix(f, "\r\n") {
			out = append(out, f)
		}
	}
	return out
}

func hexFrames(tr *memory.Transport) []string {
	var out []string
	for _, f := range frames(tr) {
		if strings.HasPrefix(f, ":") {
			out = append(out, f)
		}
	}
	return out
}

// fieldValue extracts the value of key from a text block.
func fieldValue(block, key string) (string, bool) {
	for _, seg := range strings.Split(block, "\r\n") {
		if k, v, ok := strings.Cut(seg, "\t"); ok && k == key {
			return v, true
		}
	}
	return "", false
}
