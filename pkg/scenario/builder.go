package scenario

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/registry"
)

// Constructor builds one scenario kind. Composite kinds receive their already
// built children.
type Constructor func(b Base, raw map[string]any, children []Scenario) (Scenario, error)

var composites = map[Kind]bool{
	KindLoop:         true,
	KindBitBuffer:    true,
	KindSelectRandom: true,
}

// IsComposite reports whether kind owns child scenarios under "values".
func IsComposite(kind Kind) bool { return composites[kind] }

// DefaultRegistry returns a registry holding every built-in kind.
func DefaultRegistry() *registry.Registry[Constructor] {
	r := registry.New[Constructor]()
	leaf := func(fn func(Base, map[string]any) (Scenario, error)) Constructor {
		return func(b Base, raw map[string]any, _ []Scenario) (Scenario, error) { return fn(b, raw) }
	}
	r.Register(string(KindIntFixed), leaf(func(b Base, raw map[string]any) (Scenario, error) {
		return newFixed(b, raw, domain.Int(0))
	}))
	r.Register(string(KindStringFixed), leaf(func(b Base, raw map[string]any) (Scenario, error) {
		return newFixed(b, raw, domain.String(""))
	}))
	r.Register(string(KindIntChoice), leaf(func(b Base, raw map[string]any) (Scenario, error) {
		return newChoice(b, raw, domain.Int(0))
	}))
	r.Register(string(KindStringChoice), leaf(func(b Base, raw map[string]any) (Scenario, error) {
		return newChoice(b, raw, domain.String(""))
	}))
	r.Register(string(KindIntRandom), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newIntRandom(b, raw) }))
	r.Register(string(KindIntBoundary), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newIntBoundary(b, raw) }))
	r.Register(string(KindIntRange), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newIntRange(b, raw) }))
	r.Register(string(KindStringRandom), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newStringRandom(b, raw) }))
	r.Register(string(KindStringUnicode), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newStringUnicode(b, raw) }))
	r.Register(string(KindStringBoundary), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newStringBoundary(b, raw) }))
	r.Register(string(KindMapping), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newMapping(b, raw) }))
	r.Register(string(KindGradient), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newGradient(b, raw) }))
	r.Register(string(KindArithmetic), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newArithmetic(b, raw) }))
	r.Register(string(KindRegex), leaf(func(b Base, raw map[string]any) (Scenario, error) { return newRegex(b, raw) }))
	r.Register(string(KindLoop), func(b Base, _ map[string]any, children []Scenario) (Scenario, error) {
		return newLoop(b, children)
	})
	r.Register(string(KindBitBuffer), func(b Base, _ map[string]any, children []Scenario) (Scenario, error) {
		return newBitBuffer(b, children)
	})
	r.Register(string(KindSelectRandom), func(b Base, raw map[string]any, children []Scenario) (Scenario, error) {
		return newSelectRandom(b, raw, children)
	})
	return r
}

// Builder turns decoded configuration nodes into scenario trees.
type Builder struct {
	constructors *registry.Registry[Constructor]
	seeds        *SeedSource
	logger       *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger handed to every scenario.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithRegistry replaces the built-in kinds.
func WithRegistry(r *registry.Registry[Constructor]) BuilderOption {
	return func(b *Builder) { b.constructors = r }
}

// NewBuilder creates a Builder whose scenario seeds derive from defaultSeed.
func NewBuilder(defaultSeed int64, opts ...BuilderOption) *Builder {
	b := &Builder{
		constructors: DefaultRegistry(),
		seeds:        NewSeedSource(defaultSeed),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Kinds lists the scenario types the builder knows about.
func (bl *Builder) Kinds() []string { return bl.constructors.Names() }

// Build constructs one scenario and applies fp to it.
func (bl *Builder) Build(raw map[string]any, fp FieldProps) (Scenario, error) {
	return bl.build(raw, fp, "")
}

// BuildList constructs a field's scenario queue.
func (bl *Builder) BuildList(nodes []any, fp FieldProps) ([]Scenario, error) {
	return bl.buildList(nodes, fp, "")
}

func (bl *Builder) buildList(nodes []any, fp FieldProps, path string) ([]Scenario, error) {
	out := make([]Scenario, 0, len(nodes))
	for i, n := range nodes {
		p := fmt.Sprintf("%s[%d]", path, i)
		raw, ok := n.(map[string]any)
		if !ok {
			return nil, &BuildError{Path: p, Err: fmt.Errorf("expected a mapping, got %T", n)}
		}
		s, err := bl.build(raw, fp, p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (bl *Builder) build(raw map[string]any, fp FieldProps, path string) (Scenario, error) {
	var p Props
	if err := decode(raw, &p); err != nil {
		return nil, &BuildError{Path: path, Err: err}
	}
	kind := Kind(p.Type)
	ctor, ok := bl.constructors.Lookup(p.Type)
	if !ok {
		return nil, &BuildError{Kind: kind, Path: path, Err: fmt.Errorf("%w %q", ErrUnknownKind, p.Type)}
	}

	// Parents draw their seed before their children.
	seed := bl.seeds.Next()

	var children []Scenario
	if IsComposite(kind) {
		nodes, _ := raw["values"].([]any)
		var err error
		children, err = bl.buildList(nodes, fp, path+".values")
		if err != nil {
			return nil, err
		}
	}

	s, err := ctor(newBase(kind, p, seed, bl.logger), raw, children)
	if err != nil {
		return nil, &BuildError{Kind: kind, Path: path, Err: err}
	}
	s.ApplyFieldProps(fp)
	return s, nil
}
