package scenario

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/aretw0/vemulator/pkg/domain"
)

// maxRadius bounds the pool for very wide ranges.
const maxRadius = 1 << 12

// boundaryWalk holds the values near min and max. The radius is half the
// square root of the span, at most maxRadius. A strict walk stays inside
// [min, max].
type boundaryWalk struct {
	pool []int64
	x    int
}

func newBoundaryWalk(lo, hi int64, strict bool) *boundaryWalk {
	var radius int64
	if hi > lo {
		span := uint64(hi) - uint64(lo)
		radius = min(int64(math.Sqrt(float64(span))/2), maxRadius)
	}
	var pool []int64
	add := func(from, to int64) {
		for n := from; n <= to; n++ {
			pool = append(pool, n)
			if n == to {
				break
			}
		}
	}
	if strict {
		add(lo, min(addClamped(lo, radius), hi))
		add(max(addClamped(hi, -radius), lo), hi)
	} else {
		add(addClamped(lo, -radius), addClamped(lo, radius))
		add(addClamped(hi, -radius), addClamped(hi, radius))
	}
	slices.Sort(pool)
	return &boundaryWalk{pool: slices.Compact(pool)}
}

// addClamped returns a+d saturated to the int64 range.
func addClamped(a, d int64) int64 {
	sum := a + d
	switch {
	case d > 0 && sum < a:
		return math.MaxInt64
	case d < 0 && sum > a:
		return math.MinInt64
	}
	return sum
}

// step advances the walk and returns a uniform pick from the pool.
func (w *boundaryWalk) step(rng *rand.Rand) int64 {
	w.x++
	return choose(rng, w.pool)
}

// current returns the pool entry matching the walk position, falling back to a
// uniform pick once the pool is exhausted.
func (w *boundaryWalk) current(rng *rand.Rand) int64 {
	if i := w.x - 1; i >= 0 && i < len(w.pool) {
		return w.pool[i]
	}
	return choose(rng, w.pool)
}

func (w *boundaryWalk) reset() { w.x = 0 }

type boundaryProps struct {
	Strict *bool `mapstructure:"strict"`
}

func (p boundaryProps) strict() bool {
	return p.Strict == nil || *p.Strict
}

// IntBoundary picks values close to the configured bounds. Fuzzing walks the
// boundary pool in order before falling back to random picks.
type IntBoundary struct {
	Base
	walk *boundaryWalk
}

func newIntBoundary(b Base, raw map[string]any) (*IntBoundary, error) {
	var bp intBoundsProps
	var sp boundaryProps
	if err := decode(raw, &bp); err != nil {
		return nil, err
	}
	if err := decode(raw, &sp); err != nil {
		return nil, err
	}
	lo, hi := bp.bounds()
	s := &IntBoundary{Base: b, walk: newBoundaryWalk(lo, hi, sp.strict())}
	s.bind(s)
	return s, nil
}

func (s *IntBoundary) produce(Values) (domain.Value, error) {
	return domain.Int(s.walk.step(s.rng)), nil
}

func (s *IntBoundary) fuzz(Values, domain.Value) domain.Value {
	return domain.Int(s.walk.current(s.rng))
}

// Reset implements Scenario.
func (s *IntBoundary) Reset() {
	s.Base.Reset()
	s.walk.reset()
}

// StringBoundary is IntBoundary over string lengths.
type StringBoundary struct {
	Base
	walk  *boundaryWalk
	chars []rune
}

func newStringBoundary(b Base, raw map[string]any) (*StringBoundary, error) {
	var lp lengthProps
	var sp boundaryProps
	if err := decode(raw, &lp); err != nil {
		return nil, err
	}
	if err := decode(raw, &sp); err != nil {
		return nil, err
	}
	chars, err := lp.chars()
	if err != nil {
		return nil, errInvalidProp("allowed_chars", lp.AllowedChars, err.Error())
	}
	lo, hi := lp.bounds()
	s := &StringBoundary{
		Base:  b,
		walk:  newBoundaryWalk(int64(lo), int64(hi), sp.strict()),
		chars: chars,
	}
	s.bind(s)
	return s, nil
}

func (s *StringBoundary) produce(Values) (domain.Value, error) {
	n := s.walk.step(s.rng)
	return domain.String(randomString(s.rng, s.chars, int(n))), nil
}

func (s *StringBoundary) fuzz(Values, domain.Value) domain.Value {
	n := s.walk.current(s.rng)
	return domain.String(randomString(s.rng, s.chars, int(n)))
}

// Reset implements Scenario.
func (s *StringBoundary) Reset() {
	s.Base.Reset()
	s.walk.reset()
}
