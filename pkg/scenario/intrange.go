package scenario

import "github.com/aretw0/vemulator/pkg/domain"

// IntRange behaves like IntRandom in random mode and like IntBoundary when
// fuzzing.
type IntRange struct {
	Base
	min, max int64
	walk     *boundaryWalk
}

func newIntRange(b Base, raw map[string]any) (*IntRange, error) {
	var bp intBoundsProps
	var sp boundaryProps
	if err := decode(raw, &bp); err != nil {
		return nil, err
	}
	if err := decode(raw, &sp); err != nil {
		return nil, err
	}
	s := &IntRange{Base: b}
	s.min, s.max = bp.bounds()
	s.walk = newBoundaryWalk(s.min, s.max, sp.strict())
	s.bind(s)
	return s, nil
}

func (s *IntRange) produce(Values) (domain.Value, error) {
	return domain.Int(intBetween(s.rng, s.min, s.max)), nil
}

func (s *IntRange) fuzz(Values, domain.Value) domain.Value {
	s.walk.step(s.rng)
	return domain.Int(s.walk.current(s.rng))
}

// Reset implements Scenario.
func (s *IntRange) Reset() {
	s.Base.Reset()
	s.walk.reset()
}
