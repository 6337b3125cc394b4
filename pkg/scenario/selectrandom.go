package scenario

import (
	"slices"

	"github.com/aretw0/vemulator/pkg/domain"
)

// SelectRandom generates from a uniformly chosen child. Exhausted children are
// reset when looping and dropped otherwise.
type SelectRandom struct {
	composite
	loop bool
}

type selectRandomProps struct {
	Loop bool `mapstructure:"loop"`
}

func newSelectRandom(b Base, raw map[string]any, children []Scenario) (*SelectRandom, error) {
	var p selectRandomProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	c, err := newComposite(b, children)
	if err != nil {
		return nil, err
	}
	s := &SelectRandom{composite: c, loop: p.Loop}
	s.bind(s)
	return s, nil
}

func (s *SelectRandom) produce(values Values) (domain.Value, error) {
	if len(s.children) == 0 {
		return domain.None(), nil
	}
	i := s.rng.IntN(len(s.children))
	child := s.children[i]
	v := child.Generate(values)
	s.last = child
	if child.Complete() {
		if s.loop {
			child.Reset()
		} else {
			s.children = slices.Delete(s.children, i, i+1)
		}
	}
	return v, nil
}

// Complete implements Scenario.
func (s *SelectRandom) Complete() bool {
	return s.Base.Complete() || len(s.children) == 0
}

// Reset implements Scenario.
func (s *SelectRandom) Reset() {
	s.Base.Reset()
	s.resetChildren()
}
