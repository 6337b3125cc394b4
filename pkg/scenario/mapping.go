package scenario

import (
	"slices"

	"github.com/aretw0/vemulator/pkg/domain"
)

// Mapping picks from the values of a name to value table. Entries are ordered
// by name; fuzzing shuffles them once and then walks the list before falling
// back to random picks.
type Mapping struct {
	Base
	values []domain.Value
	index  int
}

type mappingProps struct {
	Dict map[string]any `mapstructure:"dict"`
}

func newMapping(b Base, raw map[string]any) (*Mapping, error) {
	var p mappingProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	if len(p.Dict) == 0 {
		return nil, errInvalidProp("dict", p.Dict, "must not be empty")
	}
	names := make([]string, 0, len(p.Dict))
	for name := range p.Dict {
		names = append(names, name)
	}
	slices.Sort(names)

	s := &Mapping{Base: b, index: -1}
	for _, name := range names {
		v, ok := domain.FromAny(p.Dict[name])
		if !ok {
			return nil, errInvalidProp("dict", p.Dict[name], "values must be scalars")
		}
		s.values = append(s.values, v)
	}
	if s.fuzzing {
		s.rng.Shuffle(len(s.values), func(i, j int) {
			s.values[i], s.values[j] = s.values[j], s.values[i]
		})
	}
	s.bind(s)
	return s, nil
}

func (s *Mapping) produce(Values) (domain.Value, error) {
	return choose(s.rng, s.values), nil
}

func (s *Mapping) fuzz(Values, domain.Value) domain.Value {
	s.index++
	if s.index < len(s.values) {
		return s.values[s.index]
	}
	return choose(s.rng, s.values)
}

// Reset implements Scenario.
func (s *Mapping) Reset() {
	s.Base.Reset()
	s.index = -1
}
