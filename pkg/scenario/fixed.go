package scenario

import "github.com/aretw0/vemulator/pkg/domain"

// Fixed always yields the same value. Fuzzing has no effect.
type Fixed struct {
	Base
	fixed domain.Value
}

type fixedProps struct {
	Value any `mapstructure:"value"`
}

func newFixed(b Base, raw map[string]any, fallback domain.Value) (*Fixed, error) {
	var p fixedProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	s := &Fixed{Base: b, fixed: fallback}
	if _, set := raw["value"]; set {
		v, ok := domain.FromAny(p.Value)
		if !ok {
			return nil, errInvalidProp("value", p.Value, "must be a scalar")
		}
		s.fixed = v
	}
	s.bind(s)
	return s, nil
}

func (s *Fixed) produce(Values) (domain.Value, error) { return s.fixed, nil }

func (s *Fixed) fuzz(_ Values, v domain.Value) domain.Value { return v }
