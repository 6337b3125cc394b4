package scenario

import "github.com/aretw0/vemulator/pkg/domain"

// Choice picks uniformly from a literal list. The list already holds the
// interesting candidates, so fuzzing has no effect.
type Choice struct {
	Base
	choices []domain.Value
}

type choiceProps struct {
	Choices []any `mapstructure:"choices"`
}

func newChoice(b Base, raw map[string]any, fallback domain.Value) (*Choice, error) {
	var p choiceProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	s := &Choice{Base: b}
	if _, set := raw["choices"]; !set {
		s.choices = []domain.Value{fallback}
	}
	for _, c := range p.Choices {
		v, ok := domain.FromAny(c)
		if !ok {
			return nil, errInvalidProp("choices", c, "must be scalars")
		}
		s.choices = append(s.choices, v)
	}
	if len(s.choices) == 0 {
		return nil, errInvalidProp("choices", p.Choices, "must not be empty")
	}
	s.bind(s)
	return s, nil
}

func (s *Choice) produce(Values) (domain.Value, error) {
	return choose(s.rng, s.choices), nil
}

func (s *Choice) fuzz(_ Values, v domain.Value) domain.Value { return v }
