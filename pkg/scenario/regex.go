package scenario

import (
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/pattern"
)

// Regex emits strings matching a pattern. Fuzzing sends a string of the
// minimum length, then one of the maximum length, then random strings, none
// of which are meant to match.
type Regex struct {
	Base
	syn     *pattern.Synthesizer
	counter int
}

type regexProps struct {
	Value string `mapstructure:"value"`
}

func newRegex(b Base, raw map[string]any) (*Regex, error) {
	var p regexProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	syn, err := pattern.New(p.Value, b.seed)
	if err != nil {
		return nil, errInvalidProp("value", p.Value, err.Error())
	}
	s := &Regex{Base: b, syn: syn, counter: -1}
	s.bind(s)
	return s, nil
}

func (s *Regex) produce(Values) (domain.Value, error) {
	return domain.String(s.syn.Valid()), nil
}

func (s *Regex) fuzz(Values, domain.Value) domain.Value {
	s.counter++
	switch s.counter {
	case 0:
		return domain.String(s.syn.MinInvalid())
	case 1:
		return domain.String(s.syn.MaxInvalid())
	}
	return domain.String(s.syn.Invalid())
}

// Reset implements Scenario.
func (s *Regex) Reset() {
	s.Base.Reset()
	s.counter = -1
}
