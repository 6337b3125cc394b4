package scenario

import (
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/expr"
)

var predefinedGradients = map[string]string{
	"linear": "x",
	"square": "x ** 2",
	"cube":   "x ** 3",
}

// Gradient evaluates a function of a step counter x, starting at zero.
// Without an explicit amount it runs (max - min) / step_size times.
type Gradient struct {
	Base
	fn   *expr.Expr
	step domain.Value
	x    domain.Value
}

type gradientProps struct {
	GradientType string   `mapstructure:"gradient_type"`
	StepSize     any      `mapstructure:"step_size"`
	Min          *float64 `mapstructure:"min"`
	Max          *float64 `mapstructure:"max"`
}

func newGradient(b Base, raw map[string]any) (*Gradient, error) {
	var p gradientProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	formula := p.GradientType
	if formula == "" {
		formula = "linear"
	}
	if f, ok := predefinedGradients[formula]; ok {
		formula = f
	}
	fn, err := expr.Compile(formula)
	if err != nil {
		return nil, errInvalidProp("gradient_type", p.GradientType, err.Error())
	}

	step := domain.Int(1)
	if p.StepSize != nil {
		v, ok := domain.FromAny(p.StepSize)
		if !ok || !v.IsNumeric() {
			return nil, errInvalidProp("step_size", p.StepSize, "must be a number")
		}
		step = v
	}
	stepf, _ := step.AsFloat()
	if stepf == 0 {
		return nil, errInvalidProp("step_size", p.StepSize, "must not be zero")
	}

	s := &Gradient{Base: b, fn: fn, step: step, x: domain.Int(0)}
	if !s.bounded {
		lo, hi := 0.0, 1.0
		if p.Min != nil {
			lo = *p.Min
		}
		if p.Max != nil {
			hi = *p.Max
		}
		s.bounded = true
		s.amount = max(int((hi-lo)/stepf), 0)
		s.initialAmount = s.amount
	}
	s.bind(s)
	return s, nil
}

func (s *Gradient) produce(Values) (domain.Value, error) {
	x := s.x
	s.x = addNumbers(s.x, s.step)
	return s.fn.Eval(expr.Vars{"x": x})
}

// Reset implements Scenario.
func (s *Gradient) Reset() {
	s.Base.Reset()
	s.x = domain.Int(0)
}

func addNumbers(a, b domain.Value) domain.Value {
	ai, aInt := a.AsInt()
	bi, bInt := b.AsInt()
	if aInt && bInt {
		return domain.Int(ai + bi)
	}
	af, _ := a.AsFloat()
	bf, _ := b.AsFloat()
	return domain.Float(af + bf)
}
