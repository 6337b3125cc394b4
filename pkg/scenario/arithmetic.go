package scenario

import (
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/expr"
)

// Arithmetic computes its value from the current values of other fields. It
// never completes.
type Arithmetic struct {
	Base
	fn *expr.Expr
}

type arithmeticProps struct {
	Value string `mapstructure:"value"`
}

func newArithmetic(b Base, raw map[string]any) (*Arithmetic, error) {
	var p arithmeticProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	fn, err := expr.Compile(p.Value)
	if err != nil {
		return nil, errInvalidProp("value", p.Value, err.Error())
	}
	s := &Arithmetic{Base: b, fn: fn}
	s.bind(s)
	return s, nil
}

// Expression returns the source of the compiled expression.
func (s *Arithmetic) Expression() string { return s.fn.String() }

func (s *Arithmetic) produce(values Values) (domain.Value, error) {
	return s.fn.Eval(values)
}

// Complete implements Scenario.
func (s *Arithmetic) Complete() bool { return false }
