package expr_test

import (
	"math"
	"testing"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eval(t *testing.T, src string, vars expr.Vars) domain.Value {
	t.Helper()
	e, err := expr.Compile(src)
	require.NoError(t, err, src)
	v, err := e.Eval(vars)
	require.NoError(t, err, src)
	return v
}

func TestEval_Arithmetic(t *testing.T) {
	cases := map[string]domain.Value{
		"1 + 2 * 3":   domain.Int(7),
		"(1 + 2) * 3": domain.Int(9),
		"7 / 2":       domain.Float(3.5),
		"7 // 2":      domain.Int(3),
		"-7 // 2":     domain.Int(-4),
		"-7 % 3":      domain.Int(2),
		"7 % -3":      domain.Int(-2),
		"2 ** 10":     domain.Int(1024),
		"2 ** 3 ** 2": domain.Int(512),
		"-2 ** 2":     domain.Int(-4),
		"2 ** -1":     domain.Float(0.5),
		"1.5 * 2":     domain.Float(3),
		"0x10 + 1":    domain.Int(17),
		"1 - 2 - 3":   domain.Int(-4),
		"+3":          domain.Int(3),
		"1e3":         domain.Float(1000),
	}
	for src, want := range cases {
		got := eval(t, src, nil)
		assert.Equal(t, want, got, src)
	}
}

func TestEval_Identifiers(t *testing.T) {
	vars := expr.Vars{"V": domain.Int(2), "A": domain.Int(3), "H0x1234": domain.Int(10)}
	assert.Equal(t, domain.Int(6), eval(t, "V * A", vars))
	assert.Equal(t, domain.Float(5), eval(t, "H0x1234 / 2 // 1", vars))
}

func TestEval_Strings(t *testing.T) {
	vars := expr.Vars{"S": domain.String("ab")}
	assert.Equal(t, domain.String("abab"), eval(t, "S + S", vars))
	assert.Equal(t, domain.String("ababab"), eval(t, "S * 3", vars))

	e := expr.MustCompile("S - 1")
	_, err := e.Eval(vars)
	assert.ErrorIs(t, err, expr.ErrType)
}

func TestEval_Errors(t *testing.T) {
	e := expr.MustCompile("V / 0")
	_, err := e.Eval(expr.Vars{"V": domain.Int(1)})
	assert.ErrorIs(t, err, expr.ErrDivByZero)

	_, err = e.Eval(nil)
	assert.ErrorIs(t, err, expr.ErrUnknownIdent)

	big := expr.MustCompile("S * N")
	_, err = big.Eval(expr.Vars{"S": domain.String("ab"), "N": domain.Int(math.MaxInt64 / 2)})
	assert.ErrorIs(t, err, expr.ErrTooLarge)
	_, err = expr.MustCompile("N * S").Eval(expr.Vars{"S": domain.String("ab"), "N": domain.Int(expr.MaxStringLen)})
	assert.ErrorIs(t, err, expr.ErrTooLarge)
	v, err := big.Eval(expr.Vars{"S": domain.String("ab"), "N": domain.Int(expr.MaxStringLen / 2)})
	require.NoError(t, err)
	s, _ := v.AsString()
	assert.Len(t, s, expr.MaxStringLen)

	for _, src := range []string{"", "1 +", "(1", "1 2", "a.b", "import os", "__import__('os')"} {
		_, err := expr.Compile(src)
		assert.Error(t, err, src)
	}
}

func TestIdents(t *testing.T) {
	e := expr.MustCompile("V * A + V - x ** 2")
	assert.Equal(t, []string{"V", "A", "x"}, e.Idents())
}

func TestChain(t *testing.T) {
	c := expr.Chain{expr.Vars{"x": domain.Int(1)}, nil, expr.Vars{"x": domain.Int(2), "y": domain.Int(3)}}
	v, ok := c.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, domain.Int(1), v)
	v, ok = c.Lookup("y")
	assert.True(t, ok)
	assert.Equal(t, domain.Int(3), v)
	_, ok = c.Lookup("z")
	assert.False(t, ok)
}
