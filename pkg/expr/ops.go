package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/vemulator/pkg/domain"
)

func unary(op string, x domain.Value) (domain.Value, error) {
	switch x.Kind() {
	case domain.KindInt:
		i, _ := x.AsInt()
		if op == "-" {
			return domain.Int(-i), nil
		}
		return x, nil
	case domain.KindFloat:
		f, _ := x.AsFloat()
		if op == "-" {
			return domain.Float(-f), nil
		}
		return x, nil
	}
	return domain.None(), fmt.Errorf("%w: unary %s on %s", ErrType, op, kindName(x))
}

func binary(op string, l, r domain.Value) (domain.Value, error) {
	if l.Kind() == domain.KindString || r.Kind() == domain.KindString {
		return stringOp(op, l, r)
	}
	if !l.IsNumeric() || !r.IsNumeric() {
		return domain.None(), fmt.Errorf("%w: %s %s %s", ErrType, kindName(l), op, kindName(r))
	}

	li, lInt := l.AsInt()
	ri, rInt := r.AsInt()
	if lInt && rInt {
		return intOp(op, li, ri)
	}
	lf, _ := l.AsFloat()
	rf, _ := r.AsFloat()
	return floatOp(op, lf, rf)
}

func intOp(op string, a, b int64) (domain.Value, error) {
	switch op {
	case "+":
		return domain.Int(a + b), nil
	case "-":
		return domain.Int(a - b), nil
	case "*":
		return domain.Int(a * b), nil
	case "/":
		if b == 0 {
			return domain.None(), ErrDivByZero
		}
		return domain.Float(float64(a) / float64(b)), nil
	case "//":
		if b == 0 {
			return domain.None(), ErrDivByZero
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return domain.Int(q), nil
	case "%":
		if b == 0 {
			return domain.None(), ErrDivByZero
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return domain.Int(m), nil
	case "**":
		if b < 0 {
			if a == 0 {
				return domain.None(), ErrDivByZero
			}
			return domain.Float(math.Pow(float64(a), float64(b))), nil
		}
		result := int64(1)
		base := a
		for e := b; e > 0; e >>= 1 {
			if e&1 == 1 {
				result *= base
			}
			base *= base
		}
		return domain.Int(result), nil
	}
	return domain.None(), fmt.Errorf("%w: operator %q", ErrSyntax, op)
}

func floatOp(op string, a, b float64) (domain.Value, error) {
	switch op {
	case "+":
		return domain.Float(a + b), nil
	case "-":
		return domain.Float(a - b), nil
	case "*":
		return domain.Float(a * b), nil
	case "/":
		if b == 0 {
			return domain.None(), ErrDivByZero
		}
		return domain.Float(a / b), nil
	case "//":
		if b == 0 {
			return domain.None(), ErrDivByZero
		}
		return domain.Float(math.Floor(a / b)), nil
	case "%":
		if b == 0 {
			return domain.None(), ErrDivByZero
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return domain.Float(m), nil
	case "**":
		if a == 0 && b < 0 {
			return domain.None(), ErrDivByZero
		}
		return domain.Float(math.Pow(a, b)), nil
	}
	return domain.None(), fmt.Errorf("%w: operator %q", ErrSyntax, op)
}

func stringOp(op string, l, r domain.Value) (domain.Value, error) {
	ls, lStr := l.AsString()
	rs, rStr := r.AsString()
	switch {
	case op == "+" && lStr && rStr:
		if len(ls)+len(rs) > MaxStringLen {
			return domain.None(), fmt.Errorf("%w: %d bytes", ErrTooLarge, len(ls)+len(rs))
		}
		return domain.String(ls + rs), nil
	case op == "*" && lStr && r.Kind() == domain.KindInt:
		n, _ := r.AsInt()
		return repeat(ls, n)
	case op == "*" && rStr && l.Kind() == domain.KindInt:
		n, _ := l.AsInt()
		return repeat(rs, n)
	}
	return domain.None(), fmt.Errorf("%w: %s %s %s", ErrType, kindName(l), op, kindName(r))
}

func repeat(s string, n int64) (domain.Value, error) {
	if n <= 0 || s == "" {
		return domain.String(""), nil
	}
	if n > int64(MaxStringLen/len(s)) {
		return domain.None(), fmt.Errorf("%w: %d repetitions of %d bytes", ErrTooLarge, n, len(s))
	}
	return domain.String(strings.Repeat(s, int(n))), nil
}

func kindName(v domain.Value) string {
	switch v.Kind() {
	case domain.KindInt:
		return "int"
	case domain.KindFloat:
		return "float"
	case domain.KindString:
		return "string"
	}
	return "none"
}
