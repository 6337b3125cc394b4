// Package expr evaluates the small arithmetic language used by Arithmetic and
// Gradient scenarios.
//
// The grammar is numbers, identifiers, parentheses, unary + and -, and the binary
// operators + - * / // % **. Integer arithmetic stays integral except for "/",
// which always yields a float. "//" floors and "%" takes the sign of the divisor.
// "**" is right associative and binds tighter than a unary minus on its left.
// Identifiers resolve through a Resolver; nothing else is reachable.
package expr

import (
	"errors"
	"fmt"

	"github.com/aretw0/vemulator/pkg/domain"
)

var (
	ErrSyntax       = errors.New("expr: syntax error")
	ErrUnknownIdent = errors.New("expr: unknown identifier")
	ErrDivByZero    = errors.New("expr: division by zero")
	ErrType         = errors.New("expr: unsupported operand type")
	ErrTooLarge     = errors.New("expr: result too large")
)

// MaxStringLen is the longest string an expression may produce.
const MaxStringLen = 1 << 16

// Resolver supplies identifier values.
type Resolver interface {
	Lookup(name string) (domain.Value, bool)
}

// Vars is a map based Resolver.
type Vars map[string]domain.Value

// Lookup implements Resolver.
func (v Vars) Lookup(name string) (domain.Value, bool) {
	x, ok := v[name]
	return x, ok
}

// Chain resolves names from each Resolver in turn.
type Chain []Resolver

// Lookup implements Resolver.
func (c Chain) Lookup(name string) (domain.Value, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if v, ok := r.Lookup(name); ok {
			return v, true
		}
	}
	return domain.None(), false
}

// Expr is a compiled expression.
type Expr struct {
	src  string
	root node
}

// Compile parses src.
func Compile(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
	return &Expr{src: src, root: root}, nil
}

// MustCompile is Compile for expressions known at build time.
func MustCompile(src string) *Expr {
	e, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expr) String() string { return e.src }

// Eval computes the expression.
func (e *Expr) Eval(r Resolver) (domain.Value, error) {
	return e.root.eval(r)
}

// Idents lists the identifiers referenced by the expression, in first-use order.
func (e *Expr) Idents() []string {
	seen := map[string]bool{}
	var out []string
	walk(e.root, func(n node) {
		if id, ok := n.(identNode); ok && !seen[string(id)] {
			seen[string(id)] = true
			out = append(out, string(id))
		}
	})
	return out
}
