package expr

import (
	"fmt"

	"github.com/aretw0/vemulator/pkg/domain"
)

type node interface {
	eval(r Resolver) (domain.Value, error)
}

type litNode struct{ v domain.Value }

type identNode string

type unaryNode struct {
	op string
	x  node
}

type binaryNode struct {
	op   string
	l, r node
}

func (n litNode) eval(Resolver) (domain.Value, error) { return n.v, nil }

func (n identNode) eval(r Resolver) (domain.Value, error) {
	if r != nil {
		if v, ok := r.Lookup(string(n)); ok {
			return v, nil
		}
	}
	return domain.None(), fmt.Errorf("%w: %s", ErrUnknownIdent, string(n))
}

func (n unaryNode) eval(r Resolver) (domain.Value, error) {
	x, err := n.x.eval(r)
	if err != nil {
		return x, err
	}
	return unary(n.op, x)
}

func (n binaryNode) eval(r Resolver) (domain.Value, error) {
	l, err := n.l.eval(r)
	if err != nil {
		return l, err
	}
	rv, err := n.r.eval(r)
	if err != nil {
		return rv, err
	}
	return binary(n.op, l, rv)
}

func walk(n node, fn func(node)) {
	fn(n)
	switch t := n.(type) {
	case unaryNode:
		walk(t.x, fn)
	case binaryNode:
		walk(t.l, fn)
		walk(t.r, fn)
	}
}

// Binding powers. Unary minus sits between the multiplicative operators and
// "**", so "-2**2" parses as "-(2**2)" while "2**-1" is still accepted.
const (
	bpAdditive = 10
	bpMul      = 20
	bpUnary    = 30
	bpPow      = 40
)

func infixPower(op string) (left, right int) {
	switch op {
	case "+", "-":
		return bpAdditive, bpAdditive + 1
	case "*", "/", "//", "%":
		return bpMul, bpMul + 1
	case "**":
		return bpPow, bpPow - 1
	}
	return -1, -1
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr(minBP int) (node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		lbp, rbp := infixPower(t.text)
		if lbp < minBP {
			return left, nil
		}
		p.next()
		if t.text == "**" {
			// the exponent may carry its own sign
			rbp = bpUnary
		}
		right, err := p.parseExpr(rbp)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: t.text, l: left, r: right}
	}
}

func (p *parser) parsePrefix() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := parseNumber(t.text)
		if err != nil {
			return nil, err
		}
		return litNode{v: v}, nil
	case tokIdent:
		return identNode(t.text), nil
	case tokLParen:
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ')' at %d", ErrSyntax, c.pos)
		}
		return inner, nil
	case tokOp:
		if t.text == "-" || t.text == "+" {
			x, err := p.parseExpr(bpUnary)
			if err != nil {
				return nil, err
			}
			return unaryNode{op: t.text, x: x}, nil
		}
	case tokEOF:
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	}
	return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
}
