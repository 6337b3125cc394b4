package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/vemulator/pkg/domain"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c >= '0' && c <= '9' || c == '.' && i+1 < len(src) && isDigit(src[i+1]):
			start := i
			if c == '0' && i+1 < len(src) && (src[i+1] == 'x' || src[i+1] == 'X') {
				i += 2
				for i < len(src) && isHexDigit(src[i]) {
					i++
				}
			} else {
				for i < len(src) && (isDigit(src[i]) || src[i] == '.' || src[i] == '_') {
					i++
				}
				if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
					i++
					if i < len(src) && (src[i] == '+' || src[i] == '-') {
						i++
					}
					for i < len(src) && isDigit(src[i]) {
						i++
					}
				}
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(src) && (src[i] == '_' || isDigit(src[i]) || unicode.IsLetter(rune(src[i]))) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case strings.HasPrefix(src[i:], "**"), strings.HasPrefix(src[i:], "//"):
			toks = append(toks, token{kind: tokOp, text: src[i : i+2], pos: i})
			i += 2
		case strings.ContainsRune("+-*/%", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

func parseNumber(text string) (domain.Value, error) {
	clean := strings.ReplaceAll(text, "_", "")
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		i, err := strconv.ParseInt(clean[2:], 16, 64)
		if err != nil {
			return domain.None(), fmt.Errorf("%w: bad number %q", ErrSyntax, text)
		}
		return domain.Int(i), nil
	}
	if !strings.ContainsAny(clean, ".eE") {
		i, err := strconv.ParseInt(clean, 10, 64)
		if err != nil {
			return domain.None(), fmt.Errorf("%w: bad number %q", ErrSyntax, text)
		}
		return domain.Int(i), nil
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return domain.None(), fmt.Errorf("%w: bad number %q", ErrSyntax, text)
	}
	return domain.Float(f), nil
}
