package scenario

import (
	"fmt"
	"math/rand/v2"
)

// defaultAllowedChars is A-Z, a-z and 0-9.
var defaultAllowedChars = []any{[]any{"A", "Z"}, []any{"a", "z"}, []any{"0", "9"}}

// parseAllowedChars expands a list of literal strings and two element
// [first, last] ranges into the characters they denote.
func parseAllowedChars(spec []any) ([]rune, error) {
	var out []rune
	for _, e := range spec {
		switch t := e.(type) {
		case string:
			out = append(out, []rune(t)...)
		case []any:
			if len(t) != 2 {
				return nil, fmt.Errorf("range %v must have exactly two bounds", t)
			}
			lo, ok1 := t[0].(string)
			hi, ok2 := t[1].(string)
			if !ok1 || !ok2 || len([]rune(lo)) != 1 || len([]rune(hi)) != 1 {
				return nil, fmt.Errorf("range %v must hold two single characters", t)
			}
			for r := []rune(lo)[0]; r <= []rune(hi)[0]; r++ {
				out = append(out, r)
			}
		default:
			return nil, fmt.Errorf("unsupported entry %v (%T)", e, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no characters allowed")
	}
	return out, nil
}

// lengthProps is shared by the string kinds. "length" sets both bounds unless
// a bound is given explicitly.
type lengthProps struct {
	MinLength    *int  `mapstructure:"min_length"`
	MaxLength    *int  `mapstructure:"max_length"`
	Length       *int  `mapstructure:"length"`
	AllowedChars []any `mapstructure:"allowed_chars"`
}

func (p lengthProps) bounds() (lo, hi int) {
	lo, hi = 0, 10
	if p.Length != nil {
		lo, hi = *p.Length, *p.Length
	}
	if p.MinLength != nil {
		lo = *p.MinLength
	}
	if p.MaxLength != nil {
		hi = *p.MaxLength
	}
	return lo, hi
}

func (p lengthProps) chars() ([]rune, error) {
	if p.AllowedChars == nil {
		return parseAllowedChars(defaultAllowedChars)
	}
	return parseAllowedChars(p.AllowedChars)
}

// randomString draws n characters from chars. Negative lengths yield "".
func randomString(rng *rand.Rand, chars []rune, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]rune, n)
	for i := range out {
		out[i] = chars[rng.IntN(len(chars))]
	}
	return string(out)
}
