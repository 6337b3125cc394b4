package scenario

import (
	"math"
	"strings"

	"github.com/aretw0/vemulator/pkg/domain"
)

type intBoundsProps struct {
	Min *int64 `mapstructure:"min"`
	Max *int64 `mapstructure:"max"`
}

func (p intBoundsProps) bounds() (lo, hi int64) {
	lo, hi = 0, 1
	if p.Min != nil {
		lo = *p.Min
	}
	if p.Max != nil {
		hi = *p.Max
	}
	return lo, hi
}

// IntRandom draws uniformly from [min, max]. When fuzzing, unset bounds widen
// to the full int64 range.
type IntRandom struct {
	Base
	bounds   intBoundsProps
	min, max int64
}

func newIntRandom(b Base, raw map[string]any) (*IntRandom, error) {
	var p intBoundsProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	s := &IntRandom{Base: b, bounds: p}
	s.min, s.max = p.bounds()
	s.bind(s)
	return s, nil
}

func (s *IntRandom) produce(Values) (domain.Value, error) {
	return domain.Int(intBetween(s.rng, s.min, s.max)), nil
}

func (s *IntRandom) fuzz(Values, domain.Value) domain.Value {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if s.bounds.Min != nil {
		lo = *s.bounds.Min
	}
	if s.bounds.Max != nil {
		hi = *s.bounds.Max
	}
	return domain.Int(intBetween(s.rng, lo, hi))
}

// StringRandom builds strings of a random length from an allowed character set.
type StringRandom struct {
	Base
	minLen, maxLen int
	chars          []rune
}

func newStringRandom(b Base, raw map[string]any) (*StringRandom, error) {
	var p lengthProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	chars, err := p.chars()
	if err != nil {
		return nil, errInvalidProp("allowed_chars", p.AllowedChars, err.Error())
	}
	s := &StringRandom{Base: b, chars: chars}
	s.minLen, s.maxLen = p.bounds()
	s.bind(s)
	return s, nil
}

func (s *StringRandom) produce(Values) (domain.Value, error) {
	n := int(intBetween(s.rng, int64(s.minLen), int64(s.maxLen)))
	return domain.String(randomString(s.rng, s.chars, n)), nil
}

// StringUnicode draws arbitrary code points. Surrogates are skipped since they
// cannot be encoded on their own. Fuzzing has no effect.
type StringUnicode struct {
	Base
	minLen, maxLen int
}

func newStringUnicode(b Base, raw map[string]any) (*StringUnicode, error) {
	var p lengthProps
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	s := &StringUnicode{Base: b}
	s.minLen, s.maxLen = p.bounds()
	s.bind(s)
	return s, nil
}

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

func (s *StringUnicode) produce(Values) (domain.Value, error) {
	n := int(intBetween(s.rng, int64(s.minLen), int64(s.maxLen)))
	var sb strings.Builder
	for range n {
		r := rune(s.rng.IntN(0x10FFFF + 1 - (surrogateMax - surrogateMin + 1)))
		if r >= surrogateMin {
			r += surrogateMax - surrogateMin + 1
		}
		sb.WriteRune(r)
	}
	return domain.String(sb.String()), nil
}

func (s *StringUnicode) fuzz(_ Values, v domain.Value) domain.Value { return v }
