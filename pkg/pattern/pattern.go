// Package pattern synthesizes strings from regular expressions.
//
// It walks the regexp/syntax tree instead of matching: Valid builds a string the
// pattern accepts, while the Invalid family builds arbitrary strings whose length
// the pattern could accept, which is what fuzzing wants. Generated characters
// stay inside the printable range ' '..'z' whenever the pattern allows it, and
// unbounded or very wide repeats are capped at 20 extra iterations.
package pattern

import (
	"fmt"
	"math/rand/v2"
	"regexp/syntax"
	"strings"
)

const (
	charsetLo = ' '
	charsetHi = 'z'

	// maxRepeatSpan bounds how many iterations past the minimum a repeat may produce.
	maxRepeatSpan = 20
)

// Synthesizer is not safe for concurrent use.
type Synthesizer struct {
	src    string
	re     *syntax.Regexp
	rng    *rand.Rand
	minLen int
	maxLen int
}

// New parses pattern with Perl flags. The seed drives every random choice.
func New(pattern string, seed int64) (*Synthesizer, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	s := &Synthesizer{
		src: pattern,
		re:  re,
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x5bd1e995)),
	}
	s.minLen, s.maxLen = lengths(re)
	return s, nil
}

// Pattern returns the source expression.
func (s *Synthesizer) Pattern() string { return s.src }

// MinLength is the length of the shortest string the pattern accepts.
func (s *Synthesizer) MinLength() int { return s.minLen }

// MaxLength is the length of the longest string Valid can produce.
func (s *Synthesizer) MaxLength() int { return s.maxLen }

// Valid returns a string accepted by the pattern.
func (s *Synthesizer) Valid() string {
	var b strings.Builder
	s.emit(&b, s.re)
	return b.String()
}

// Invalid returns a random string with a length between MinLength and MaxLength.
// It is likely, not guaranteed, to be rejected by the pattern.
func (s *Synthesizer) Invalid() string {
	return s.random(s.minLen + s.rng.IntN(s.maxLen-s.minLen+1))
}

// MinInvalid returns a random string of exactly MinLength characters.
func (s *Synthesizer) MinInvalid() string { return s.random(s.minLen) }

// MaxInvalid returns a random string of exactly MaxLength characters.
func (s *Synthesizer) MaxInvalid() string { return s.random(s.maxLen) }

func (s *Synthesizer) random(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(charsetLo + rune(s.rng.IntN(charsetHi-charsetLo+1)))
	}
	return b.String()
}

func repeatBounds(re *syntax.Regexp) (lo, hi int) {
	switch re.Op {
	case syntax.OpStar:
		lo, hi = 0, -1
	case syntax.OpPlus:
		lo, hi = 1, -1
	case syntax.OpQuest:
		lo, hi = 0, 1
	default:
		lo, hi = re.Min, re.Max
	}
	if hi < 0 || hi-lo > maxRepeatSpan {
		hi = lo + maxRepeatSpan
	}
	return lo, hi
}

func (s *Synthesizer) emit(b *strings.Builder, re *syntax.Regexp) {
	switch re.Op {
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			b.WriteRune(r)
		}
	case syntax.OpCharClass:
		b.WriteRune(s.pickClass(re.Rune))
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		b.WriteRune(charsetLo + rune(s.rng.IntN(charsetHi-charsetLo+1)))
	case syntax.OpCapture:
		s.emit(b, re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			s.emit(b, sub)
		}
	case syntax.OpAlternate:
		s.emit(b, re.Sub[s.rng.IntN(len(re.Sub))])
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		lo, hi := repeatBounds(re)
		n := lo + s.rng.IntN(hi-lo+1)
		for i := 0; i < n; i++ {
			s.emit(b, re.Sub[0])
		}
	}
	// anchors, word boundaries and empty matches add nothing
}

// pickClass chooses a rune from a class, preferring the printable charset.
func (s *Synthesizer) pickClass(ranges []rune) rune {
	inside := clip(ranges, charsetLo, charsetHi)
	if len(inside) == 0 {
		inside = ranges
	}
	total := 0
	for i := 0; i+1 < len(inside); i += 2 {
		total += int(inside[i+1]-inside[i]) + 1
	}
	if total == 0 {
		return charsetLo
	}
	n := s.rng.IntN(total)
	for i := 0; i+1 < len(inside); i += 2 {
		size := int(inside[i+1]-inside[i]) + 1
		if n < size {
			return inside[i] + rune(n)
		}
		n -= size
	}
	return inside[0]
}

func clip(ranges []rune, lo, hi rune) []rune {
	var out []rune
	for i := 0; i+1 < len(ranges); i += 2 {
		a, z := max(ranges[i], lo), min(ranges[i+1], hi)
		if a <= z {
			out = append(out, a, z)
		}
	}
	return out
}

func lengths(re *syntax.Regexp) (minLen, maxLen int) {
	switch re.Op {
	case syntax.OpLiteral:
		return len(re.Rune), len(re.Rune)
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return 1, 1
	case syntax.OpCapture:
		return lengths(re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			a, z := lengths(sub)
			minLen += a
			maxLen += z
		}
		return minLen, maxLen
	case syntax.OpAlternate:
		for i, sub := range re.Sub {
			a, z := lengths(sub)
			if i == 0 || a < minLen {
				minLen = a
			}
			if z > maxLen {
				maxLen = z
			}
		}
		return minLen, maxLen
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		lo, hi := repeatBounds(re)
		a, z := lengths(re.Sub[0])
		return a * lo, z * hi
	}
	return 0, 0
}
