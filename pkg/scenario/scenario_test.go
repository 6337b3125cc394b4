package scenario

import (
	"errors"
	"math"
	"regexp"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/expr"
	"github.com/aretw0/vemulator/pkg/fieldstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, raw map[string]any) Scenario {
	t.Helper()
	s, err := NewBuilder(0).Build(raw, FieldProps{Key: domain.TextKey("V")})
	require.NoError(t, err)
	return s
}

func generateN(s Scenario, n int) []domain.Value {
	out := make([]domain.Value, 0, n)
	for range n {
		out = append(out, s.Generate(expr.Vars{}))
	}
	return out
}

func ints(t *testing.T, vs []domain.Value) []int64 {
	t.Helper()
	out := make([]int64, 0, len(vs))
	for _, v := range vs {
		i, ok := v.AsInt()
		require.True(t, ok, "value %v is not an int", v)
		out = append(out, i)
	}
	return out
}

func set[T comparable](xs []T) map[T]bool {
	m := map[T]bool{}
	for _, x := range xs {
		m[x] = true
	}
	return m
}

func TestIntFixed(t *testing.T) {
	s := build(t, map[string]any{"type": "IntFixed", "value": 10, "amount": 10, "bits": 8})
	for range 10 {
		assert.False(t, s.Complete())
		s.Generate(expr.Vars{})
		assert.Equal(t, domain.Int(10), s.Value())
		h, ok := s.HexValue()
		assert.True(t, ok)
		assert.Equal(t, "0A", h)
	}
	assert.True(t, s.Complete())

	fuzzed := build(t, map[string]any{"type": "IntFixed", "value": 10, "amount": 10, "generation": "fuzzing"})
	assert.Equal(t, map[int64]bool{10: true}, set(ints(t, generateN(fuzzed, 10))))
}

func TestStringFixed(t *testing.T) {
	s := build(t, map[string]any{"type": "StringFixed", "value": "Test", "amount": 10, "bits": 8})
	for range 10 {
		assert.False(t, s.Complete())
		s.Generate(expr.Vars{})
		assert.Equal(t, domain.String("Test"), s.Value())
		h, _ := s.HexValue()
		assert.Equal(t, "54657374", h)
	}
	assert.True(t, s.Complete())
}

func TestIntRandom(t *testing.T) {
	s := build(t, map[string]any{"type": "IntRandom", "min": 1, "max": 10, "amount": 10})
	for range 10 {
		assert.False(t, s.Complete())
		i, _ := s.Generate(expr.Vars{}).AsInt()
		assert.True(t, i >= 1 && i <= 10, "got %d", i)
	}
	assert.True(t, s.Complete())
}

func TestIntRandom_FuzzKeepsExplicitBounds(t *testing.T) {
	s := build(t, map[string]any{"type": "IntRandom", "min": -5, "max": 5, "generation": "fuzzing"})
	for _, i := range ints(t, generateN(s, 50)) {
		assert.True(t, i >= -5 && i <= 5, "got %d", i)
	}
}

func TestIntRange(t *testing.T) {
	s := build(t, map[string]any{"type": "IntRange", "min": 1, "max": 10, "amount": 10})
	for range 10 {
		assert.False(t, s.Complete())
		i, _ := s.Generate(expr.Vars{}).AsInt()
		assert.True(t, i >= 1 && i <= 10, "got %d", i)
	}
	assert.True(t, s.Complete())

	fuzzed := build(t, map[string]any{"type": "IntRange", "min": 0, "max": 10, "generation": "fuzzing"})
	assert.Equal(t, map[int64]bool{0: true, 1: true, 9: true, 10: true}, set(ints(t, generateN(fuzzed, 4))))
}

func TestIntChoice(t *testing.T) {
	for _, gen := range []string{"random", "fuzzing"} {
		s := build(t, map[string]any{"type": "IntChoice", "choices": []any{2, 4, 6}, "amount": 10, "generation": gen})
		for range 10 {
			assert.False(t, s.Complete())
			assert.Contains(t, []int64{2, 4, 6}, ints(t, []domain.Value{s.Generate(expr.Vars{})})[0])
		}
		assert.True(t, s.Complete())
	}
}

func TestIntBoundary(t *testing.T) {
	s := build(t, map[string]any{"type": "IntBoundary", "min": 1, "max": 10, "amount": 10})
	for range 10 {
		assert.False(t, s.Complete())
		i, _ := s.Generate(expr.Vars{}).AsInt()
		assert.True(t, i >= 1 && i <= 10, "got %d", i)
	}
	assert.True(t, s.Complete())

	strict := build(t, map[string]any{"type": "IntBoundary", "min": 0, "max": 10, "amount": 10, "generation": "fuzzing"})
	assert.Equal(t, map[int64]bool{0: true, 1: true, 9: true, 10: true}, set(ints(t, generateN(strict, 4))))

	loose := build(t, map[string]any{"type": "IntBoundary", "min": 0, "max": 10, "amount": 10, "strict": false, "generation": "fuzzing"})
	assert.Equal(t, map[int64]bool{-1: true, 0: true, 1: true, 9: true, 10: true, 11: true}, set(ints(t, generateN(loose, 6))))
}

func TestIntBoundary_Int64Extremes(t *testing.T) {
	top := build(t, map[string]any{"type": "IntBoundary", "min": int64(math.MaxInt64 - 1), "max": int64(math.MaxInt64), "amount": 2, "generation": "fuzzing"})
	assert.Equal(t, []int64{math.MaxInt64 - 1, math.MaxInt64}, ints(t, generateN(top, 2)))

	bottom := build(t, map[string]any{"type": "IntBoundary", "min": int64(math.MinInt64), "max": int64(math.MinInt64 + 100), "strict": false, "generation": "fuzzing"})
	values := ints(t, generateN(bottom, 30))
	assert.Equal(t, int64(math.MinInt64), values[0])
	for _, i := range values {
		assert.True(t, i <= math.MinInt64+105, "got %d", i)
	}

	loose := build(t, map[string]any{"type": "IntBoundary", "min": int64(math.MaxInt64 - 100), "max": int64(math.MaxInt64), "strict": false, "generation": "fuzzing"})
	for _, i := range ints(t, generateN(loose, 30)) {
		assert.True(t, i >= math.MaxInt64-105, "got %d", i)
	}

	full := build(t, map[string]any{"type": "IntBoundary", "min": int64(math.MinInt64), "max": int64(math.MaxInt64)})
	for _, i := range ints(t, generateN(full, 50)) {
		assert.True(t, i <= math.MinInt64+maxRadius || i >= math.MaxInt64-maxRadius, "got %d", i)
	}
}

func TestIntRange_Int64Extremes(t *testing.T) {
	s := build(t, map[string]any{"type": "IntRange", "min": int64(math.MinInt64), "max": int64(math.MaxInt64), "amount": 20})
	assert.Len(t, generateN(s, 20), 20)
	assert.True(t, s.Complete())

	top := build(t, map[string]any{"type": "IntRange", "min": int64(math.MaxInt64 - 1), "max": int64(math.MaxInt64), "generation": "fuzzing"})
	for _, i := range ints(t, generateN(top, 10)) {
		assert.True(t, i >= math.MaxInt64-1, "got %d", i)
	}
}

func TestIntBoundary_ResetRestartsWalk(t *testing.T) {
	s := build(t, map[string]any{"type": "IntBoundary", "min": 0, "max": 10, "amount": 4, "generation": "fuzzing"})
	first := ints(t, generateN(s, 4))
	assert.True(t, s.Complete())
	s.Reset()
	assert.False(t, s.Complete())
	assert.Equal(t, first, ints(t, generateN(s, 4)))
}

func TestArithmetic(t *testing.T) {
	s := build(t, map[string]any{"type": "Arithmetic", "value": "V * A"})
	v := s.Generate(expr.Vars{"V": domain.Int(5), "A": domain.Int(3)})
	assert.Equal(t, domain.Int(15), v)
	assert.False(t, s.Complete())
}

func TestArithmetic_UnknownFieldKeepsPreviousValue(t *testing.T) {
	s := build(t, map[string]any{"type": "Arithmetic", "value": "V + 1"})
	s.Generate(expr.Vars{"V": domain.Int(1)})
	v := s.Generate(expr.Vars{})
	assert.Equal(t, domain.Int(2), v)
}

func TestArithmetic_OversizedStringKeepsPreviousValue(t *testing.T) {
	s := build(t, map[string]any{"type": "Arithmetic", "value": "S * N"})
	assert.Equal(t, domain.String("abab"), s.Generate(expr.Vars{"S": domain.String("ab"), "N": domain.Int(2)}))

	v := s.Generate(expr.Vars{"S": domain.String("ab"), "N": domain.Int(math.MaxInt64 / 2)})
	assert.Equal(t, domain.String("abab"), v)
}

func TestGradient(t *testing.T) {
	for _, gt := range []string{"square", "x**2"} {
		s := build(t, map[string]any{"type": "Gradient", "gradient_type": gt, "amount": 4})
		for i := range int64(4) {
			assert.False(t, s.Complete())
			assert.Equal(t, domain.Int(i*i), s.Generate(expr.Vars{}))
		}
		assert.True(t, s.Complete())
	}

	cube := build(t, map[string]any{"type": "Gradient", "gradient_type": "x**3", "amount": 4})
	assert.Equal(t, []int64{0, 1, 8, 27}, ints(t, generateN(cube, 4)))
}

func TestGradient_DefaultAmount(t *testing.T) {
	s := build(t, map[string]any{"type": "Gradient", "min": 0, "max": 6, "step_size": 2})
	assert.Equal(t, []int64{0, 2, 4}, ints(t, generateN(s, 3)))
	assert.True(t, s.Complete())
}

func TestGradient_InvalidValuesAreSkipped(t *testing.T) {
	with := build(t, map[string]any{"type": "Gradient", "gradient_type": "linear", "min": 0, "max": 10, "invalid": []any{1}})
	without := build(t, map[string]any{"type": "Gradient", "gradient_type": "linear", "min": 0, "max": 10})

	assert.NotContains(t, ints(t, generateN(with, 10)), int64(1))
	assert.Contains(t, ints(t, generateN(without, 10)), int64(1))
}

func TestMapping(t *testing.T) {
	dict := map[string]any{"A": 1, "B": 2, "C": 3, "D": 4}
	s := build(t, map[string]any{"type": "Mapping", "dict": dict, "amount": 10})
	for _, i := range ints(t, generateN(s, 10)) {
		assert.Contains(t, []int64{1, 2, 3, 4}, i)
	}

	fuzzed := build(t, map[string]any{"type": "Mapping", "dict": dict, "amount": 10, "generation": "fuzzing"})
	assert.Equal(t, map[int64]bool{1: true, 2: true, 3: true, 4: true}, set(ints(t, generateN(fuzzed, 4))))
}

func TestRegex(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-zA-Z]*$`)
	s := build(t, map[string]any{"type": "Regex", "value": "[0-9a-zA-Z]*", "amount": 10})
	for range 10 {
		assert.False(t, s.Complete())
		v, _ := s.Generate(expr.Vars{}).AsString()
		assert.Regexp(t, re, v)
	}
	assert.True(t, s.Complete())

	fuzzed := build(t, map[string]any{"type": "Regex", "value": "[0-9a-zA-Z]{5,15}", "amount": 10, "generation": "fuzzing"})
	var lengths []int
	for _, v := range generateN(fuzzed, 2) {
		str, _ := v.AsString()
		lengths = append(lengths, len(str))
	}
	assert.Equal(t, []int{5, 15}, lengths)
}

func TestStringBoundary(t *testing.T) {
	s := build(t, map[string]any{
		"type": "StringBoundary", "min_length": 0, "max_length": 10, "amount": 10,
		"allowed_chars": []any{[]any{"a", "d"}, "xy"},
	})
	for range 10 {
		assert.False(t, s.Complete())
		v, _ := s.Generate(expr.Vars{}).AsString()
		assert.LessOrEqual(t, len(v), 10)
		assert.Regexp(t, `^[abcdxy]*$`, v)
	}
	assert.True(t, s.Complete())

	lengths := func(s Scenario, n int) map[int]bool {
		out := map[int]bool{}
		for _, v := range generateN(s, n) {
			str, _ := v.AsString()
			out[len(str)] = true
		}
		return out
	}
	strict := build(t, map[string]any{"type": "StringBoundary", "min_length": 5, "max_length": 10, "amount": 10, "generation": "fuzzing"})
	assert.Equal(t, map[int]bool{5: true, 6: true, 9: true, 10: true}, lengths(strict, 4))

	loose := build(t, map[string]any{"type": "StringBoundary", "min_length": 5, "max_length": 10, "amount": 10, "strict": false, "generation": "fuzzing"})
	assert.Equal(t, map[int]bool{4: true, 5: true, 6: true, 9: true, 10: true, 11: true}, lengths(loose, 6))
}

func TestStringChoice(t *testing.T) {
	choices := []any{"A", "B", "C", "D"}
	for _, gen := range []string{"random", "fuzzing"} {
		s := build(t, map[string]any{"type": "StringChoice", "choices": choices, "amount": 10, "generation": gen})
		for range 10 {
			assert.False(t, s.Complete())
			v, _ := s.Generate(expr.Vars{}).AsString()
			assert.Contains(t, choices, v)
		}
		assert.True(t, s.Complete())
	}
}

func TestStringRandom(t *testing.T) {
	s := build(t, map[string]any{"type": "StringRandom", "min_length": 1, "max_length": 10, "amount": 10})
	for range 10 {
		v, _ := s.Generate(expr.Vars{}).AsString()
		assert.True(t, len(v) >= 1 && len(v) <= 10, "got %q", v)
		assert.Regexp(t, `^[A-Za-z0-9]+$`, v)
	}
	assert.True(t, s.Complete())
}

func TestStringRandom_FuzzKeepsLength(t *testing.T) {
	s := build(t, map[string]any{"type": "StringRandom", "length": 6, "generation": "fuzzing"})
	for range 10 {
		v, _ := s.Generate(expr.Vars{}).AsString()
		assert.Len(t, v, 6)
	}
}

func TestStringUnicode(t *testing.T) {
	s := build(t, map[string]any{"type": "StringUnicode", "min_length": 1, "max_length": 10, "amount": 10})
	for range 10 {
		v, _ := s.Generate(expr.Vars{}).AsString()
		n := utf8.RuneCountInString(v)
		assert.True(t, n >= 1 && n <= 10, "got %d runes", n)
		assert.True(t, utf8.ValidString(v))
	}
	assert.True(t, s.Complete())
}

func TestLoop(t *testing.T) {
	s := build(t, map[string]any{
		"type": "Loop", "amount": 2,
		"values": []any{
			map[string]any{"type": "IntFixed", "value": 1, "amount": 2},
			map[string]any{"type": "IntFixed", "value": 2, "amount": 2},
		},
	})
	var got []int64
	for !s.Complete() {
		got = append(got, ints(t, []domain.Value{s.Generate(expr.Vars{})})...)
	}
	assert.Equal(t, []int64{1, 1, 2, 2, 1, 1, 2, 2}, got)

	s.Reset()
	assert.False(t, s.Complete())
	assert.Equal(t, []int64{1, 1}, ints(t, generateN(s, 2)))
}

func TestLoop_Unbounded(t *testing.T) {
	for _, amount := range []any{nil, -1} {
		raw := map[string]any{
			"type":   "Loop",
			"values": []any{map[string]any{"type": "IntFixed", "value": 1, "amount": 1}},
		}
		if amount != nil {
			raw["amount"] = amount
		}
		s := build(t, raw)
		generateN(s, 100)
		assert.False(t, s.Complete())
	}
}

func TestBitBuffer(t *testing.T) {
	s := build(t, map[string]any{
		"type": "BitBuffer",
		"values": []any{
			map[string]any{"type": "IntFixed", "value": 1, "bits": 5, "amount": 2},
			map[string]any{"type": "IntFixed", "value": 2, "bits": 3, "amount": 3},
		},
	})
	assert.Equal(t, 8, s.Bits())
	assert.Equal(t, domain.Int(10), s.Generate(expr.Vars{}))
	h, ok := s.HexValue()
	assert.True(t, ok)
	assert.Equal(t, "0A", h)
	assert.False(t, s.Complete())

	assert.Equal(t, domain.Int(10), s.Generate(expr.Vars{}))
	assert.True(t, s.Complete())
}

func TestBitBuffer_WorkedExample(t *testing.T) {
	s := build(t, map[string]any{
		"type": "BitBuffer",
		"values": []any{
			map[string]any{"type": "IntFixed", "value": 3, "bits": 5},
			map[string]any{"type": "IntFixed", "value": 8, "bits": 5},
			map[string]any{"type": "IntFixed", "value": 1, "bits": 6},
		},
	})
	assert.Equal(t, domain.Int(6657), s.Generate(expr.Vars{}))
	h, _ := s.HexValue()
	assert.Equal(t, "1A01", h)
}

func TestBitBuffer_RequiresChildBits(t *testing.T) {
	_, err := NewBuilder(0).Build(map[string]any{
		"type":   "BitBuffer",
		"values": []any{map[string]any{"type": "IntFixed", "value": 1}},
	}, FieldProps{})
	var perr *PropError
	assert.ErrorAs(t, err, &perr)
}

func TestSelectRandom(t *testing.T) {
	raw := func(gen string) map[string]any {
		return map[string]any{
			"type": "SelectRandom", "loop": true, "amount": 10, "generation": gen,
			"values": []any{
				map[string]any{"type": "IntFixed", "value": 1, "amount": 1},
				map[string]any{"type": "StringFixed", "value": "---", "amount": 1},
			},
		}
	}
	check := func(v domain.Value) {
		assert.True(t, v.Equal(domain.Int(1)) || v.Equal(domain.String("---")), "got %v", v)
	}

	s := build(t, raw("random"))
	for range 10 {
		assert.False(t, s.Complete())
		check(s.Generate(expr.Vars{}))
	}
	assert.True(t, s.Complete())

	s.Reset()
	s.(*SelectRandom).loop = false
	for range 2 {
		assert.False(t, s.Complete())
		check(s.Generate(expr.Vars{}))
	}
	assert.True(t, s.Complete())

	fuzzed := build(t, raw("fuzzing"))
	for _, v := range generateN(fuzzed, 10) {
		check(v)
	}
}

func TestDeterminism(t *testing.T) {
	raw := map[string]any{"type": "IntRandom", "min": 0, "max": 1_000_000}
	run := func(seed int64) []int64 {
		s, err := NewBuilder(seed).Build(raw, FieldProps{})
		require.NoError(t, err)
		return ints(t, generateN(s, 20))
	}
	assert.Equal(t, run(42), run(42))
	assert.NotEqual(t, run(42), run(43))
}

func TestExplicitSeedOverridesDefault(t *testing.T) {
	raw := map[string]any{"type": "IntRandom", "min": 0, "max": 1_000_000, "seed": 7}
	a, err := NewBuilder(1).Build(raw, FieldProps{})
	require.NoError(t, err)
	b, err := NewBuilder(2).Build(raw, FieldProps{})
	require.NoError(t, err)
	assert.Equal(t, ints(t, generateN(a, 10)), ints(t, generateN(b, 10)))
}

func TestBuilder_UnknownKind(t *testing.T) {
	_, err := NewBuilder(0).BuildList([]any{map[string]any{"type": "Nope"}}, FieldProps{})
	assert.True(t, errors.Is(err, ErrUnknownKind))

	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "[0]", berr.Path)
}

func TestBuilder_Kinds(t *testing.T) {
	assert.Len(t, NewBuilder(0).Kinds(), 17)
}

func TestFieldProps(t *testing.T) {
	yes, no := true, false
	interval := 2.5
	fp := FieldProps{Key: domain.HexKey(0x1234), Writable: &yes, Interval: &interval}

	inherits, err := NewBuilder(0).Build(map[string]any{"type": "IntFixed"}, fp)
	require.NoError(t, err)
	assert.True(t, inherits.Writable())
	assert.Equal(t, 2500*time.Millisecond, inherits.Interval())
	assert.Equal(t, domain.HexKey(0x1234), inherits.Key())

	own, err := NewBuilder(0).Build(map[string]any{"type": "IntFixed", "writable": no}, fp)
	require.NoError(t, err)
	assert.False(t, own.Writable())

	_, async := own.AsyncInterval()
	assert.False(t, async)
}

func TestNext_PublishesHexValue(t *testing.T) {
	store := fieldstore.New(nil)
	s, err := NewBuilder(0).Build(
		map[string]any{"type": "IntFixed", "value": 0xF00F, "bits": 16},
		FieldProps{Key: domain.HexKey(0x1234)},
	)
	require.NoError(t, err)

	s.Next(store)

	v, ok := store.Get("H0x1234")
	assert.True(t, ok)
	assert.Equal(t, domain.Int(0xF00F), v)
	h, ok := store.GetHex(0x1234)
	assert.True(t, ok)
	assert.Equal(t, "0FF0", h)
}
