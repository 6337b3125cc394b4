package scenario

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/expr"
	"github.com/aretw0/vemulator/pkg/wire/hex"
)

// Kind is the configuration name of a scenario variant.
type Kind string

const (
	KindIntFixed       Kind = "IntFixed"
	KindStringFixed    Kind = "StringFixed"
	KindIntRandom      Kind = "IntRandom"
	KindIntBoundary    Kind = "IntBoundary"
	KindIntChoice      Kind = "IntChoice"
	KindIntRange       Kind = "IntRange"
	KindStringRandom   Kind = "StringRandom"
	KindStringUnicode  Kind = "StringUnicode"
	KindStringBoundary Kind = "StringBoundary"
	KindStringChoice   Kind = "StringChoice"
	KindMapping        Kind = "Mapping"
	KindGradient       Kind = "Gradient"
	KindArithmetic     Kind = "Arithmetic"
	KindRegex          Kind = "Regex"
	KindLoop           Kind = "Loop"
	KindBitBuffer      Kind = "BitBuffer"
	KindSelectRandom   Kind = "SelectRandom"
)

// maxAttempts bounds the retries spent escaping the invalid set.
const maxAttempts = 3

// Values is the read-only view of current field values.
type Values = expr.Resolver

// Sink receives generated values.
type Sink interface {
	Put(key domain.FieldKey, v domain.Value)
	PutHex(id uint16, value string)
}

// Store is what Next needs: a view to read from and a sink to publish to.
type Store interface {
	Values
	Sink
}

// Scenario is the capability shared by every generator kind.
type Scenario interface {
	Kind() Kind
	Key() domain.FieldKey

	// Next generates a value and publishes it to store.
	Next(store Store) domain.Value
	// Generate produces the next value without publishing it.
	Generate(values Values) domain.Value

	Value() domain.Value
	// HexValue is the wire encoding of Value; false when there is no value.
	HexValue() (string, bool)
	Bits() int
	// Signed reports whether integer values are two's complement on the wire.
	Signed() bool

	Complete() bool
	Reset()

	FieldProps() FieldProps
	ApplyFieldProps(fp FieldProps)
	Writable() bool
	Interval() time.Duration
	AsyncInterval() (time.Duration, bool)
	AsyncChange() bool
	Fuzzing() bool
}

// producer is implemented by every concrete kind.
type producer interface {
	// produce returns a fresh candidate.
	produce(values Values) (domain.Value, error)
	// fuzz may swap the candidate for an adversarial value.
	fuzz(values Values, candidate domain.Value) domain.Value
}

// Base carries the state shared by all kinds and implements the generation
// template. Concrete kinds embed it and point self at themselves.
type Base struct {
	kind   Kind
	self   Scenario
	gen    producer
	logger *slog.Logger

	props Props
	field FieldProps
	key   domain.FieldKey

	bounded       bool
	amount        int
	initialAmount int

	seed    int64
	rng     *rand.Rand
	bits    int
	signed  bool
	fuzzing bool
	invalid []domain.Value

	value domain.Value
}

func newBase(kind Kind, p Props, seed int64, logger *slog.Logger) Base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if p.Seed != nil {
		seed = *p.Seed
	}
	b := Base{
		kind:    kind,
		logger:  logger,
		props:   p,
		seed:    seed,
		rng:     newRand(seed),
		fuzzing: p.Generation == GenerationFuzzing,
	}
	if p.Amount != nil {
		b.bounded = true
		b.amount = max(*p.Amount, 0)
		b.initialAmount = b.amount
	}
	if p.Bits != nil {
		b.bits = *p.Bits
	}
	if p.Signed != nil {
		b.signed = *p.Signed
	}
	for _, x := range p.Invalid {
		if v, ok := domain.FromAny(x); ok {
			b.invalid = append(b.invalid, v)
		}
	}
	return b
}

// bind wires the concrete kind into the template. It must be called by every
// constructor before the scenario is returned.
func (b *Base) bind(s interface {
	Scenario
	producer
}) {
	b.self = s
	b.gen = s
}

func (b *Base) Kind() Kind           { return b.kind }
func (b *Base) Key() domain.FieldKey { return b.key }
func (b *Base) Value() domain.Value  { return b.value }
func (b *Base) Bits() int            { return b.bits }
func (b *Base) Signed() bool         { return b.signed }
func (b *Base) Fuzzing() bool        { return b.fuzzing }
func (b *Base) Seed() int64          { return b.seed }

// Remaining reports the amount left and whether it is bounded at all.
func (b *Base) Remaining() (int, bool) { return b.amount, b.bounded }

// Next implements Scenario.
func (b *Base) Next(store Store) domain.Value {
	v := b.self.Generate(store)
	if b.key.IsHex() {
		store.Put(b.key, v)
		if h, ok := b.self.HexValue(); ok {
			store.PutHex(b.key.ID, h)
		} else {
			store.PutHex(b.key.ID, "")
		}
	} else {
		store.Put(b.key, v)
	}
	return v
}

// Generate implements Scenario.
func (b *Base) Generate(values Values) domain.Value {
	if b.bounded && b.amount > 0 {
		b.amount--
	}
	old := b.value
	var candidate domain.Value
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := b.gen.produce(values)
		if err != nil {
			b.logger.Warn("generation failed, keeping previous value",
				"key", b.key.String(), "kind", string(b.kind), "err", err)
			return old
		}
		if b.fuzzing {
			v = b.gen.fuzz(values, v)
		}
		candidate = v
		if !b.excluded(v) {
			b.value = v
			return v
		}
	}
	b.logger.Warn("could not generate a valid value, keeping previous value",
		"key", b.key.String(), "kind", string(b.kind), "invalid", candidate.String())
	return old
}

func (b *Base) excluded(v domain.Value) bool {
	for _, x := range b.invalid {
		if x.Equal(v) {
			return true
		}
	}
	return false
}

// HexValue implements Scenario. A missing bit width defaults to 32 bits.
func (b *Base) HexValue() (string, bool) {
	if b.value.IsNone() {
		return "", false
	}
	if b.bits <= 0 {
		b.logger.Warn("bits not defined, defaulting to 32", "key", b.key.String(), "kind", string(b.kind))
		b.bits = hex.DefaultBits
	}
	return hex.EncodeValue(b.value, b.bits), true
}

// Complete implements Scenario.
func (b *Base) Complete() bool {
	return b.bounded && b.amount <= 0
}

// Reset restores the amount and clears the value. The random source is kept.
func (b *Base) Reset() {
	b.amount = b.initialAmount
	b.value = domain.None()
}

// fuzz is the generic fallback: integers become any int64, strings keep their
// length with printable characters. Other values pass through.
func (b *Base) fuzz(_ Values, v domain.Value) domain.Value {
	switch v.Kind() {
	case domain.KindInt:
		return domain.Int(int64(b.rng.Uint64()))
	case domain.KindString:
		s, _ := v.AsString()
		n := len([]rune(s))
		out := make([]byte, n)
		for i := range out {
			out[i] = printable[b.rng.IntN(len(printable))]
		}
		return domain.String(string(out))
	}
	return v
}

// printable mirrors the set of digits, letters, punctuation and whitespace.
const printable = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~" + " \t\n\r\x0b\x0c"
