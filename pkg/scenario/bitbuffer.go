package scenario

import (
	"strconv"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/wire/hex"
)

// BitBuffer packs the values of its children into one integer, the first child
// in the most significant bits. Each child is encoded at its own width first,
// so multi-byte children contribute their little-endian byte order. The buffer
// completes as soon as any child does.
type BitBuffer struct {
	composite
	done bool
}

func newBitBuffer(b Base, children []Scenario) (*BitBuffer, error) {
	c, err := newComposite(b, children)
	if err != nil {
		return nil, err
	}
	total := 0
	for i, ch := range children {
		if ch.Bits() <= 0 {
			return nil, errInvalidProp("bits", ch.Bits(), "must be set on every BitBuffer value (value "+strconv.Itoa(i)+")")
		}
		total += ch.Bits()
	}
	if total > 64 {
		return nil, errInvalidProp("bits", total, "BitBuffer values exceed 64 bits")
	}
	s := &BitBuffer{composite: c}
	s.Base.bits = total
	s.bind(s)
	return s, nil
}

func (s *BitBuffer) produce(values Values) (domain.Value, error) {
	var packed uint64
	for _, ch := range s.children {
		v := ch.Generate(values)
		packed = packed<<ch.Bits() | contribution(v, ch.Bits())
		if ch.Complete() {
			s.done = true
		}
	}
	return domain.Int(int64(packed)), nil
}

func contribution(v domain.Value, bits int) uint64 {
	if v.IsNone() {
		return 0
	}
	enc := hex.EncodeValue(v, bits)
	if len(enc) > 16 {
		enc = enc[len(enc)-16:]
	}
	n, err := strconv.ParseUint(enc, 16, 64)
	if err != nil {
		return 0
	}
	if bits < 64 {
		n &= 1<<bits - 1
	}
	return n
}

// HexValue implements Scenario. The packed value is already in wire order, so
// it is written big-endian.
func (s *BitBuffer) HexValue() (string, bool) {
	if s.value.IsNone() {
		return "", false
	}
	i, _ := s.value.AsInt()
	return hex.BigEndianHex(uint64(i), hex.ByteSize(s.bits)), true
}

// Bits implements Scenario.
func (s *BitBuffer) Bits() int { return s.bits }

// Complete implements Scenario.
func (s *BitBuffer) Complete() bool {
	return s.Base.Complete() || s.done
}

// Reset implements Scenario.
func (s *BitBuffer) Reset() {
	s.Base.Reset()
	s.resetChildren()
	s.done = false
}
