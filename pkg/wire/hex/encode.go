package hex

import (
	stdhex "encoding/hex"
	"fmt"
	"strings"

	"github.com/aretw0/vemulator/pkg/domain"
)

// DefaultBits is the width assumed for values that do not declare one.
const DefaultBits = 32

// ByteSize returns the number of whole bytes needed for bits.
func ByteSize(bits int) int {
	if bits <= 0 {
		return 0
	}
	return (bits + 7) / 8
}

// IntToHex encodes v as byteSize little-endian bytes in uppercase hex.
// Values wider than byteSize wrap to the low bytes (two's complement).
func IntToHex(v int64, byteSize int) string {
	var b strings.Builder
	u := uint64(v)
	for i := 0; i < byteSize; i++ {
		var c byte
		switch {
		case i < 8:
			c = byte(u >> (8 * i))
		case v < 0:
			c = 0xFF
		}
		fmt.Fprintf(&b, "%02X", c)
	}
	return b.String()
}

// BigEndianHex encodes v as byteSize big-endian bytes in uppercase hex.
func BigEndianHex(v uint64, byteSize int) string {
	var b strings.Builder
	for i := byteSize - 1; i >= 0; i-- {
		var c byte
		if i < 8 {
			c = byte(v >> (8 * i))
		}
		fmt.Fprintf(&b, "%02X", c)
	}
	return b.String()
}

// StringToHex encodes the UTF-8 bytes of s in uppercase hex, right-padded with
// '0' to byteSize bytes. Longer strings are not truncated.
func StringToHex(s string, byteSize int) string {
	enc := strings.ToUpper(stdhex.EncodeToString([]byte(s)))
	if pad := byteSize*2 - len(enc); pad > 0 {
		enc += strings.Repeat("0", pad)
	}
	return enc
}

// EncodeValue returns the canonical wire form of v for a field of the given width.
// Integers are little-endian; floats and strings are sent as their text bytes.
func EncodeValue(v domain.Value, bits int) string {
	size := ByteSize(bits)
	switch v.Kind() {
	case domain.KindInt:
		i, _ := v.AsInt()
		return IntToHex(i, size)
	case domain.KindFloat, domain.KindString:
		return StringToHex(v.String(), size)
	}
	return ""
}

// DecodeLittleEndian parses little-endian hex digits into an integer, sign
// extending from the top bit when signed is set.
func DecodeLittleEndian(s string, signed bool) (int64, error) {
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := stdhex.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if len(raw) > 8 {
		return 0, fmt.Errorf("%w: %d bytes does not fit an int64", ErrBadPayload, len(raw))
	}
	var u uint64
	for i := len(raw) - 1; i >= 0; i-- {
		u = u<<8 | uint64(raw[i])
	}
	if signed && len(raw) > 0 && len(raw) < 8 && raw[len(raw)-1]&0x80 != 0 {
		u |= ^uint64(0) << (8 * len(raw))
	}
	return int64(u), nil
}

// IDToHex renders a field id as it appears in Get, Set and Async payloads.
func IDToHex(id uint16) string {
	return IntToHex(int64(id), 2)
}

// ParseID decodes the 4 little-endian hex digits of a field id.
func ParseID(s string) (uint16, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: field id %q", ErrBadPayload, s)
	}
	v, err := DecodeLittleEndian(s, false)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
