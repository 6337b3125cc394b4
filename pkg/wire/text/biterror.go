package text

import (
	"math"
	"math/rand/v2"
)

// Flips is the number of bits InjectBitErrors flips in a message of size bytes.
func Flips(rate float64, size int) int {
	nbits := size * 8
	if rate <= 0 || nbits == 0 {
		return 0
	}
	return min(int(math.RoundToEven(rate*float64(nbits))), nbits)
}

// InjectBitErrors flips round(rate * bits) distinct bits of msg, chosen by rng.
// The input is left untouched and the result has the same length.
func InjectBitErrors(msg []byte, rate float64, rng *rand.Rand) []byte {
	out := append([]byte(nil), msg...)
	count := Flips(rate, len(out))
	if count == 0 {
		return out
	}
	for _, idx := range rng.Perm(len(out) * 8)[:count] {
		out[idx/8] ^= 0x80 >> (idx % 8)
	}
	return out
}
