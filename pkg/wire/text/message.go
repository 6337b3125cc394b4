package text

import (
	"regexp"
	"strings"
)

// MaxSegments is the number of key/value segments a block may carry besides
// the checksum.
const MaxSegments = 21

var historyKey = regexp.MustCompile(`^H[0-9]+$`)

// Pair is one key/value segment of a text block.
type Pair struct {
	Key   string
	Value string
}

// Split partitions pairs into blocks of at most MaxSegments segments. History
// keys (H followed by digits) are moved to their own trailing block when that
// is enough; otherwise the set is halved recursively. Order is preserved.
func Split(pairs []Pair) [][]Pair {
	if len(pairs) <= MaxSegments {
		return [][]Pair{pairs}
	}

	var history, rest []Pair
	for _, p := range pairs {
		if historyKey.MatchString(p.Key) {
			history = append(history, p)
		} else {
			rest = append(rest, p)
		}
	}
	if len(history) > 0 && len(history) <= MaxSegments {
		return append(Split(rest), history)
	}

	half := len(pairs) / 2
	return append(Split(pairs[:half]), Split(pairs[half:])...)
}

// Encode renders pairs as "\r\n<key>\t<value>" segments without a checksum.
func Encode(pairs []Pair) []byte {
	var b strings.Builder
	for _, p := range pairs {
		b.WriteString("\r\n")
		b.WriteString(p.Key)
		b.WriteByte('\t')
		b.WriteString(p.Value)
	}
	return []byte(b.String())
}

// Keys returns the segment keys of a checksummed block in order, Checksum included.
func Keys(block []byte) []string {
	var keys []string
	for _, line := range strings.Split(string(block), "\r\n") {
		if k, _, ok := strings.Cut(line, "\t"); ok {
			keys = append(keys, k)
		}
	}
	return keys
}
