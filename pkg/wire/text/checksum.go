package text

// checksumLabel precedes the checksum byte in every block.
const checksumLabel = "\r\nChecksum\t"

// AddChecksum appends the checksum segment so that the byte sum of the whole
// block is zero modulo 256.
func AddChecksum(msg []byte) []byte {
	out := make([]byte, 0, len(msg)+len(checksumLabel)+1)
	out = append(out, msg...)
	out = append(out, checksumLabel...)
	var sum byte
	for _, b := range out {
		sum += b
	}
	return append(out, -sum)
}

// CheckChecksum reports whether the byte sum of msg is zero modulo 256.
func CheckChecksum(msg []byte) bool {
	var sum byte
	for _, b := range msg {
		sum += b
	}
	return sum == 0
}
