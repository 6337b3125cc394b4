package hex

import (
	"bytes"
	stdhex "encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadChecksum is returned when an inbound frame's checksum does not add up to 0x55.
	ErrBadChecksum = errors.New("hex: bad checksum")
	// ErrNotFrame is returned for lines that do not start with ':'.
	ErrNotFrame = errors.New("hex: not a frame")
	// ErrEmptyFrame is returned for a ':' with no command.
	ErrEmptyFrame = errors.New("hex: empty frame")
	// ErrBadPayload is returned when a payload contains non-hex digits.
	ErrBadPayload = errors.New("hex: bad payload")
)

const checksumBase = 0x55

// Checksum returns the two uppercase hex digits that make the bytes of body sum
// to 0x55. body starts with the command nibble; an odd length is padded with a
// leading zero before decoding.
func Checksum(body string) (string, error) {
	if len(body)%2 == 1 {
		body = "0" + body
	}
	raw, err := stdhex.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	sum := checksumBase
	for _, b := range raw {
		sum -= int(b)
	}
	return fmt.Sprintf("%02X", sum&0xFF), nil
}

// CheckChecksum reports whether msg (command, payload and checksum, without ':'
// and newline) carries a valid trailing checksum.
func CheckChecksum(msg string) bool {
	if len(msg) < 3 {
		return false
	}
	want, err := Checksum(msg[:len(msg)-2])
	if err != nil {
		return false
	}
	return strings.EqualFold(want, msg[len(msg)-2:])
}

// Frame builds an outbound frame ":<cmd><payload><checksum>\n".
func Frame(cmd Command, payload string) ([]byte, error) {
	body := string(rune(cmd)) + strings.ToUpper(payload)
	cs, err := Checksum(body)
	if err != nil {
		return nil, err
	}
	return []byte(":" + body + cs + "\n"), nil
}

// Message is a decoded inbound frame.
type Message struct {
	Command Command
	// Body holds the hex digits after ':' up to and including the checksum.
	Body string
}

// Payload is the part of the body between the command nibble and the checksum.
func (m Message) Payload() string {
	if len(m.Body) < 3 {
		return ""
	}
	return m.Body[1 : len(m.Body)-2]
}

// Decode parses one inbound line. NUL bytes are dropped, the body is upper-cased
// and everything that is not a hex digit is discarded. A frame with a bad
// checksum is returned together with ErrBadChecksum so callers can still answer.
func Decode(line []byte) (Message, error) {
	line = bytes.ReplaceAll(line, []byte{0}, nil)
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != ':' {
		return Message{}, ErrNotFrame
	}

	var b strings.Builder
	for _, c := range bytes.ToUpper(line[1:]) {
		if (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') {
			b.WriteByte(c)
		}
	}
	body := b.String()
	if body == "" {
		return Message{}, ErrEmptyFrame
	}

	msg := Message{Command: Command(body[0]), Body: body}
	if !CheckChecksum(body) {
		return msg, ErrBadChecksum
	}
	return msg, nil
}
