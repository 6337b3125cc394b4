package domain

import (
	"fmt"
	"strings"
)

// Protocol names the wire protocol a field or device speaks.
type Protocol string

const (
	ProtocolText    Protocol = "text"
	ProtocolHex     Protocol = "hex"
	ProtocolTextHex Protocol = "text_hex"
)

// ParseProtocol accepts the configuration spelling of a protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(s))); p {
	case ProtocolText, ProtocolHex, ProtocolTextHex:
		return p, nil
	}
	return "", fmt.Errorf("unknown protocol %q", s)
}

// HasText reports whether the device emits text messages.
func (p Protocol) HasText() bool { return p == ProtocolText || p == ProtocolTextHex }

// HasHex reports whether the device answers hex commands.
func (p Protocol) HasHex() bool { return p == ProtocolHex || p == ProtocolTextHex }

// FieldKey identifies a protocol slot. Text fields use Name, hex fields use ID.
type FieldKey struct {
	Protocol Protocol
	Name     string
	ID       uint16
}

// TextKey builds the key of a text field.
func TextKey(name string) FieldKey { return FieldKey{Protocol: ProtocolText, Name: name} }

// HexKey builds the key of a hex field.
func HexKey(id uint16) FieldKey { return FieldKey{Protocol: ProtocolHex, ID: id} }

// IsHex reports whether k addresses a hex field.
func (k FieldKey) IsHex() bool { return k.Protocol == ProtocolHex }

// DisplayName is the key under which the field's display value is stored.
// Hex fields are stored as "H0x" followed by the big-endian id.
func (k FieldKey) DisplayName() string {
	if k.IsHex() {
		return fmt.Sprintf("H0x%04X", k.ID)
	}
	return k.Name
}

func (k FieldKey) String() string {
	if k.IsHex() {
		return fmt.Sprintf("0x%04X", k.ID)
	}
	return k.Name
}

// StopCondition selects when the main loop ends by itself.
type StopCondition string

const (
	StopText    StopCondition = "text"
	StopHex     StopCondition = "hex"
	StopTextHex StopCondition = "text-hex"
	StopNone    StopCondition = "none"
)

// ParseStopCondition accepts the configuration spelling of a stop condition.
func ParseStopCondition(s string) (StopCondition, error) {
	switch c := StopCondition(strings.ToLower(strings.TrimSpace(s))); c {
	case StopText, StopHex, StopTextHex, StopNone:
		return c, nil
	case "text_hex":
		return StopTextHex, nil
	}
	return "", fmt.Errorf("unknown stop condition %q", s)
}

// Status is the lifecycle state of an emulator.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusPausing     Status = "pausing"
	StatusPaused      Status = "paused"
	StatusResuming    Status = "resuming"
	StatusStopping    Status = "stopping"
	StatusStopped     Status = "stopped"
)
