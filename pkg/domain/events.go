package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFrameSent      EventType = "frame_sent"
	EventCommandHandled EventType = "command_handled"
	EventStatusChanged  EventType = "status_changed"
)

// FrameKind tells text messages from hex responses and async hex messages.
type FrameKind string

const (
	FrameText  FrameKind = "text"
	FrameHex   FrameKind = "hex"
	FrameAsync FrameKind = "async"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// FrameEvent reports one frame handed to the output.
type FrameEvent struct {
	EventBase
	Kind    FrameKind `json:"kind"`
	Size    int       `json:"size"`
	Flipped int       `json:"flipped,omitempty"` // bits flipped on the way out
	Dropped bool      `json:"dropped,omitempty"`
}

// CommandEvent reports one inbound hex command.
type CommandEvent struct {
	EventBase
	Command string `json:"command"`
	// Status is the status byte of the reply, empty when the reply carries none.
	Status     string `json:"status,omitempty"`
	BadFrame   bool   `json:"bad_frame,omitempty"`
	HasReplied bool   `json:"has_replied"`
}

// StatusEvent reports a lifecycle transition.
type StatusEvent struct {
	EventBase
	From Status `json:"from"`
	To   Status `json:"to"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnFrame   func(context.Context, *FrameEvent)
	OnCommand func(context.Context, *CommandEvent)
	OnStatus  func(context.Context, *StatusEvent)
}
