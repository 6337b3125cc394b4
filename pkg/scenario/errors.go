package scenario

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned for a "type" no constructor is registered for.
var ErrUnknownKind = errors.New("unknown scenario type")

// PropError reports a property that cannot be used.
type PropError struct {
	Prop   string
	Value  any
	Reason string
}

func (e *PropError) Error() string {
	return fmt.Sprintf("property %q (%v) %s", e.Prop, e.Value, e.Reason)
}

func errInvalidProp(prop string, value any, reason string) error {
	return &PropError{Prop: prop, Value: value, Reason: reason}
}

// BuildError wraps any failure to construct a scenario node.
type BuildError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("scenario %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("scenario %s (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
