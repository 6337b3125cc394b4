package domain

import "errors"

// ErrNoScenarios is returned when a configuration defines no generators at all.
var ErrNoScenarios = errors.New("no scenarios configured")

// ErrNoOutput is returned when the emulator has nowhere to write.
var ErrNoOutput = errors.New("no output configured")

// ErrUnknownField is returned when a field key has no scenario queue.
var ErrUnknownField = errors.New("unknown field")
