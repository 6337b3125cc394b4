package config

import (
	"time"

	"github.com/aretw0/vemulator/pkg/domain"
)

// Settings control how an emulation runs, independent of the device file.
type Settings struct {
	// Delay between two text messages. Zero sends as fast as possible.
	Delay time.Duration
	// BitErrorRate is the fraction of bits flipped in every outgoing message.
	BitErrorRate float64
	// BitErrorChecksum lets bit errors reach the checksum as well.
	BitErrorChecksum bool
	// DefaultSeed derives the seed of every scenario without its own seed.
	DefaultSeed int64
	// Timed generates values on per-field timers instead of once per message.
	Timed bool
	Stop      domain.StopCondition
	PresetDir string
}

// DefaultSettings returns the settings used when nothing else is configured.
func DefaultSettings() Settings {
	return Settings{
		Delay:     time.Second,
		Stop:      domain.StopText,
		PresetDir: "protocols",
	}
}

// settingsBlock is the optional "emulation" section of a device file.
type settingsBlock struct {
	Delay            *float64 `yaml:"delay"`
	BitErrorRate     *float64 `yaml:"bit_error_rate"`
	BitErrorChecksum *bool    `yaml:"bit_error_checksum"`
	Seed             *int64   `yaml:"seed"`
	Timed            *bool    `yaml:"timed"`
	StopCondition    *string  `yaml:"stop_condition"`
	PresetDir        *string  `yaml:"preset_dir"`
}

func (b *settingsBlock) apply(s *Settings) error {
	if b == nil {
		return nil
	}
	if b.Delay != nil {
		s.Delay = time.Duration(*b.Delay * float64(time.Second))
	}
	if b.BitErrorRate != nil {
		s.BitErrorRate = *b.BitErrorRate
	}
	if b.BitErrorChecksum != nil {
		s.BitErrorChecksum = *b.BitErrorChecksum
	}
	if b.Seed != nil {
		s.DefaultSeed = *b.Seed
	}
	if b.Timed != nil {
		s.Timed = *b.Timed
	}
	if b.StopCondition != nil {
		c, err := domain.ParseStopCondition(*b.StopCondition)
		if err != nil {
			return &Error{Key: "emulation.stop_condition", Reason: "must be one of text, hex, text-hex, none", Value: *b.StopCondition}
		}
		s.Stop = c
	}
	if b.PresetDir != nil {
		s.PresetDir = *b.PresetDir
	}
	return nil
}

// Validate checks the ranges the engine relies on.
func (s Settings) Validate() error {
	var errs []error
	if s.Delay < 0 {
		errs = append(errs, &Error{Key: "delay", Reason: "must not be negative", Value: s.Delay})
	}
	if s.BitErrorRate < 0 || s.BitErrorRate > 1 {
		errs = append(errs, &Error{Key: "bit_error_rate", Reason: "must be between 0.0 and 1.0", Value: s.BitErrorRate})
	}
	if _, err := domain.ParseStopCondition(string(s.Stop)); err != nil {
		errs = append(errs, &Error{Key: "stop_condition", Reason: "must be one of text, hex, text-hex, none", Value: s.Stop})
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
