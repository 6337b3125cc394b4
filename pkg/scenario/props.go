package scenario

import (
	"fmt"
	"time"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Generation modes.
const (
	GenerationRandom  = "random"
	GenerationFuzzing = "fuzzing"
)

const defaultInterval = time.Second

// Props are the attributes every scenario node may declare. Nil pointers mean
// "not set", which lets field level properties fill them in.
type Props struct {
	Type          string   `mapstructure:"type"`
	Amount        *int     `mapstructure:"amount"`
	Seed          *int64   `mapstructure:"seed"`
	Bits          *int     `mapstructure:"bits"`
	Signed        *bool    `mapstructure:"signed"`
	Generation    string   `mapstructure:"generation"`
	Interval      *float64 `mapstructure:"interval"`
	AsyncInterval *float64 `mapstructure:"async_interval"`
	AsyncChange   *bool    `mapstructure:"async_change"`
	Writable      *bool    `mapstructure:"writable"`
	Invalid       []any    `mapstructure:"invalid"`
}

// FieldProps are declared once per field and inherited by its scenarios.
// Key always wins; the others only fill properties a scenario leaves unset.
type FieldProps struct {
	Key           domain.FieldKey
	Interval      *float64
	AsyncInterval *float64
	AsyncChange   *bool
	Writable      *bool
}

// FieldProps implements Scenario.
func (b *Base) FieldProps() FieldProps { return b.field }

// ApplyFieldProps implements Scenario.
func (b *Base) ApplyFieldProps(fp FieldProps) {
	b.field = fp
	b.key = fp.Key
}

// Writable implements Scenario.
func (b *Base) Writable() bool {
	if v := pick(b.props.Writable, b.field.Writable); v != nil {
		return *v
	}
	return false
}

// AsyncChange implements Scenario.
func (b *Base) AsyncChange() bool {
	if v := pick(b.props.AsyncChange, b.field.AsyncChange); v != nil {
		return *v
	}
	return false
}

// Interval implements Scenario. It defaults to one second.
func (b *Base) Interval() time.Duration {
	if v := pick(b.props.Interval, b.field.Interval); v != nil && *v > 0 {
		return seconds(*v)
	}
	return defaultInterval
}

// AsyncInterval implements Scenario.
func (b *Base) AsyncInterval() (time.Duration, bool) {
	if v := pick(b.props.AsyncInterval, b.field.AsyncInterval); v != nil && *v > 0 {
		return seconds(*v), true
	}
	return 0, false
}

func pick[T any](own, inherited *T) *T {
	if own != nil {
		return own
	}
	return inherited
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// decode converts a raw configuration node into a typed struct.
func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode properties: %w", err)
	}
	return nil
}
