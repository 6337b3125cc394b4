package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/scenario"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// File is the decoded form of a device file.
type File struct {
	Device          string         `yaml:"device"`
	Name            string         `yaml:"name"`
	Protocol        string         `yaml:"protocol"`
	Version         int            `yaml:"version"`
	ProductID       int            `yaml:"product_id"`
	Preset          string         `yaml:"preset"`
	PresetFields    []any          `yaml:"preset_fields"`
	PresetHexFields []any          `yaml:"preset_hex_fields"`
	Fields          []any          `yaml:"fields"`
	HexFields       []any          `yaml:"hex_fields"`
	Emulation       *settingsBlock `yaml:"emulation"`
}

// Config is a fully resolved device: settings plus the scenario queue of
// every field, in declaration order.
type Config struct {
	Device    string
	Name      string
	Protocol  domain.Protocol
	Version   uint16
	ProductID uint16
	Settings  Settings
	Text      []Field
	Hex       []Field
}

// Field is one protocol slot with its ordered scenario queue.
type Field struct {
	Key       domain.FieldKey
	Name      string
	Unit      string
	Scenarios []scenario.Scenario
}

// Empty reports whether no field defines any scenario.
func (c *Config) Empty() bool {
	for _, fields := range [][]Field{c.Text, c.Hex} {
		for _, f := range fields {
			if len(f.Scenarios) > 0 {
				return false
			}
		}
	}
	return true
}

// Option configures loading.
type Option func(*options)

type options struct {
	overrides []func(*Settings)
	logger    *slog.Logger
	baseDir   string
}

// WithOverrides applies fn on top of the settings read from the file.
// Command line flags use it.
func WithOverrides(fn func(*Settings)) Option {
	return func(o *options) { o.overrides = append(o.overrides, fn) }
}

// WithLogger sets the logger used while loading and by the built scenarios.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBaseDir sets the directory relative preset paths are resolved against.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// Load reads, validates and builds the device file at path.
func Load(path string, opts ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	opts = append([]Option{WithBaseDir(filepath.Dir(path))}, opts...)
	return Parse(data, opts...)
}

// Parse validates and builds a device file held in memory.
func Parse(data []byte, opts ...Option) (*Config, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Key: "", Reason: "invalid YAML", Err: err}
	}
	if raw == nil {
		return nil, &Error{Key: "", Reason: "configuration is empty"}
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &Error{Key: "", Reason: "invalid YAML", Err: err}
	}

	settings := DefaultSettings()
	if err := file.Emulation.apply(&settings); err != nil {
		return nil, err
	}
	for _, fn := range o.overrides {
		fn(&settings)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	protocol, err := domain.ParseProtocol(file.Protocol)
	if err != nil {
		return nil, &Error{Key: "protocol", Reason: err.Error(), Value: file.Protocol}
	}
	cfg := &Config{
		Device:    file.Device,
		Name:      file.Name,
		Protocol:  protocol,
		Version:   uint16(file.Version),
		ProductID: uint16(file.ProductID),
		Settings:  settings,
	}

	b := &fieldBuilder{
		builder: scenario.NewBuilder(settings.DefaultSeed, scenario.WithLogger(o.logger)),
		presets: presetResolver{dir: settings.PresetDir, baseDir: o.baseDir, preset: file.Preset},
		logger:  o.logger,
	}
	if file.Preset != "" {
		b.presetFields(&cfg.Text, "preset_fields", file.PresetFields, false)
		b.presetFields(&cfg.Hex, "preset_hex_fields", file.PresetHexFields, true)
	}
	b.fields(&cfg.Text, "fields", file.Fields, false)
	b.fields(&cfg.Hex, "hex_fields", file.HexFields, true)
	if len(b.errs) > 0 {
		return nil, &AggregateError{Errors: b.errs}
	}
	if !protocol.HasText() {
		cfg.Text = nil
	}
	if !protocol.HasHex() {
		cfg.Hex = nil
	}
	return cfg, nil
}

// fieldSpec is a field definition after preset resolution.
type fieldSpec struct {
	Name          any      `mapstructure:"name"`
	Key           any      `mapstructure:"key"`
	Unit          string   `mapstructure:"unit"`
	Interval      *float64 `mapstructure:"interval"`
	AsyncInterval *float64 `mapstructure:"async_interval"`
	AsyncChange   *bool    `mapstructure:"async_change"`
	Writable      *bool    `mapstructure:"writable"`
	Values        []any    `mapstructure:"values"`
}

type fieldBuilder struct {
	builder *scenario.Builder
	presets presetResolver
	logger  *slog.Logger
	errs    []error
}

func (b *fieldBuilder) presetFields(dst *[]Field, key string, entries []any, hex bool) {
	for i, e := range entries {
		path := fmt.Sprintf("%s[%d]", key, i)
		entry, _ := e.(map[string]any)
		field, err := b.presets.resolve(entry)
		if err != nil {
			b.errs = append(b.errs, &Error{Key: path, Reason: "invalid preset", Err: err})
			continue
		}
		if errs := validateField(path, field, hex); len(errs) > 0 {
			for _, err := range errs {
				b.errs = append(b.errs, fmt.Errorf("%w: %w", ErrInvalidPreset, err))
			}
			continue
		}
		b.add(dst, path, field, hex)
	}
}

func (b *fieldBuilder) fields(dst *[]Field, key string, defs []any, hex bool) {
	for i, d := range defs {
		field, _ := d.(map[string]any)
		b.add(dst, fmt.Sprintf("%s[%d]", key, i), field, hex)
	}
}

func (b *fieldBuilder) add(dst *[]Field, path string, raw map[string]any, hex bool) {
	var spec fieldSpec
	if err := mapstructure.Decode(raw, &spec); err != nil {
		b.errs = append(b.errs, &Error{Key: path, Reason: "malformed field", Err: err})
		return
	}

	var key domain.FieldKey
	if hex {
		id, _ := asInt(spec.Key)
		key = domain.HexKey(uint16(id))
	} else {
		key = domain.TextKey(fmt.Sprint(spec.Key))
	}

	fp := scenario.FieldProps{
		Key:           key,
		Interval:      spec.Interval,
		AsyncInterval: spec.AsyncInterval,
		AsyncChange:   spec.AsyncChange,
		Writable:      spec.Writable,
	}
	queue, err := b.builder.BuildList(spec.Values, fp)
	if err != nil {
		cfgErr := &Error{Key: path + ".values", Reason: "cannot build scenario", Err: err}
		var be *scenario.BuildError
		if errors.As(err, &be) {
			cfgErr.Key += be.Path
		}
		b.errs = append(b.errs, cfgErr)
		return
	}

	f := Field{Key: key, Name: fmt.Sprint(spec.Name), Unit: spec.Unit, Scenarios: queue}
	for i := range *dst {
		if (*dst)[i].Key == key {
			b.logger.Debug("field redefined", "key", key.String())
			(*dst)[i] = f
			return
		}
	}
	b.logger.Debug("added scenario", "key", key.String(), "scenarios", len(queue))
	*dst = append(*dst, f)
}
