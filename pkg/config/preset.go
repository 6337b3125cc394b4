package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/vemulator/pkg/scenario"
	"gopkg.in/yaml.v3"
)

// Preset generation modes.
const (
	PresetDefault = "default"
	PresetRandom  = "random"
	PresetFuzzing = "fuzzing"
)

// presetEntry splits a preset selection like {V: random, override: {...}}
// into the field name and its generation mode.
func presetEntry(entry map[string]any) (name, mode string, err error) {
	for k, v := range entry {
		if k == "override" {
			continue
		}
		if name != "" {
			return "", "", errors.New("a preset entry selects exactly one field")
		}
		name = k
		s, ok := v.(string)
		if !ok {
			return "", "", fmt.Errorf("generation of %q must be a string", k)
		}
		mode = s
	}
	if name == "" {
		return "", "", errors.New("a preset entry selects exactly one field")
	}
	return name, mode, nil
}

// presetResolver loads preset field templates from disk.
type presetResolver struct {
	dir     string
	baseDir string
	preset  string
}

// path finds the template of name. A relative preset directory is first tried
// next to the device file.
func (r presetResolver) path(name string) (string, error) {
	rel := filepath.Join(r.dir, r.preset, name+".yaml")
	candidates := []string{rel}
	if !filepath.IsAbs(r.dir) && r.baseDir != "" {
		candidates = []string{filepath.Join(r.baseDir, rel), rel}
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no preset file %s", ErrInvalidPreset, rel)
}

// resolve turns a preset selection into a regular field definition.
func (r presetResolver) resolve(entry map[string]any) (map[string]any, error) {
	name, mode, err := presetEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	p, err := r.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	var field map[string]any
	if err := yaml.Unmarshal(data, &field); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPreset, p, err)
	}
	if field == nil {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidPreset, p)
	}

	if override, ok := entry["override"].(map[string]any); ok {
		for k, v := range override {
			field[k] = v
		}
	}

	switch mode {
	case PresetDefault:
		def, ok := field["default"]
		if !ok {
			return nil, fmt.Errorf("%w: %s defines no default", ErrInvalidPreset, name)
		}
		kind := scenario.KindStringFixed
		if _, ok := asInt(def); ok {
			kind = scenario.KindIntFixed
		}
		field["values"] = []any{map[string]any{"type": string(kind), "value": def}}
	case PresetRandom, PresetFuzzing:
		values, ok := field["values"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s defines no values", ErrInvalidPreset, name)
		}
		applyGeneration(values, mode)
	default:
		return nil, fmt.Errorf("%w: unknown generation %q for %s", ErrInvalidPreset, mode, name)
	}
	return field, nil
}

// applyGeneration sets the generation of every node that does not pick one.
func applyGeneration(nodes []any, mode string) {
	for _, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if kind, _ := node["type"].(string); scenario.IsComposite(scenario.Kind(kind)) {
			if children, ok := node["values"].([]any); ok {
				applyGeneration(children, mode)
			}
		}
		if _, ok := node["generation"]; !ok {
			node["generation"] = mode
		}
	}
}
