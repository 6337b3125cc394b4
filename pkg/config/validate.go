package config

import (
	"fmt"
	"regexp/syntax"
	"slices"

	"github.com/aretw0/vemulator/pkg/scenario"
)

var generationModes = []string{"default", "random", "fuzzing"}

var gradientTypes = []string{"linear", "square", "cube"}

// Validate checks a decoded device file and reports every problem found.
func Validate(raw map[string]any) error {
	c := &checker{kinds: scenario.DefaultRegistry().Names()}
	c.file(raw)
	if len(c.errs) > 0 {
		return &AggregateError{Errors: c.errs}
	}
	return nil
}

type checker struct {
	kinds []string
	errs  []error
}

func (c *checker) fail(key, reason string, value any) {
	c.errs = append(c.errs, &Error{Key: key, Reason: reason, Value: value})
}

func (c *checker) file(raw map[string]any) {
	for _, k := range []string{"device", "name"} {
		if _, ok := raw[k].(string); !ok {
			c.fail(k, "is required", raw[k])
		}
	}
	protocol, ok := raw["protocol"].(string)
	if !ok {
		c.fail("protocol", "is required", raw["protocol"])
		return
	}
	if !slices.Contains([]string{"text", "hex", "text_hex"}, protocol) {
		c.fail("protocol", "must be one of text, hex, text_hex", protocol)
		return
	}
	hasText := protocol == "text" || protocol == "text_hex"
	hasHex := protocol == "hex" || protocol == "text_hex"

	if _, ok := raw["preset"]; ok {
		if _, ok := raw["preset"].(string); !ok {
			c.fail("preset", "must be the name of a preset directory", raw["preset"])
		}
		if raw["preset_fields"] == nil && raw["preset_hex_fields"] == nil {
			c.fail("preset_fields", "a preset needs preset_fields or preset_hex_fields", nil)
		}
		c.presetEntries(raw, "preset_fields")
		c.presetEntries(raw, "preset_hex_fields")
	}

	if hasHex {
		c.uint16(raw, "version", true)
		c.uint16(raw, "product_id", true)
	}
	if hasText {
		if raw["fields"] == nil && raw["preset_fields"] == nil {
			c.fail("fields", "is required for the text protocol", nil)
		}
		c.fields(raw, "fields", false)
	}
	if hasHex {
		if raw["hex_fields"] == nil && raw["preset_hex_fields"] == nil {
			c.fail("hex_fields", "is required for the hex protocol", nil)
		}
		c.fields(raw, "hex_fields", true)
	}
}

func (c *checker) failPreset(key, reason string, value any) {
	c.errs = append(c.errs, &Error{Key: key, Reason: reason, Value: value, Err: ErrInvalidPreset})
}

func (c *checker) uint16(raw map[string]any, key string, required bool) {
	v, present := raw[key]
	if !present {
		if required {
			c.fail(key, "is required for the hex protocol", nil)
		}
		return
	}
	n, ok := asInt(v)
	if !ok || n < 0 || n > 0xFFFF {
		c.fail(key, "must be an integer between 0x0000 and 0xFFFF", v)
	}
}

func (c *checker) presetEntries(raw map[string]any, key string) {
	v, present := raw[key]
	if !present {
		return
	}
	list, ok := v.([]any)
	if !ok {
		c.fail(key, "must be a list", v)
		return
	}
	for i, e := range list {
		path := fmt.Sprintf("%s[%d]", key, i)
		entry, ok := e.(map[string]any)
		if !ok {
			c.failPreset(path, "must be a mapping of field name to generation", e)
			continue
		}
		name, mode, err := presetEntry(entry)
		if err != nil {
			c.failPreset(path, err.Error(), entry)
			continue
		}
		if !slices.Contains(generationModes, mode) {
			c.failPreset(path+"."+name, "must be one of default, random, fuzzing", mode)
		}
		if o, ok := entry["override"]; ok {
			if _, ok := o.(map[string]any); !ok {
				c.failPreset(path+".override", "must be a mapping", o)
			}
		}
	}
}

// fields checks a field list. Fields resolved from presets are checked with
// the same rules once loaded.
func (c *checker) fields(raw map[string]any, key string, hex bool) {
	v, present := raw[key]
	if !present {
		return
	}
	list, ok := v.([]any)
	if !ok {
		c.fail(key, "must be a list", v)
		return
	}
	for i, f := range list {
		path := fmt.Sprintf("%s[%d]", key, i)
		field, ok := f.(map[string]any)
		if !ok {
			c.fail(path, "must be a mapping", f)
			continue
		}
		c.field(path, field, hex)
	}
}

func (c *checker) field(path string, field map[string]any, hex bool) {
	if _, ok := field["name"]; !ok {
		c.fail(path+".name", "is required", nil)
	}
	key, ok := field["key"]
	switch {
	case !ok:
		c.fail(path+".key", "is required", nil)
	case hex:
		if n, ok := asInt(key); !ok || n < 0 || n > 0xFFFF {
			c.fail(path+".key", "must be an integer between 0x0000 and 0xFFFF", key)
		}
	}
	for _, k := range []string{"interval", "async_interval"} {
		if v, ok := field[k]; ok {
			if f, ok := asFloat(v); !ok || f <= 0 {
				c.fail(path+"."+k, "must be a positive number of seconds", v)
			}
		}
	}
	for _, k := range []string{"writable", "async_change"} {
		if v, ok := field[k]; ok {
			if _, ok := v.(bool); !ok {
				c.fail(path+"."+k, "must be a boolean", v)
			}
		}
	}
	c.values(path+".values", field["values"], true)
}

func (c *checker) values(path string, v any, required bool) {
	if v == nil {
		if required {
			c.fail(path, "is required", nil)
		}
		return
	}
	list, ok := v.([]any)
	if !ok {
		c.fail(path, "must be a list", v)
		return
	}
	for i, n := range list {
		p := fmt.Sprintf("%s[%d]", path, i)
		node, ok := n.(map[string]any)
		if !ok {
			c.fail(p, "must be a mapping", n)
			continue
		}
		c.value(p, node)
	}
}

func (c *checker) value(path string, v map[string]any) {
	kind, ok := v["type"].(string)
	if !ok {
		c.fail(path+".type", "is required", v["type"])
		return
	}
	if !slices.Contains(c.kinds, kind) {
		c.fail(path+".type", "is not a known scenario type", kind)
		return
	}
	if s, ok := v["seed"]; ok {
		if _, ok := asInt(s); !ok {
			c.fail(path+".seed", "must be an integer", s)
		}
	}
	if g, ok := v["generation"]; ok && g != "random" && g != "fuzzing" {
		c.fail(path+".generation", "must be random or fuzzing", g)
	}
	if b, ok := v["bits"]; ok {
		if n, ok := asInt(b); !ok || n <= 0 {
			c.fail(path+".bits", "must be an integer > 0", b)
		}
	}

	switch scenario.Kind(kind) {
	case scenario.KindArithmetic:
		if _, ok := v["value"].(string); !ok {
			c.fail(path+".value", "must be an expression", v["value"])
		}
	case scenario.KindBitBuffer:
		c.bitBuffer(path, v)
	case scenario.KindGradient:
		if g, ok := v["gradient_type"]; ok {
			if _, ok := g.(string); !ok {
				c.fail(path+".gradient_type", "must be linear, square, cube or a formula of x", g)
			}
		}
		c.ints(path, v, "min", "max")
	case scenario.KindIntBoundary, scenario.KindIntRandom, scenario.KindIntRange:
		c.ints(path, v, "min", "max", "amount")
	case scenario.KindIntFixed:
		if _, ok := asInt(v["value"]); !ok {
			c.fail(path+".value", "must be an integer", v["value"])
		}
	case scenario.KindIntChoice:
		choices, ok := v["choices"].([]any)
		valid := ok && len(choices) > 0
		for _, ch := range choices {
			if _, ok := asInt(ch); !ok {
				valid = false
			}
		}
		if !valid {
			c.fail(path+".choices", "must be a list of integers", v["choices"])
		}
	case scenario.KindLoop:
		if a, ok := v["amount"]; ok {
			if n, ok := asInt(a); !ok || (n != -1 && n <= 0) {
				c.fail(path+".amount", "must be -1 or greater than 0", a)
			}
		}
		c.values(path+".values", v["values"], true)
	case scenario.KindSelectRandom:
		c.values(path+".values", v["values"], true)
	case scenario.KindRegex:
		p, ok := v["value"].(string)
		if !ok {
			c.fail(path+".value", "must be a regular expression", v["value"])
		} else if _, err := syntax.Parse(p, syntax.Perl); err != nil {
			c.fail(path+".value", "is not a valid regular expression", p)
		}
	case scenario.KindMapping:
		if d, ok := v["dict"].(map[string]any); !ok || len(d) == 0 {
			c.fail(path+".dict", "must be a non-empty mapping", v["dict"])
		}
	case scenario.KindStringFixed:
		if _, ok := v["value"]; !ok {
			c.fail(path+".value", "is required", nil)
		}
	case scenario.KindStringChoice:
		if ch, ok := v["choices"].([]any); !ok || len(ch) == 0 {
			c.fail(path+".choices", "must be a list", v["choices"])
		}
	case scenario.KindStringBoundary, scenario.KindStringRandom, scenario.KindStringUnicode:
		c.ints(path, v, "min_length", "max_length", "length", "amount")
		if a, ok := v["allowed_chars"]; ok {
			c.allowedChars(path+".allowed_chars", a)
		}
	}
}

func (c *checker) bitBuffer(path string, v map[string]any) {
	children, ok := v["values"].([]any)
	if !ok || len(children) == 0 {
		c.fail(path+".values", "must be a non-empty list", v["values"])
		return
	}
	total := 0
	for i, ch := range children {
		p := fmt.Sprintf("%s.values[%d]", path, i)
		node, ok := ch.(map[string]any)
		if !ok {
			c.fail(p, "must be a mapping", ch)
			continue
		}
		n, ok := asInt(node["bits"])
		if !ok || n <= 0 {
			c.fail(p+".bits", "must be an integer > 0 inside a BitBuffer", node["bits"])
			continue
		}
		total += int(n)
	}
	if total%8 != 0 {
		c.fail(path+".values", "total bit size must be a multiple of 8", total)
	}
	c.values(path+".values", children, true)
}

func (c *checker) ints(path string, v map[string]any, keys ...string) {
	for _, k := range keys {
		if x, ok := v[k]; ok {
			if _, ok := asInt(x); !ok {
				c.fail(path+"."+k, "must be an integer", x)
			}
		}
	}
}

func (c *checker) allowedChars(path string, v any) {
	list, ok := v.([]any)
	if !ok {
		c.fail(path, "must be a list of strings and two character ranges", v)
		return
	}
	for _, e := range list {
		switch t := e.(type) {
		case string:
		case []any:
			if len(t) != 2 {
				c.fail(path, "ranges must have exactly two bounds", t)
			}
		default:
			c.fail(path, "must be a list of strings and two character ranges", e)
		}
	}
}

func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint64:
		return int64(t), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	if n, ok := asInt(v); ok {
		return float64(n), true
	}
	f, ok := v.(float64)
	return f, ok
}

// validateField checks a single resolved field definition.
func validateField(path string, field map[string]any, hex bool) []error {
	c := &checker{kinds: scenario.DefaultRegistry().Names()}
	c.field(path, field, hex)
	return c.errs
}
