package scenario

import (
	"slices"

	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/aretw0/vemulator/pkg/wire/hex"
)

// composite is the shared part of the kinds that own child scenarios.
type composite struct {
	Base
	children []Scenario
	initial  []Scenario
	// last is the child that produced the current value.
	last Scenario
}

func newComposite(b Base, children []Scenario) (composite, error) {
	if len(children) == 0 {
		return composite{}, errInvalidProp("values", nil, "must list at least one scenario")
	}
	return composite{Base: b, children: slices.Clone(children), initial: slices.Clone(children)}, nil
}

// Children returns the scenarios still owned by the composite.
func (c *composite) Children() []Scenario { return c.children }

// ApplyFieldProps implements Scenario and propagates to all children.
func (c *composite) ApplyFieldProps(fp FieldProps) {
	c.Base.ApplyFieldProps(fp)
	for _, ch := range c.initial {
		ch.ApplyFieldProps(fp)
	}
}

// Children already fuzz on their own.
func (c *composite) fuzz(_ Values, v domain.Value) domain.Value { return v }

func (c *composite) resetChildren() {
	c.children = slices.Clone(c.initial)
	for _, ch := range c.children {
		ch.Reset()
	}
	c.last = nil
}

// HexValue implements Scenario. Without an explicit width, the width of the
// child that produced the value is used.
func (c *composite) HexValue() (string, bool) {
	if c.bits <= 0 && c.last != nil && c.last.Bits() > 0 && !c.value.IsNone() {
		return hex.EncodeValue(c.value, c.last.Bits()), true
	}
	return c.Base.HexValue()
}

// Bits implements Scenario.
func (c *composite) Bits() int {
	if c.bits <= 0 && c.last != nil {
		return c.last.Bits()
	}
	return c.bits
}

// Signed implements Scenario, deferring to the child that produced the value.
func (c *composite) Signed() bool {
	if c.last != nil {
		return c.signed || c.last.Signed()
	}
	return c.signed
}
