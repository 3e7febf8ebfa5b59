// Package color holds the HSV color value driven by the transition engine.
//
// Hue is an angle in [0,360), saturation and value are percentages in [0,100].
// All three components are integers, which keeps the "h,s,v" wire form lossless.
package color

import (
	"fmt"

	"github.com/robmorgan/glow/engine/scale"
)

// Component names one of the three HSV components.
type Component int

const (
	Hue Component = iota
	Saturation
	Value
)

// Components lists the HSV components in wire order.
var Components = []Component{Hue, Saturation, Value}

func (c Component) String() string {
	switch c {
	case Hue:
		return "hue"
	case Saturation:
		return "saturation"
	case Value:
		return "value"
	}
	return fmt.Sprintf("component(%d)", int(c))
}

// HSV is a color value. It is a plain value type, so assigning it copies it.
type HSV struct {
	H int
	S int
	V int

	// White is set when the fixture drives a dedicated white channel.
	White bool
}

// New returns a normalized color.
func New(h, s, v int, white bool) HSV {
	c := HSV{White: white}
	c.Set(Hue, h)
	c.Set(Saturation, s)
	c.Set(Value, v)
	return c
}

// Get returns one component.
func (c HSV) Get(comp Component) int {
	switch comp {
	case Hue:
		return c.H
	case Saturation:
		return c.S
	case Value:
		return c.V
	}
	return 0
}

// Set writes one component. Hue wraps modulo 360, saturation and value are
// clamped into [0,100].
func (c *HSV) Set(comp Component, val int) {
	switch comp {
	case Hue:
		c.H = scale.NormalizeAngle(val)
	case Saturation:
		c.S = scale.Clamp(val, 0, scale.MaxPercent)
	case Value:
		c.V = scale.Clamp(val, 0, scale.MaxPercent)
	}
}

// With returns a copy of c with one component replaced.
func (c HSV) With(comp Component, val int) HSV {
	c.Set(comp, val)
	return c
}

// Equal reports whether both colors have the same hue, saturation and value.
func (c HSV) Equal(other HSV) bool {
	return c.H == other.H && c.S == other.S && c.V == other.V
}

// IsOff reports whether the color has no brightness.
func (c HSV) IsOff() bool {
	return c.V == 0
}
