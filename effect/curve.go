// Package effect maps linear duty cycles onto perceptual brightness curves.
package effect

import (
	"fmt"
	"math"
	"sort"

	"github.com/fogleman/ease"

	"github.com/robmorgan/glow/engine/scale"
)

// DefaultCurve keeps duty cycles proportional to the level.
const DefaultCurve = "linear"

var curves = map[string]ease.Function{
	"linear":      ease.Linear,
	"in_quad":     ease.InQuad,
	"in_cubic":    ease.InCubic,
	"in_quart":    ease.InQuart,
	"in_sine":     ease.InSine,
	"in_expo":     ease.InExpo,
	"in_out_sine": ease.InOutSine,
}

// Curve reshapes a duty cycle in [0,max] using an easing function.
type Curve struct {
	Name string
	fn   ease.Function
}

// NewCurve looks up a curve by name. An empty name selects DefaultCurve.
func NewCurve(name string) (Curve, error) {
	if name == "" {
		name = DefaultCurve
	}
	fn, ok := curves[name]
	if !ok {
		return Curve{}, fmt.Errorf("unknown curve %q, expected one of %v", name, CurveNames())
	}
	return Curve{Name: name, fn: fn}, nil
}

// CurveNames returns the names accepted by NewCurve.
func CurveNames() []string {
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply reshapes duty, keeping both ends of the range [0,maxDuty] fixed.
func (c Curve) Apply(duty, maxDuty int) int {
	if c.fn == nil || maxDuty <= 0 || c.Name == DefaultCurve {
		return duty
	}
	unit := scale.ToUnitClamp(0, float64(maxDuty))(float64(duty))
	return scale.Clamp(int(math.Round(c.fn(unit)*float64(maxDuty))), 0, maxDuty)
}
