package fixture

import (
	"github.com/robmorgan/glow/color"
	"github.com/robmorgan/glow/effect"
	"github.com/robmorgan/glow/engine/scale"
)

// Channel represents a channel on the fixture
type Channel struct {
	Type color.Channel

	// Address is the channel number on the output.
	Address int

	// Level is the last logical level written, in percent.
	Level int
}

// toDuty converts a logical level into the duty cycle written to the output.
// Inverted outputs (common anode LEDs) are driven with the complement.
func (c *Channel) toDuty(level, maxDuty int, invert bool, curve effect.Curve) int {
	duty := curve.Apply(scale.Duty(level, maxDuty), maxDuty)
	if invert {
		return maxDuty - duty
	}
	return duty
}
