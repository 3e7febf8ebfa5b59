package color

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/robmorgan/glow/engine/scale"
)

// Channel is the name of an output channel of a color LED.
type Channel string

const (
	Red   Channel = "red"
	Green Channel = "green"
	Blue  Channel = "blue"
	White Channel = "white"
)

// Channels lists every channel a fixture may drive.
var Channels = []Channel{Red, Green, Blue, White}

// Levels maps channel names to percentage levels in [0,100].
type Levels map[Channel]int

// Levels converts the color into per channel levels. When the white channel is
// in use the common part of red, green and blue is moved onto white, which makes
// white carry the brightness of unsaturated colors. Otherwise white is omitted.
func (c HSV) Levels() Levels {
	rgb := colorful.Hsv(float64(c.H), float64(c.S)/100, float64(c.V)/100)
	r, g, b := toPercent(rgb.R), toPercent(rgb.G), toPercent(rgb.B)

	if !c.White {
		return Levels{Red: r, Green: g, Blue: b}
	}
	w := min(r, g, b)
	return Levels{Red: r - w, Green: g - w, Blue: b - w, White: w}
}

// FromLevels builds a color from channel levels given in percent. A white
// level is folded back onto red, green and blue before the conversion.
func FromLevels(levels Levels, white bool) HSV {
	w := 0
	if white {
		w = levels[White]
	}
	rgb := colorful.Color{
		R: fromPercent(levels[Red] + w),
		G: fromPercent(levels[Green] + w),
		B: fromPercent(levels[Blue] + w),
	}
	h, s, v := rgb.Hsv()
	return New(int(math.Round(h)), int(math.Round(s*100)), int(math.Round(v*100)), white)
}

func toPercent(unit float64) int {
	return scale.Clamp(int(math.Round(unit*100)), 0, scale.MaxPercent)
}

func fromPercent(percent int) float64 {
	return float64(scale.Clamp(percent, 0, scale.MaxPercent)) / 100
}
