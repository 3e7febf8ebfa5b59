package color

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/robmorgan/glow/engine/scale"
)

// Separator splits the components of the "h,s,v" wire form.
const Separator = ","

// FormatError is returned when a text cannot be parsed as "h,s,v".
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid hsv color %q: %s", e.Input, e.Reason)
}

// maxField bounds parsed fields before they are converted to int.
const maxField = 1e6

// Parse reads a "hue,saturation,value" string. Decimal fields are rounded to
// the nearest integer and the result is normalized. Fields after the third are
// ignored.
func Parse(text string) (HSV, error) {
	fields := strings.Split(text, Separator)
	if len(fields) < len(Components) {
		return HSV{}, &FormatError{Input: text, Reason: fmt.Sprintf("expected %d fields, got %d", len(Components), len(fields))}
	}

	var c HSV
	for i, comp := range Components {
		f, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return HSV{}, &FormatError{Input: text, Reason: fmt.Sprintf("%s is not a number", comp)}
		}
		// keeps the int conversion defined, far beyond any hue or percentage
		f = scale.Clamp(f, -maxField, maxField)
		c.Set(comp, int(math.Round(f)))
	}
	return c, nil
}

// String returns the "h,s,v" wire form.
func (c HSV) String() string {
	return fmt.Sprintf("%d,%d,%d", c.H, c.S, c.V)
}
