package utils

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultDebounceTime is used when no debounce time is configured.
const DefaultDebounceTime = 150 * time.Millisecond

// Debounce filters events that arrive too close to the previous one.
type Debounce struct {
	window time.Duration
	clock  clock.PassiveClock

	lock sync.Mutex
	last time.Time
}

// NewDebounce returns a Debounce with the given window. A non-positive window
// uses DefaultDebounceTime.
func NewDebounce(window time.Duration, clk clock.PassiveClock) *Debounce {
	if window <= 0 {
		window = DefaultDebounceTime
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Debounce{window: window, clock: clk}
}

// IsWithinDebounceTime records an event and reports whether it came within the
// window of the previously accepted one. Filtered events do not extend the window.
func (d *Debounce) IsWithinDebounceTime() bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	now := d.clock.Now()
	if !d.last.IsZero() && now.Sub(d.last) < d.window {
		return true
	}
	d.last = now
	return false
}
