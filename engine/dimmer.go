// Package engine drives a color smoothly towards a target in small steps.
//
// A Dimmer owns the live color of one fixture. Every change runs as a
// background activity that steps the live color once per tick and hands the
// result to an ApplyFunc, which writes it to the hardware. At most one activity
// runs at a time; starting a new one cancels the previous one and waits for it
// to return first, so writes of two activities never interleave.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	commonerrors "github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/robmorgan/glow/color"
	"github.com/robmorgan/glow/engine/scale"
	"github.com/robmorgan/glow/logger"
)

const (
	// StepSize is the per tick change of saturation and value (percent) and of hue (degrees).
	StepSize = 5

	// SliceInterval is the granularity at which the start delay checks for cancellation.
	SliceInterval = 100 * time.Millisecond

	DefaultSmoothChangeInterval = 50 * time.Millisecond
	DefaultDimDelay             = 500 * time.Millisecond
	DefaultDimInterval          = 200 * time.Millisecond
	DefaultStopTimeout          = 200 * time.Millisecond
)

// ErrStillBusy is returned by StopDimming when the dim activity did not return
// within the stop timeout. The activity keeps running until it notices the
// cancellation; StopDimming may be called again to collect the result.
var ErrStillBusy = errors.New("dimmer activity still running")

// ApplyFunc writes a color to the hardware. It is called after every step.
type ApplyFunc func(c color.HSV)

// State is the activity the Dimmer is currently busy with.
type State int

const (
	Idle State = iota
	SmoothTransitioning
	ManualDimming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SmoothTransitioning:
		return "smooth_transitioning"
	case ManualDimming:
		return "manual_dimming"
	}
	return "unknown"
}

// Config holds the timing of a Dimmer. Negative durations count as zero, a zero
// DimInterval or StopTimeout is replaced by its default.
type Config struct {
	// SmoothChangeInterval is the time between two steps of a smooth change.
	// Zero applies every change at once, synchronously.
	SmoothChangeInterval time.Duration

	// DimDelay is the time after a DIM command before dimming starts.
	DimDelay time.Duration

	// DimInterval is the time between two steps while dimming.
	DimInterval time.Duration

	// StopTimeout bounds how long StopDimming waits for the dim activity.
	StopTimeout time.Duration

	Clock  clock.Clock
	Logger *logrus.Entry
}

type activity struct {
	id     string
	kind   State
	cancel context.CancelFunc
	done   chan struct{}
}

// Dimmer is the transition engine of a single fixture.
type Dimmer struct {
	cfg   Config
	apply ApplyFunc
	clock clock.Clock
	log   *logrus.Entry

	// startLock serializes starting activities, which includes waiting for the
	// previous one. It is never taken by an activity.
	startLock sync.Mutex

	lock       sync.Mutex
	current    color.HSV
	state      State
	active     *activity
	before     color.HSV
	dimPending bool
}

// New creates a Dimmer whose live color starts at initial.
func New(cfg Config, initial color.HSV, apply ApplyFunc) *Dimmer {
	if cfg.SmoothChangeInterval < 0 {
		cfg.SmoothChangeInterval = 0
	}
	if cfg.DimDelay < 0 {
		cfg.DimDelay = 0
	}
	if cfg.DimInterval <= 0 {
		cfg.DimInterval = DefaultDimInterval
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logger.GetProjectLogger())
	}

	return &Dimmer{
		cfg:     cfg,
		apply:   apply,
		clock:   cfg.Clock,
		log:     cfg.Logger,
		current: initial,
	}
}

// Current returns a snapshot of the live color.
func (d *Dimmer) Current() color.HSV {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.current
}

// State returns what the Dimmer is busy with.
func (d *Dimmer) State() State {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.state
}

// ApplyValueChange moves the live color to target. With a smooth change
// interval configured it starts a background activity and returns immediately,
// otherwise the color is applied before returning.
func (d *Dimmer) ApplyValueChange(target color.HSV) {
	if d.cfg.SmoothChangeInterval > 0 {
		d.start(SmoothTransitioning, 0, d.cfg.SmoothChangeInterval, target)
		return
	}

	d.startLock.Lock()
	defer d.startLock.Unlock()
	d.cancelActive()

	d.lock.Lock()
	d.current = target
	d.dimPending = false
	d.lock.Unlock()

	d.safeApply(target)
}

// StartDimming starts manual dimming after the configured delay. Dimming
// heads to 0 if the color is lit and to 100 otherwise. It does nothing while a
// smooth change is running or while already dimming.
func (d *Dimmer) StartDimming() {
	d.startLock.Lock()
	defer d.startLock.Unlock()

	d.lock.Lock()
	state := d.state
	d.lock.Unlock()
	switch state {
	case SmoothTransitioning:
		d.log.Debug("smooth change in progress, ignoring dim request")
		return
	case ManualDimming:
		d.log.Debug("already dimming, ignoring dim request")
		return
	}
	d.cancelActive()

	// current only changes under startLock or in an activity, none runs now
	target := d.Current()
	if target.V > 0 {
		target.Set(color.Value, 0)
	} else {
		target.Set(color.Value, scale.MaxPercent)
	}

	d.launch(ManualDimming, d.cfg.DimDelay, d.cfg.DimInterval, target)
}

// StopDimming ends manual dimming and reports whether the live color differs
// from the color at the time dimming was requested. It returns false without
// side effects when no dimming was requested or a smooth change is running.
// The wait for the dim activity is bounded by the stop timeout, after which
// ErrStillBusy is returned.
func (d *Dimmer) StopDimming() (bool, error) {
	d.lock.Lock()
	if d.state == SmoothTransitioning || !d.dimPending {
		d.lock.Unlock()
		return false, nil
	}
	a := d.active
	d.lock.Unlock()

	if a != nil && a.kind == ManualDimming {
		a.cancel()

		timer := d.clock.NewTimer(d.cfg.StopTimeout)
		defer timer.Stop()
		select {
		case <-a.done:
		case <-timer.C():
			d.log.WithField("activity", a.id).Debug("dimmer activity still running, state not published")
			return false, ErrStillBusy
		}
	}

	d.lock.Lock()
	defer d.lock.Unlock()
	d.dimPending = false
	return !d.before.Equal(d.current), nil
}

// Close cancels the running activity and waits for it to return.
func (d *Dimmer) Close() {
	d.startLock.Lock()
	defer d.startLock.Unlock()
	d.cancelActive()
}

// cancelActive cancels the running activity, if any, and waits for it without
// a bound. Callers must hold startLock.
func (d *Dimmer) cancelActive() {
	d.lock.Lock()
	prev := d.active
	d.lock.Unlock()

	if prev == nil {
		return
	}
	prev.cancel()
	<-prev.done
}

func (d *Dimmer) start(kind State, delay, interval time.Duration, target color.HSV) {
	d.startLock.Lock()
	defer d.startLock.Unlock()
	d.cancelActive()
	d.launch(kind, delay, interval, target)
}

// launch starts an activity towards target. Callers must hold startLock and
// have cancelled the previous activity. A manual dim snapshots the color it
// started from and becomes pending together with becoming active, so
// StopDimming never sees one without the other.
func (d *Dimmer) launch(kind State, delay, interval time.Duration, target color.HSV) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &activity{
		id:     uuid.NewString(),
		kind:   kind,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	d.lock.Lock()
	d.active = a
	d.state = kind
	if kind == ManualDimming {
		d.before = d.current
		d.dimPending = true
	} else {
		d.dimPending = false
	}
	d.lock.Unlock()

	d.log.WithFields(logrus.Fields{
		"activity": a.id,
		"state":    kind,
		"target":   target.String(),
	}).Debug("starting dimmer activity")

	go d.run(ctx, a, delay, interval, target)
}

func (d *Dimmer) run(ctx context.Context, a *activity, delay, interval time.Duration, target color.HSV) {
	defer close(a.done)
	defer a.cancel()
	defer d.finish(a)
	defer commonerrors.Recover(func(cause error) {
		d.log.WithField("activity", a.id).Errorf("dimmer activity aborted: %s", commonerrors.PrintErrorWithStackTrace(cause))
	})

	// Dimming starts late so a short press still gets through as a toggle.
	for waited := time.Duration(0); waited < delay; waited += SliceInterval {
		if !d.sleep(ctx, SliceInterval) {
			return
		}
	}

	for {
		d.lock.Lock()
		reached := d.current.Equal(target)
		d.lock.Unlock()
		if reached || ctx.Err() != nil {
			return
		}

		if !d.sleep(ctx, interval) {
			return
		}

		d.lock.Lock()
		next := Step(d.current, target)
		d.current = next
		d.lock.Unlock()

		d.apply(next)

		// dim back up once the light is out, until STOP arrives
		if a.kind == ManualDimming && next.V == 0 && target.V == 0 {
			target.Set(color.Value, scale.MaxPercent)
		}
	}
}

func (d *Dimmer) finish(a *activity) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.active == a {
		d.active = nil
		d.state = Idle
	}
}

// sleep waits for dur and reports false if ctx was cancelled first.
func (d *Dimmer) sleep(ctx context.Context, dur time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-d.clock.After(dur):
		return ctx.Err() == nil
	}
}

func (d *Dimmer) safeApply(c color.HSV) {
	defer commonerrors.Recover(func(cause error) {
		d.log.Errorf("applying color %s failed: %s", c, commonerrors.PrintErrorWithStackTrace(cause))
	})
	d.apply(c)
}

// Step advances every component of current by one tick towards target. Hue
// takes the shorter way round the circle, saturation and value snap to the
// target once they are closer than one step.
func Step(current, target color.HSV) color.HSV {
	next := current
	for _, comp := range color.Components {
		cur, want := current.Get(comp), target.Get(comp)
		if comp == color.Hue {
			next.Set(comp, scale.RadialStep(cur, want, StepSize))
			continue
		}

		switch diff := want - cur; {
		case diff > -StepSize && diff < StepSize:
			next.Set(comp, want)
		case diff > 0:
			next.Set(comp, cur+StepSize)
		default:
			next.Set(comp, cur-StepSize)
		}
	}
	return next
}
