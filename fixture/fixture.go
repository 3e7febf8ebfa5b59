package fixture

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/robmorgan/glow/color"
	"github.com/robmorgan/glow/connection"
	"github.com/robmorgan/glow/effect"
	"github.com/robmorgan/glow/engine"
	"github.com/robmorgan/glow/engine/scale"
	"github.com/robmorgan/glow/logger"
	"github.com/robmorgan/glow/profile"
	"github.com/robmorgan/glow/utils"
)

// Commands understood by a ColorLED besides colors, brightness and toggles.
const (
	CommandOn   = "ON"
	CommandOff  = "OFF"
	CommandDim  = "DIM"
	CommandStop = "STOP"

	// notANumber is sent by some home automation servers for undefined colors.
	notANumber = "NaN"
)

// Interface represents the set of methods required for a complete lighting fixture.
type Interface interface {
	Name() string

	// OnMessage handles a command sent to the fixture.
	OnMessage(msg string)

	// Stop is called when the fixture should halt any in-flight actions.
	Stop() error
}

// Config describes a ColorLED.
type Config struct {
	Name string

	// Topic receives commands, StateTopic gets the state published.
	Topic      string
	StateTopic string

	Profile profile.Profile

	// InitialState holds the channel levels at start, in percent.
	InitialState color.Levels

	// InvertOut drives the channels inverted, for common anode LEDs.
	InvertOut bool

	Curve effect.Curve

	SmoothChangeInterval time.Duration
	DimDelay             time.Duration
	DimInterval          time.Duration
	Debounce             time.Duration

	Clock clock.Clock
}

// ColorLED is a LED fixture with one (dimmer), three (RGB) or four (RGBW)
// channels. It turns text commands into color changes and publishes its state.
type ColorLED struct {
	name   string
	cfg    Config
	output Output
	conns  []connection.Connection
	log    *logrus.Entry

	channels map[color.Channel]*Channel
	white    bool
	dimmer   bool

	engine   *engine.Dimmer
	debounce *utils.Debounce

	// lock serializes command handling.
	lock sync.Mutex
	// current is the committed state: the target of the last command, or the
	// dimmed color once dimming stopped.
	current color.HSV
	// last is the color restored by a toggle.
	last color.HSV

	outputLock sync.Mutex
}

// NewColorLED patches a fixture onto output and writes its initial state.
func NewColorLED(cfg Config, output Output, conns []connection.Connection) (*ColorLED, error) {
	if err := cfg.Profile.Validate(output.Channels()); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", cfg.Name, err)
	}
	if cfg.StateTopic == "" {
		cfg.StateTopic = cfg.Topic + "/state"
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.Curve.Name == "" {
		curve, err := effect.NewCurve(effect.DefaultCurve)
		if err != nil {
			return nil, err
		}
		cfg.Curve = curve
	}

	f := &ColorLED{
		name:     cfg.Name,
		cfg:      cfg,
		output:   output,
		conns:    conns,
		log:      logger.GetProjectLogger().WithField("fixture", cfg.Name),
		channels: make(map[color.Channel]*Channel),
		white:    cfg.Profile.HasWhite(),
		dimmer:   cfg.Profile.IsDimmer(),
		debounce: utils.NewDebounce(cfg.Debounce, cfg.Clock),
	}
	for ch, addr := range cfg.Profile.Channels {
		f.channels[ch] = &Channel{Type: ch, Address: addr}
	}

	f.current = color.FromLevels(cfg.InitialState, f.white)
	if f.dimmer {
		// a dimmer only has brightness, whatever its channel is called
		f.current = color.New(0, 0, cfg.InitialState[f.dimmerChannel().Type], f.white)
	}
	// toggling on from the initial state restores its color at full brightness
	f.last = f.current.With(color.Value, scale.MaxPercent)

	f.engine = engine.New(engine.Config{
		SmoothChangeInterval: cfg.SmoothChangeInterval,
		DimDelay:             cfg.DimDelay,
		DimInterval:          cfg.DimInterval,
		Clock:                cfg.Clock,
		Logger:               f.log,
	}, f.current, f.setPWM)

	f.setPWM(f.current)

	f.log.Infof("configured on output %s, channels: %s", output.Name(), f.describeChannels())
	return f, nil
}

// Name returns the fixture name.
func (f *ColorLED) Name() string { return f.name }

// Start subscribes to the command topic on every connection and publishes
// the initial state.
func (f *ColorLED) Start() error {
	for _, conn := range f.conns {
		if err := conn.Register(f.cfg.Topic, f.OnMessage); err != nil {
			return fmt.Errorf("fixture %s: %w", f.name, err)
		}
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.publishState()
	return nil
}

// State returns the committed state of the fixture.
func (f *ColorLED) State() color.HSV {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.current
}

// Live returns the color currently written to the output.
func (f *ColorLED) Live() color.HSV {
	return f.engine.Current()
}

// OnMessage handles one command. Colors are "h,s,v", a bare number sets the
// brightness, and ON, OFF, DIM, STOP and toggles are understood. Anything else
// is logged and ignored.
func (f *ColorLED) OnMessage(msg string) {
	f.lock.Lock()
	defer f.lock.Unlock()

	base := f.base()
	next := base

	switch {
	case strings.Contains(msg, color.Separator) && !strings.Contains(msg, notANumber):
		parsed, err := color.Parse(msg)
		if err != nil {
			f.log.Warnf("received malformed color %q: %v", msg, err)
			return
		}
		parsed.White = f.white
		next = parsed
	case isDigits(msg):
		brightness, err := strconv.Atoi(msg)
		if err != nil {
			f.log.Warnf("received brightness out of range %q", msg)
			return
		}
		next.Set(color.Value, brightness)
	case msg == CommandOn:
		next.Set(color.Value, scale.MaxPercent)
	case msg == CommandOff:
		next.Set(color.Value, 0)
	case msg == CommandDim:
		f.engine.StartDimming()
		return
	case msg == CommandStop:
		f.stopDimming()
		return
	case utils.IsToggleCommand(msg):
		if f.debounce.IsWithinDebounceTime() {
			f.log.Infof("received toggle command %s within debounce time, ignoring command", msg)
			return
		}
		if base.V > 0 {
			f.last = base
			next.Set(color.Value, 0)
		} else {
			next = f.last
		}
	default:
		f.log.Warnf("received unrecognized command %q", msg)
		return
	}

	if base.Equal(next) {
		f.log.Infof("received %s which is equal to current state, ignoring command", next)
		return
	}

	f.log.WithField("levels", next.Levels()).Infof("received %s, setting color to %s", msg, next)
	f.engine.ApplyValueChange(next)
	f.current = next
	f.publishState()
}

// Stop halts any running transition, leaving the output as it is.
func (f *ColorLED) Stop() error {
	f.engine.Close()
	return nil
}

func (f *ColorLED) stopDimming() {
	changed, err := f.engine.StopDimming()
	if err != nil {
		f.log.Debugf("dimmer still busy, state not published: %v", err)
		return
	}
	if !changed {
		return
	}
	f.current = f.engine.Current()
	f.log.WithField("levels", f.current.Levels()).Infof("dimmed to %s", f.current)
	f.publishState()
}

// base is the color commands are applied to. During a smooth change that is
// the committed target; otherwise the live color, which differs from the
// committed one while dimming.
func (f *ColorLED) base() color.HSV {
	if f.engine.State() == engine.SmoothTransitioning {
		return f.current
	}
	return f.engine.Current()
}

// publishState sends the committed state: the brightness for dimmers, "h,s,v"
// otherwise. Callers must hold lock.
func (f *ColorLED) publishState() {
	msg := f.current.String()
	if f.dimmer {
		msg = strconv.Itoa(f.current.V)
	}
	for _, conn := range f.conns {
		conn.Publish(msg, f.cfg.StateTopic)
	}
}

// setPWM writes c to the output. It is the engine's apply callback and never
// fails; write errors are logged.
func (f *ColorLED) setPWM(c color.HSV) {
	f.outputLock.Lock()
	defer f.outputLock.Unlock()

	levels := c.Levels()
	for _, ch := range f.sortedChannels() {
		level := levels[ch.Type]
		if f.dimmer {
			level = c.V
		}
		duty := ch.toDuty(level, f.output.MaxDuty(), f.cfg.InvertOut, f.cfg.Curve)
		if err := f.output.SetDuty(ch.Address, duty); err != nil {
			f.log.WithField("channel", ch.Type).Errorf("writing duty cycle %d failed: %v", duty, err)
			continue
		}
		ch.Level = level
	}
}

func (f *ColorLED) dimmerChannel() *Channel {
	for _, ch := range f.channels {
		return ch
	}
	return nil
}

func (f *ColorLED) sortedChannels() []*Channel {
	out := make([]*Channel, 0, len(f.channels))
	for _, ch := range f.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (f *ColorLED) describeChannels() string {
	parts := make([]string, 0, len(f.channels))
	for _, ch := range f.sortedChannels() {
		parts = append(parts, fmt.Sprintf("%s=%d", ch.Type, ch.Address))
	}
	return strings.Join(parts, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
