package fixture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/robmorgan/glow/color"
	"github.com/robmorgan/glow/connection"
	"github.com/robmorgan/glow/engine"
	"github.com/robmorgan/glow/profile"
)

var rgbw = profile.Profile{
	Name: "rgbw",
	Channels: map[color.Channel]int{
		color.Red:   0,
		color.Green: 1,
		color.Blue:  2,
		color.White: 3,
	},
}

var rgb = profile.Profile{
	Name: "rgb",
	Channels: map[color.Channel]int{
		color.Red:   4,
		color.Green: 5,
		color.Blue:  6,
	},
}

var dimmer = profile.Profile{
	Name:     "dimmer",
	Channels: map[color.Channel]int{color.White: 7},
}

type fixtureEnv struct {
	led   *ColorLED
	out   *LogOutput
	conn  *connection.Local
	clock *testingclock.FakeClock
}

func newTestLED(t *testing.T, cfg Config) *fixtureEnv {
	t.Helper()

	if cfg.Name == "" {
		cfg.Name = "test"
	}
	if cfg.Topic == "" {
		cfg.Topic = "light/test"
	}
	if cfg.Profile.Name == "" {
		cfg.Profile = rgbw
	}
	env := &fixtureEnv{
		out:   NewLogOutput("log"),
		conn:  connection.NewLocal("local"),
		clock: testingclock.NewFakeClock(time.Now()),
	}
	if cfg.Clock == nil {
		cfg.Clock = env.clock
	}

	led, err := NewColorLED(cfg, env.out, []connection.Connection{env.conn})
	require.NoError(t, err)
	require.NoError(t, led.Start())
	t.Cleanup(func() { _ = led.Stop() })
	env.led = led
	return env
}

func (e *fixtureEnv) state(t *testing.T) string {
	t.Helper()
	msg, ok := e.conn.Last(e.led.cfg.StateTopic)
	require.True(t, ok)
	return msg
}

func TestNewColorLEDRejectsInvalidProfile(t *testing.T) {
	t.Parallel()

	p := profile.Profile{Name: "wide", Channels: map[color.Channel]int{color.Red: 40}}
	_, err := NewColorLED(Config{Name: "bad", Topic: "t", Profile: p}, NewLogOutput("log"), nil)
	require.Error(t, err)
}

func TestInitialStateIsWrittenAndPublished(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{
		InitialState: color.Levels{color.Red: 100},
	})

	assert.Equal(t, "0,100,100", env.state(t))
	assert.Equal(t, "light/test/state", env.led.cfg.StateTopic)
	assert.Equal(t, 0xFFFF, env.out.Duty(0))
	assert.Equal(t, 0, env.out.Duty(1))
}

func TestColorCommand(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{})
	env.conn.Publish("120,100,100", "light/test")

	assert.Equal(t, color.New(120, 100, 100, true), env.led.State())
	assert.Equal(t, "120,100,100", env.state(t))
	assert.Equal(t, 0, env.out.Duty(0))
	assert.Equal(t, 0xFFFF, env.out.Duty(1))
}

func TestBrightnessOnAndOff(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{})
	env.led.OnMessage("0,0,100")
	require.Equal(t, 0xFFFF, env.out.Duty(3))

	env.led.OnMessage("50")
	assert.Equal(t, "0,0,50", env.state(t))
	assert.Equal(t, 32768, env.out.Duty(3))

	env.led.OnMessage("OFF")
	assert.Equal(t, "0,0,0", env.state(t))
	assert.Equal(t, 0, env.out.Duty(3))

	env.led.OnMessage("ON")
	assert.Equal(t, "0,0,100", env.state(t))
}

func TestBrightnessAboveMaximumIsClamped(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{})
	env.led.OnMessage("250")
	assert.Equal(t, 100, env.led.State().V)
}

func TestIdenticalCommandIsIgnored(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{})
	published := 0
	require.NoError(t, env.conn.Register("light/test/state", func(string) { published++ }))

	env.led.OnMessage("10,20,30")
	env.led.OnMessage("10,20,30")
	env.led.OnMessage("30")

	assert.Equal(t, 1, published)
}

func TestUndefinedAndMalformedColorsAreIgnored(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{})
	before := env.led.State()

	for _, msg := range []string{"NaN,NaN,NaN", "a,b,c", "1,2", "hello", "-5", ""} {
		env.led.OnMessage(msg)
	}

	assert.Equal(t, before, env.led.State())
	assert.Equal(t, before.String(), env.state(t))
}

func TestInvertedOutput(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{Profile: rgb, InvertOut: true})
	assert.Equal(t, 0xFFFF, env.out.Duty(4))

	env.led.OnMessage("0,100,100")
	assert.Equal(t, 0, env.out.Duty(4))
	assert.Equal(t, 0xFFFF, env.out.Duty(5))
}

func TestDimmerProfilePublishesBrightness(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{
		Profile:      dimmer,
		InitialState: color.Levels{color.White: 20},
	})
	assert.Equal(t, "20", env.state(t))

	env.led.OnMessage("75")
	assert.Equal(t, "75", env.state(t))
	assert.Equal(t, 49151, env.out.Duty(7))
}

func TestToggleRestoresLastColor(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{Debounce: 150 * time.Millisecond})
	env.led.OnMessage("200,50,80")

	env.led.OnMessage("TOGGLE")
	assert.Equal(t, 0, env.led.State().V)

	// within the debounce time
	env.clock.Step(100 * time.Millisecond)
	env.led.OnMessage("TOGGLE")
	assert.Equal(t, 0, env.led.State().V)

	env.clock.Step(100 * time.Millisecond)
	env.led.OnMessage("TOGGLE")
	assert.Equal(t, color.New(200, 50, 80, true), env.led.State())
}

func TestToggleFromInitialStateTurnsFullOn(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{InitialState: color.Levels{}})
	env.led.OnMessage("TOGGLE")
	assert.Equal(t, 100, env.led.State().V)
}

func TestDimAndStopPublishesDimmedState(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{
		Clock:       clock.RealClock{},
		DimDelay:    -1,
		DimInterval: time.Millisecond,
	})
	env.led.OnMessage("0,0,100")

	env.led.OnMessage("DIM")
	require.Eventually(t, func() bool {
		return env.led.Live().V < 60
	}, time.Second, time.Millisecond)
	env.led.OnMessage("STOP")

	require.Equal(t, engine.Idle, env.led.engine.State())
	state := env.led.State()
	assert.Less(t, state.V, 100)
	assert.Equal(t, state.String(), env.state(t))
}

func TestColorDuringDimCancelsIt(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{
		Clock:       clock.RealClock{},
		DimDelay:    -1,
		DimInterval: 5 * time.Millisecond,
	})
	env.led.OnMessage("0,0,100")
	published := 0
	require.NoError(t, env.conn.Register("light/test/state", func(string) { published++ }))

	env.led.OnMessage("DIM")
	require.Eventually(t, func() bool {
		return env.led.Live().V < 100
	}, time.Second, time.Millisecond)

	env.led.OnMessage("120,100,80")
	require.Equal(t, engine.Idle, env.led.engine.State())
	require.Equal(t, 1, published)

	env.led.OnMessage("STOP")
	assert.Equal(t, 1, published)
	assert.Equal(t, "120,100,80", env.state(t))
	assert.Equal(t, color.New(120, 100, 80, true), env.led.Live())
}

func TestStopWithoutDimPublishesNothing(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{})
	published := 0
	require.NoError(t, env.conn.Register("light/test/state", func(string) { published++ }))

	env.led.OnMessage("STOP")
	assert.Equal(t, 0, published)
}

func TestSmoothChangeCommitsTargetImmediately(t *testing.T) {
	t.Parallel()

	env := newTestLED(t, Config{
		Clock:                clock.RealClock{},
		SmoothChangeInterval: time.Millisecond,
	})
	env.led.OnMessage("0,0,100")

	assert.Equal(t, "0,0,100", env.state(t))
	require.Eventually(t, func() bool {
		return env.led.Live().Equal(color.New(0, 0, 100, true))
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, 0xFFFF, env.out.Duty(3))
}
