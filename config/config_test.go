package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robmorgan/glow/color"
)

const sample = `
log:
  level: debug
connections:
  osc:
    listen: "127.0.0.1:${GLOW_TEST_OSC_PORT:8001}"
outputs:
  hat:
    type: pca9685
    stack: 1
  dmx:
    type: ola
fixtures:
  - name: kitchen
    topic: /kitchen/led
    output: hat
    profile: rgbw
    initial_state:
      red: 100
  - name: hallway
    topic: /hallway/led
    state_topic: /hallway/led/level
    output: dmx
    channels:
      white: 9
      red: -1
    invert_out: false
    smooth_change_interval: 0s
    dim_interval: 100ms
    curve: in_quad
`

func TestParseAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	require.NotNil(t, cfg.Connections.OSC)
	assert.Equal(t, "127.0.0.1:8001", cfg.Connections.OSC.Listen)
	assert.Equal(t, DefaultOSCPublishHost, cfg.Connections.OSC.PublishHost)
	assert.Nil(t, cfg.Connections.Local)

	hat := cfg.Outputs["hat"]
	assert.Equal(t, DefaultBus, hat.Bus)
	assert.Equal(t, 240, hat.Frequency)
	dmx := cfg.Outputs["dmx"]
	assert.Equal(t, DefaultOLAURL, dmx.URL)
	assert.Equal(t, 1, dmx.Universe)
	assert.Equal(t, DefaultOLATick, dmx.Tick.Duration())

	kitchen := cfg.Fixtures[0]
	assert.Equal(t, "/kitchen/led/state", kitchen.StateTopic)
	assert.True(t, *kitchen.InvertOut)
	assert.Equal(t, 50*time.Millisecond, kitchen.SmoothChangeInterval.Duration())
	assert.Equal(t, 500*time.Millisecond, kitchen.DimDelay.Duration())
	assert.Equal(t, 200*time.Millisecond, kitchen.DimInterval.Duration())
	assert.Equal(t, 150*time.Millisecond, kitchen.Debounce.Duration())
	assert.Equal(t, "linear", kitchen.Curve)

	hallway := cfg.Fixtures[1]
	assert.Equal(t, "/hallway/led/level", hallway.StateTopic)
	assert.False(t, *hallway.InvertOut)
	assert.Equal(t, time.Duration(0), hallway.SmoothChangeInterval.Duration())
	assert.Equal(t, 100*time.Millisecond, hallway.DimInterval.Duration())
}

func TestPatchFixtures(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	patched, err := cfg.PatchFixtures()
	require.NoError(t, err)
	require.Len(t, patched, 2)

	kitchen := patched[0]
	assert.Len(t, kitchen.Profile.Channels, 4)
	assert.True(t, kitchen.Profile.HasWhite())
	assert.Equal(t, color.Levels{color.Red: 100}, kitchen.InitialState)

	hallway := patched[1]
	assert.True(t, hallway.Profile.IsDimmer())
	assert.Equal(t, 9, hallway.Profile.Channel(color.White))
	assert.Equal(t, "in_quad", hallway.Curve)
}

func TestZeroDimDelayIsKept(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
outputs: {console: {type: log}}
fixtures: [{name: a, topic: t, output: console, profile: rgb, dim_delay: 0s}]
`))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Fixtures[0].DimDelay.Duration())

	patched, err := cfg.PatchFixtures()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), patched[0].DimDelay)
}

func TestPatchFixturesRejectsOutOfRangeChannel(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
outputs:
  hat:
    type: pca9685
fixtures:
  - name: desk
    topic: /desk
    output: hat
    channels:
      red: 16
`))
	require.NoError(t, err)

	_, err = cfg.PatchFixtures()
	require.Error(t, err)
}

func TestParseDefaultsToLocalConnection(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
outputs:
  console:
    type: log
fixtures:
  - name: desk
    topic: /desk
    output: console
    profile: dimmer
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Connections.Local)
	assert.Equal(t, "local", cfg.Connections.Local.Name)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		yaml string
	}{
		{"no fixtures", "outputs: {console: {type: log}}"},
		{"unknown output type", "outputs: {x: {type: serial}}\nfixtures: [{name: a, topic: t, output: x, profile: rgb}]"},
		{"unknown output", "outputs: {console: {type: log}}\nfixtures: [{name: a, topic: t, output: hat, profile: rgb}]"},
		{"duplicate names", "outputs: {console: {type: log}}\nfixtures: [{name: a, topic: t, output: console, profile: rgb}, {name: a, topic: u, output: console, profile: rgb}]"},
		{"missing topic", "outputs: {console: {type: log}}\nfixtures: [{name: a, output: console, profile: rgb}]"},
		{"no channels", "outputs: {console: {type: log}}\nfixtures: [{name: a, topic: t, output: console}]"},
		{"unknown curve", "outputs: {console: {type: log}}\nfixtures: [{name: a, topic: t, output: console, profile: rgb, curve: wobble}]"},
		{"bad stack", "outputs: {hat: {type: pca9685, stack: 62}}\nfixtures: [{name: a, topic: t, output: hat, profile: rgb}]"},
		{"bad frequency", "outputs: {hat: {type: pca9685, frequency: 5000}}\nfixtures: [{name: a, topic: t, output: hat, profile: rgb}]"},
		{"bad duration", "outputs: {console: {type: log}}\nfixtures: [{name: a, topic: t, output: console, profile: rgb, dim_delay: soon}]"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(testCase.yaml))
			require.Error(t, err)
		})
	}
}

func TestUnknownProfile(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("outputs: {console: {type: log}}\nfixtures: [{name: a, topic: t, output: console, profile: moving-head}]"))
	require.NoError(t, err)
	_, err = cfg.PatchFixtures()
	require.Error(t, err)
}

func TestCustomProfileOverridesBuiltin(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
outputs: {console: {type: log}}
profiles:
  rgb: {red: 10, green: 11, blue: 12}
fixtures: [{name: a, topic: t, output: console, profile: rgb}]
`))
	require.NoError(t, err)

	profiles := cfg.FixtureProfiles()
	assert.Equal(t, 10, profiles["rgb"].Channel(color.Red))
	assert.Contains(t, profiles, "rgbw")
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "glow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Fixtures, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
