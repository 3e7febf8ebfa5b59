package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"gopkg.in/yaml.v3"

	"github.com/robmorgan/glow/effect"
	"github.com/robmorgan/glow/engine"
	"github.com/robmorgan/glow/pca9685"
	"github.com/robmorgan/glow/utils"
)

// Output types.
const (
	OutputPCA9685 = "pca9685"
	OutputOLA     = "ola"
	OutputLog     = "log"
)

const (
	DefaultLogLevel = "info"
	DefaultBus      = "/dev/i2c-1"
	DefaultOLAURL   = "localhost:9010"
	DefaultOLATick  = 40 * time.Millisecond

	DefaultOSCListen      = "0.0.0.0:8000"
	DefaultOSCPublishHost = "127.0.0.1"
	DefaultOSCPublishPort = 9000
)

// Config represents the glow configuration file
type Config struct {
	Log         LogConfig                 `yaml:"log"`
	Connections ConnectionsConfig         `yaml:"connections"`
	Outputs     map[string]OutputConfig   `yaml:"outputs"`
	Profiles    map[string]map[string]int `yaml:"profiles"`
	Fixtures    []FixtureConfig           `yaml:"fixtures"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// ConnectionsConfig lists the connections fixtures listen and publish on.
// A nil entry is disabled.
type ConnectionsConfig struct {
	Local *LocalConfig `yaml:"local"`
	OSC   *OSCConfig   `yaml:"osc"`
}

// LocalConfig enables the in-process connection.
type LocalConfig struct {
	Name string `yaml:"name"`
}

// OSCConfig contains OSC transport settings
type OSCConfig struct {
	Name        string `yaml:"name"`
	Listen      string `yaml:"listen"`
	PublishHost string `yaml:"publish_host"`
	PublishPort int    `yaml:"publish_port"`
}

// OutputConfig describes where fixtures write their duty cycles.
type OutputConfig struct {
	Type string `yaml:"type"`

	// pca9685
	Bus       string `yaml:"bus"`
	Stack     int    `yaml:"stack"`
	Frequency int    `yaml:"frequency"`

	// ola
	URL      string   `yaml:"url"`
	Universe int      `yaml:"universe"`
	Tick     Duration `yaml:"tick"`
}

// FixtureConfig describes one color LED.
type FixtureConfig struct {
	Name       string `yaml:"name"`
	Topic      string `yaml:"topic"`
	StateTopic string `yaml:"state_topic"`
	Output     string `yaml:"output"`

	// Profile names a channel layout; Channels gives one inline.
	Profile  string         `yaml:"profile"`
	Channels map[string]int `yaml:"channels"`

	InitialState map[string]int `yaml:"initial_state"`
	InvertOut    *bool          `yaml:"invert_out"`
	Curve        string         `yaml:"curve"`

	// SmoothChangeInterval of 0 disables smooth changes, DimDelay of 0 dims at once.
	SmoothChangeInterval *Duration `yaml:"smooth_change_interval"`
	DimDelay             *Duration `yaml:"dim_delay"`
	DimInterval          Duration  `yaml:"dim_interval"`
	Debounce             Duration  `yaml:"debounce"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads, parses and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return Parse(data)
}

// Parse decodes a configuration, applies the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "parsing config")
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	if osc := c.Connections.OSC; osc != nil {
		if osc.Name == "" {
			osc.Name = "osc"
		}
		if osc.Listen == "" {
			osc.Listen = DefaultOSCListen
		}
		if osc.PublishHost == "" {
			osc.PublishHost = DefaultOSCPublishHost
		}
		if osc.PublishPort == 0 {
			osc.PublishPort = DefaultOSCPublishPort
		}
	}
	if local := c.Connections.Local; local != nil && local.Name == "" {
		local.Name = "local"
	}
	// without any connection configured, commands can only arrive in process
	if c.Connections.Local == nil && c.Connections.OSC == nil {
		c.Connections.Local = &LocalConfig{Name: "local"}
	}

	if c.Outputs == nil {
		c.Outputs = make(map[string]OutputConfig)
	}
	for name, out := range c.Outputs {
		switch out.Type {
		case OutputPCA9685:
			if out.Bus == "" {
				out.Bus = DefaultBus
			}
			if out.Frequency == 0 {
				out.Frequency = pca9685.DefaultFrequency
			}
		case OutputOLA:
			if out.URL == "" {
				out.URL = DefaultOLAURL
			}
			if out.Universe == 0 {
				out.Universe = 1
			}
			if out.Tick == 0 {
				out.Tick = Duration(DefaultOLATick)
			}
		}
		c.Outputs[name] = out
	}

	for i := range c.Fixtures {
		f := &c.Fixtures[i]
		if f.StateTopic == "" {
			f.StateTopic = f.Topic + "/state"
		}
		if f.InvertOut == nil {
			invert := true
			f.InvertOut = &invert
		}
		if f.Curve == "" {
			f.Curve = effect.DefaultCurve
		}
		if f.SmoothChangeInterval == nil {
			interval := Duration(engine.DefaultSmoothChangeInterval)
			f.SmoothChangeInterval = &interval
		}
		if f.DimDelay == nil {
			delay := Duration(engine.DefaultDimDelay)
			f.DimDelay = &delay
		}
		if f.DimInterval == 0 {
			f.DimInterval = Duration(engine.DefaultDimInterval)
		}
		if f.Debounce == 0 {
			f.Debounce = Duration(utils.DefaultDebounceTime)
		}
	}
}

// Validate checks the outputs and fixtures reference each other correctly.
// Channel layouts are checked when fixtures are patched.
func (c *Config) Validate() error {
	for name, out := range c.Outputs {
		switch out.Type {
		case OutputPCA9685:
			if out.Stack < 0 || out.Stack > pca9685.MaxStack {
				return fmt.Errorf("output %s: %w", name, pca9685.ErrInvalidStack)
			}
			if _, err := pca9685.Prescale(out.Frequency); err != nil {
				return fmt.Errorf("output %s: %w", name, err)
			}
		case OutputOLA, OutputLog:
		default:
			return fmt.Errorf("output %s: unknown type %q", name, out.Type)
		}
	}

	if len(c.Fixtures) == 0 {
		return fmt.Errorf("no fixtures configured")
	}

	seen := make(map[string]bool, len(c.Fixtures))
	for _, f := range c.Fixtures {
		if f.Name == "" {
			return fmt.Errorf("fixture without a name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate fixture name %q", f.Name)
		}
		seen[f.Name] = true

		if f.Topic == "" {
			return fmt.Errorf("fixture %s: no topic", f.Name)
		}
		if _, ok := c.Outputs[f.Output]; !ok {
			return fmt.Errorf("fixture %s: unknown output %q", f.Name, f.Output)
		}
		if f.Profile != "" && len(f.Channels) > 0 {
			return fmt.Errorf("fixture %s: profile and channels are mutually exclusive", f.Name)
		}
		if f.Profile == "" && len(f.Channels) == 0 {
			return fmt.Errorf("fixture %s: no profile or channels", f.Name)
		}
		if _, err := effect.NewCurve(f.Curve); err != nil {
			return fmt.Errorf("fixture %s: %w", f.Name, err)
		}
		if f.SmoothChangeInterval.Duration() < 0 || f.DimDelay.Duration() < 0 || f.DimInterval < 0 || f.Debounce < 0 {
			return fmt.Errorf("fixture %s: negative duration", f.Name)
		}
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return defaultVal
	})
}
