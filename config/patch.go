package config

import (
	"fmt"
	"time"

	"github.com/robmorgan/glow/color"
	"github.com/robmorgan/glow/pca9685"
	"github.com/robmorgan/glow/profile"
)

// PatchedFixture stores the resolved config of a color LED
type PatchedFixture struct {
	Name       string
	Topic      string
	StateTopic string
	Output     string

	Profile      profile.Profile
	InitialState color.Levels
	InvertOut    bool
	Curve        string

	SmoothChangeInterval time.Duration
	DimDelay             time.Duration
	DimInterval          time.Duration
	Debounce             time.Duration
}

// PatchFixtures resolves the profile of every fixture.
func (c *Config) PatchFixtures() ([]PatchedFixture, error) {
	profiles := c.FixtureProfiles()

	s := make([]PatchedFixture, 0, len(c.Fixtures))
	for _, f := range c.Fixtures {
		p := toProfile(f.Name, f.Channels)
		if f.Profile != "" {
			var ok bool
			if p, ok = profiles[f.Profile]; !ok {
				return nil, fmt.Errorf("fixture %s: unknown profile %q", f.Name, f.Profile)
			}
		}

		if err := p.Validate(outputChannels(c.Outputs[f.Output].Type)); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", f.Name, err)
		}

		initial := make(color.Levels, len(f.InitialState))
		for ch, level := range f.InitialState {
			initial[color.Channel(ch)] = level
		}

		s = append(s, PatchedFixture{
			Name:                 f.Name,
			Topic:                f.Topic,
			StateTopic:           f.StateTopic,
			Output:               f.Output,
			Profile:              p,
			InitialState:         initial,
			InvertOut:            *f.InvertOut,
			Curve:                f.Curve,
			SmoothChangeInterval: f.SmoothChangeInterval.Duration(),
			DimDelay:             f.DimDelay.Duration(),
			DimInterval:          f.DimInterval.Duration(),
			Debounce:             f.Debounce.Duration(),
		})
	}
	return s, nil
}

// outputChannels is the number of channels an output type drives.
func outputChannels(outputType string) int {
	if outputType == OutputOLA {
		return 512
	}
	return pca9685.Channels
}
