package config

import (
	"github.com/robmorgan/glow/color"
	"github.com/robmorgan/glow/profile"
)

// builtinProfiles are the channel layouts of the common HAT wirings. Profiles
// from the config file are merged over them.
func builtinProfiles() map[string]profile.Profile {
	return map[string]profile.Profile{
		"rgbw": {
			Name: "RGBW LED strip",
			Channels: map[color.Channel]int{
				color.Red:   0,
				color.Green: 1,
				color.Blue:  2,
				color.White: 3,
			},
		},
		"rgb": {
			Name: "RGB LED strip",
			Channels: map[color.Channel]int{
				color.Red:   0,
				color.Green: 1,
				color.Blue:  2,
			},
		},
		"dimmer": {
			Name: "Single color LED",
			Channels: map[color.Channel]int{
				color.White: 0,
			},
		},
	}
}

// FixtureProfiles returns the built-in profiles merged with the ones from the
// config file.
func (c *Config) FixtureProfiles() map[string]profile.Profile {
	out := builtinProfiles()
	for name, channels := range c.Profiles {
		out[name] = toProfile(name, channels)
	}
	return out
}

func toProfile(name string, channels map[string]int) profile.Profile {
	p := profile.Profile{Name: name, Channels: make(map[color.Channel]int, len(channels))}
	for ch, num := range channels {
		if num == profile.Unpatched {
			continue
		}
		p.Channels[color.Channel(ch)] = num
	}
	return p
}
