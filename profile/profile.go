package profile

import (
	"fmt"
	"sort"

	"github.com/robmorgan/glow/color"
)

// Unpatched marks a channel that has no output channel assigned.
const Unpatched = -1

// Profile holds info for a fixture profile including the channel mappings.
type Profile struct {
	Name string

	// The output channel number for each color channel
	Channels map[color.Channel]int
}

// Channel returns the output channel number for ch, or Unpatched.
func (p Profile) Channel(ch color.Channel) int {
	if n, ok := p.Channels[ch]; ok {
		return n
	}
	return Unpatched
}

// HasWhite reports whether the profile drives a dedicated white channel.
func (p Profile) HasWhite() bool {
	return p.Channel(color.White) != Unpatched
}

// IsDimmer reports whether the profile drives a single channel. Dimmers only
// expose brightness to the outside.
func (p Profile) IsDimmer() bool {
	return len(p.Channels) == 1
}

// Validate checks that the profile patches at least one known channel and that
// all channel numbers fall into [0,count).
func (p Profile) Validate(count int) error {
	if len(p.Channels) == 0 {
		return fmt.Errorf("profile %q has no channels", p.Name)
	}

	used := make(map[int]color.Channel, len(p.Channels))
	for _, ch := range sortedChannels(p.Channels) {
		n := p.Channels[ch]
		if !isKnown(ch) {
			return fmt.Errorf("profile %q has unknown channel %q", p.Name, ch)
		}
		if n < 0 || n >= count {
			return fmt.Errorf("profile %q channel %s=%d out of range [0,%d)", p.Name, ch, n, count)
		}
		if other, ok := used[n]; ok {
			return fmt.Errorf("profile %q uses output channel %d for both %s and %s", p.Name, n, other, ch)
		}
		used[n] = ch
	}
	return nil
}

func isKnown(ch color.Channel) bool {
	for _, known := range color.Channels {
		if ch == known {
			return true
		}
	}
	return false
}

func sortedChannels(m map[color.Channel]int) []color.Channel {
	out := make([]color.Channel, 0, len(m))
	for ch := range m {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
