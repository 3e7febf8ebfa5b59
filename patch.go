package main

import (
	"fmt"

	"k8s.io/utils/clock"

	"github.com/robmorgan/glow/config"
	"github.com/robmorgan/glow/connection"
	"github.com/robmorgan/glow/effect"
	"github.com/robmorgan/glow/fixture"
)

// PatchFixtures creates a ColorLED for every configured fixture, registers it
// on the connections and returns them as one group.
func PatchFixtures(cfg *config.Config, outputs map[string]fixture.Output, conns []connection.Connection, clk clock.Clock) (*fixture.Group, error) {
	patched, err := cfg.PatchFixtures()
	if err != nil {
		return nil, err
	}

	root := fixture.NewGroup()
	for _, p := range patched {
		out, ok := outputs[p.Output]
		if !ok {
			return root, fmt.Errorf("fixture %s: output %q is not open", p.Name, p.Output)
		}
		curve, err := effect.NewCurve(p.Curve)
		if err != nil {
			return root, err
		}

		led, err := fixture.NewColorLED(fixture.Config{
			Name:                 p.Name,
			Topic:                p.Topic,
			StateTopic:           p.StateTopic,
			Profile:              p.Profile,
			InitialState:         p.InitialState,
			InvertOut:            p.InvertOut,
			Curve:                curve,
			SmoothChangeInterval: p.SmoothChangeInterval,
			DimDelay:             p.DimDelay,
			DimInterval:          p.DimInterval,
			Debounce:             p.Debounce,
			Clock:                clk,
		}, out, conns)
		if err != nil {
			return root, err
		}
		if err := led.Start(); err != nil {
			return root, err
		}
		root.AddFixture(p.Name, led)
	}
	return root, nil
}
