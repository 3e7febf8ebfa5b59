package fixture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/robmorgan/glow/logger"
)

const (
	// UniverseSize is the number of channels in a DMX512 universe.
	UniverseSize = 512

	// DMXMaxDuty is the value of a fully lit DMX channel.
	DMXMaxDuty = 255
)

// DMXState holds the DMX512 values for each channel
type DMXState struct {
	universes map[int][]byte
	lock      sync.Mutex
}

// NewDMXState creates an empty state.
func NewDMXState() *DMXState {
	return &DMXState{universes: make(map[int][]byte)}
}

func (s *DMXState) getValue(universe, channel int) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.universes[universe] == nil {
		return 0
	}
	return int(s.universes[universe][channel-1])
}

// set writes value to a 1-based DMX channel.
func (s *DMXState) set(universe, channel, value int) error {
	if channel < 1 || channel > UniverseSize {
		return fmt.Errorf("dmx channel (%d) not in range", channel)
	}
	if value < 0 || value > DMXMaxDuty {
		return fmt.Errorf("dmx value (%d) not in range", value)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.initializeUniverse(universe)
	s.universes[universe][channel-1] = byte(value)
	return nil
}

func (s *DMXState) initializeUniverse(universe int) {
	if s.universes[universe] == nil {
		s.universes[universe] = make([]byte, UniverseSize)
	}
}

// snapshot copies every universe so it can be sent without holding the lock.
func (s *DMXState) snapshot() map[int][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make(map[int][]byte, len(s.universes))
	for k, v := range s.universes {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// OLAClient is the interface for communicating with OLA
type OLAClient interface {
	SendDmx(universe int, values []byte) (status bool, err error)
	Close()
}

// DMXOutput writes fixture channels into one universe of a DMXState. Output
// channel n is DMX address n+1.
type DMXOutput struct {
	name     string
	universe int
	state    *DMXState
}

// NewDMXOutput creates an output for a universe of state.
func NewDMXOutput(name string, universe int, state *DMXState) *DMXOutput {
	return &DMXOutput{name: name, universe: universe, state: state}
}

func (o *DMXOutput) Name() string  { return o.name }
func (o *DMXOutput) Channels() int { return UniverseSize }
func (o *DMXOutput) MaxDuty() int  { return DMXMaxDuty }

func (o *DMXOutput) SetDuty(channel, duty int) error {
	return o.state.set(o.universe, channel+1, duty)
}

func (o *DMXOutput) Close() error { return nil }

// SendDMXWorker sends OLA the current dmxState across all universes
func SendDMXWorker(ctx context.Context, client OLAClient, tick time.Duration, clk clock.Clock, state *DMXState, wg *sync.WaitGroup) error {
	defer wg.Done()
	defer client.Close()

	log := logger.GetProjectLogger()

	t := clk.NewTimer(tick)
	defer t.Stop()
	log.Debugf("dmx sender started, tick=%v", tick)

	for {
		select {
		case <-ctx.Done():
			log.Info("SendDMXWorker shutdown")
			return ctx.Err()
		case <-t.C():
			for k, v := range state.snapshot() {
				if _, err := client.SendDmx(k, v); err != nil {
					log.WithField("universe", k).Errorf("sending dmx failed: %v", err)
				}
			}
			t.Reset(tick)
		}
	}
}
