package fixture

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/glow/logger"
	"github.com/robmorgan/glow/pca9685"
)

// Output drives the physical channels of one or more fixtures.
type Output interface {
	Name() string

	// Channels is the number of addressable channels.
	Channels() int

	// MaxDuty is the duty cycle of a fully lit channel.
	MaxDuty() int

	SetDuty(channel, duty int) error

	Close() error
}

// PWMOutput writes to a PCA9685 PWM HAT.
type PWMOutput struct {
	name   string
	dev    *pca9685.Device
	closer io.Closer
}

// NewPWMOutput wraps a configured PCA9685. closer, if not nil, is closed
// together with the output, usually the I2C bus.
func NewPWMOutput(name string, dev *pca9685.Device, closer io.Closer) *PWMOutput {
	return &PWMOutput{name: name, dev: dev, closer: closer}
}

func (o *PWMOutput) Name() string  { return o.name }
func (o *PWMOutput) Channels() int { return pca9685.Channels }
func (o *PWMOutput) MaxDuty() int  { return pca9685.MaxDuty }

func (o *PWMOutput) SetDuty(channel, duty int) error {
	if duty < 0 || duty > pca9685.MaxDuty {
		return fmt.Errorf("duty %d out of range for %s", duty, o.name)
	}
	return o.dev.SetDuty(channel, uint16(duty))
}

// Close switches every channel off, puts the chip to sleep and releases the bus.
func (o *PWMOutput) Close() error {
	err := o.dev.Sleep()
	if o.closer != nil {
		if cerr := o.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// LogOutput keeps duty cycles in memory and logs every write. It stands in for
// hardware on development machines.
type LogOutput struct {
	name string
	log  *logrus.Entry

	lock sync.RWMutex
	duty map[int]int
}

// NewLogOutput creates a LogOutput that behaves like a PWM HAT.
func NewLogOutput(name string) *LogOutput {
	return &LogOutput{
		name: name,
		log:  logger.GetProjectLogger().WithField("output", name),
		duty: make(map[int]int),
	}
}

func (o *LogOutput) Name() string  { return o.name }
func (o *LogOutput) Channels() int { return pca9685.Channels }
func (o *LogOutput) MaxDuty() int  { return pca9685.MaxDuty }

func (o *LogOutput) SetDuty(channel, duty int) error {
	o.lock.Lock()
	o.duty[channel] = duty
	o.lock.Unlock()

	o.log.WithField("channel", channel).Debugf("duty cycle %d", duty)
	return nil
}

// Duty returns the last duty cycle written to channel.
func (o *LogOutput) Duty(channel int) int {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.duty[channel]
}

func (o *LogOutput) Close() error { return nil }
