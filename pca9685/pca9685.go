// Package pca9685 drives the PCA9685 16-channel 12-bit PWM controller found on
// the Adafruit PWM/Servo HAT.
//
// Duty cycles are given as 16-bit values like the Adafruit libraries do and are
// reduced to the chip's 12-bit resolution. 0 and 0xFFFF use the full-off and
// full-on bits so both ends of the range are glitch free.
package pca9685

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"tinygo.org/x/drivers"
)

// BaseAddress is the I2C address of a HAT with no address jumpers set.
const BaseAddress = 0x40

const (
	// Channels is the number of PWM outputs of one chip.
	Channels = 16

	// MaxDuty is the full scale of a duty cycle passed to SetDuty.
	MaxDuty = 0xFFFF

	// MaxStack is the highest stack number selectable with the address jumpers.
	MaxStack = 61

	// OscillatorHz is the frequency of the internal oscillator.
	OscillatorHz = 25_000_000

	DefaultFrequency = 240
	MinFrequency     = 24
	MaxFrequency     = 1526
)

// Registers.
const (
	regMode1    = 0x00
	regMode2    = 0x01
	regLED0OnL  = 0x06
	regAllOnL   = 0xFA
	regPrescale = 0xFE

	mode1Restart = 0x80
	mode1AI      = 0x20
	mode1Sleep   = 0x10
	mode1AllCall = 0x01

	mode2OutDrv = 0x04

	fullBit = 0x10
)

var (
	ErrInvalidStack     = errors.New("pca9685: stack out of range (allowed 0-61)")
	ErrInvalidFrequency = fmt.Errorf("pca9685: frequency out of range (allowed %d-%d)", MinFrequency, MaxFrequency)
	ErrInvalidChannel   = errors.New("pca9685: channel out of range (allowed 0-15)")
)

// Device is a PCA9685 on an I2C bus. It is safe for concurrent use.
type Device struct {
	bus     drivers.I2C
	Address uint16

	lock sync.Mutex
	buf  [5]byte
}

// New returns a Device for the HAT with the given stack number. It does not
// touch the chip, call Configure before use.
func New(bus drivers.I2C, stack int) (*Device, error) {
	if stack < 0 || stack > MaxStack {
		return nil, ErrInvalidStack
	}
	return &Device{bus: bus, Address: uint16(BaseAddress + stack)}, nil
}

// Prescale returns the prescaler value for a PWM frequency in Hz.
func Prescale(freqHz int) (byte, error) {
	if freqHz < MinFrequency || freqHz > MaxFrequency {
		return 0, ErrInvalidFrequency
	}
	return byte(math.Round(float64(OscillatorHz)/(4096*float64(freqHz))) - 1), nil
}

// Configure wakes the chip, enables register auto increment and sets the PWM
// frequency shared by all channels.
func (d *Device) Configure(freqHz int) error {
	prescale, err := Prescale(freqHz)
	if err != nil {
		return err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if err := d.writeReg(regMode2, mode2OutDrv); err != nil {
		return err
	}
	old, err := d.readReg(regMode1)
	if err != nil {
		return err
	}
	old = (old &^ (mode1Restart | mode1Sleep)) | mode1AllCall

	// the prescaler can only be written while the oscillator sleeps
	if err := d.writeReg(regMode1, old|mode1Sleep); err != nil {
		return err
	}
	if err := d.writeReg(regPrescale, prescale); err != nil {
		return err
	}
	if err := d.writeReg(regMode1, old); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	return d.writeReg(regMode1, old|mode1Restart|mode1AI)
}

// SetDuty sets the duty cycle of one channel.
func (d *Device) SetDuty(channel int, duty uint16) error {
	if channel < 0 || channel >= Channels {
		return ErrInvalidChannel
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.writePWM(regLED0OnL+4*byte(channel), duty)
}

// SetAll sets the duty cycle of every channel at once.
func (d *Device) SetAll(duty uint16) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.writePWM(regAllOnL, duty)
}

// Sleep switches all outputs off and stops the oscillator.
func (d *Device) Sleep() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if err := d.writePWM(regAllOnL, 0); err != nil {
		return err
	}
	mode, err := d.readReg(regMode1)
	if err != nil {
		return err
	}
	return d.writeReg(regMode1, mode|mode1Sleep)
}

func (d *Device) writePWM(reg byte, duty uint16) error {
	var on, off uint16
	switch duty {
	case 0:
		off = fullBit << 8
	case MaxDuty:
		on = fullBit << 8
	default:
		off = uint16((uint32(duty) + 1) >> 4)
	}

	d.buf[0] = reg
	d.buf[1] = byte(on)
	d.buf[2] = byte(on >> 8)
	d.buf[3] = byte(off)
	d.buf[4] = byte(off >> 8)
	return d.bus.Tx(d.Address, d.buf[:5], nil)
}

func (d *Device) writeReg(reg, val byte) error {
	d.buf[0] = reg
	d.buf[1] = val
	return d.bus.Tx(d.Address, d.buf[:2], nil)
}

func (d *Device) readReg(reg byte) (byte, error) {
	d.buf[0] = reg
	if err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:2]); err != nil {
		return 0, err
	}
	return d.buf[1], nil
}
