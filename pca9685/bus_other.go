//go:build !linux

package pca9685

import "errors"

// ErrUnsupported is returned by OpenBus on systems without i2c-dev.
var ErrUnsupported = errors.New("pca9685: i2c-dev buses are only available on linux")

// Bus is unavailable on this platform.
type Bus struct{}

// OpenBus always fails on this platform.
func OpenBus(path string) (*Bus, error) { return nil, ErrUnsupported }

func (b *Bus) Tx(addr uint16, w, r []byte) error { return ErrUnsupported }

func (b *Bus) Close() error { return nil }
