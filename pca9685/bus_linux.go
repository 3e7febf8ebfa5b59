//go:build linux

package pca9685

import (
	"sync"

	"github.com/gruntwork-io/go-commons/errors"
	"golang.org/x/sys/unix"
)

// i2cSlave is the I2C_SLAVE ioctl request from linux/i2c-dev.h.
const i2cSlave = 0x0703

// Bus is an I2C adapter exposed by the Linux i2c-dev driver, e.g. /dev/i2c-1.
// It implements drivers.I2C.
type Bus struct {
	lock sync.Mutex
	fd   int
	addr int
}

// OpenBus opens an i2c-dev device node.
func OpenBus(path string) (*Bus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "opening i2c bus %s", path)
	}
	return &Bus{fd: fd, addr: -1}, nil
}

// Tx writes w and then reads len(r) bytes from the device at addr.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.addr != int(addr) {
		if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
			return errors.WithStackTraceAndPrefix(err, "selecting i2c address 0x%02x", addr)
		}
		b.addr = int(addr)
	}
	if len(w) > 0 {
		if _, err := unix.Write(b.fd, w); err != nil {
			return errors.WithStackTrace(err)
		}
	}
	if len(r) > 0 {
		if _, err := unix.Read(b.fd, r); err != nil {
			return errors.WithStackTrace(err)
		}
	}
	return nil
}

// Close releases the device node.
func (b *Bus) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	return unix.Close(b.fd)
}
