//go:build linux

package ddc

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// i2cSlave is the I2C_SLAVE ioctl from <linux/i2c-dev.h>.
const i2cSlave = 0x0703

// Bus is an open /dev/i2c-N character device addressed at the DDC/CI slave.
type Bus struct {
	f *os.File
}

// DevicePath returns the character device for I2C bus n.
func DevicePath(n int) string {
	return fmt.Sprintf("/dev/i2c-%d", n)
}

// OpenBus opens I2C bus n for DDC/CI. Permission errors are returned
// unwrapped from os so callers can test them with errors.Is(err, fs.ErrPermission).
func OpenBus(n int) (*Bus, error) {
	f, err := os.OpenFile(DevicePath(n), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, Address); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: set slave address on %s: %v", ErrTransport, DevicePath(n), err)
	}

	return &Bus{f: f}, nil
}

func (b *Bus) Read(p []byte) (int, error)  { return b.f.Read(p) }
func (b *Bus) Write(p []byte) (int, error) { return b.f.Write(p) }

// Close releases the device.
func (b *Bus) Close() error { return b.f.Close() }
