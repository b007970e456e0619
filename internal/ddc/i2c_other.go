//go:build !linux

package ddc

import "fmt"

// Bus is unavailable outside Linux.
type Bus struct{}

// DevicePath returns the Linux device name for bus n.
func DevicePath(n int) string {
	return fmt.Sprintf("/dev/i2c-%d", n)
}

// OpenBus always fails with ErrUnsupported.
func OpenBus(n int) (*Bus, error) {
	return nil, ErrUnsupported
}

func (b *Bus) Read(p []byte) (int, error)  { return 0, ErrUnsupported }
func (b *Bus) Write(p []byte) (int, error) { return 0, ErrUnsupported }
func (b *Bus) Close() error                { return nil }
