// Package ddc implements the DDC/CI "Get/Set VCP Feature" exchange used to
// control monitor settings over the display's I2C bus.
package ddc

import (
	"errors"
	"io"
)

// VCP feature codes
const (
	VCPBrightness byte = 0x10
	VCPContrast   byte = 0x12
)

// Address is the 7-bit I2C slave address of the DDC/CI command interface.
const Address = 0x37

const (
	hostAddress    byte = 0x51 // Source address of host-originated frames
	writeAddress   byte = 0x6E // 8-bit display write address, seeds the request checksum
	replyChecksum  byte = 0x50 // Virtual host address, seeds the reply checksum
	opGetVCP       byte = 0x01
	opGetVCPReply  byte = 0x02
	opSetVCP       byte = 0x03
	replyReadSize       = 12
	minReplyLength      = 9
)

var (
	// ErrTransport wraps failures of the underlying bus.
	ErrTransport = errors.New("ddc: transport failure")
	// ErrShortReply is returned when fewer bytes than a minimal reply arrived.
	ErrShortReply = errors.New("ddc: short reply")
	// ErrNoReply is returned when no Get VCP reply for the requested code was found.
	ErrNoReply = errors.New("ddc: no matching reply")
	// ErrProtocol is returned when the monitor answered with a non-zero result code.
	ErrProtocol = errors.New("ddc: monitor rejected request")
	// ErrChecksum is returned when a framed reply fails checksum validation.
	ErrChecksum = errors.New("ddc: reply checksum mismatch")
	// ErrZeroMax is returned when the reply reports a maximum of zero.
	ErrZeroMax = errors.New("ddc: reply maximum is zero")
	// ErrUnsupported is returned where no raw I2C transport exists.
	ErrUnsupported = errors.New("ddc: raw bus access not supported on this platform")
)

// Transport carries DDC/CI frames to and from a monitor.
type Transport interface {
	io.ReadWriter
}

// Reply is a decoded Get VCP Feature reply.
type Reply struct {
	Type    byte   // VCP type byte (0 = set parameter, 1 = momentary)
	Max     uint16 // Maximum value reported by the monitor
	Current uint16 // Current value
}

// Normalized returns Current/Max in [0, 1]. The second result reports whether
// the monitor returned a current value above its maximum.
func (r Reply) Normalized() (float64, bool) {
	if r.Max == 0 {
		return 0, false
	}
	if r.Current > r.Max {
		return 1, true
	}
	return float64(r.Current) / float64(r.Max), false
}
