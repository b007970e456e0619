package ddc

import "fmt"

// Checksum XORs seed with every byte of b.
func Checksum(seed byte, b []byte) byte {
	sum := seed
	for _, v := range b {
		sum ^= v
	}
	return sum
}

// EncodeGetVCP builds the 5-byte Get VCP Feature request for code.
func EncodeGetVCP(code byte) []byte {
	frame := []byte{hostAddress, 0x80 | 2, opGetVCP, code}
	return append(frame, Checksum(writeAddress, frame))
}

// EncodeSetVCP builds the 7-byte Set VCP Feature request for code.
func EncodeSetVCP(code byte, value uint16) []byte {
	frame := []byte{hostAddress, 0x80 | 4, opSetVCP, code, byte(value >> 8), byte(value)}
	return append(frame, Checksum(writeAddress, frame))
}

// DecodeGetVCPReply locates the Get VCP reply for code inside buf and decodes
// it. Monitors pad or prefix the reply differently, so the opcode is searched
// for rather than expected at a fixed offset. When the reply still carries its
// source address and length header the trailing checksum is verified.
func DecodeGetVCPReply(buf []byte, code byte) (Reply, error) {
	if len(buf) < minReplyLength {
		return Reply{}, fmt.Errorf("%w: %d bytes", ErrShortReply, len(buf))
	}

	off := -1
	for i := 0; i+7 < len(buf); i++ {
		if buf[i] == opGetVCPReply && buf[i+2] == code {
			off = i
			break
		}
	}
	if off < 0 {
		return Reply{}, fmt.Errorf("%w: vcp 0x%02X in % X", ErrNoReply, code, buf)
	}

	if result := buf[off+1]; result != 0 {
		return Reply{}, fmt.Errorf("%w: vcp 0x%02X result %d", ErrProtocol, code, result)
	}

	if off >= 2 && buf[off-2] == writeAddress && off+8 < len(buf) {
		if want := Checksum(replyChecksum, buf[off-2:off+8]); buf[off+8] != want {
			return Reply{}, fmt.Errorf("%w: got 0x%02X want 0x%02X", ErrChecksum, buf[off+8], want)
		}
	}

	r := Reply{
		Type:    buf[off+3],
		Max:     uint16(buf[off+4])<<8 | uint16(buf[off+5]),
		Current: uint16(buf[off+6])<<8 | uint16(buf[off+7]),
	}
	if r.Max == 0 {
		return Reply{}, ErrZeroMax
	}
	return r, nil
}

// Scale maps a normalized value onto the raw range [0, max].
func Scale(value float64, max uint16) uint16 {
	if value <= 0 {
		return 0
	}
	if value >= 1 {
		return max
	}
	return uint16(value*float64(max) + 0.5)
}
