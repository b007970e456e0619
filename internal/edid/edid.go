// Package edid extracts the identifying fields of an EDID base block that are
// needed to name a monitor.
package edid

import "strings"

const (
	// BlockSize is the length of an EDID base block.
	BlockSize = 128

	tagMonitorName = 0xFC
	nameLength     = 13
)

// descriptorOffsets are the four 18-byte display descriptors of the base block.
var descriptorOffsets = [...]int{54, 72, 90, 108}

// Manufacturer returns the three-letter PNP vendor code stored in bytes 8-9,
// or "" when the block is too short.
func Manufacturer(b []byte) string {
	if len(b) < BlockSize {
		return ""
	}

	mfr := uint16(b[8])<<8 | uint16(b[9])
	letters := []byte{
		byte((mfr>>10)&0x1F) + 64,
		byte((mfr>>5)&0x1F) + 64,
		byte(mfr&0x1F) + 64,
	}
	return string(letters)
}

// MonitorName returns the text of the first monitor name descriptor (tag 0xFC).
func MonitorName(b []byte) string {
	if len(b) < BlockSize {
		return ""
	}

	for _, off := range descriptorOffsets {
		d := b[off : off+18]
		if d[0] != 0 || d[1] != 0 || d[3] != tagMonitorName {
			continue
		}

		raw := d[5 : 5+nameLength]
		if i := strings.IndexAny(string(raw), "\n\x00"); i >= 0 {
			raw = raw[:i]
		}
		return strings.TrimRight(string(raw), " ")
	}
	return ""
}

// DisplayName picks the best available label: the monitor name descriptor,
// then the manufacturer code, then "".
func DisplayName(b []byte) string {
	if name := MonitorName(b); name != "" {
		return name
	}
	return Manufacturer(b)
}
