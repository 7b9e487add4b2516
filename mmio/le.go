package mmio

import (
	"encoding/binary"
	"fmt"
)

// ValidWidth tells if an access width, in bytes, can be carried by the bus.
func ValidWidth(width int) bool {
	switch width {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

// EncodeLE returns the low width bytes of value in little-endian order.
func EncodeLE(value uint64, width int) []byte {
	if width < 0 || width > 8 {
		panic(fmt.Sprintf("invalid width %d", width))
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)

	out := make([]byte, width)
	copy(out, buf[:width])

	return out
}

// DecodeLE interprets up to 8 bytes as a little-endian unsigned value.
func DecodeLE(data []byte) uint64 {
	var buf [8]byte
	copy(buf[:], data)

	return binary.LittleEndian.Uint64(buf[:])
}
