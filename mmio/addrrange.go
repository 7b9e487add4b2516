package mmio

import "fmt"

// AddrRange is the half-open address interval [Start, Start+Size).
type AddrRange struct {
	Start uint64
	Size  uint64
}

// End returns the first address after the range.
func (r AddrRange) End() uint64 {
	return r.Start + r.Size
}

// Contains tells if an access of size bytes at addr falls entirely within the
// range.
func (r AddrRange) Contains(addr, size uint64) bool {
	if addr < r.Start {
		return false
	}

	offset := addr - r.Start

	return offset < r.Size && size <= r.Size-offset
}

// Overlaps tells if two ranges share at least one address.
func (r AddrRange) Overlaps(o AddrRange) bool {
	return r.Start < o.End() && o.Start < r.End()
}

func (r AddrRange) String() string {
	return fmt.Sprintf("[0x%x, 0x%x)", r.Start, r.End())
}
