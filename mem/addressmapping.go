package mem

import (
	"log"

	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/sim"
)

// ErrOverlappingRange is returned when an address range added to a Router
// overlaps a range that is already mapped.
var ErrOverlappingRange = errors.New("overlapping address range")

// ErrUnmapped is carried by the AccessDoneEvent of an access that no memory
// module owns.
var ErrUnmapped = errors.New("no memory is mapped")

// AddressConverter translates between the addresses seen on the system and the
// addresses used inside a memory module.
type AddressConverter interface {
	ConvertExternalToInternal(external uint64) uint64
	ConvertInternalToExternal(internal uint64) uint64
}

// OffsetConverter maps a module placed at Base so that the module sees
// addresses starting from zero.
type OffsetConverter struct {
	Base uint64
}

// ConvertExternalToInternal subtracts the base address.
func (c OffsetConverter) ConvertExternalToInternal(external uint64) uint64 {
	if external < c.Base {
		log.Panicf("address 0x%x is below base 0x%x", external, c.Base)
	}

	return external - c.Base
}

// ConvertInternalToExternal adds the base address.
func (c OffsetConverter) ConvertInternalToExternal(internal uint64) uint64 {
	return internal + c.Base
}

type routedRange struct {
	start, size uint64
	accessor    Accessor
}

func (r routedRange) contains(addr, size uint64) bool {
	if addr < r.start {
		return false
	}

	offset := addr - r.start

	return offset < r.size && size <= r.size-offset
}

// Router is an Accessor that forwards each access to the memory module that
// owns the address. An access must fall entirely into one module. An access
// that no module owns completes at once with ErrUnmapped, leaving a read
// buffer untouched.
type Router struct {
	engine    sim.EventScheduler
	ranges    []routedRange
	numFaults uint64
}

// NewRouter creates an empty Router. The engine delivers the completions of
// unmapped accesses.
func NewRouter(engine sim.EventScheduler) *Router {
	return &Router{engine: engine}
}

// AddRange maps [start, start+size) to the accessor.
func (r *Router) AddRange(start, size uint64, accessor Accessor) error {
	if size == 0 {
		return errors.Errorf("empty range at 0x%x", start)
	}

	if start+size < start {
		return errors.Errorf("range at 0x%x with size 0x%x overflows",
			start, size)
	}

	for _, existing := range r.ranges {
		if start < existing.start+existing.size &&
			existing.start < start+size {
			return errors.Wrapf(ErrOverlappingRange,
				"[0x%x, 0x%x) overlaps [0x%x, 0x%x)",
				start, start+size,
				existing.start, existing.start+existing.size)
		}
	}

	r.ranges = append(r.ranges, routedRange{
		start:    start,
		size:     size,
		accessor: accessor,
	})

	return nil
}

// Find returns the accessor that owns the whole access, or nil.
func (r *Router) Find(addr, size uint64) Accessor {
	for _, rr := range r.ranges {
		if rr.contains(addr, size) {
			return rr.accessor
		}
	}

	return nil
}

// NumFaults returns the number of accesses that no module owned.
func (r *Router) NumFaults() uint64 {
	return r.numFaults
}

// Read forwards the read to the module that owns the address.
func (r *Router) Read(addr uint64, buf []byte, token CompletionToken) {
	size := uint64(len(buf))
	if a := r.Find(addr, size); a != nil {
		a.Read(addr, buf, token)
		return
	}

	r.fault(addr, size, false, token)
}

// Write forwards the write to the module that owns the address.
func (r *Router) Write(addr uint64, data []byte, token CompletionToken) {
	size := uint64(len(data))
	if a := r.Find(addr, size); a != nil {
		a.Write(addr, data, token)
		return
	}

	r.fault(addr, size, true, token)
}

func (r *Router) fault(
	addr, size uint64,
	isWrite bool,
	token CompletionToken,
) {
	if r.engine == nil {
		log.Panicf("no memory is mapped to [0x%x, 0x%x)", addr, addr+size)
	}

	r.numFaults++

	done := NewAccessDoneEvent(
		r.engine.CurrentTime(), token, addr, size, isWrite)
	done.Err = errors.Wrapf(ErrUnmapped, "[0x%x, 0x%x)", addr, addr+size)
	r.engine.Schedule(done)
}
