package mmio

import (
	"github.com/sarchlab/accelsim/sim"
)

// A RegisterHandler decodes accesses to a register file. Offsets are relative
// to the start of the device window. Handlers never fail: undefined offsets
// read as zero and ignore writes.
//
// PeekRegister returns what HandleRead would return, but must not change the
// device state or report diagnostics.
type RegisterHandler interface {
	HandleRead(offset uint64, width int) []byte
	HandleWrite(offset uint64, width int, data []byte)
	PeekRegister(offset uint64, width int) []byte
}

// A Target is something that can be attached to a Bus.
type Target interface {
	sim.Named
	AddrRange() AddrRange
	PioLatency() sim.VTimeInTick
	Read(addr uint64, width int) []byte
	Write(addr uint64, width int, data []byte)
	Peek(addr uint64, width int) []byte
}

// PioDevice holds the window and the access latency of a memory-mapped
// device and turns bus addresses into register offsets. Devices embed it
// together with a sim.ComponentBase to become a Target.
type PioDevice struct {
	window     AddrRange
	pioLatency sim.VTimeInTick
	handler    RegisterHandler
}

// NewPioDevice creates a PioDevice.
func NewPioDevice(
	base, size uint64,
	pioLatency sim.VTimeInTick,
	handler RegisterHandler,
) *PioDevice {
	if size == 0 {
		panic("device window must not be empty")
	}

	if handler == nil {
		panic("register handler must not be nil")
	}

	return &PioDevice{
		window:     AddrRange{Start: base, Size: size},
		pioLatency: pioLatency,
		handler:    handler,
	}
}

// AddrRange returns the window of the device.
func (d *PioDevice) AddrRange() AddrRange {
	return d.window
}

// PioLatency returns the time between an access and its response.
func (d *PioDevice) PioLatency() sim.VTimeInTick {
	return d.pioLatency
}

// Offset converts a bus address into an offset in the window.
func (d *PioDevice) Offset(addr uint64) uint64 {
	return addr - d.window.Start
}

// Read reads the register at addr.
func (d *PioDevice) Read(addr uint64, width int) []byte {
	data := d.handler.HandleRead(d.Offset(addr), width)

	return fitWidth(data, width)
}

// Peek reads the register at addr without side effects.
func (d *PioDevice) Peek(addr uint64, width int) []byte {
	data := d.handler.PeekRegister(d.Offset(addr), width)

	return fitWidth(data, width)
}

// Write writes the register at addr.
func (d *PioDevice) Write(addr uint64, width int, data []byte) {
	d.handler.HandleWrite(d.Offset(addr), width, data)
}

func fitWidth(data []byte, width int) []byte {
	if len(data) == width {
		return data
	}

	out := make([]byte, width)
	copy(out, data)

	return out
}
