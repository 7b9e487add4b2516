// Package simpledma models a non-coherent DMA engine that copies a block of
// memory in two phases: it reads the source into a staging buffer and then
// writes the staging buffer to the destination.
package simpledma

import (
	"fmt"
	"log"
	"reflect"

	"github.com/sarchlab/accelsim/mem"
	"github.com/sarchlab/accelsim/mmio"
	"github.com/sarchlab/accelsim/sim"
	"github.com/sarchlab/accelsim/tracing"
)

// Register offsets.
const (
	RegSrc    uint64 = 0x00
	RegDst    uint64 = 0x08
	RegLen    uint64 = 0x10
	RegGo     uint64 = 0x14
	RegStatus uint64 = 0x18
)

// Bits of the STATUS register.
const (
	StatusBusy uint32 = 0x1
	StatusDone uint32 = 0x2
)

// Diagnostic keys of the DMA engine.
const (
	// DiagTruncated is reported when a transfer is longer than the maximum
	// transfer size.
	DiagTruncated = "truncated"

	// DiagFault is reported when the memory cannot serve a transfer. The
	// transfer ends early and still sets done.
	DiagFault = "fault"
)

// Registers describes the register map of the DMA engine.
var Registers = []mmio.RegisterInfo{
	{Offset: RegSrc, Name: "SRC", Bits: 64, Access: mmio.AccessReadWrite,
		Effect: "source address"},
	{Offset: RegDst, Name: "DST", Bits: 64, Access: mmio.AccessReadWrite,
		Effect: "destination address"},
	{Offset: RegLen, Name: "LEN", Bits: 32, Access: mmio.AccessReadWrite,
		Effect: "requested length (bytes)"},
	{Offset: RegGo, Name: "GO", Bits: 32, Access: mmio.AccessWrite,
		Effect: "trigger transfer"},
	{Offset: RegStatus, Name: "STATUS", Bits: 32, Access: mmio.AccessReadWrite,
		Effect: "bit0=busy, bit1=done; write clears done"},
}

// Phase is the stage of a transfer.
type Phase int

// The phases of a transfer.
const (
	PhaseIdle Phase = iota
	PhaseReading
	PhaseWriting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseReading:
		return "Reading"
	case PhaseWriting:
		return "Writing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Comp is the DMA engine.
type Comp struct {
	*sim.ComponentBase
	*mmio.PioDevice

	Memory      mem.Accessor
	MaxTransfer uint32
	Diagnostics *mmio.Diagnostics

	src, dst   uint64
	length     uint32
	activeLen  uint32
	phase      Phase
	busy       bool
	done       bool
	staging    []byte
	transferID string

	numTransfers uint64
}

// Busy tells if a transfer is in flight.
func (c *Comp) Busy() bool {
	return c.busy
}

// Done tells if the last transfer has completed and the done bit has not been
// cleared.
func (c *Comp) Done() bool {
	return c.done
}

// Phase returns the phase of the current transfer.
func (c *Comp) Phase() Phase {
	return c.phase
}

// Status returns the value of the STATUS register.
func (c *Comp) Status() uint32 {
	bits := uint32(0)

	if c.busy {
		bits |= StatusBusy
	}

	if c.done {
		bits |= StatusDone
	}

	return bits
}

// Src returns the latched source address.
func (c *Comp) Src() uint64 {
	return c.src
}

// Dst returns the latched destination address.
func (c *Comp) Dst() uint64 {
	return c.dst
}

// Len returns the latched requested length.
func (c *Comp) Len() uint32 {
	return c.length
}

// ActiveLen returns the length of the current or last transfer after
// truncation.
func (c *Comp) ActiveLen() uint32 {
	return c.activeLen
}

// TruncatedTransfers returns how many transfers have been truncated.
func (c *Comp) TruncatedTransfers() int {
	return c.Diagnostics.Count(DiagTruncated)
}

// NumFaults returns the number of transfers that ended on a memory fault.
func (c *Comp) NumFaults() int {
	return c.Diagnostics.Count(DiagFault)
}

// NumTransfers returns the number of completed non-empty transfers.
func (c *Comp) NumTransfers() uint64 {
	return c.numTransfers
}

// Handle defines how the DMA engine handles events.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *mem.AccessDoneEvent:
		c.finishPhase(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

// HandleRead returns the register at the offset.
func (c *Comp) HandleRead(offset uint64, width int) []byte {
	if data, ok := c.register(offset); ok {
		return data
	}

	key := fmt.Sprintf("read:0x%x", offset)
	if offset == RegGo {
		c.Diagnostics.Report(key, "read from write-only register GO")
	} else {
		c.Diagnostics.Report(key, "read from undefined offset 0x%x", offset)
	}

	return make([]byte, width)
}

// PeekRegister returns the register at the offset without reporting
// anything.
func (c *Comp) PeekRegister(offset uint64, width int) []byte {
	if data, ok := c.register(offset); ok {
		return data
	}

	return make([]byte, width)
}

func (c *Comp) register(offset uint64) ([]byte, bool) {
	switch offset {
	case RegSrc:
		return mmio.EncodeLE(c.src, 8), true
	case RegDst:
		return mmio.EncodeLE(c.dst, 8), true
	case RegLen:
		return mmio.EncodeLE(uint64(c.length), 4), true
	case RegStatus:
		return mmio.EncodeLE(uint64(c.Status()), 4), true
	}

	return nil, false
}

// HandleWrite updates the register at the offset.
func (c *Comp) HandleWrite(offset uint64, _ int, data []byte) {
	value := mmio.DecodeLE(data)

	switch offset {
	case RegSrc:
		c.src = value
	case RegDst:
		c.dst = value
	case RegLen:
		c.length = uint32(value)
	case RegGo:
		c.startTransfer()
	case RegStatus:
		c.done = false
	default:
		c.Diagnostics.Report(fmt.Sprintf("write:0x%x", offset),
			"write to undefined offset 0x%x", offset)
	}
}

func (c *Comp) startTransfer() {
	if c.busy {
		return
	}

	if c.length == 0 {
		c.done = true
		return
	}

	c.activeLen = c.length
	if c.length > c.MaxTransfer {
		c.activeLen = c.MaxTransfer
		c.Diagnostics.Report(DiagTruncated,
			"transfer length %d exceeds max %d; truncating",
			c.length, c.MaxTransfer)
	}

	c.busy = true
	c.done = false
	c.phase = PhaseReading
	c.staging = make([]byte, c.activeLen)
	c.transferID = sim.GetIDGenerator().Generate()

	tracing.StartTask(c.transferID, "", c, "dma", "transfer",
		fmt.Sprintf("0x%x -> 0x%x len=%d", c.src, c.dst, c.activeLen))
	tracing.AddTaskStep(c.transferID, c, "read issued")

	c.Memory.Read(c.src, c.staging, c.token())
}

func (c *Comp) token() mem.CompletionToken {
	return mem.CompletionToken{ID: c.transferID, Handler: c}
}

func (c *Comp) finishPhase(e *mem.AccessDoneEvent) {
	if !c.busy || e.Token.ID != c.transferID {
		return
	}

	if e.Err != nil {
		c.abortTransfer(e)
		return
	}

	switch c.phase {
	case PhaseReading:
		c.phase = PhaseWriting
		tracing.AddTaskStep(c.transferID, c, "write issued")
		c.Memory.Write(c.dst, c.staging, c.token())
	case PhaseWriting:
		c.phase = PhaseIdle
		c.busy = false
		c.done = true
		c.staging = nil
		c.numTransfers++
		tracing.EndTask(c.transferID, c)
	}
}

func (c *Comp) abortTransfer(e *mem.AccessDoneEvent) {
	c.Diagnostics.Report(DiagFault, "%s failed: %v", c.phase, e.Err)
	tracing.AddTaskStep(c.transferID, c, "fault")

	c.phase = PhaseIdle
	c.busy = false
	c.done = true
	c.staging = nil
	tracing.EndTask(c.transferID, c)
}
