// Package npu models a compute block that is controlled through memory-mapped
// registers. A computation is pure elapsed time: writing START makes the
// device busy for a fixed number of ticks, after which STATUS reads ready.
package npu

import (
	"fmt"
	"log"
	"reflect"

	"github.com/sarchlab/accelsim/mmio"
	"github.com/sarchlab/accelsim/sim"
	"github.com/sarchlab/accelsim/tracing"
)

// Register offsets.
const (
	RegStart     uint64 = 0x00
	RegStatus    uint64 = 0x04
	RegInputAddr uint64 = 0x08
	RegLength    uint64 = 0x10
)

// Values of the STATUS register.
const (
	StatusNotReady uint32 = 0
	StatusReady    uint32 = 1
)

// Registers describes the register map of the NPU.
var Registers = []mmio.RegisterInfo{
	{Offset: RegStart, Name: "START", Bits: 32, Access: mmio.AccessWrite,
		Effect: "trigger compute"},
	{Offset: RegStatus, Name: "STATUS", Bits: 32, Access: mmio.AccessRead,
		Effect: "0=not ready, 1=ready"},
	{Offset: RegInputAddr, Name: "INPUT_ADDR", Bits: 64,
		Access: mmio.AccessReadWrite, Effect: "operand address"},
	{Offset: RegLength, Name: "LENGTH", Bits: 32,
		Access: mmio.AccessReadWrite, Effect: "operand length"},
}

type computeDoneEvent struct {
	*sim.EventBase
	taskID string
}

func newComputeDoneEvent(
	time sim.VTimeInTick,
	handler sim.Handler,
	taskID string,
) *computeDoneEvent {
	return &computeDoneEvent{
		EventBase: sim.NewEventBase(time, handler),
		taskID:    taskID,
	}
}

// Comp is the NPU.
type Comp struct {
	*sim.ComponentBase
	*mmio.PioDevice

	Engine         sim.EventScheduler
	ScratchpadBase uint64
	ScratchpadSize uint64
	ComputeTicks   sim.VTimeInTick
	StatusOffset   uint64
	Diagnostics    *mmio.Diagnostics

	inputAddr   uint64
	length      uint32
	status      uint32
	busy        bool
	taskID      string
	numComputes uint64
}

// Busy tells if a computation is outstanding.
func (c *Comp) Busy() bool {
	return c.busy
}

// Status returns the value of the STATUS register.
func (c *Comp) Status() uint32 {
	return c.status
}

// InputAddr returns the latched operand address.
func (c *Comp) InputAddr() uint64 {
	return c.inputAddr
}

// Length returns the latched operand length.
func (c *Comp) Length() uint32 {
	return c.length
}

// NumComputes returns the number of completed computations.
func (c *Comp) NumComputes() uint64 {
	return c.numComputes
}

// Handle defines how the NPU handles events.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *computeDoneEvent:
		c.completeCompute(e)
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

	if offset == RegStart {
		c.Diagnostics.Report(readKey(offset),
			"read from write-only register START")
	} else {
		c.Diagnostics.Report(readKey(offset),
			"read from undefined offset 0x%x", offset)
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
	case RegStatus:
		return mmio.EncodeLE(uint64(c.status), 4), true
	case RegInputAddr:
		return mmio.EncodeLE(c.inputAddr, 8), true
	case RegLength:
		return mmio.EncodeLE(uint64(c.length), 4), true
	}

	return nil, false
}

// HandleWrite updates the register at the offset.
func (c *Comp) HandleWrite(offset uint64, _ int, data []byte) {
	value := mmio.DecodeLE(data)

	switch offset {
	case RegStart:
		c.triggerCompute()
	case RegInputAddr:
		c.inputAddr = value
	case RegLength:
		c.length = uint32(value)
	case RegStatus:
		c.Diagnostics.Report(writeKey(offset),
			"write to read-only register STATUS ignored")
	default:
		c.Diagnostics.Report(writeKey(offset),
			"write to undefined offset 0x%x", offset)
	}
}

func readKey(offset uint64) string {
	return fmt.Sprintf("read:0x%x", offset)
}

func writeKey(offset uint64) string {
	return fmt.Sprintf("write:0x%x", offset)
}

func (c *Comp) triggerCompute() {
	if c.busy {
		return
	}

	c.busy = true
	c.status = StatusNotReady
	c.taskID = sim.GetIDGenerator().Generate()

	tracing.StartTask(c.taskID, "", c, "npu", "compute",
		fmt.Sprintf("input=0x%x len=%d", c.inputAddr, c.length))

	now := c.Engine.CurrentTime()
	c.Engine.Schedule(newComputeDoneEvent(now+c.ComputeTicks, c, c.taskID))
}

func (c *Comp) completeCompute(e *computeDoneEvent) {
	if !c.busy || e.taskID != c.taskID {
		return
	}

	c.busy = false
	c.status = StatusReady
	c.numComputes++

	tracing.EndTask(c.taskID, c)
}
