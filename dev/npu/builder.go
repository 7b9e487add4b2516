package npu

import (
	"log"

	"github.com/sarchlab/accelsim/mem"
	"github.com/sarchlab/accelsim/mmio"
	"github.com/sarchlab/accelsim/sim"
)

// Builder can build NPUs.
type Builder struct {
	engine         sim.EventScheduler
	pioAddr        uint64
	pioSize        uint64
	pioLatency     sim.VTimeInTick
	scratchpadBase uint64
	scratchpadSize uint64
	computeTicks   sim.VTimeInTick
	statusOffset   uint64
	logger         *log.Logger
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		pioAddr:        0x10020040,
		pioSize:        0x40,
		pioLatency:     100_000,
		scratchpadBase: 0x10020080,
		scratchpadSize: 32 * mem.KB,
		computeTicks:   1000,
		statusOffset:   RegStatus,
	}
}

// WithEngine sets the engine that schedules the completions.
func (b Builder) WithEngine(engine sim.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithPioAddr sets the base address of the register window.
func (b Builder) WithPioAddr(addr uint64) Builder {
	b.pioAddr = addr
	return b
}

// WithPioSize sets the size of the register window.
func (b Builder) WithPioSize(size uint64) Builder {
	b.pioSize = size
	return b
}

// WithPioLatency sets the latency of register accesses.
func (b Builder) WithPioLatency(latency sim.VTimeInTick) Builder {
	b.pioLatency = latency
	return b
}

// WithScratchpad sets the scratchpad region visible to the NPU.
func (b Builder) WithScratchpad(base, size uint64) Builder {
	b.scratchpadBase = base
	b.scratchpadSize = size
	return b
}

// WithComputeTicks sets how long a computation takes.
func (b Builder) WithComputeTicks(ticks sim.VTimeInTick) Builder {
	b.computeTicks = ticks
	return b
}

// WithStatusOffset records the offset of the status register.
func (b Builder) WithStatusOffset(offset uint64) Builder {
	b.statusOffset = offset
	return b
}

// WithLogger sets the logger that receives the diagnostics.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates an NPU.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		panic("engine is not set")
	}

	c := &Comp{
		Engine:         b.engine,
		ScratchpadBase: b.scratchpadBase,
		ScratchpadSize: b.scratchpadSize,
		ComputeTicks:   b.computeTicks,
		StatusOffset:   b.statusOffset,
		status:         StatusNotReady,
	}

	c.ComponentBase = sim.NewComponentBase(name)
	c.PioDevice = mmio.NewPioDevice(b.pioAddr, b.pioSize, b.pioLatency, c)
	c.Diagnostics = mmio.NewDiagnostics(name, b.logger)

	return c
}
