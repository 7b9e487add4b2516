package simpledma

import (
	"log"

	"github.com/sarchlab/accelsim/mem"
	"github.com/sarchlab/accelsim/mmio"
	"github.com/sarchlab/accelsim/sim"
)

// Builder can build DMA engines.
type Builder struct {
	memory      mem.Accessor
	pioAddr     uint64
	pioSize     uint64
	pioLatency  sim.VTimeInTick
	maxTransfer uint32
	logger      *log.Logger
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		pioAddr:     0x10020000,
		pioSize:     0x40,
		pioLatency:  50_000,
		maxTransfer: 256,
	}
}

// WithMemory sets the memory that the DMA engine reads from and writes to.
func (b Builder) WithMemory(memory mem.Accessor) Builder {
	b.memory = memory
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

// WithMaxTransfer sets the maximum number of bytes moved by one transfer.
func (b Builder) WithMaxTransfer(maxTransfer uint32) Builder {
	b.maxTransfer = maxTransfer
	return b
}

// WithLogger sets the logger that receives the diagnostics.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates a DMA engine.
func (b Builder) Build(name string) *Comp {
	if b.memory == nil {
		panic("memory is not set")
	}

	c := &Comp{
		Memory:      b.memory,
		MaxTransfer: b.maxTransfer,
	}

	c.ComponentBase = sim.NewComponentBase(name)
	c.PioDevice = mmio.NewPioDevice(b.pioAddr, b.pioSize, b.pioLatency, c)
	c.Diagnostics = mmio.NewDiagnostics(name, b.logger)

	return c
}
