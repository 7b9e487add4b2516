// Package config holds the parameters of the simulated system and loads them
// from dotenv files and ACCELSIM_* environment variables.
package config

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/mem"
	"github.com/sarchlab/accelsim/mmio"
	"github.com/sarchlab/accelsim/sim"
)

// ErrInvalidConfig is the cause of every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// NPUConfig holds the parameters of the NPU.
type NPUConfig struct {
	PioAddr        uint64
	PioSize        uint64
	PioLatency     sim.VTimeInTick
	ScratchpadBase uint64
	ScratchpadSize uint64
	ComputeTicks   sim.VTimeInTick
	StatusOffset   uint64
}

// DMAConfig holds the parameters of the DMA engine.
type DMAConfig struct {
	PioAddr         uint64
	PioSize         uint64
	PioLatency      sim.VTimeInTick
	MaxTransferSize uint32
}

// MemoryConfig holds the parameters of the main memory.
type MemoryConfig struct {
	Base     uint64
	Capacity uint64
	Latency  int
	Freq     sim.Freq
}

// DriverConfig holds the parameters of the host driver.
type DriverConfig struct {
	PollInterval sim.VTimeInTick

	// Timeout bounds the simulated time of a driver program. Zero means no
	// bound.
	Timeout sim.VTimeInTick
}

// Config holds the parameters of the whole system.
type Config struct {
	NPU    NPUConfig
	DMA    DMAConfig
	Memory MemoryConfig
	Driver DriverConfig
}

// Default returns the configuration of the bring-up system.
func Default() Config {
	return Config{
		NPU: NPUConfig{
			PioAddr:        0x10020040,
			PioSize:        0x40,
			PioLatency:     100_000,
			ScratchpadBase: 0x10020080,
			ScratchpadSize: 32 * mem.KB,
			ComputeTicks:   1000,
			StatusOffset:   0x04,
		},
		DMA: DMAConfig{
			PioAddr:         0x10020000,
			PioSize:         0x40,
			PioLatency:      50_000,
			MaxTransferSize: 256,
		},
		Memory: MemoryConfig{
			Base:     0x80000000,
			Capacity: 512 * mem.MB,
			Latency:  100,
			Freq:     1 * sim.GHz,
		},
		Driver: DriverConfig{
			PollInterval: 10_000,
			Timeout:      1_000_000_000,
		},
	}
}

// Validate checks that the configuration describes a system that can be
// built.
func (c Config) Validate() error {
	if c.NPU.PioSize == 0 {
		return errors.Wrap(ErrInvalidConfig, "NPU PIO window is empty")
	}

	if c.DMA.PioSize == 0 {
		return errors.Wrap(ErrInvalidConfig, "DMA PIO window is empty")
	}

	if c.NPU.ScratchpadSize == 0 {
		return errors.Wrap(ErrInvalidConfig, "NPU scratchpad is empty")
	}

	if c.DMA.MaxTransferSize == 0 {
		return errors.Wrap(ErrInvalidConfig, "DMA max transfer size is zero")
	}

	if c.Memory.Capacity == 0 {
		return errors.Wrap(ErrInvalidConfig, "memory capacity is zero")
	}

	if c.Memory.Freq <= 0 {
		return errors.Wrap(ErrInvalidConfig, "memory frequency must be positive")
	}

	if c.Memory.Latency < 0 {
		return errors.Wrap(ErrInvalidConfig, "memory latency is negative")
	}

	if c.Driver.PollInterval == 0 {
		return errors.Wrap(ErrInvalidConfig, "driver poll interval is zero")
	}

	return c.validateRanges()
}

func (c Config) validateRanges() error {
	ranges := []struct {
		name string
		r    mmio.AddrRange
	}{
		{"NPU registers", mmio.AddrRange{Start: c.NPU.PioAddr, Size: c.NPU.PioSize}},
		{"DMA registers", mmio.AddrRange{Start: c.DMA.PioAddr, Size: c.DMA.PioSize}},
		{"NPU scratchpad", mmio.AddrRange{
			Start: c.NPU.ScratchpadBase, Size: c.NPU.ScratchpadSize}},
		{"memory", mmio.AddrRange{Start: c.Memory.Base, Size: c.Memory.Capacity}},
	}

	for i, a := range ranges {
		if a.r.End() < a.r.Start {
			return errors.Wrapf(ErrInvalidConfig,
				"%s overflows the address space", a.name)
		}

		for _, b := range ranges[i+1:] {
			if a.r.Overlaps(b.r) {
				return errors.Wrapf(ErrInvalidConfig,
					"%s %s overlaps %s %s", a.name, a.r, b.name, b.r)
			}
		}
	}

	return nil
}
