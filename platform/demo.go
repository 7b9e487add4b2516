package platform

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/driver"
	"github.com/sarchlab/accelsim/mem"
	"github.com/sarchlab/accelsim/sim"
)

// DefaultDemoLength is the size of the buffer moved by the demo: 256 32-bit
// words.
const DefaultDemoLength = 1024

// ErrDemoTooLarge is returned when the demo buffer does not fit the memories.
var ErrDemoTooLarge = errors.New("demo buffer does not fit")

// Demo describes the buffers used by the demo program.
type Demo struct {
	Length uint32
	Src    uint64
	Spm    uint64
	Dst    uint64
}

// DemoPhases names the steps of the demo program in order.
var DemoPhases = []string{"copy in", "compute", "copy out"}

// PhaseTime is the time when a demo phase finished.
type PhaseTime struct {
	Phase string
	Time  sim.VTimeInTick
}

// DemoResult summarizes a demo run.
type DemoResult struct {
	Demo

	Phases       []PhaseTime
	FinishTime   sim.VTimeInTick
	Errors       int
	NumPolls     int
	NPUBusyTime  sim.VTimeInTick
	DMABusyTime  sim.VTimeInTick
	DMATransfers uint64
	NPUComputes  uint64

	// AvgTransferTime is the mean time from GO to done of a DMA transfer.
	AvgTransferTime float64
	ReadsIssued     uint64
	WritesIssued    uint64
	DMAFaults       int

	// MemoryTime adds up the latency of every memory access.
	MemoryTime     sim.VTimeInTick
	MemoryAccesses uint64
}

// Passed tells if the buffer came back unchanged.
func (r DemoResult) Passed() bool {
	return r.Errors == 0
}

// DemoPattern returns the contents of the source buffer: word i holds i, in
// little-endian order.
func DemoPattern(length uint32) []byte {
	buf := make([]byte, (length+3)/4*4)
	for i := 0; i < len(buf)/4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(i))
	}

	return buf[:length]
}

// DemoProgram fills the source buffer and scripts the driver: copy the buffer
// into the scratchpad, run the NPU on it, and copy it back into a second
// buffer in main memory.
func (p *Platform) DemoProgram(length uint32) (Demo, error) {
	d := Demo{
		Length: length,
		Src:    p.Config.Memory.Base,
		Spm:    p.Config.NPU.ScratchpadBase,
	}
	d.Dst = d.Src + alignUp(uint64(length), 4*mem.KB)

	if uint64(length) > p.Config.NPU.ScratchpadSize {
		return d, errors.Wrapf(ErrDemoTooLarge,
			"%d bytes into a %d byte scratchpad",
			length, p.Config.NPU.ScratchpadSize)
	}

	if d.Dst+uint64(length) > p.Config.Memory.Base+p.Config.Memory.Capacity {
		return d, errors.Wrapf(ErrDemoTooLarge,
			"two %d byte buffers into %d bytes of memory",
			length, p.Config.Memory.Capacity)
	}

	if err := p.WriteMemory(d.Src, DemoPattern(length)); err != nil {
		return d, err
	}

	dmaBase := p.Config.DMA.PioAddr
	maxTransfer := p.Config.DMA.MaxTransferSize

	driver.DMACopyChunked(p.Driver, dmaBase, d.Src, d.Spm, length, maxTransfer)
	p.markPhase(DemoPhases[0])
	driver.NPURun(p.Driver, p.Config.NPU.PioAddr, d.Spm, length)
	p.markPhase(DemoPhases[1])
	driver.DMACopyChunked(p.Driver, dmaBase, d.Spm, d.Dst, length, maxTransfer)
	p.markPhase(DemoPhases[2])

	return d, nil
}

// OnDemoPhase registers a function to call when a demo phase finishes.
func (p *Platform) OnDemoPhase(fn func(phase string, now sim.VTimeInTick)) {
	p.phaseListeners = append(p.phaseListeners, fn)
}

func (p *Platform) markPhase(phase string) {
	p.Driver.Call(func(now sim.VTimeInTick) {
		p.phases = append(p.phases, PhaseTime{Phase: phase, Time: now})

		for _, fn := range p.phaseListeners {
			fn(phase, now)
		}
	})
}

// RunDemo runs the demo program to completion and checks the copied buffer.
func (p *Platform) RunDemo(length uint32) (DemoResult, error) {
	d, err := p.DemoProgram(length)
	if err != nil {
		return DemoResult{}, err
	}

	p.Driver.Start()

	if err := p.Run(); err != nil {
		return DemoResult{}, err
	}

	if err := p.Driver.Err(); err != nil {
		return DemoResult{}, err
	}

	if !p.Driver.Finished() {
		return DemoResult{}, errors.New("driver stalled before finishing")
	}

	return p.checkDemo(d)
}

func (p *Platform) checkDemo(d Demo) (DemoResult, error) {
	result := DemoResult{
		Demo:         d,
		Phases:       p.phases,
		FinishTime:   p.Driver.FinishTime(),
		NumPolls:     p.Driver.NumPolls(),
		NPUBusyTime:  p.NPUBusy.BusyTime(),
		DMABusyTime:  p.DMABusy.BusyTime(),
		DMATransfers: p.DMA.NumTransfers(),
		NPUComputes:  p.NPU.NumComputes(),

		AvgTransferTime: p.DMALatency.AverageTime(),
		ReadsIssued:     p.DMASteps.GetStepCount("read issued"),
		WritesIssued:    p.DMASteps.GetStepCount("write issued"),
		DMAFaults:       p.DMA.NumFaults(),
		MemoryTime:      p.MemoryTime.TotalTime(),
		MemoryAccesses:  p.MemoryTime.TaskCount(),
	}

	got, err := p.ReadMemory(d.Dst, uint64(d.Length))
	if err != nil {
		return result, err
	}

	want := DemoPattern(d.Length)
	if bytes.Equal(got, want) {
		return result, nil
	}

	for i := 0; i < len(want); i += 4 {
		end := min(i+4, len(want))
		if !bytes.Equal(got[i:end], want[i:end]) {
			result.Errors++
		}
	}

	return result, nil
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) / align * align
}
