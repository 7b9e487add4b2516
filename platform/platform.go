// Package platform assembles the bring-up system: main memory, the NPU
// scratchpad, the register bus, the NPU, the DMA engine, and a host driver.
package platform

import (
	"log"

	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/config"
	"github.com/sarchlab/accelsim/datarecording"
	"github.com/sarchlab/accelsim/dev/npu"
	"github.com/sarchlab/accelsim/dev/simpledma"
	"github.com/sarchlab/accelsim/driver"
	"github.com/sarchlab/accelsim/mem"
	"github.com/sarchlab/accelsim/mem/idealmemcontroller"
	"github.com/sarchlab/accelsim/mmio"
	"github.com/sarchlab/accelsim/sim"
	"github.com/sarchlab/accelsim/tracing"
)

// ErrTimeout is returned when the simulation runs past the driver timeout.
var ErrTimeout = errors.New("simulation timed out")

// Platform is a fully connected system.
type Platform struct {
	Config     config.Config
	Engine     *sim.SerialEngine
	Simulation *sim.Simulation

	DRAM       *idealmemcontroller.Comp
	Scratchpad *idealmemcontroller.Comp
	Memory     *mem.Router
	Bus        *mmio.Bus
	NPU        *npu.Comp
	DMA        *simpledma.Comp
	Driver     *driver.Driver

	NPUBusy    *tracing.BusyTimeTracer
	DMABusy    *tracing.BusyTimeTracer
	DMALatency *tracing.AverageTimeTracer
	DMASteps   *tracing.StepCountTracer
	MemoryTime *tracing.TotalTimeTracer

	dbTracer       *tracing.DBTracer
	phases         []PhaseTime
	phaseListeners []func(phase string, now sim.VTimeInTick)
}

// Builder can build platforms.
type Builder struct {
	cfg          config.Config
	logger       *log.Logger
	accessLogger *log.Logger
	eventLogger  *log.Logger
	recorder     datarecording.DataRecorder
}

// MakeBuilder creates a Builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg:    config.Default(),
		logger: log.Default(),
	}
}

// WithConfig sets the configuration of the system.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithLogger sets the logger that receives the device diagnostics.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithAccessLogger prints every register access to the logger.
func (b Builder) WithAccessLogger(logger *log.Logger) Builder {
	b.accessLogger = logger
	return b
}

// WithEventLogger prints every event to the logger.
func (b Builder) WithEventLogger(logger *log.Logger) Builder {
	b.eventLogger = logger
	return b
}

// WithDataRecorder records the device and memory tasks into the recorder.
func (b Builder) WithDataRecorder(recorder datarecording.DataRecorder) Builder {
	b.recorder = recorder
	return b
}

// Build creates the platform.
func (b Builder) Build() (*Platform, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Platform{
		Config: b.cfg,
		Engine: sim.NewSerialEngine(),
	}
	p.Simulation = sim.NewSimulation(p.Engine)

	if err := b.buildMemory(p); err != nil {
		return nil, err
	}

	if err := b.buildDevices(p); err != nil {
		return nil, err
	}

	p.Driver = driver.MakeBuilder().
		WithEngine(p.Engine).
		WithIssuer(p.Bus).
		WithPollInterval(b.cfg.Driver.PollInterval).
		Build("Driver")

	for _, c := range []sim.Component{
		p.DRAM, p.Scratchpad, p.NPU, p.DMA, p.Driver,
	} {
		p.Simulation.RegisterComponent(c)
	}

	b.attachTracers(p)

	return p, nil
}

func (b Builder) buildMemory(p *Platform) error {
	memCfg := b.cfg.Memory
	npuCfg := b.cfg.NPU

	p.DRAM = idealmemcontroller.MakeBuilder().
		WithEngine(p.Engine).
		WithFreq(memCfg.Freq).
		WithLatency(memCfg.Latency).
		WithNewStorage(memCfg.Capacity).
		WithAddressConverter(mem.OffsetConverter{Base: memCfg.Base}).
		Build("DRAM")

	p.Scratchpad = idealmemcontroller.MakeBuilder().
		WithEngine(p.Engine).
		WithFreq(memCfg.Freq).
		WithLatency(memCfg.Latency).
		WithNewStorage(npuCfg.ScratchpadSize).
		WithAddressConverter(mem.OffsetConverter{Base: npuCfg.ScratchpadBase}).
		Build("Scratchpad")

	p.Memory = mem.NewRouter(p.Engine)

	err := p.Memory.AddRange(memCfg.Base, memCfg.Capacity, p.DRAM)
	if err != nil {
		return errors.Wrap(err, "mapping DRAM")
	}

	err = p.Memory.AddRange(
		npuCfg.ScratchpadBase, npuCfg.ScratchpadSize, p.Scratchpad)
	if err != nil {
		return errors.Wrap(err, "mapping scratchpad")
	}

	return nil
}

func (b Builder) buildDevices(p *Platform) error {
	npuCfg := b.cfg.NPU
	dmaCfg := b.cfg.DMA

	p.Bus = mmio.NewBus("Bus", p.Engine)

	p.NPU = npu.MakeBuilder().
		WithEngine(p.Engine).
		WithPioAddr(npuCfg.PioAddr).
		WithPioSize(npuCfg.PioSize).
		WithPioLatency(npuCfg.PioLatency).
		WithScratchpad(npuCfg.ScratchpadBase, npuCfg.ScratchpadSize).
		WithComputeTicks(npuCfg.ComputeTicks).
		WithStatusOffset(npuCfg.StatusOffset).
		WithLogger(b.logger).
		Build("NPU")

	p.DMA = simpledma.MakeBuilder().
		WithMemory(p.Memory).
		WithPioAddr(dmaCfg.PioAddr).
		WithPioSize(dmaCfg.PioSize).
		WithPioLatency(dmaCfg.PioLatency).
		WithMaxTransfer(dmaCfg.MaxTransferSize).
		WithLogger(b.logger).
		Build("DMA")

	if err := p.Bus.Attach(p.DMA); err != nil {
		return err
	}

	return p.Bus.Attach(p.NPU)
}

func (b Builder) attachTracers(p *Platform) {
	p.NPUBusy = tracing.NewBusyTimeTracer(p.Engine, tracing.KindFilter("npu"))
	tracing.CollectTrace(p.NPU, p.NPUBusy)

	p.DMABusy = tracing.NewBusyTimeTracer(p.Engine, tracing.KindFilter("dma"))
	tracing.CollectTrace(p.DMA, p.DMABusy)

	p.DMALatency = tracing.NewAverageTimeTracer(
		p.Engine, tracing.KindFilter("dma"))
	tracing.CollectTrace(p.DMA, p.DMALatency)

	p.DMASteps = tracing.NewStepCountTracer(tracing.KindFilter("dma"))
	tracing.CollectTrace(p.DMA, p.DMASteps)

	p.MemoryTime = tracing.NewTotalTimeTracer(
		p.Engine, tracing.KindFilter("mem"))
	tracing.CollectTrace(p.DRAM, p.MemoryTime)
	tracing.CollectTrace(p.Scratchpad, p.MemoryTime)

	if b.accessLogger != nil {
		p.Bus.AcceptHook(mmio.NewAccessLogger(b.accessLogger, p.Engine))
	}

	if b.eventLogger != nil {
		p.Engine.AcceptHook(sim.NewEventLogger(b.eventLogger))
	}

	if b.recorder != nil {
		p.dbTracer = tracing.NewDBTracer(p.Engine, b.recorder)
		tracing.CollectTrace(p.NPU, p.dbTracer)
		tracing.CollectTrace(p.DMA, p.dbTracer)
		tracing.CollectTrace(p.DRAM, p.dbTracer)
		tracing.CollectTrace(p.Scratchpad, p.dbTracer)
	}
}

// Run runs the engine until no event is left, or until the driver timeout if
// one is configured.
func (p *Platform) Run() error {
	if p.Config.Driver.Timeout == 0 {
		return p.Engine.Run()
	}

	err := p.Engine.RunUntil(p.Config.Driver.Timeout)
	if errors.Is(err, sim.ErrDeadlineReached) {
		return errors.Wrapf(ErrTimeout, "%d ps", p.Config.Driver.Timeout)
	}

	return err
}

// Finish invokes the simulation end handlers and writes the trace.
func (p *Platform) Finish() {
	p.Engine.Finished()

	if p.dbTracer != nil {
		p.dbTracer.Terminate()
	}
}

// WriteMemory places data directly into the backing storage, taking no
// simulated time.
func (p *Platform) WriteMemory(addr uint64, data []byte) error {
	storage, offset, err := p.backing(addr, uint64(len(data)))
	if err != nil {
		return err
	}

	return storage.Write(offset, data)
}

// ReadMemory reads the backing storage directly, taking no simulated time.
func (p *Platform) ReadMemory(addr uint64, size uint64) ([]byte, error) {
	storage, offset, err := p.backing(addr, size)
	if err != nil {
		return nil, err
	}

	return storage.Read(offset, size)
}

func (p *Platform) backing(
	addr, size uint64,
) (*mem.Storage, uint64, error) {
	for _, m := range []struct {
		base uint64
		comp *idealmemcontroller.Comp
	}{
		{p.Config.Memory.Base, p.DRAM},
		{p.Config.NPU.ScratchpadBase, p.Scratchpad},
	} {
		r := mmio.AddrRange{Start: m.base, Size: m.comp.Storage.Capacity()}
		if r.Contains(addr, size) {
			return m.comp.Storage, addr - m.base, nil
		}
	}

	return nil, 0, errors.Errorf("0x%x+%d is not backed by memory", addr, size)
}
