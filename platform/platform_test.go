package platform

import (
	"bytes"
	"database/sql"
	"io"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/config"
	"github.com/sarchlab/accelsim/datarecording"
	"github.com/sarchlab/accelsim/driver"
	"github.com/sarchlab/accelsim/sim"
)

var quiet = log.New(io.Discard, "", 0)

var _ = Describe("Builder", func() {
	It("should reject an invalid configuration", func() {
		cfg := config.Default()
		cfg.DMA.PioAddr = cfg.NPU.PioAddr

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(errors.Cause(err)).To(BeIdenticalTo(config.ErrInvalidConfig))
	})

	It("should connect the system", func() {
		p, err := MakeBuilder().WithLogger(quiet).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(p.Bus.Targets()).To(HaveLen(2))
		Expect(p.Bus.Find(0x10020000, 8)).To(BeIdenticalTo(p.DMA))
		Expect(p.Bus.Find(0x10020044, 4)).To(BeIdenticalTo(p.NPU))
		Expect(p.Memory.Find(0x80000000, 4)).To(BeIdenticalTo(p.DRAM))
		Expect(p.Memory.Find(0x10020080, 4)).To(BeIdenticalTo(p.Scratchpad))
		Expect(p.Simulation.Components()).To(HaveLen(5))
		Expect(p.Simulation.GetComponentByName("NPU")).To(BeIdenticalTo(p.NPU))
	})

	It("should access the backing memories directly", func() {
		p, err := MakeBuilder().WithLogger(quiet).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(p.WriteMemory(0x80001000, []byte{1, 2, 3})).To(Succeed())
		Expect(p.WriteMemory(0x10020080, []byte{4})).To(Succeed())

		data, err := p.ReadMemory(0x80001000, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte{1, 2, 3}))

		data, err = p.Scratchpad.Storage.Read(0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte{4}))

		_, err = p.ReadMemory(0x10, 4)
		Expect(err).To(HaveOccurred())
	})

	It("should finish transfers that touch unmapped memory", func() {
		p, err := MakeBuilder().WithLogger(quiet).Build()
		Expect(err).NotTo(HaveOccurred())

		dmaBase := p.Config.DMA.PioAddr
		memEnd := p.Config.Memory.Base + p.Config.Memory.Capacity

		driver.DMACopy(p.Driver, dmaBase, 0x0, p.Config.Memory.Base, 16)
		driver.DMACopy(p.Driver, dmaBase,
			memEnd-8, p.Config.NPU.ScratchpadBase, 16)
		driver.DMACopy(p.Driver, dmaBase,
			p.Config.Memory.Base, p.Config.Memory.Base+0x100, 16)
		p.Driver.Start()

		Expect(p.Run()).To(Succeed())

		Expect(p.Driver.Err()).NotTo(HaveOccurred())
		Expect(p.Driver.Finished()).To(BeTrue())
		Expect(p.DMA.Done()).To(BeTrue())
		Expect(p.DMA.NumFaults()).To(Equal(2))
		Expect(p.DMA.NumTransfers()).To(Equal(uint64(1)))
		Expect(p.Memory.NumFaults()).To(Equal(uint64(2)))
	})
})

var _ = Describe("Demo", func() {
	It("should build the pattern", func() {
		Expect(DemoPattern(9)).To(Equal([]byte{
			0, 0, 0, 0, 1, 0, 0, 0, 2,
		}))
	})

	It("should move the buffer through the scratchpad and back", func() {
		p, err := MakeBuilder().WithLogger(quiet).Build()
		Expect(err).NotTo(HaveOccurred())

		result, err := p.RunDemo(DefaultDemoLength)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Passed()).To(BeTrue())
		Expect(result.Src).To(Equal(uint64(0x80000000)))
		Expect(result.Spm).To(Equal(uint64(0x10020080)))
		Expect(result.Dst).To(Equal(uint64(0x80001000)))
		Expect(result.DMATransfers).To(Equal(uint64(8)))
		Expect(result.NPUComputes).To(Equal(uint64(1)))
		Expect(result.NPUBusyTime).To(Equal(sim.VTimeInTick(1000)))
		Expect(result.DMABusyTime).To(BeNumerically(">", 0))
		Expect(result.NumPolls).To(BeNumerically(">", 0))
		Expect(result.FinishTime).To(BeNumerically(">", result.DMABusyTime))
		Expect(result.Phases).To(HaveLen(3))
		Expect(result.Phases[2].Phase).To(Equal("copy out"))
		Expect(result.Phases[2].Time).To(Equal(result.FinishTime))
		Expect(result.Phases[0].Time).To(BeNumerically("<", result.Phases[1].Time))
		Expect(p.DMA.TruncatedTransfers()).To(Equal(0))
		Expect(p.NPU.Diagnostics.Total()).To(Equal(0))
	})

	It("should report the transfer and memory statistics", func() {
		p, err := MakeBuilder().WithLogger(quiet).Build()
		Expect(err).NotTo(HaveOccurred())

		result, err := p.RunDemo(DefaultDemoLength)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.AvgTransferTime * 8).
			To(BeNumerically("~", float64(result.DMABusyTime), 1))
		Expect(result.ReadsIssued).To(Equal(uint64(8)))
		Expect(result.WritesIssued).To(Equal(uint64(8)))
		Expect(result.DMAFaults).To(Equal(0))
		Expect(result.MemoryAccesses).To(Equal(uint64(16)))
		Expect(result.MemoryTime).To(BeNumerically(">", 0))
		Expect(result.MemoryTime % 16).To(BeZero())
		Expect(p.DMASteps.GetTaskCount("read issued")).To(Equal(uint64(8)))
	})

	It("should notify the phase listeners", func() {
		p, err := MakeBuilder().WithLogger(quiet).Build()
		Expect(err).NotTo(HaveOccurred())

		var phases []string
		p.OnDemoPhase(func(phase string, _ sim.VTimeInTick) {
			phases = append(phases, phase)
		})

		_, err = p.RunDemo(64)

		Expect(err).NotTo(HaveOccurred())
		Expect(phases).To(Equal(DemoPhases))
	})

	It("should time out when the NPU never becomes ready", func() {
		cfg := config.Default()
		cfg.NPU.ComputeTicks = 1 << 40
		cfg.Driver.Timeout = 10_000_000

		p, err := MakeBuilder().WithConfig(cfg).WithLogger(quiet).Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = p.RunDemo(64)

		Expect(errors.Cause(err)).To(BeIdenticalTo(ErrTimeout))
		Expect(p.Driver.Finished()).To(BeFalse())
	})

	It("should reject a buffer larger than the scratchpad", func() {
		p, err := MakeBuilder().WithLogger(quiet).Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = p.RunDemo(64 * 1024)

		Expect(errors.Cause(err)).To(BeIdenticalTo(ErrDemoTooLarge))
	})

	It("should log register accesses", func() {
		buf := new(bytes.Buffer)
		p, err := MakeBuilder().
			WithLogger(quiet).
			WithAccessLogger(log.New(buf, "", 0)).
			Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = p.RunDemo(16)

		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("DMA"))
		Expect(buf.String()).To(ContainSubstring("NPU"))
	})

	It("should record the tasks", func() {
		db, err := sql.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		db.SetMaxOpenConns(1)

		p, err := MakeBuilder().
			WithLogger(quiet).
			WithDataRecorder(datarecording.NewWithDB(db)).
			Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = p.RunDemo(DefaultDemoLength)
		Expect(err).NotTo(HaveOccurred())
		p.Finish()

		count := func(kind string) int {
			var n int
			row := db.QueryRow("SELECT COUNT(*) FROM trace WHERE Kind = ?", kind)
			Expect(row.Scan(&n)).To(Succeed())
			return n
		}

		Expect(count("npu")).To(Equal(1))
		Expect(count("dma")).To(Equal(8))
		Expect(count("mem")).To(Equal(16))
	})
})
