package script

import (
	"io"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/accelsim/dev/npu"
	"github.com/sarchlab/accelsim/platform"
)

const firmware = `
for i = 0, 63 do
  poke32(MEM_BASE + i * 4, i)
end

dma_copy(MEM_BASE, SPM_BASE, 256)
npu_run(SPM_BASE, 256)
dma_copy(SPM_BASE, MEM_BASE + 0x1000, 256)
read(NPU_BASE + 0x4)
`

var _ = Describe("Load", func() {
	var (
		p   *platform.Platform
		env Env
	)

	BeforeEach(func() {
		var err error
		p, err = platform.MakeBuilder().
			WithLogger(log.New(io.Discard, "", 0)).
			Build()
		Expect(err).NotTo(HaveOccurred())

		env = Env{
			DMABase:     p.Config.DMA.PioAddr,
			NPUBase:     p.Config.NPU.PioAddr,
			MaxTransfer: p.Config.DMA.MaxTransferSize,
			Memory:      p,
			Symbols: map[string]uint64{
				"MEM_BASE": p.Config.Memory.Base,
				"SPM_BASE": p.Config.NPU.ScratchpadBase,
				"NPU_BASE": p.Config.NPU.PioAddr,
			},
		}
	})

	It("should run a firmware script", func() {
		Expect(Load(p.Driver, "fw.lua", firmware, env)).To(Succeed())

		p.Driver.Start()
		Expect(p.Run()).To(Succeed())

		Expect(p.Driver.Err()).NotTo(HaveOccurred())
		Expect(p.Driver.Finished()).To(BeTrue())

		got, err := p.ReadMemory(0x80001000, 256)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(platform.DemoPattern(256)))

		reads := p.Driver.Reads()
		last := reads[len(reads)-1]
		Expect(last.Addr).To(Equal(p.Config.NPU.PioAddr + npu.RegStatus))
		Expect(last.Value).To(Equal(uint64(npu.StatusReady)))
		Expect(p.DMA.NumTransfers()).To(Equal(uint64(2)))
	})

	It("should script raw register accesses", func() {
		src := `
write(0x10020040 + 0x8, 0x3000, 8)
poll(0x10020040 + 0x8, 0xffff, 0x3000, 8)
`
		Expect(Load(p.Driver, "raw.lua", src, env)).To(Succeed())

		p.Driver.Start()
		Expect(p.Run()).To(Succeed())

		Expect(p.NPU.InputAddr()).To(Equal(uint64(0x3000)))
		Expect(p.Driver.NumPolls()).To(Equal(0))
	})

	It("should access four bytes when no width is given", func() {
		src := "write(0x10020048, 0x3000)\nread(0x10020048)\n" +
			"poll(0x10020044, 0x1, 0x0)\n"
		Expect(Load(p.Driver, "short.lua", src, env)).To(Succeed())

		p.Driver.Start()
		Expect(p.Run()).To(Succeed())

		Expect(p.Driver.Err()).NotTo(HaveOccurred())
		Expect(p.NPU.InputAddr()).To(Equal(uint64(0x3000)))

		reads := p.Driver.Reads()
		Expect(reads).To(HaveLen(2))
		Expect(reads[0].Value).To(Equal(uint64(0x3000)))
		Expect(reads[1].Addr).To(Equal(uint64(0x10020044)))
		Expect(reads[1].Value).To(Equal(uint64(npu.StatusNotReady)))
	})

	It("should reject bad widths", func() {
		err := Load(p.Driver, "bad.lua", `read(0x10020044, 3)`, env)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("bad.lua"))
	})

	It("should reject negative addresses", func() {
		err := Load(p.Driver, "bad.lua", `write(-4, 0)`, env)

		Expect(err).To(HaveOccurred())
	})

	It("should report syntax errors", func() {
		err := Load(p.Driver, "bad.lua", `write(`, env)

		Expect(err).To(HaveOccurred())
	})

	It("should report memory errors", func() {
		err := Load(p.Driver, "bad.lua", `poke32(0x10, 1)`, env)

		Expect(err).To(HaveOccurred())
	})
})
