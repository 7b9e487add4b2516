package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		Expect((1 * GHz).Period()).To(Equal(VTimeInTick(1000)))
		Expect((500 * MHz).Period()).To(Equal(VTimeInTick(2000)))
	})

	It("should panic on zero frequency", func() {
		Expect(func() { Freq(0).Period() }).To(Panic())
	})

	It("should count cycles", func() {
		Expect((1 * GHz).Cycle(12500)).To(Equal(uint64(12)))
	})

	It("should get this tick", func() {
		f := 1 * GHz
		Expect(f.ThisTick(2000)).To(Equal(VTimeInTick(2000)))
		Expect(f.ThisTick(1500)).To(Equal(VTimeInTick(2000)))
		Expect(f.ThisTick(0)).To(Equal(VTimeInTick(0)))
	})

	It("should get the next tick", func() {
		f := 1 * GHz
		Expect(f.NextTick(2000)).To(Equal(VTimeInTick(3000)))
		Expect(f.NextTick(1500)).To(Equal(VTimeInTick(2000)))
	})

	It("should get the n cycles later", func() {
		f := 1 * GHz
		Expect(f.NCyclesLater(12, 2000)).To(Equal(VTimeInTick(14000)))
		Expect(f.NCyclesLater(12, 1500)).To(Equal(VTimeInTick(14000)))
		Expect(f.NCyclesLater(0, 1500)).To(Equal(VTimeInTick(2000)))
	})

	DescribeTable("parsing frequencies",
		func(s string, expected Freq) {
			f, err := ParseFreq(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(BeNumerically("~", expected, 1e-3))
		},
		Entry("GHz", "1GHz", 1*GHz),
		Entry("MHz with space", "800 MHz", 800*MHz),
		Entry("KHz", "32KHz", 32*KHz),
		Entry("plain number", "100", 100*Hz),
		Entry("fraction", "1.5GHz", 1.5*GHz),
	)

	It("should reject bad frequencies", func() {
		_, err := ParseFreq("fast")
		Expect(err).To(HaveOccurred())

		_, err = ParseFreq("0Hz")
		Expect(err).To(HaveOccurred())
	})
})
