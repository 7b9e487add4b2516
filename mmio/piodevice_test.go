package mmio

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("PioDevice", func() {
	var (
		mockCtrl *gomock.Controller
		handler  *MockRegisterHandler
		dev      *PioDevice
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		handler = NewMockRegisterHandler(mockCtrl)
		dev = NewPioDevice(0x1000, 0x40, 50, handler)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic on an empty window", func() {
		Expect(func() { NewPioDevice(0x1000, 0, 50, handler) }).To(Panic())
	})

	It("should panic without a handler", func() {
		Expect(func() { NewPioDevice(0x1000, 0x40, 50, nil) }).To(Panic())
	})

	It("should expose its window and latency", func() {
		Expect(dev.AddrRange()).To(Equal(AddrRange{Start: 0x1000, Size: 0x40}))
		Expect(dev.PioLatency()).To(BeNumerically("==", 50))
	})

	It("should pass offsets to the handler", func() {
		handler.EXPECT().HandleRead(uint64(0x8), 8).Return(EncodeLE(0x3000, 8))
		Expect(dev.Read(0x1008, 8)).To(Equal(EncodeLE(0x3000, 8)))

		handler.EXPECT().HandleWrite(uint64(0x10), 4, EncodeLE(256, 4))
		dev.Write(0x1010, 4, EncodeLE(256, 4))
	})

	It("should fit the read data to the access width", func() {
		handler.EXPECT().HandleRead(uint64(0x4), 8).Return([]byte{1, 0, 0, 0})
		Expect(dev.Read(0x1004, 8)).To(Equal([]byte{1, 0, 0, 0, 0, 0, 0, 0}))

		handler.EXPECT().HandleRead(uint64(0x4), 2).Return([]byte{1, 2, 3, 4})
		Expect(dev.Read(0x1004, 2)).To(Equal([]byte{1, 2}))
	})

	It("should peek through the handler", func() {
		handler.EXPECT().PeekRegister(uint64(0x4), 4).Return([]byte{1})

		Expect(dev.Peek(0x1004, 4)).To(Equal([]byte{1, 0, 0, 0}))
	})
})
