package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/accelsim/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("BusyTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		t          *BusyTimeTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		t = NewBusyTimeTracer(timeTeller, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	at := func(time sim.VTimeInTick) {
		timeTeller.EXPECT().CurrentTime().Return(time)
	}

	It("should track busy time, one task", func() {
		at(10)
		t.StartTask(Task{ID: "1"})

		at(20)
		t.EndTask(Task{ID: "1"})

		Expect(t.BusyTime()).To(Equal(sim.VTimeInTick(10)))
	})

	It("should track busy time, two tasks", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(20)
		t.EndTask(Task{ID: "1"})

		at(30)
		t.StartTask(Task{ID: "2"})
		at(40)
		t.EndTask(Task{ID: "2"})

		Expect(t.BusyTime()).To(Equal(sim.VTimeInTick(20)))
	})

	It("should track busy time, two tasks adjacent", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(20)
		t.EndTask(Task{ID: "1"})

		at(20)
		t.StartTask(Task{ID: "2"})
		at(30)
		t.EndTask(Task{ID: "2"})

		Expect(t.BusyTime()).To(Equal(sim.VTimeInTick(20)))
	})

	It("should track busy time, two tasks overlap", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(15)
		t.StartTask(Task{ID: "2"})
		at(20)
		t.EndTask(Task{ID: "1"})
		at(25)
		t.EndTask(Task{ID: "2"})

		Expect(t.BusyTime()).To(Equal(sim.VTimeInTick(15)))
	})

	It("should track busy time, one task contains another", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(12)
		t.StartTask(Task{ID: "2"})
		at(14)
		t.EndTask(Task{ID: "2"})
		at(30)
		t.EndTask(Task{ID: "1"})

		Expect(t.BusyTime()).To(Equal(sim.VTimeInTick(20)))
	})

	It("should ignore filtered tasks", func() {
		t = NewBusyTimeTracer(timeTeller, KindFilter("dma"))

		at(10)
		t.StartTask(Task{ID: "1", Kind: "npu"})
		at(20)
		t.EndTask(Task{ID: "1"})

		Expect(t.BusyTime()).To(Equal(sim.VTimeInTick(0)))
	})

	It("should terminate all tasks", func() {
		at(10)
		t.StartTask(Task{ID: "1"})

		t.TerminateAllTasks(40)

		Expect(t.BusyTime()).To(Equal(sim.VTimeInTick(30)))
	})
})
