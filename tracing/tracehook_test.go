package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/accelsim/sim"
	"go.uber.org/mock/gomock"
)

type recordingTracer struct {
	started, stepped, ended []string
}

func (t *recordingTracer) StartTask(task Task) {
	t.started = append(t.started, task.ID)
}

func (t *recordingTracer) StepTask(task Task) {
	t.stepped = append(t.stepped, task.Steps[0].What)
}

func (t *recordingTracer) EndTask(task Task) {
	t.ended = append(t.ended, task.ID)
}

type hookableDomain struct {
	*sim.ComponentBase
}

var _ = Describe("CollectTrace", func() {
	var (
		domain hookableDomain
		tracer *recordingTracer
	)

	BeforeEach(func() {
		domain = hookableDomain{ComponentBase: sim.NewComponentBase("Domain")}
		tracer = &recordingTracer{}
	})

	It("should route the task hooks to the tracer", func() {
		CollectTrace(domain, tracer)

		StartTask("1", "", domain, "kind", "what", nil)
		AddTaskStep("1", domain, "step")
		EndTask("1", domain)

		Expect(tracer.started).To(Equal([]string{"1"}))
		Expect(tracer.stepped).To(Equal([]string{"step"}))
		Expect(tracer.ended).To(Equal([]string{"1"}))
	})

	It("should ignore other hook positions", func() {
		CollectTrace(domain, tracer)

		domain.InvokeHook(sim.HookCtx{
			Domain: domain,
			Pos:    sim.HookPosBeforeEvent,
		})

		Expect(tracer.started).To(BeEmpty())
	})

	It("should panic when attaching the same tracer twice", func() {
		CollectTrace(domain, tracer)

		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
	})

	It("should accept a different tracer", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		timeTeller := NewMockTimeTeller(mockCtrl)

		CollectTrace(domain, tracer)
		CollectTrace(domain, NewTotalTimeTracer(timeTeller, nil))

		Expect(domain.NumHooks()).To(Equal(2))
	})
})
