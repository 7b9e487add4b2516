package tracing

import (
	"sync"

	"github.com/sarchlab/accelsim/sim"
)

// taskClock remembers when the accepted tasks started and hands out their
// durations when they end.
type taskClock struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock    sync.Mutex
	started map[string]sim.VTimeInTick
}

func newTaskClock(timeTeller sim.TimeTeller, filter TaskFilter) taskClock {
	return taskClock{
		timeTeller: timeTeller,
		filter:     filter,
		started:    make(map[string]sim.VTimeInTick),
	}
}

func (c *taskClock) start(task Task) {
	now := c.timeTeller.CurrentTime()

	if c.filter != nil && !c.filter(task) {
		return
	}

	c.lock.Lock()
	c.started[task.ID] = now
	c.lock.Unlock()
}

// stop returns the duration of the task, or false if the task was not
// accepted. It must be called with the lock held.
func (c *taskClock) stop(task Task) (sim.VTimeInTick, bool) {
	now := c.timeTeller.CurrentTime()

	start, ok := c.started[task.ID]
	if !ok {
		return 0, false
	}

	delete(c.started, task.ID)

	return now - start, true
}

// TotalTimeTracer adds up the time spent on the tasks it accepts. Overlapping
// tasks are counted in full, so the total can exceed the elapsed time.
type TotalTimeTracer struct {
	taskClock

	totalTime sim.VTimeInTick
	taskCount uint64
}

// NewTotalTimeTracer creates a TotalTimeTracer. A nil filter accepts all
// tasks.
func NewTotalTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *TotalTimeTracer {
	return &TotalTimeTracer{taskClock: newTaskClock(timeTeller, filter)}
}

// TotalTime returns the summed duration of the completed tasks.
func (t *TotalTimeTracer) TotalTime() sim.VTimeInTick {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalTime
}

// TaskCount returns the number of completed tasks.
func (t *TotalTimeTracer) TaskCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// StartTask records the start time of the task.
func (t *TotalTimeTracer) StartTask(task Task) {
	t.start(task)
}

// StepTask ignores steps.
func (t *TotalTimeTracer) StepTask(Task) {}

// EndTask adds the duration of the task.
func (t *TotalTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if d, ok := t.stop(task); ok {
		t.totalTime += d
		t.taskCount++
	}
}

// AverageTimeTracer keeps a running mean of the duration of the tasks it
// accepts.
type AverageTimeTracer struct {
	taskClock

	mean  float64
	count uint64
}

// NewAverageTimeTracer creates an AverageTimeTracer. A nil filter accepts
// all tasks.
func NewAverageTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{taskClock: newTaskClock(timeTeller, filter)}
}

// AverageTime returns the mean duration in ticks, or 0 before any task ends.
func (t *AverageTimeTracer) AverageTime() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.mean
}

// TotalCount returns the number of completed tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count
}

// StartTask records the start time of the task.
func (t *AverageTimeTracer) StartTask(task Task) {
	t.start(task)
}

// StepTask ignores steps.
func (t *AverageTimeTracer) StepTask(Task) {}

// EndTask folds the duration of the task into the mean.
func (t *AverageTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	d, ok := t.stop(task)
	if !ok {
		return
	}

	t.count++
	t.mean += (float64(d) - t.mean) / float64(t.count)
}
