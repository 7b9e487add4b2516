package tracing

import (
	"sync"

	"github.com/sarchlab/accelsim/datarecording"
	"github.com/sarchlab/accelsim/sim"
	"github.com/tebeka/atexit"
)

type taskTableEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime uint64
	EndTime   uint64
}

type stepTableEntry struct {
	TaskID string
	What   string
	Time   uint64
}

// DBTracer is a tracer that stores the completed tasks and their steps in a
// DataRecorder.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	startTime, endTime sim.VTimeInTick

	tracingTasks map[string]Task
	terminated   bool
}

// NewDBTracer creates a new DBTracer. It creates the trace and trace_steps
// tables in the recorder.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable("trace", taskTableEntry{})
	dataRecorder.CreateTable("trace_steps", stepTableEntry{})

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetTimeRange limits the recorded tasks to those that overlap the range. A
// zero end time means no upper limit.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInTick) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	startingTaskMustBeValid(task)

	if t.terminated {
		return
	}

	task.StartTime = t.timeTeller.CurrentTime()
	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.tracingTasks[task.ID] = task
}

func startingTaskMustBeValid(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Location == "" {
		panic("task location must be set")
	}
}

// StepTask records a step of a task that is being traced.
func (t *DBTracer) StepTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.tracingTasks[task.ID]; !ok {
		return
	}

	now := t.timeTeller.CurrentTime()
	for _, step := range task.Steps {
		t.backend.InsertData("trace_steps", stepTableEntry{
			TaskID: task.ID,
			What:   step.What,
			Time:   uint64(now),
		})
	}
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	originalTask.EndTime = t.timeTeller.CurrentTime()
	if originalTask.EndTime < t.startTime {
		return
	}

	t.writeTask(originalTask)
}

func (t *DBTracer) writeTask(task Task) {
	t.backend.InsertData("trace", taskTableEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Location,
		StartTime: uint64(task.StartTime),
		EndTime:   uint64(task.EndTime),
	})
}

// Terminate writes the tasks that are still running, using the current time as
// their end time, and flushes the recorder.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.terminated {
		return
	}

	t.terminated = true

	now := t.timeTeller.CurrentTime()
	for _, task := range t.tracingTasks {
		task.EndTime = now
		t.writeTask(task)
	}

	t.tracingTasks = nil
	t.backend.Flush()
}
