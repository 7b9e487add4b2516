package tracing

import (
	"sync"
)

type stepTally struct {
	steps uint64
	tasks uint64
}

// StepCountTracer counts the steps of the tasks it accepts. For every step
// name it knows how often the step was reached and how many tasks reached it.
type StepCountTracer struct {
	filter TaskFilter

	lock    sync.Mutex
	seen    map[string]map[string]bool
	order   []string
	tallies map[string]*stepTally
}

// NewStepCountTracer creates a StepCountTracer. A nil filter accepts all
// tasks.
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	return &StepCountTracer{
		filter:  filter,
		seen:    make(map[string]map[string]bool),
		tallies: make(map[string]*stepTally),
	}
}

// GetStepNames returns the step names in the order they first appeared.
func (t *StepCountTracer) GetStepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.order...)
}

// GetStepCount returns how many times the step was reached.
func (t *StepCountTracer) GetStepCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if tally, ok := t.tallies[stepName]; ok {
		return tally.steps
	}

	return 0
}

// GetTaskCount returns how many tasks reached the step at least once.
func (t *StepCountTracer) GetTaskCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if tally, ok := t.tallies[stepName]; ok {
		return tally.tasks
	}

	return 0
}

// StartTask begins following a task.
func (t *StepCountTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.seen[task.ID] = make(map[string]bool)
	t.lock.Unlock()
}

// StepTask counts the step carried by the task.
func (t *StepCountTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	seen, ok := t.seen[task.ID]
	if !ok || len(task.Steps) == 0 {
		return
	}

	name := task.Steps[0].What

	tally, ok := t.tallies[name]
	if !ok {
		tally = &stepTally{}
		t.tallies[name] = tally
		t.order = append(t.order, name)
	}

	tally.steps++

	if !seen[name] {
		seen[name] = true
		tally.tasks++
	}
}

// EndTask stops following a task.
func (t *StepCountTracer) EndTask(task Task) {
	t.lock.Lock()
	delete(t.seen, task.ID)
	t.lock.Unlock()
}
