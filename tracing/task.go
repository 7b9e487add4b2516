package tracing

import "github.com/sarchlab/accelsim/sim"

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Time sim.VTimeInTick `json:"time"`
	What string          `json:"what"`
}

// A Task is a piece of work that a component performs, such as serving a
// register access, moving a chunk of data, or running a computation.
type Task struct {
	ID        string          `json:"id"`
	ParentID  string          `json:"parent_id"`
	Kind      string          `json:"kind"`
	What      string          `json:"what"`
	Location  string          `json:"location"`
	StartTime sim.VTimeInTick `json:"start_time"`
	EndTime   sim.VTimeInTick `json:"end_time"`
	Steps     []TaskStep      `json:"steps"`
	Detail    interface{}     `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// KindFilter returns a TaskFilter that keeps the tasks of the given kind.
func KindFilter(kind string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind
	}
}
