// Package tracing records what the components work on as tasks. A task
// starts, may pass through named steps, and ends; tracers attached to a
// component through CollectTrace observe these events.
package tracing

import (
	"github.com/sarchlab/accelsim/sim"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	sim.Named
	sim.Hookable
	InvokeHook(sim.HookCtx)
}

// Hook positions of the task events. The item is a Task.
var (
	HookPosTaskStart = &sim.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "HookPosTaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "HookPosTaskEnd"}
)

// StartTask notifies the hooks of the domain that a task starts. The task is
// located at the domain.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail any,
) {
	if domain == nil {
		panic("domain must not be nil")
	}

	if domain.NumHooks() == 0 {
		return
	}

	task := Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Location: domain.Name(),
		Detail:   detail,
	}
	startingTaskMustBeValid(task)

	invoke(domain, HookPosTaskStart, task)
}

// AddTaskStep marks that a task has reached a milestone.
func AddTaskStep(id string, domain NamedHookable, what string) {
	if domain.NumHooks() == 0 {
		return
	}

	invoke(domain, HookPosTaskStep, Task{
		ID:    id,
		Steps: []TaskStep{{What: what}},
	})
}

// EndTask notifies the hooks about the end of a task.
func EndTask(id string, domain NamedHookable) {
	if domain.NumHooks() == 0 {
		return
	}

	invoke(domain, HookPosTaskEnd, Task{ID: id})
}

func invoke(domain NamedHookable, pos *sim.HookPos, task Task) {
	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Item:   task,
		Pos:    pos,
	})
}
