package sim

import (
	"log"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrDeadlineReached is returned by RunUntil when events remain after the
// deadline.
var ErrDeadlineReached = errors.New("deadline reached")

// A SerialEngine handles the events one after another, in time order. Among
// the events of the same time, primary events go before secondary events and
// each queue keeps the scheduling order.
type SerialEngine struct {
	HookableBase

	timeLock       sync.RWMutex
	time           VTimeInTick
	queue          EventQueue
	secondaryQueue EventQueue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	numHandled            atomic.Uint64
	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		queue:          NewEventQueue(),
		secondaryQueue: NewEventQueue(),
	}
}

// Schedule registers an event to happen in the future.
func (e *SerialEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf(
			"scheduling an event earlier than current time, evt %s @ %d, now %d",
			reflect.TypeOf(evt), evt.Time(), now,
		)
	}

	if evt.IsSecondary() {
		e.secondaryQueue.Push(evt)
		return
	}

	e.queue.Push(evt)
}

func (e *SerialEngine) readNow() VTimeInTick {
	e.timeLock.RLock()
	defer e.timeLock.RUnlock()

	return e.time
}

func (e *SerialEngine) writeNow(t VTimeInTick) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run handles events until the queues are empty. It stops at the first event
// whose handler returns an error.
func (e *SerialEngine) Run() error {
	return e.run(0, false)
}

// RunUntil handles the events scheduled no later than the deadline. The events
// after the deadline stay in the queues and ErrDeadlineReached is returned.
func (e *SerialEngine) RunUntil(deadline VTimeInTick) error {
	return e.run(deadline, true)
}

func (e *SerialEngine) run(deadline VTimeInTick, limited bool) error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for !e.noMoreEvent() {
		if limited && e.peekTime() > deadline {
			return errors.Wrapf(ErrDeadlineReached,
				"next event @ %d, deadline %d", e.peekTime(), deadline)
		}

		if err := e.handleNext(); err != nil {
			return err
		}
	}

	return nil
}

func (e *SerialEngine) handleNext() error {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	evt := e.nextEvent()
	e.writeNow(evt.Time())

	hookCtx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	err := evt.Handler().Handle(evt)
	e.numHandled.Add(1)

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	if err != nil {
		return errors.Wrapf(err, "handling %s @ %d",
			reflect.TypeOf(evt), evt.Time())
	}

	return nil
}

func (e *SerialEngine) noMoreEvent() bool {
	return e.queue.Len() == 0 && e.secondaryQueue.Len() == 0
}

func (e *SerialEngine) peekTime() VTimeInTick {
	switch {
	case e.queue.Len() == 0:
		return e.secondaryQueue.Peek().Time()
	case e.secondaryQueue.Len() == 0:
		return e.queue.Peek().Time()
	default:
		return min(e.queue.Peek().Time(), e.secondaryQueue.Peek().Time())
	}
}

func (e *SerialEngine) nextEvent() Event {
	if e.queue.Len() == 0 {
		return e.secondaryQueue.Pop()
	}

	if e.secondaryQueue.Len() == 0 {
		return e.queue.Pop()
	}

	primaryEvt := e.queue.Peek()
	secondaryEvt := e.secondaryQueue.Peek()

	if primaryEvt.Time() <= secondaryEvt.Time() {
		return e.queue.Pop()
	}

	return e.secondaryQueue.Pop()
}

// NumHandledEvents returns how many events have been handled.
func (e *SerialEngine) NumHandledEvents() uint64 {
	return e.numHandled.Load()
}

// Pause blocks the engine before it handles the next event.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue lets a paused engine handle events again.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the time of the event being handled, or of the last
// handled event.
func (e *SerialEngine) CurrentTime() VTimeInTick {
	return e.readNow()
}

// RegisterSimulationEndHandler adds a handler to call in Finished.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished calls the simulation end handlers with the current time.
func (e *SerialEngine) Finished() {
	now := e.readNow()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}
