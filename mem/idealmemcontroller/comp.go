// Package idealmemcontroller provides a memory that completes every access
// after a fixed number of cycles.
package idealmemcontroller

import (
	"fmt"
	"log"
	"reflect"

	"github.com/sarchlab/accelsim/mem"
	"github.com/sarchlab/accelsim/sim"
	"github.com/sarchlab/accelsim/tracing"
)

type access struct {
	id      string
	addr    uint64
	buf     []byte
	isWrite bool
	token   mem.CompletionToken
}

type respondEvent struct {
	*sim.EventBase
	access *access
}

func newRespondEvent(
	time sim.VTimeInTick,
	handler sim.Handler,
	a *access,
) *respondEvent {
	return &respondEvent{sim.NewEventBase(time, handler), a}
}

// An Comp is an ideal memory controller that can perform read and write.
// Ideal memory controller always respond to the request in a fixed number of
// cycles. There is no limitation on the concurrency of this unit.
//
// The storage is touched when the access completes, not when it is issued. A
// read buffer is filled right before the requester is notified.
type Comp struct {
	*sim.ComponentBase

	Engine           sim.EventScheduler
	Freq             sim.Freq
	Latency          int
	Storage          *mem.Storage
	addressConverter mem.AddressConverter

	inflight int
}

// Handle defines how the Comp handles event
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *respondEvent:
		c.handleRespondEvent(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

// Read schedules a read of len(buf) bytes at addr. The buffer is filled when
// the token's handler receives the AccessDoneEvent.
func (c *Comp) Read(addr uint64, buf []byte, token mem.CompletionToken) {
	c.issue(&access{
		addr:  addr,
		buf:   buf,
		token: token,
	})
}

// Write schedules a write of data at addr. The data is copied at issue time,
// so the caller may reuse the slice.
func (c *Comp) Write(addr uint64, data []byte, token mem.CompletionToken) {
	buf := make([]byte, len(data))
	copy(buf, data)

	c.issue(&access{
		addr:    addr,
		buf:     buf,
		isWrite: true,
		token:   token,
	})
}

// NumInflight returns the number of accesses that have not completed.
func (c *Comp) NumInflight() int {
	return c.inflight
}

func (c *Comp) issue(a *access) {
	tokenMustBeValid(a.token)

	a.id = sim.GetIDGenerator().Generate()

	kind := "read"
	if a.isWrite {
		kind = "write"
	}

	tracing.StartTask(a.id, a.token.ID, c, "mem", kind,
		fmt.Sprintf("0x%x+%d", a.addr, len(a.buf)))

	now := c.Engine.CurrentTime()
	evt := newRespondEvent(c.Freq.NCyclesLater(c.Latency, now), c, a)
	c.Engine.Schedule(evt)

	c.inflight++
}

func tokenMustBeValid(token mem.CompletionToken) {
	if token.Handler == nil {
		panic("completion token must have a handler")
	}
}

func (c *Comp) handleRespondEvent(e *respondEvent) {
	now := e.Time()
	a := e.access

	addr := a.addr
	if c.addressConverter != nil {
		addr = c.addressConverter.ConvertExternalToInternal(addr)
	}

	var err error
	if a.isWrite {
		err = c.Storage.Write(addr, a.buf)
	} else {
		err = c.Storage.ReadInto(addr, a.buf)
	}

	c.inflight--
	tracing.EndTask(a.id, c)

	done := mem.NewAccessDoneEvent(
		now, a.token, a.addr, uint64(len(a.buf)), a.isWrite)
	done.Err = err
	c.Engine.Schedule(done)
}
