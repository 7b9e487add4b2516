// Package mmio provides the memory-mapped register layer: a bus that routes
// register accesses to devices and returns the responses after the device's
// access latency.
package mmio

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/sim"
)

// Errors returned by the bus.
var (
	ErrNoTarget     = errors.New("no target at address")
	ErrInvalidWidth = errors.New("invalid access width")
	ErrOverlap      = errors.New("target window overlaps")
)

// HookPosBusAccess triggers after the bus performs an access. The hook item is
// the *Response.
var HookPosBusAccess = &sim.HookPos{Name: "BusAccess"}

// Bus routes register accesses to the targets attached to it. An access is
// performed when it is issued; the response is delivered to the requester
// after the PIO latency of the target.
type Bus struct {
	*sim.ComponentBase

	engine  sim.EventScheduler
	targets []Target
}

// NewBus creates a Bus.
func NewBus(name string, engine sim.EventScheduler) *Bus {
	return &Bus{
		ComponentBase: sim.NewComponentBase(name),
		engine:        engine,
	}
}

// Attach adds a target to the bus. The window of the target must not overlap
// the windows of the targets already attached.
func (b *Bus) Attach(t Target) error {
	r := t.AddrRange()
	if r.Size == 0 {
		return errors.Errorf("target %s has an empty window", t.Name())
	}

	for _, existing := range b.targets {
		if existing.AddrRange().Overlaps(r) {
			return errors.Wrapf(ErrOverlap, "%s %s and %s %s",
				t.Name(), r, existing.Name(), existing.AddrRange())
		}
	}

	b.targets = append(b.targets, t)

	return nil
}

// Targets returns the attached targets in attach order.
func (b *Bus) Targets() []Target {
	return b.targets
}

// Find returns the target that owns the whole access, or nil.
func (b *Bus) Find(addr uint64, width int) Target {
	for _, t := range b.targets {
		if t.AddrRange().Contains(addr, uint64(width)) {
			return t
		}
	}

	return nil
}

func (b *Bus) route(addr uint64, width int) (Target, error) {
	if !ValidWidth(width) {
		return nil, errors.Wrapf(ErrInvalidWidth, "width %d", width)
	}

	t := b.Find(addr, width)
	if t == nil {
		return nil, errors.Wrapf(ErrNoTarget, "0x%x w%d", addr, width)
	}

	return t, nil
}

// Issue performs the access and schedules a RspEvent for the requester of the
// request.
func (b *Bus) Issue(req *Request) error {
	if req.Requester == nil {
		return errors.New("request has no requester")
	}

	t, err := b.route(req.Addr, req.Width)
	if err != nil {
		return err
	}

	rsp := &Response{
		Req:    req,
		Target: t.Name(),
	}

	if req.IsWrite {
		if len(req.Data) != req.Width {
			return errors.Errorf("write of width %d carries %d bytes",
				req.Width, len(req.Data))
		}

		t.Write(req.Addr, req.Width, req.Data)
	} else {
		rsp.Data = t.Read(req.Addr, req.Width)
	}

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosBusAccess,
		Item:   rsp,
	})

	now := b.engine.CurrentTime()
	b.engine.Schedule(NewRspEvent(now+t.PioLatency(), req.Requester, rsp))

	return nil
}

// Peek reads a register immediately. It schedules no response, invokes no
// hooks, and leaves the device and its diagnostics untouched.
func (b *Bus) Peek(addr uint64, width int) ([]byte, error) {
	t, err := b.route(addr, width)
	if err != nil {
		return nil, err
	}

	return t.Peek(addr, width), nil
}
