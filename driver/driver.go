// Package driver provides a scripted host agent that programs memory-mapped
// devices the way bring-up firmware does: one register access at a time,
// polling status registers until the device reports completion.
package driver

import (
	"log"
	"reflect"

	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/mmio"
	"github.com/sarchlab/accelsim/sim"
)

// An Issuer accepts register accesses. The Bus is an Issuer.
type Issuer interface {
	Issue(req *mmio.Request) error
}

type opKind int

const (
	opWrite opKind = iota
	opRead
	opPoll
	opCall
)

type op struct {
	kind  opKind
	addr  uint64
	width int
	value uint64
	mask  uint64
	fn    func(now sim.VTimeInTick)
}

// ReadRecord is the result of a register read performed by the driver.
type ReadRecord struct {
	Time  sim.VTimeInTick
	Addr  uint64
	Value uint64
}

type pollEvent struct {
	*sim.EventBase
}

// Driver runs a script of register accesses. Each access waits for the
// response of the previous one.
type Driver struct {
	*sim.ComponentBase

	engine       sim.EventScheduler
	issuer       Issuer
	pollInterval sim.VTimeInTick

	ops        []op
	pc         int
	started    bool
	finished   bool
	finishTime sim.VTimeInTick
	err        error
	reads      []ReadRecord
	numPolls   int
}

// Write appends a register write to the script.
func (d *Driver) Write(addr uint64, width int, value uint64) {
	d.append(op{kind: opWrite, addr: addr, width: width, value: value})
}

// Read appends a register read to the script. The result is recorded.
func (d *Driver) Read(addr uint64, width int) {
	d.append(op{kind: opRead, addr: addr, width: width})
}

// PollUntil appends a step that reads the register until value&mask equals
// want.
func (d *Driver) PollUntil(addr uint64, width int, mask, want uint64) {
	d.append(op{kind: opPoll, addr: addr, width: width, mask: mask, value: want})
}

// Call appends a host-side action. It runs when the script reaches it and
// takes no simulated time.
func (d *Driver) Call(fn func(now sim.VTimeInTick)) {
	d.append(op{kind: opCall, fn: fn})
}

func (d *Driver) append(o op) {
	if d.finished {
		panic("cannot extend a finished script")
	}

	d.ops = append(d.ops, o)
}

// Start issues the first access of the script.
func (d *Driver) Start() {
	if d.started {
		return
	}

	d.started = true
	d.execute()
}

// Finished tells if the whole script has run.
func (d *Driver) Finished() bool {
	return d.finished
}

// FinishTime returns the time when the script finished.
func (d *Driver) FinishTime() sim.VTimeInTick {
	return d.finishTime
}

// Err returns the error that stopped the script, if any.
func (d *Driver) Err() error {
	return d.err
}

// Reads returns the results of all the reads, including polls.
func (d *Driver) Reads() []ReadRecord {
	return d.reads
}

// NumPolls returns how many poll reads did not satisfy their condition.
func (d *Driver) NumPolls() int {
	return d.numPolls
}

// Handle defines how the driver handles events.
func (d *Driver) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *mmio.RspEvent:
		d.handleRsp(e)
	case *pollEvent:
		d.issue(d.ops[d.pc])
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

func (d *Driver) execute() {
	for d.pc < len(d.ops) {
		o := d.ops[d.pc]
		if o.kind != opCall {
			d.issue(o)
			return
		}

		o.fn(d.engine.CurrentTime())
		d.pc++
	}

	d.finish()
}

func (d *Driver) finish() {
	d.finished = true
	d.finishTime = d.engine.CurrentTime()
}

func (d *Driver) issue(o op) {
	var req *mmio.Request
	if o.kind == opWrite {
		req = mmio.NewWriteRequest(o.addr, o.width, o.value, d)
	} else {
		req = mmio.NewReadRequest(o.addr, o.width, d)
	}

	if err := d.issuer.Issue(req); err != nil {
		d.err = errors.Wrapf(err, "step %d", d.pc)
		d.finish()
	}
}

func (d *Driver) handleRsp(e *mmio.RspEvent) {
	o := d.ops[d.pc]
	now := e.Time()

	if !e.Rsp.Req.IsWrite {
		d.reads = append(d.reads, ReadRecord{
			Time:  now,
			Addr:  o.addr,
			Value: e.Rsp.Value(),
		})
	}

	if o.kind == opPoll && e.Rsp.Value()&o.mask != o.value {
		d.numPolls++
		d.engine.Schedule(&pollEvent{
			EventBase: sim.NewEventBase(now+d.pollInterval, d),
		})

		return
	}

	d.pc++
	d.execute()
}
