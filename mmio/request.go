package mmio

import (
	"fmt"

	"github.com/sarchlab/accelsim/sim"
)

// A Request is a single register access issued on the bus.
type Request struct {
	ID        string
	Addr      uint64
	Width     int
	IsWrite   bool
	Data      []byte
	Requester sim.Handler
}

// NewReadRequest creates a request that reads width bytes at addr.
func NewReadRequest(
	addr uint64,
	width int,
	requester sim.Handler,
) *Request {
	return &Request{
		ID:        sim.GetIDGenerator().Generate(),
		Addr:      addr,
		Width:     width,
		Requester: requester,
	}
}

// NewWriteRequest creates a request that writes the low width bytes of value
// at addr.
func NewWriteRequest(
	addr uint64,
	width int,
	value uint64,
	requester sim.Handler,
) *Request {
	return &Request{
		ID:        sim.GetIDGenerator().Generate(),
		Addr:      addr,
		Width:     width,
		IsWrite:   true,
		Data:      EncodeLE(value, width),
		Requester: requester,
	}
}

func (r *Request) String() string {
	if r.IsWrite {
		return fmt.Sprintf("write 0x%x w%d = 0x%x",
			r.Addr, r.Width, DecodeLE(r.Data))
	}

	return fmt.Sprintf("read 0x%x w%d", r.Addr, r.Width)
}

// A Response completes a Request. Reads carry the value in Data.
type Response struct {
	Req    *Request
	Target string
	Data   []byte
}

// Value decodes the read data.
func (r *Response) Value() uint64 {
	return DecodeLE(r.Data)
}

// RspEvent delivers a Response to the requester of the Request.
type RspEvent struct {
	*sim.EventBase
	Rsp *Response
}

// NewRspEvent creates a RspEvent.
func NewRspEvent(
	time sim.VTimeInTick,
	handler sim.Handler,
	rsp *Response,
) *RspEvent {
	return &RspEvent{
		EventBase: sim.NewEventBase(time, handler),
		Rsp:       rsp,
	}
}
