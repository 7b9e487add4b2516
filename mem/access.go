package mem

import "github.com/sarchlab/accelsim/sim"

// A CompletionToken tells the memory system who to notify when an access
// lands. The ID lets the requester match a notification with the access it
// issued.
type CompletionToken struct {
	ID      string
	Handler sim.Handler
}

// AccessDoneEvent is delivered to the handler of a CompletionToken when the
// access that carried the token has completed. For reads, the buffer given
// with the request has been filled when the event fires, unless Err is set.
type AccessDoneEvent struct {
	*sim.EventBase

	Token    CompletionToken
	Address  uint64
	ByteSize uint64
	IsWrite  bool
	Err      error
}

// NewAccessDoneEvent creates an AccessDoneEvent for the token's handler.
func NewAccessDoneEvent(
	time sim.VTimeInTick,
	token CompletionToken,
	address, byteSize uint64,
	isWrite bool,
) *AccessDoneEvent {
	return &AccessDoneEvent{
		EventBase: sim.NewEventBase(time, token.Handler),
		Token:     token,
		Address:   address,
		ByteSize:  byteSize,
		IsWrite:   isWrite,
	}
}

// An Accessor is the memory system as seen by a device that moves data.
// Both calls return immediately; completion is reported asynchronously by an
// AccessDoneEvent delivered to token.Handler.
type Accessor interface {
	// Read fills buf with len(buf) bytes starting at addr.
	Read(addr uint64, buf []byte, token CompletionToken)

	// Write stores data starting at addr. The caller must not modify data
	// until the completion is delivered.
	Write(addr uint64, data []byte, token CompletionToken)
}
