package mmio

import (
	"log"

	"github.com/sarchlab/accelsim/sim"
)

// AccessLogger is a bus hook that prints every register access.
type AccessLogger struct {
	*log.Logger

	timeTeller sim.TimeTeller
}

// NewAccessLogger creates an AccessLogger.
func NewAccessLogger(
	logger *log.Logger,
	timeTeller sim.TimeTeller,
) *AccessLogger {
	return &AccessLogger{
		Logger:     logger,
		timeTeller: timeTeller,
	}
}

// Func prints the access.
func (l *AccessLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosBusAccess {
		return
	}

	rsp := ctx.Item.(*Response)
	if rsp.Req.IsWrite {
		l.Printf("%d, %s, %s",
			l.timeTeller.CurrentTime(), rsp.Target, rsp.Req)
		return
	}

	l.Printf("%d, %s, %s -> 0x%x",
		l.timeTeller.CurrentTime(), rsp.Target, rsp.Req, rsp.Value())
}
