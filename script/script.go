// Package script loads firmware programs written in Lua into a driver.
//
// A script runs once, before the simulation starts. Every register function it
// calls appends a step to the driver, so a script describes a fixed sequence
// of accesses:
//
//	write(addr, value[, width])
//	read(addr[, width])
//	poll(addr, mask, want[, width])
//	dma_copy(src, dst, len)
//	npu_run(input_addr, len)
//	poke32(addr, value)
//
// Accesses are DefaultWidth bytes wide unless a width is given. poke32 stores
// a word in memory directly, before the simulation starts.
package script

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/driver"
	lua "github.com/yuin/gopher-lua"
)

// DefaultWidth is the width of a register access that does not name one.
const DefaultWidth = 4

// A MemoryWriter places data in memory without taking simulated time.
type MemoryWriter interface {
	WriteMemory(addr uint64, data []byte) error
}

// Env describes the system that a script programs.
type Env struct {
	DMABase     uint64
	NPUBase     uint64
	MaxTransfer uint32
	Memory      MemoryWriter

	// Symbols become global numbers of the script.
	Symbols map[string]uint64
}

type loader struct {
	d   *driver.Driver
	env Env
}

// Load runs the script and appends its accesses to the driver.
func Load(d *driver.Driver, name, src string, env Env) error {
	L := lua.NewState()
	defer L.Close()

	l := &loader{d: d, env: env}

	for sym, v := range env.Symbols {
		L.SetGlobal(sym, lua.LNumber(v))
	}

	for fn, f := range map[string]lua.LGFunction{
		"write":    l.write,
		"read":     l.read,
		"poll":     l.poll,
		"dma_copy": l.dmaCopy,
		"npu_run":  l.npuRun,
		"poke32":   l.poke32,
	} {
		L.SetGlobal(fn, L.NewFunction(f))
	}

	if err := L.DoString(src); err != nil {
		return errors.Wrapf(err, "script %s", name)
	}

	return nil
}

func checkUint64(L *lua.LState, n int) uint64 {
	v := L.CheckInt64(n)
	if v < 0 {
		L.ArgError(n, "must not be negative")
	}

	return uint64(v)
}

func optWidth(L *lua.LState, n int) int {
	w := L.OptInt(n, DefaultWidth)
	if w != 1 && w != 2 && w != 4 && w != 8 {
		L.ArgError(n, "width must be 1, 2, 4, or 8")
	}

	return w
}

func checkLen(L *lua.LState, n int) uint32 {
	v := checkUint64(L, n)
	if v > 0xffffffff {
		L.ArgError(n, "length does not fit 32 bits")
	}

	return uint32(v)
}

func (l *loader) write(L *lua.LState) int {
	l.d.Write(checkUint64(L, 1), optWidth(L, 3), checkUint64(L, 2))
	return 0
}

func (l *loader) read(L *lua.LState) int {
	l.d.Read(checkUint64(L, 1), optWidth(L, 2))
	return 0
}

func (l *loader) poll(L *lua.LState) int {
	l.d.PollUntil(checkUint64(L, 1), optWidth(L, 4),
		checkUint64(L, 2), checkUint64(L, 3))
	return 0
}

func (l *loader) dmaCopy(L *lua.LState) int {
	driver.DMACopyChunked(l.d, l.env.DMABase,
		checkUint64(L, 1), checkUint64(L, 2), checkLen(L, 3),
		l.env.MaxTransfer)
	return 0
}

func (l *loader) npuRun(L *lua.LState) int {
	driver.NPURun(l.d, l.env.NPUBase, checkUint64(L, 1), checkLen(L, 2))
	return 0
}

func (l *loader) poke32(L *lua.LState) int {
	addr := checkUint64(L, 1)
	value := checkUint64(L, 2)

	if l.env.Memory == nil {
		L.RaiseError("no memory to poke")
	}

	buf := binary.LittleEndian.AppendUint32(nil, uint32(value))
	if err := l.env.Memory.WriteMemory(addr, buf); err != nil {
		L.RaiseError("%s", err.Error())
	}

	return 0
}
