package driver

import (
	"github.com/sarchlab/accelsim/dev/npu"
	"github.com/sarchlab/accelsim/dev/simpledma"
)

// DMACopy appends the steps that copy length bytes from src to dst with the
// DMA engine whose registers start at base, and waits until the engine is no
// longer busy.
func DMACopy(d *Driver, base, src, dst uint64, length uint32) {
	d.Write(base+simpledma.RegSrc, 8, src)
	d.Write(base+simpledma.RegDst, 8, dst)
	d.Write(base+simpledma.RegLen, 4, uint64(length))
	d.Write(base+simpledma.RegGo, 4, 1)
	d.PollUntil(base+simpledma.RegStatus, 4, uint64(simpledma.StatusBusy), 0)
}

// DMACopyChunked splits a copy into transfers of at most maxTransfer bytes.
func DMACopyChunked(
	d *Driver,
	base, src, dst uint64,
	length, maxTransfer uint32,
) {
	if maxTransfer == 0 {
		panic("max transfer must be positive")
	}

	for offset := uint64(0); offset < uint64(length); offset += uint64(maxTransfer) {
		n := min(uint64(maxTransfer), uint64(length)-offset)
		DMACopy(d, base, src+offset, dst+offset, uint32(n))
	}
}

// NPURun appends the steps that start the NPU whose registers start at base
// and waits until it reports ready.
func NPURun(d *Driver, base, inputAddr uint64, length uint32) {
	d.Write(base+npu.RegInputAddr, 8, inputAddr)
	d.Write(base+npu.RegLength, 4, uint64(length))
	d.Write(base+npu.RegStart, 4, 1)
	d.PollUntil(base+npu.RegStatus, 4, uint64(npu.StatusReady),
		uint64(npu.StatusReady))
}
