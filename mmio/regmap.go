package mmio

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Access modes of a register.
const (
	AccessRead      = "R"
	AccessWrite     = "W"
	AccessReadWrite = "R/W"
)

// RegisterInfo describes one register of a device.
type RegisterInfo struct {
	Offset uint64
	Name   string
	Bits   int
	Access string
	Effect string
}

// PrintRegisterMap prints a table of the registers of a device placed at base.
func PrintRegisterMap(
	w io.Writer,
	device string,
	base uint64,
	regs []RegisterInfo,
) error {
	if _, err := fmt.Fprintf(w, "%s @ 0x%x\n", device, base); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Offset\tAddress\tName\tWidth\tR/W\tEffect")

	for _, r := range regs {
		fmt.Fprintf(tw, "0x%02x\t0x%x\t%s\t%d\t%s\t%s\n",
			r.Offset, base+r.Offset, r.Name, r.Bits, r.Access, r.Effect)
	}

	return tw.Flush()
}
