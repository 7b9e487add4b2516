// Command accelsim runs the accelerator bring-up system.
package main

import "github.com/sarchlab/accelsim/cmd/accelsim/cmd"

func main() {
	cmd.Execute()
}
