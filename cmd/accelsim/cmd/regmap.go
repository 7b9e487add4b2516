package cmd

import (
	"fmt"

	"github.com/sarchlab/accelsim/config"
	"github.com/sarchlab/accelsim/dev/npu"
	"github.com/sarchlab/accelsim/dev/simpledma"
	"github.com/sarchlab/accelsim/mmio"
	"github.com/spf13/cobra"
)

var regmapCmd = &cobra.Command{
	Use:   "regmap",
	Short: "Print the register maps of the devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.Load(envFiles()...)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()

		err = mmio.PrintRegisterMap(w, "DMA", cfg.DMA.PioAddr, simpledma.Registers)
		if err != nil {
			return err
		}

		fmt.Fprintln(w)

		return mmio.PrintRegisterMap(w, "NPU", cfg.NPU.PioAddr, npu.Registers)
	},
}

func init() {
	rootCmd.AddCommand(regmapCmd)
}
