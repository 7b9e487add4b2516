// Package cmd provides the command-line interface of accelsim.
package cmd

import (
	"github.com/sarchlab/accelsim/sim"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "accelsim",
	Short: "accelsim simulates memory-mapped accelerators driven by firmware.",
	Long: `accelsim simulates an NPU and a DMA engine behind a register bus, ` +
		`with the host firmware that programs them. The system parameters ` +
		`come from a .env file and ACCELSIM_* environment variables.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if uniqueIDs {
			sim.UseParallelIDGenerator()
		}
	},
}

var (
	envFile   string
	uniqueIDs bool
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&envFile, "env-file", "",
		"dotenv file with ACCELSIM_* parameters (default .env if present)")
	f.BoolVar(&uniqueIDs, "unique-ids", false,
		"use globally unique task ids, so that several runs can share a trace db")
}

func envFiles() []string {
	if envFile == "" {
		return nil
	}

	return []string{envFile}
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It exits the process after running the exit handlers.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
