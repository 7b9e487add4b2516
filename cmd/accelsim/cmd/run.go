package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/config"
	"github.com/sarchlab/accelsim/datarecording"
	"github.com/sarchlab/accelsim/monitoring"
	"github.com/sarchlab/accelsim/platform"
	"github.com/sarchlab/accelsim/script"
	"github.com/sarchlab/accelsim/sim"
	"github.com/spf13/cobra"
)

type runOptions struct {
	length      uint32
	script      string
	traceDB     string
	accessLog   bool
	eventLog    bool
	monitor     bool
	monitorPort int
	openMonitor bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bring-up demo",
	Long: `Run the bring-up demo: the firmware copies a buffer into the NPU ` +
		`scratchpad with the DMA engine, runs the NPU, copies the buffer back, ` +
		`and checks it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true
		return runDemo(cmd.OutOrStdout(), runOpts)
	},
}

func init() {
	f := runCmd.Flags()
	f.Uint32Var(&runOpts.length, "len", platform.DefaultDemoLength,
		"number of bytes moved by the demo")
	f.StringVar(&runOpts.script, "script", "",
		"run a Lua firmware script instead of the demo")
	f.StringVar(&runOpts.traceDB, "trace-db", "",
		"record the tasks into <path>.sqlite3")
	f.BoolVar(&runOpts.accessLog, "log-access", false,
		"print every register access")
	f.BoolVar(&runOpts.eventLog, "log-events", false,
		"print every event")
	f.BoolVar(&runOpts.monitor, "monitor", false,
		"serve the monitor while the demo runs")
	f.IntVar(&runOpts.monitorPort, "monitor-port", 0,
		"port of the monitor, random if 0")
	f.BoolVar(&runOpts.openMonitor, "open-monitor", false,
		"open the monitor in a browser")

	rootCmd.AddCommand(runCmd)
}

func runDemo(w io.Writer, opts runOptions) error {
	cfg, err := config.Load(envFiles()...)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "", 0)
	builder := platform.MakeBuilder().
		WithConfig(cfg).
		WithLogger(logger)

	if opts.accessLog {
		builder = builder.WithAccessLogger(logger)
	}

	if opts.eventLog {
		builder = builder.WithEventLogger(logger)
	}

	var recorder datarecording.DataRecorder
	if opts.traceDB != "" {
		recorder = datarecording.New(opts.traceDB)
		builder = builder.WithDataRecorder(recorder)
	}

	p, err := builder.Build()
	if err != nil {
		return err
	}

	if opts.monitor || opts.openMonitor {
		startMonitor(p, opts)
	}

	if opts.script != "" {
		err = runScript(w, p, opts.script)
		p.Finish()

		return err
	}

	result, err := p.RunDemo(opts.length)
	if err != nil {
		return err
	}

	p.Finish()

	if recorder != nil {
		if err := recorder.Close(); err != nil {
			return err
		}
	}

	printResult(w, p, result)

	if !result.Passed() {
		return errors.Errorf("%d words differ after the round trip",
			result.Errors)
	}

	return nil
}

func runScript(w io.Writer, p *platform.Platform, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	err = script.Load(p.Driver, path, string(src), scriptEnv(p))
	if err != nil {
		return err
	}

	p.Driver.Start()

	if err := p.Run(); err != nil {
		return err
	}

	if err := p.Driver.Err(); err != nil {
		return err
	}

	for _, r := range p.Driver.Reads() {
		fmt.Fprintf(w, "%d ps: 0x%x -> 0x%x\n", r.Time, r.Addr, r.Value)
	}

	fmt.Fprintf(w, "finished at %d ps\n", p.Driver.FinishTime())

	return nil
}

func scriptEnv(p *platform.Platform) script.Env {
	cfg := p.Config

	return script.Env{
		DMABase:     cfg.DMA.PioAddr,
		NPUBase:     cfg.NPU.PioAddr,
		MaxTransfer: cfg.DMA.MaxTransferSize,
		Memory:      p,
		Symbols: map[string]uint64{
			"DMA_BASE": cfg.DMA.PioAddr,
			"NPU_BASE": cfg.NPU.PioAddr,
			"SPM_BASE": cfg.NPU.ScratchpadBase,
			"SPM_SIZE": cfg.NPU.ScratchpadSize,
			"MEM_BASE": cfg.Memory.Base,
			"MEM_SIZE": cfg.Memory.Capacity,
		},
	}
}

func startMonitor(p *platform.Platform, opts runOptions) {
	m := monitoring.NewMonitor().WithPortNumber(opts.monitorPort)
	m.RegisterSimulation(p.Simulation)
	m.RegisterPeeker(p.Bus)

	bar := m.CreateProgressBar("Demo", uint64(len(platform.DemoPhases)))
	p.OnDemoPhase(func(_ string, _ sim.VTimeInTick) {
		bar.IncrementFinished(1)
	})

	port := m.StartServer()

	if opts.openMonitor {
		url := fmt.Sprintf("http://localhost:%d", port)
		if err := browser.OpenURL(url); err != nil {
			log.Printf("cannot open %s: %v", url, err)
		}
	}
}

func printResult(w io.Writer, p *platform.Platform, r platform.DemoResult) {
	fmt.Fprintf(w, "demo: %d bytes 0x%x -> 0x%x -> 0x%x\n",
		r.Length, r.Src, r.Spm, r.Dst)

	for _, ph := range r.Phases {
		fmt.Fprintf(w, "  %-9s done at %d ps\n", ph.Phase, ph.Time)
	}

	fmt.Fprintf(w, "finished at %d ps\n", r.FinishTime)
	fmt.Fprintf(w, "NPU busy %d ps, %d computes\n", r.NPUBusyTime, r.NPUComputes)
	fmt.Fprintf(w, "DMA busy %d ps, %d transfers\n", r.DMABusyTime, r.DMATransfers)
	fmt.Fprintf(w, "DMA transfer latency %.0f ps, %d reads, %d writes, %d faults\n",
		r.AvgTransferTime, r.ReadsIssued, r.WritesIssued, r.DMAFaults)
	fmt.Fprintf(w, "memory: %d accesses, %d ps in total\n",
		r.MemoryAccesses, r.MemoryTime)
	fmt.Fprintf(w, "status polls: %d\n", r.NumPolls)
	fmt.Fprintf(w, "diagnostics: NPU %d, DMA %d\n",
		p.NPU.Diagnostics.Total(), p.DMA.Diagnostics.Total())

	if r.Passed() {
		fmt.Fprintln(w, "result: PASS")
	} else {
		fmt.Fprintf(w, "result: FAIL (%d words differ)\n", r.Errors)
	}
}
