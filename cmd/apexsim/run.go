package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/loader"
	"github.com/sarchlab/apexsim/timing/core"
)

// ErrReferenceMismatch is returned by run --check when the core and the
// sequential emulator disagree.
var ErrReferenceMismatch = errors.New("core diverges from the sequential reference")

type runOptions struct {
	*rootOptions

	maxCycles uint64
	showIQ    bool
	showROB   bool
	showMem   bool
	showRegs  bool
	memAddrs  []int
	check     bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Run a program to completion and print its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}

	cmd.Flags().Uint64Var(&opts.maxCycles, "max-cycles", 0, "Stop after this many cycles (0 for no limit)")
	cmd.Flags().BoolVar(&opts.showIQ, "show-iq", false, "Print the issue queue at the end of the run")
	cmd.Flags().BoolVar(&opts.showROB, "show-rob", false, "Print the reorder buffer at the end of the run")
	cmd.Flags().BoolVar(&opts.showMem, "show-mem", false, "Print every non-zero data memory word")
	cmd.Flags().BoolVar(&opts.showRegs, "show-regs", true, "Print the architectural register file")
	cmd.Flags().IntSliceVar(&opts.memAddrs, "mem-addr", nil, "Print the data memory word at these addresses")
	cmd.Flags().BoolVar(&opts.check, "check", false, "Cross-check the result against the sequential emulator")

	return cmd
}

func (o *runOptions) run(out, errOut io.Writer, path string) error {
	prog, err := loader.Load(path)
	if err != nil {
		return err
	}
	machine, err := LoadMachine(o.configPath)
	if err != nil {
		return err
	}

	c := core.NewCore(prog.Instructions, emu.NewMemory(), machine.Options(o.newLogger(errOut))...)
	runErr := c.RunFor(o.maxCycles)

	fmt.Fprintf(out, "Program: %s\n", path)
	printTiming(out, c.Pipeline.LatencyTable().Config(), c.Pipeline.UseDCache())
	printStats(out, c.Pipeline.Stats())
	if o.showRegs {
		printArchRegisters(out, c.Pipeline)
	}
	if o.showIQ {
		printIssueQueue(out, c.Pipeline.IssueQueue())
	}
	if o.showROB {
		printReorderBuffer(out, c.Pipeline.ReorderBuffer())
	}
	if o.showMem {
		printMemory(out, c.Pipeline)
	}
	for _, addr := range o.memAddrs {
		if err := printMemoryWord(out, c.Pipeline, addr); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	if o.check {
		return checkReference(out, c, machine.Pipeline.CodeBase)
	}
	return nil
}

// checkReference replays the program on the sequential emulator and
// compares the architectural outcome with the core.
func checkReference(out io.Writer, c *core.Core, codeBase int) error {
	ref := emu.NewEmulator(c.Program(),
		emu.WithMemory(emu.NewMemory()),
		emu.WithCodeBase(codeBase),
		emu.WithMaxInstructions(10*(c.Stats().Instructions+100)))
	if err := ref.Run(); err != nil {
		return fmt.Errorf("reference run failed: %w", err)
	}

	got := c.Pipeline.ArchRegFile()
	want := ref.RegFile()
	for r := range want.R {
		if got.R[r] != want.R[r] {
			return fmt.Errorf("register R%d = %d, want %d: %w", r, got.R[r], want.R[r], ErrReferenceMismatch)
		}
	}
	if got.Z != want.Z {
		return fmt.Errorf("zero flag = %v, want %v: %w", got.Z, want.Z, ErrReferenceMismatch)
	}

	gotMem, wantMem := c.Memory().Snapshot(), ref.Memory().Snapshot()
	for addr := range wantMem {
		if gotMem[addr] != wantMem[addr] {
			return fmt.Errorf("memory word %d = %d, want %d: %w",
				addr, gotMem[addr], wantMem[addr], ErrReferenceMismatch)
		}
	}
	if c.Stats().Instructions != ref.InstructionCount() {
		return fmt.Errorf("retired %d instructions, want %d: %w",
			c.Stats().Instructions, ref.InstructionCount(), ErrReferenceMismatch)
	}

	fmt.Fprintf(out, "Reference check: OK (%d instructions)\n", ref.InstructionCount())
	return nil
}

type traceOptions struct {
	*rootOptions

	cycles uint64
}

func newTraceCmd(root *rootOptions) *cobra.Command {
	opts := &traceOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "trace <program>",
		Short: "Print the contents of every pipeline latch each cycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.trace(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}
	cmd.Flags().Uint64Var(&opts.cycles, "cycles", 100, "Number of cycles to trace")

	return cmd
}

func (o *traceOptions) trace(out, errOut io.Writer, path string) error {
	prog, err := loader.Load(path)
	if err != nil {
		return err
	}
	machine, err := LoadMachine(o.configPath)
	if err != nil {
		return err
	}

	c := core.NewCore(prog.Instructions, emu.NewMemory(), machine.Options(o.newLogger(errOut))...)
	for i := uint64(0); i < o.cycles && !c.Halted(); i++ {
		c.Tick()
		printCycle(out, c.Pipeline)
	}

	if c.Halted() {
		fmt.Fprintf(out, "Halted after %d cycles\n", c.Stats().Cycles)
	}
	return c.Err()
}
