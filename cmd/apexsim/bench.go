package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/apexsim/benchmarks"
)

type benchOptions struct {
	*rootOptions

	format string
	core   bool
}

func newBenchCmd(root *rootOptions) *cobra.Command {
	opts := &benchOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the built-in microbenchmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.bench(cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format (text, csv, json)")
	cmd.Flags().BoolVar(&opts.core, "core", false, "Run only the core benchmark subset")

	return cmd
}

func (o *benchOptions) bench(out, errOut io.Writer) error {
	machine, err := LoadMachine(o.configPath)
	if err != nil {
		return err
	}

	config := benchmarks.DefaultConfig()
	config.Pipeline = machine.Pipeline
	config.Timing = machine.Timing.Clone()
	config.EnableDCache = machine.DCache.Enabled
	config.Output = out
	config.Logger = o.newLogger(errOut)

	h := benchmarks.NewHarness(config)
	if o.core {
		h.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		h.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}
	results := h.RunAll()

	switch o.format {
	case "text":
		h.PrintResults(results)
	case "csv":
		h.PrintCSV(results)
	case "json":
		if err := h.PrintJSON(results); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}

	for _, r := range results {
		if !r.Valid {
			return fmt.Errorf("benchmark %s produced wrong results", r.Name)
		}
	}
	return nil
}
