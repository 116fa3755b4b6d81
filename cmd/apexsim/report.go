package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sarchlab/apexsim/timing/latency"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

func printTiming(out io.Writer, timing *latency.TimingConfig, dcache bool) {
	fmt.Fprintf(out, "Latencies: INTU %d, MULU %d", timing.IntegerLatency, timing.MultiplyLatency)
	if dcache {
		fmt.Fprintf(out, ", D-cache hit %d, miss %d", timing.DCacheHitLatency, timing.DCacheMissLatency)
	}
	fmt.Fprintln(out)
}

func printStats(out io.Writer, stats pipeline.Statistics) {
	fmt.Fprintf(out, "Total Instructions: %d\n", stats.Instructions)
	fmt.Fprintf(out, "Total Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(out, "CPI: %.2f\n", stats.CPI())
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "Dispatch stalls: %d\n", stats.Stalls)
	fmt.Fprintf(out, "  Issue queue full:  %d\n", stats.IQFullStalls)
	fmt.Fprintf(out, "  ROB full:          %d\n", stats.ROBFullStalls)
	fmt.Fprintf(out, "  No free register:  %d\n", stats.RegisterStalls)
	fmt.Fprintf(out, "  Branch pending:    %d\n", stats.BranchStalls)
	fmt.Fprintf(out, "Flushes: %d\n", stats.Flushes)
	fmt.Fprintf(out, "Issued: INTU %d, MULU %d, MEM %d, JBU %d\n",
		stats.IntegerIssued, stats.MultiplyIssued, stats.MemoryIssued, stats.BranchIssued)

	d := stats.DCache
	if d.Reads+d.Writes > 0 {
		fmt.Fprintf(out, "D-cache: %d hits, %d misses (%.1f%% hit rate), %d evictions\n",
			d.Hits, d.Misses, 100*d.HitRate(), d.Evictions)
		fmt.Fprintf(out, "Memory stalls: %d\n", stats.MemStalls)
	}
}

func printArchRegisters(out io.Writer, p *pipeline.Pipeline) {
	rat := p.RenameTable()
	regs := p.PhysRegisters()

	fmt.Fprintf(out, "\nArchitectural registers:\n")
	for i, tag := range rat {
		status := "valid"
		if !regs[tag].Ready {
			status = "pending"
		}
		fmt.Fprintf(out, "  R%-2d = %-10d (P%d, %s)\n", i, regs[tag].Value, tag, status)
	}
	fmt.Fprintf(out, "  Z   = %v\n", p.ZeroFlag())
}

func printIssueQueue(out io.Writer, entries []pipeline.IQEntry) {
	fmt.Fprintf(out, "\nIssue queue (%d entries):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(out, "  %4d  %-20v valid=%-5v srcs=%s\n",
			e.PC, e.Inst, e.Valid, formatSources(e.Src[:e.NumSrc], e.SrcReady[:e.NumSrc]))
	}
}

func printReorderBuffer(out io.Writer, entries []pipeline.ROBEntry) {
	fmt.Fprintf(out, "\nReorder buffer (%d entries):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(out, "  #%-4d %4d  %-20v ready=%-5v completed=%v\n",
			e.Seq, e.PC, e.Inst, e.MemoryReady, e.Completed)
	}
}

func formatSources(tags []int, ready []bool) string {
	parts := make([]string, len(tags))
	for i, tag := range tags {
		mark := "*"
		if ready[i] {
			mark = ""
		}
		parts[i] = fmt.Sprintf("P%d%s", tag, mark)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func printMemory(out io.Writer, p *pipeline.Pipeline) {
	memory := p.Memory()
	fmt.Fprintf(out, "\nData memory (non-zero words):\n")
	words := memory.Snapshot()
	for _, addr := range memory.NonZero(0) {
		fmt.Fprintf(out, "  MEM[%d] = %d\n", addr, words[addr])
	}

	if !p.UseDCache() {
		return
	}
	blocks := p.DCacheBlocks()
	slices.Sort(blocks)
	fmt.Fprintf(out, "\nD-cache resident blocks (%d):\n", len(blocks))
	for _, base := range blocks {
		fmt.Fprintf(out, "  %d\n", base)
	}
}

func printMemoryWord(out io.Writer, p *pipeline.Pipeline, addr int) error {
	v, err := p.Memory().Read(addr)
	if err != nil {
		return fmt.Errorf("mem-addr: %w", err)
	}
	fmt.Fprintf(out, "MEM[%d] = %d", addr, v)
	if p.DCacheHolds(addr) {
		fmt.Fprintf(out, " (cached)")
	}
	fmt.Fprintln(out)
	return nil
}

func printCycle(out io.Writer, p *pipeline.Pipeline) {
	var b strings.Builder
	fmt.Fprintf(&b, "cycle %06d:", p.Stats().Cycles)
	for _, s := range p.Stages() {
		if !s.Valid {
			fmt.Fprintf(&b, " %s[-]", s.Name)
			continue
		}
		fmt.Fprintf(&b, " %s[%d %v]", s.Name, s.PC, s.Inst)
	}

	sig := p.Signals()
	if sig.Stall {
		fmt.Fprintf(&b, " stall=%v", sig.StallReason)
		if d := p.DecodeLatch(); d.Renamed {
			if n := len(d.Inst.Sources()); n > 0 {
				fmt.Fprintf(&b, " srcs=%s", formatSources(d.Src[:n], d.SrcReady[:n]))
			}
		}
	}
	if sig.Redirected {
		fmt.Fprintf(&b, " redirect=%d", sig.RedirectPC)
	}
	fmt.Fprintln(out, b.String())
}
