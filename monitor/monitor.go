/*
 * rhdl - RV32IMA reference core
 *
 * Copyright 2026, rhdl contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package monitor is the interactive REPL in front of a running
// harness.Harness: step, run, inspect registers/CSRs, peek/poke memory,
// hex-dump a memory range, set breakpoints, disassemble, adjust trace
// verbosity. Split into a liner-backed line reader (ConsoleReader) and a
// verb dispatcher (Dispatch), the way the teacher's command/reader and
// command/parser packages divide the work.
package monitor

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/hdlgo/rhdl/harness"
	"github.com/hdlgo/rhdl/rv32"
	"github.com/hdlgo/rhdl/rv32/disasm"
	"github.com/hdlgo/rhdl/util/trace"
)

// maxRunCycles bounds an unconditional "run" so a missing breakpoint
// doesn't wedge the REPL forever.
const maxRunCycles = 100_000_000

// Monitor drives a single harness.Harness from typed commands.
type Monitor struct {
	h      *harness.Harness
	out    io.Writer
	breaks map[uint32]bool
	trace  *trace.Tracer
}

// New wraps h for interactive inspection, writing command output to out.
// The monitor owns its own trace.Tracer (initially silent, every level
// masked off) so "trace" can turn on step/run tracing without the harness
// itself needing to know about tracing.
func New(h *harness.Harness, out io.Writer) *Monitor {
	return &Monitor{h: h, out: out, breaks: make(map[uint32]bool), trace: trace.New(out, 0)}
}

// ConsoleReader runs the liner-backed prompt loop until the user quits or
// aborts (Ctrl-D/Ctrl-C), grounded on the teacher's command/reader.
func ConsoleReader(m *Monitor) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("rhdl> ")
		if err == nil {
			line.AppendHistory(input)
			quit, derr := m.Dispatch(input)
			if derr != nil {
				fmt.Fprintln(m.out, "error:", derr)
			}
			if quit {
				return
			}
			continue
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		fmt.Fprintln(m.out, "error reading line:", err)
		return
	}
}

// Dispatch executes one command line, matching a verb by unambiguous
// prefix the way the teacher's command/parser does.
func (m *Monitor) Dispatch(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	verb, args := fields[0], fields[1:]

	switch {
	case matches(verb, "step"):
		return false, m.step(args)
	case matches(verb, "run"):
		return false, m.run()
	case matches(verb, "reg"):
		return false, m.reg()
	case matches(verb, "csr"):
		return false, m.csr()
	case matches(verb, "peek"):
		return false, m.peek(args)
	case matches(verb, "poke"):
		return false, m.poke(args)
	case matches(verb, "break"):
		return false, m.setBreak(args)
	case matches(verb, "disasm"):
		return false, m.disasm(args)
	case matches(verb, "dump"):
		return false, m.dump(args)
	case matches(verb, "trace"):
		return false, m.setTrace(args)
	case matches(verb, "quit"):
		return true, nil
	default:
		return false, fmt.Errorf("unknown command: %s", verb)
	}
}

// matches reports whether verb is a non-empty prefix of full.
func matches(verb, full string) bool {
	return verb != "" && strings.HasPrefix(full, verb)
}

func (m *Monitor) step(args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		n = v
	}
	m.h.RunCycles(n)
	m.trace.Tracef(trace.LevelCPU, "step %d -> pc = %#010x", n, m.h.ReadPC())
	fmt.Fprintf(m.out, "pc = %#010x\n", m.h.ReadPC())
	return nil
}

func (m *Monitor) run() error {
	for i := 0; i < maxRunCycles; i++ {
		m.h.RunCycles(1)
		if m.breaks[m.h.ReadPC()] {
			fmt.Fprintf(m.out, "breakpoint hit at pc = %#010x\n", m.h.ReadPC())
			return nil
		}
	}
	fmt.Fprintf(m.out, "run: stopped after %d cycles without a breakpoint hit\n", maxRunCycles)
	return nil
}

func (m *Monitor) reg() error {
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(m.out, "x%-2d=%08x  x%-2d=%08x  x%-2d=%08x  x%-2d=%08x\n",
			i, m.h.ReadReg(i), i+1, m.h.ReadReg(i+1), i+2, m.h.ReadReg(i+2), i+3, m.h.ReadReg(i+3))
	}
	fmt.Fprintf(m.out, "pc =%08x\n", m.h.ReadPC())
	return nil
}

var csrNames = []struct {
	name string
	addr uint32
}{
	{"mstatus", rv32.CSRMstatus},
	{"mie", rv32.CSRMie},
	{"mtvec", rv32.CSRMtvec},
	{"mepc", rv32.CSRMepc},
	{"mcause", rv32.CSRMcause},
	{"mtval", rv32.CSRMtval},
	{"mip", rv32.CSRMip},
	{"satp", rv32.CSRSatp},
	{"sstatus", rv32.CSRSstatus},
	{"stvec", rv32.CSRStvec},
	{"sepc", rv32.CSRSepc},
	{"scause", rv32.CSRScause},
}

func (m *Monitor) csr() error {
	for _, c := range csrNames {
		fmt.Fprintf(m.out, "%-8s = %08x\n", c.name, m.h.ReadCSR(c.addr))
	}
	return nil
}

func (m *Monitor) peek(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: peek <addr>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "%#010x: %08x\n", addr, m.h.PeekAddr(addr))
	return nil
}

func (m *Monitor) poke(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: poke <addr> <value>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	value, err := parseAddr(args[1])
	if err != nil {
		return err
	}
	m.h.PokeAddr(addr, value)
	return nil
}

func (m *Monitor) setBreak(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: break <addr>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	m.breaks[addr] = true
	fmt.Fprintf(m.out, "breakpoint set at %#010x\n", addr)
	return nil
}

func (m *Monitor) disasm(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: disasm <addr> [n]")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n := 1
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("disasm: %w", err)
		}
		n = v
	}
	for i := 0; i < n; i++ {
		inst := m.h.PeekAddr(addr)
		text, length := disasm.Disassemble(addr, inst)
		fmt.Fprintf(m.out, "%08x: %08x  %s\n", addr, inst, text)
		addr += uint32(length)
	}
	return nil
}

// dump renders a hex dump of n words (default 4) starting at addr, in the
// same word-per-line format as trace.HexDump.
func (m *Monitor) dump(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: dump <addr> [n]")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n := 4
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("dump: %w", err)
		}
		n = v
	}
	words := make([]uint32, n)
	for i := range words {
		words[i] = m.h.PeekAddr(addr + uint32(i*4))
	}
	fmt.Fprint(m.out, trace.HexDump(addr, words, 4))
	return nil
}

// setTrace sets the monitor's trace level mask from a sum of
// trace.Level* constants (0 disables tracing).
func (m *Monitor) setTrace(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: trace <mask>")
	}
	mask, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid trace mask %q: %w", args[0], err)
	}
	m.trace.SetMask(int(mask))
	fmt.Fprintf(m.out, "trace mask = %#x\n", m.trace.Mask())
	return nil
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}
