package monitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hdlgo/rhdl/harness"
)

func newTestMonitor(t *testing.T) (*Monitor, *bytes.Buffer) {
	t.Helper()
	h, err := harness.New(harness.Config{RAMSize: 1 << 16})
	if err != nil {
		t.Fatalf("harness.New: %v", err)
	}
	// addi x1,x0,5 ; addi x2,x0,3 ; add x3,x1,x2
	h.LoadProgram([]uint32{
		0x00500093,
		0x00300113,
		0x002081b3,
	}, 0)
	var out bytes.Buffer
	return New(h, &out), &out
}

func TestStepAdvancesPC(t *testing.T) {
	m, out := newTestMonitor(t)
	if quit, err := m.Dispatch("step"); quit || err != nil {
		t.Fatalf("step: quit=%v err=%v", quit, err)
	}
	if !strings.Contains(out.String(), "pc = 0x00000004") {
		t.Fatalf("output = %q, want pc advanced to 4", out.String())
	}
}

func TestStepWithCountAndRegDump(t *testing.T) {
	m, out := newTestMonitor(t)
	if _, err := m.Dispatch("step 3"); err != nil {
		t.Fatalf("step 3: %v", err)
	}
	out.Reset()
	if _, err := m.Dispatch("reg"); err != nil {
		t.Fatalf("reg: %v", err)
	}
	if !strings.Contains(out.String(), "x1 =00000005") {
		t.Fatalf("reg output missing x1=5: %q", out.String())
	}
	if !strings.Contains(out.String(), "x3 =00000008") {
		t.Fatalf("reg output missing x3=8: %q", out.String())
	}
}

func TestBreakpointStopsRun(t *testing.T) {
	m, out := newTestMonitor(t)
	if _, err := m.Dispatch("break 0x8"); err != nil {
		t.Fatalf("break: %v", err)
	}
	if _, err := m.Dispatch("run"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "breakpoint hit at pc = 0x00000008") {
		t.Fatalf("output = %q, want breakpoint hit message", out.String())
	}
}

func TestPeekPokeRoundTrip(t *testing.T) {
	m, out := newTestMonitor(t)
	if _, err := m.Dispatch("poke 0x1000 0xdeadbeef"); err != nil {
		t.Fatalf("poke: %v", err)
	}
	if _, err := m.Dispatch("peek 0x1000"); err != nil {
		t.Fatalf("peek: %v", err)
	}
	if !strings.Contains(out.String(), "deadbeef") {
		t.Fatalf("output = %q, want deadbeef", out.String())
	}
}

func TestDisasmRendersInstructions(t *testing.T) {
	m, out := newTestMonitor(t)
	if _, err := m.Dispatch("disasm 0 2"); err != nil {
		t.Fatalf("disasm: %v", err)
	}
	if !strings.Contains(out.String(), "addi") {
		t.Fatalf("output = %q, want addi mnemonics", out.String())
	}
}

func TestDumpRendersHexWords(t *testing.T) {
	m, out := newTestMonitor(t)
	if _, err := m.Dispatch("dump 0 2"); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out.String(), "00000000: 00500093 00300113") {
		t.Fatalf("output = %q, want hex-dumped words", out.String())
	}
}

func TestTraceMaskGatesStepTracing(t *testing.T) {
	m, out := newTestMonitor(t)
	if _, err := m.Dispatch("trace 1"); err != nil {
		t.Fatalf("trace: %v", err)
	}
	out.Reset()
	if _, err := m.Dispatch("step"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !strings.Contains(out.String(), "step 1 -> pc") {
		t.Fatalf("output = %q, want a step trace line", out.String())
	}
}

func TestUnknownCommandReturnsError(t *testing.T) {
	m, _ := newTestMonitor(t)
	if _, err := m.Dispatch("bogus"); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestQuitSignalsExit(t *testing.T) {
	m, _ := newTestMonitor(t)
	quit, err := m.Dispatch("quit")
	if err != nil || !quit {
		t.Fatalf("quit: quit=%v err=%v", quit, err)
	}
}
