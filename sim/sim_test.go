package sim

import (
	"errors"
	"testing"

	"github.com/hdlgo/rhdl/ir"
)

func buildCounter(t *testing.T) *ir.Module {
	t.Helper()
	b := ir.NewBuilder("counter")
	b.AddPort("clk", ir.In, 1)
	b.AddPort("rst", ir.In, 1)
	b.AddPort("count_out", ir.Out, 8)
	b.AddRegister("count", 8, 0)
	b.Assign("count_out", b.Sig("count"))
	next := b.BinOp(ir.OpAdd, b.Sig("count"), b.Lit(8, 1), 8)
	b.Clocked("clk", "rst", ir.RegUpdate{Target: "count", Expr: next})
	m, err := b.Finish()
	if err != nil {
		t.Fatalf("build counter: %v", err)
	}
	return m
}

func TestCounterTicksAndResets(t *testing.T) {
	m := buildCounter(t)
	s, err := New(m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v, _ := s.Peek("count_out"); v != 0 {
		t.Fatalf("expected initial count_out 0, got %d", v)
	}

	for i := 0; i < 3; i++ {
		if err := s.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v, _ := s.Peek("count_out"); v != 3 {
		t.Fatalf("expected count_out 3 after three ticks, got %d", v)
	}

	if err := s.Poke("rst", 1); err != nil {
		t.Fatalf("Poke: %v", err)
	}
	if err := s.Tick(); err != nil {
		t.Fatalf("Tick under reset: %v", err)
	}
	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v, _ := s.Peek("count_out"); v != 0 {
		t.Fatalf("expected count_out 0 while rst asserted, got %d", v)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	m := buildCounter(t)
	s, err := New(m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	first, _ := s.Peek("count_out")
	if err := s.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	second, _ := s.Peek("count_out")
	if first != second {
		t.Fatalf("Evaluate is not idempotent: %d != %d", first, second)
	}
}

func buildMemModule(t *testing.T) *ir.Module {
	t.Helper()
	b := ir.NewBuilder("ram4")
	b.AddPort("clk", ir.In, 1)
	b.AddPort("wen", ir.In, 1)
	b.AddPort("waddr", ir.In, 2)
	b.AddPort("wdata", ir.In, 8)
	b.AddPort("raddr", ir.In, 2)
	b.AddPort("rdata", ir.Out, 8)
	b.AddMemory("mem", 4, 8, ir.MemWritePort{
		Clock:  "clk",
		Enable: b.Sig("wen"),
		Addr:   b.Sig("waddr"),
		Data:   b.Sig("wdata"),
	})
	b.Assign("rdata", b.MemRead("mem", b.Sig("raddr"), 8))
	m, err := b.Finish()
	if err != nil {
		t.Fatalf("build ram4: %v", err)
	}
	return m
}

func TestMemoryReadBeforeWrite(t *testing.T) {
	m := buildMemModule(t)
	s, err := New(m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	must(s.Poke("raddr", 1))
	must(s.Poke("waddr", 1))
	must(s.Poke("wdata", 0x42))
	must(s.Poke("wen", 1))

	must(s.Evaluate())
	if v, _ := s.Peek("rdata"); v != 0 {
		t.Fatalf("expected pre-write read of 0, got %#x", v)
	}

	must(s.Tick())
	must(s.Evaluate())
	if v, _ := s.Peek("rdata"); v != 0x42 {
		t.Fatalf("expected post-tick read of 0x42, got %#x", v)
	}
}

func TestCombinationalCycleDetected(t *testing.T) {
	b := ir.NewBuilder("cyclic")
	b.AddNet("a", 1)
	b.AddNet("bNet", 1)
	b.Assign("a", b.Sig("bNet"))
	b.Assign("bNet", b.Sig("a"))
	m, err := b.Finish()
	if err != nil {
		t.Fatalf("build cyclic: %v", err)
	}
	s, err := New(m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Evaluate(); !errors.Is(err, ErrCombinationalCycle) {
		t.Fatalf("expected ErrCombinationalCycle, got %v", err)
	}
}

func TestPokeRejectsNonInputPort(t *testing.T) {
	m := buildCounter(t)
	s, err := New(m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Poke("count_out", 5); !errors.Is(err, ErrNoSuchSignal) {
		t.Fatalf("expected ErrNoSuchSignal for poking an output port, got %v", err)
	}
}
