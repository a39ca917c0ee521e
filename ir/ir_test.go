package ir

import (
	"errors"
	"testing"
)

// buildAdder returns a 2-input combinational adder: out = a + b.
func buildAdder(t *testing.T) *Module {
	t.Helper()
	b := NewBuilder("adder")
	b.AddPort("a", In, 8)
	b.AddPort("b", In, 8)
	b.AddPort("sum", Out, 8)
	b.Assign("sum", b.BinOp(OpAdd, b.Sig("a"), b.Sig("b"), 8))
	m, err := b.Finish()
	if err != nil {
		t.Fatalf("build adder: %v", err)
	}
	return m
}

func TestBuilderWidthMismatch(t *testing.T) {
	b := NewBuilder("bad")
	b.AddPort("a", In, 8)
	b.AddPort("out", Out, 4)
	b.Assign("out", b.Sig("a"))
	if _, err := b.Finish(); !errors.Is(err, ErrWidthMismatch) {
		t.Fatalf("expected ErrWidthMismatch, got %v", err)
	}
}

func TestBuilderDuplicateDriver(t *testing.T) {
	b := NewBuilder("bad")
	b.AddPort("a", In, 1)
	b.AddPort("out", Out, 1)
	b.Assign("out", b.Sig("a"))
	b.Assign("out", b.Sig("a"))
	if _, err := b.Finish(); !errors.Is(err, ErrDuplicateDriver) {
		t.Fatalf("expected ErrDuplicateDriver, got %v", err)
	}
}

func TestBuilderUndefinedSignal(t *testing.T) {
	b := NewBuilder("bad")
	b.AddPort("out", Out, 1)
	b.Assign("out", b.Sig("nope"))
	if _, err := b.Finish(); !errors.Is(err, ErrUndefinedSignal) {
		t.Fatalf("expected ErrUndefinedSignal, got %v", err)
	}
}

func TestFlattenNoInstances(t *testing.T) {
	m := buildAdder(t)
	flat, err := Flatten(m)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if flat != m {
		t.Fatalf("flatten of an instance-free module should return it unchanged")
	}
}

func TestFlattenInlinesInstance(t *testing.T) {
	adder := buildAdder(t)

	top := NewBuilder("top")
	top.AddPort("x", In, 8)
	top.AddPort("y", In, 8)
	top.AddPort("z", Out, 8)
	top.AddInstance("add0", adder, []Connection{
		{Port: "a", Expr: top.Sig("x")},
		{Port: "b", Expr: top.Sig("y")},
	})
	top.Assign("z", top.Sig("add0.sum"))
	m, err := top.Finish()
	if err != nil {
		t.Fatalf("build top: %v", err)
	}

	flat, err := Flatten(m)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if _, ok := flat.Lookup("add0.sum"); !ok {
		t.Fatalf("expected flattened net add0.sum")
	}
	if _, ok := flat.AssignFor("z"); !ok {
		t.Fatalf("expected z to retain its driver after flattening")
	}
}

func TestSignalInfoClassification(t *testing.T) {
	m := buildAdder(t)
	info, ok := m.Lookup("a")
	if !ok || info.Class != ClassPort || info.Dir != In {
		t.Fatalf("expected a to be an input port, got %+v ok=%v", info, ok)
	}
	info, ok = m.Lookup("sum")
	if !ok || info.Class != ClassPort || info.Dir != Out {
		t.Fatalf("expected sum to be an output port, got %+v ok=%v", info, ok)
	}
}
