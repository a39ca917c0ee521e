package ir

import "fmt"

// Builder populates a Module. It accumulates the first error encountered so
// that callers can chain expression construction without checking an error
// after every call; Err (or Finish) surfaces it at the end.
type Builder struct {
	m   *Module
	err error
}

// NewBuilder starts building a fresh module named name.
func NewBuilder(name string) *Builder {
	return &Builder{m: NewModule(name)}
}

// Err returns the first error encountered so far, if any.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Finish returns the built module, or the first construction error.
func (b *Builder) Finish() (*Module, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.m, nil
}

// --- declarations ---------------------------------------------------------

func (b *Builder) declare(name string, s symbol) {
	if _, exists := b.m.symbols[name]; exists {
		b.fail(fmt.Errorf("%w: %q declared twice", ErrDuplicateDriver, name))
		return
	}
	b.m.symbols[name] = s
}

// AddPort declares an input or output port of the given width.
func (b *Builder) AddPort(name string, dir Direction, width int) {
	if b.err != nil {
		return
	}
	b.declare(name, symbol{class: classPort, width: width, dir: dir})
	b.m.Ports = append(b.m.Ports, Port{Name: name, Dir: dir, Width: width})
	if dir == Out {
		// Output ports are driven like nets; inputs are driven externally
		// (by the parent or the harness) and never need a local driver.
	}
}

// AddNet declares a combinational signal awaiting exactly one Assign.
func (b *Builder) AddNet(name string, width int) {
	if b.err != nil {
		return
	}
	b.declare(name, symbol{class: classNet, width: width})
	b.m.Nets = append(b.m.Nets, Net{Name: name, Width: width})
}

// AddRegister declares a clocked register with the given reset value.
func (b *Builder) AddRegister(name string, width int, reset uint64) {
	if b.err != nil {
		return
	}
	b.declare(name, symbol{class: classRegister, width: width})
	b.m.Registers = append(b.m.Registers, Register{Name: name, Width: width, Reset: mask(reset, width)})
}

// AddMemory declares a depth x width array with one synchronous write port
// (async reads are expressed by MemRead at the point of use).
func (b *Builder) AddMemory(name string, depth, width int, write MemWritePort) {
	if b.err != nil {
		return
	}
	b.m.Memories = append(b.m.Memories, Memory{Name: name, Depth: depth, Width: width, Write: write})
}

// AddInstance hierarchically instantiates child under instName, binding its
// input ports to parent expressions via conns and exposing its output ports
// as parent signals named "instName.portName".
func (b *Builder) AddInstance(instName string, child *Module, conns []Connection) {
	if b.err != nil {
		return
	}
	bound := make(map[string]bool, len(conns))
	for _, c := range conns {
		bound[c.Port] = true
	}
	for _, p := range child.Ports {
		full := instName + "." + p.Name
		if p.Dir == Out {
			b.declare(full, symbol{class: classInstanceOutput, width: p.Width})
			continue
		}
		if !bound[p.Name] {
			b.fail(fmt.Errorf("%w: instance %q missing connection for input port %q", ErrUndefinedSignal, instName, p.Name))
			return
		}
	}
	for _, c := range conns {
		w, ok := b.widthOf(c.Expr)
		if !ok {
			return
		}
		pw := child.portWidth(c.Port)
		if pw < 0 {
			b.fail(fmt.Errorf("%w: instance %q: no such port %q on module %q", ErrUndefinedSignal, instName, c.Port, child.Name))
			return
		}
		if w != pw {
			b.fail(widthMismatch(fmt.Sprintf("instance %q port %q", instName, c.Port), pw, w))
			return
		}
	}
	b.m.Instances = append(b.m.Instances, Instance{Name: instName, Child: child, Connections: conns})
}

func (m *Module) portWidth(name string) int {
	for _, p := range m.Ports {
		if p.Name == name {
			return p.Width
		}
	}
	return -1
}

// --- drivers ---------------------------------------------------------------

// Assign registers expr as the single combinational driver of target (a net
// or output port).
func (b *Builder) Assign(target string, expr ExprID) {
	if b.err != nil {
		return
	}
	sym, ok := b.m.symbols[target]
	if !ok {
		b.fail(undefinedSignal(target))
		return
	}
	if sym.class == classPort && sym.dir == In {
		b.fail(fmt.Errorf("%w: cannot assign to input port %q", ErrDuplicateDriver, target))
		return
	}
	if sym.class == classRegister {
		b.fail(fmt.Errorf("%w: %q is a register, use Clocked", ErrDuplicateDriver, target))
		return
	}
	w, ok := b.widthOf(expr)
	if !ok {
		return
	}
	if w != sym.width {
		b.fail(widthMismatch("assign to "+target, sym.width, w))
		return
	}
	if b.m.drivers[target] {
		b.fail(duplicateDriver(target))
		return
	}
	b.m.drivers[target] = true
	b.m.Assigns = append(b.m.Assigns, Assign{Target: target, Expr: expr})
}

// Clocked registers a clocked process: every Update's Expr is evaluated
// against pre-edge state and committed to Target atomically when clock
// rises (and reset, if non-empty, is not asserted).
func (b *Builder) Clocked(clock, reset string, updates ...RegUpdate) {
	if b.err != nil {
		return
	}
	for _, u := range updates {
		sym, ok := b.m.symbols[u.Target]
		if !ok || sym.class != classRegister {
			b.fail(fmt.Errorf("%w: %q is not a register", ErrUndefinedSignal, u.Target))
			return
		}
		w, ok := b.widthOf(u.Expr)
		if !ok {
			return
		}
		if w != sym.width {
			b.fail(widthMismatch("clocked update of "+u.Target, sym.width, w))
			return
		}
		key := "reg:" + u.Target
		if b.m.drivers[key] {
			b.fail(duplicateDriver(u.Target))
			return
		}
		b.m.drivers[key] = true
	}
	b.m.Processes = append(b.m.Processes, ClockedProcess{Clock: clock, Reset: reset, Updates: append([]RegUpdate(nil), updates...)})
}

func mask(v uint64, width int) uint64 {
	if width >= 64 {
		return v
	}
	return v & ((uint64(1) << uint(width)) - 1)
}
