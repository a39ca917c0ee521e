/*
 * rhdl - Hardware intermediate representation
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

// Package ir is a typed, side-effect-free representation of synchronous
// digital logic: modules with typed ports, nets, registers, memories,
// hierarchical instances, combinational expressions and clocked processes.
//
// A Module is built once by a Builder and is immutable afterward; the
// Simulator (package sim) owns all mutable state (register contents,
// memory cells) and mutates it only on clocked edges.
package ir

// Direction of a module port.
type Direction int

const (
	In Direction = iota
	Out
)

// Op identifies an expression variant or operator.
type Op int

const (
	OpLiteral Op = iota
	OpSignal
	OpSlice
	OpConcat
	OpReplicate
	OpLocal // named binding for a subexpression; evaluates to A

	// Unary.
	OpNot

	// Binary, unsigned arithmetic/logic.
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShrU // logical right shift
	OpShrS // arithmetic right shift

	// Comparisons; the result is 0 or 1 at whatever width the node is
	// built with (usually 1).
	OpEq
	OpNe
	OpLtU
	OpLtS
	OpGeU
	OpGeS

	// RV32M style word ops (kept generic at IR level).
	OpMul
	OpMulH   // high 32 bits of signed*signed
	OpMulHSU // high 32 bits of signed*unsigned
	OpMulHU  // high 32 bits of unsigned*unsigned
	OpDivU
	OpDivS
	OpRemU
	OpRemS

	OpMux
	OpCase
	OpMemRead
)

// ExprID indexes into a Module's expression arena. The zero value is invalid;
// valid ids start at 1 so a zero-value ExprID field reads as "unset".
type ExprID int

// CaseArm is one (value, result) pair of a Case expression.
type CaseArm struct {
	Value uint64
	Expr  ExprID
}

// Expr is one immutable arena node. Width is fixed at construction time, per
// spec.md §4.1: "operators carry width at construction to avoid
// recomputation."
type Expr struct {
	Op    Op
	Width int

	Lit uint64 // OpLiteral

	Name string // OpSignal (signal name), OpLocal (debug label), OpMemRead (memory name)

	A, B, C ExprID // operands; meaning depends on Op (see evaluator)

	Lo, Hi int // OpSlice: inclusive bit range

	Parts []ExprID // OpConcat: MSB-first operand list

	Count int // OpReplicate: repetition count

	Sel     ExprID
	Arms    []CaseArm
	Default ExprID // OpCase

	Addr ExprID // OpMemRead
}

// Port is a named, directioned, width-typed module terminal.
type Port struct {
	Name  string
	Dir   Direction
	Width int
}

// Net is a single-driver combinational signal internal to a module.
type Net struct {
	Name  string
	Width int
}

// Register holds its last clocked value between rising edges.
type Register struct {
	Name  string
	Width int
	Reset uint64
}

// MemWritePort is the single synchronous write port of a Memory.
type MemWritePort struct {
	Clock  string
	Enable ExprID
	Addr   ExprID
	Data   ExprID
}

// Memory is an array of Width-wide cells, read asynchronously (via
// OpMemRead expressions anywhere in the module) and written synchronously
// through one write port, read-before-write within a cycle.
type Memory struct {
	Name  string
	Depth int
	Width int
	Write MemWritePort
}

// Assign registers expr as the single combinational driver of target.
type Assign struct {
	Target string
	Expr   ExprID
}

// RegUpdate is one (target register, next-value expression) pair evaluated
// against pre-edge state and committed atomically at Tick.
type RegUpdate struct {
	Target string
	Expr   ExprID
}

// ClockedProcess is a set of register updates gated by one clock edge.
type ClockedProcess struct {
	Clock   string
	Reset   string // optional; "" if none
	Updates []RegUpdate
}

// Connection binds a child instance port (by name) to a parent expression
// (for inputs) or exposes the child's output as a parent net (for outputs,
// Expr is unused and the net is named InstanceName+"."+PortName).
type Connection struct {
	Port string
	Expr ExprID // only meaningful when binding an input port
}

// Instance hierarchically instantiates a child module inside a parent.
type Instance struct {
	Name        string
	Child       *Module
	Connections []Connection
}

// Module is the unit of hardware description: ports, nets, registers,
// memories, instances, combinational assignments and clocked processes,
// plus the expression arena they reference into.
type Module struct {
	Name string

	Ports      []Port
	Nets       []Net
	Registers  []Register
	Memories   []Memory
	Instances  []Instance
	Assigns    []Assign
	Processes  []ClockedProcess
	Exprs      []Expr // arena; index 0 is unused so ExprID zero value is invalid

	// symbols maps a flat signal name (including "instance.port" for
	// exposed instance outputs) to its width and class, used for
	// width-checking and for Simulator signal resolution.
	symbols map[string]symbol
	drivers map[string]bool // tracks which signals already have a driver
}

// SignalClass says what kind of entity a flat signal name refers to.
type SignalClass int

const (
	ClassPort SignalClass = iota
	ClassNet
	ClassRegister
	ClassInstanceOutput
)

// alias retained so builder.go/flatten.go's existing field names keep
// compiling after SignalClass was exported.
type signalClass = SignalClass

const (
	classPort            = ClassPort
	classNet             = ClassNet
	classRegister        = ClassRegister
	classInstanceOutput  = ClassInstanceOutput
)

type symbol struct {
	class SignalClass
	width int
	dir   Direction // meaningful for classPort
}

// SignalInfo is the exported view of a flat signal's declaration, used by
// the Simulator to classify how to resolve a name during settle (a
// register or input port's current value is already known going into
// settle; a net or output port's value is produced by its Assign).
type SignalInfo struct {
	Class SignalClass
	Width int
	Dir   Direction
}

// Lookup resolves a flat signal name to its declaration.
func (m *Module) Lookup(name string) (SignalInfo, bool) {
	s, ok := m.symbols[name]
	if !ok {
		return SignalInfo{}, false
	}
	return SignalInfo{Class: s.class, Width: s.width, Dir: s.dir}, true
}

// Signals returns every flat signal name declared in the module, in no
// particular order.
func (m *Module) Signals() []string {
	out := make([]string, 0, len(m.symbols))
	for name := range m.symbols {
		out = append(out, name)
	}
	return out
}

// AssignFor returns the expression driving target's Assign, if any.
func (m *Module) AssignFor(target string) (ExprID, bool) {
	for _, a := range m.Assigns {
		if a.Target == target {
			return a.Expr, true
		}
	}
	return 0, false
}

// NewModule creates an empty module ready for population via Builder.
func NewModule(name string) *Module {
	return &Module{
		Name:    name,
		Exprs:   make([]Expr, 1), // reserve index 0
		symbols: make(map[string]symbol),
		drivers: make(map[string]bool),
	}
}

// SignalWidth returns the declared width of a flat signal name, or false if
// undefined.
func (m *Module) SignalWidth(name string) (int, bool) {
	s, ok := m.symbols[name]
	if !ok {
		return 0, false
	}
	return s.width, true
}
