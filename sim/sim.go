/*
 * rhdl - Cycle-accurate simulator over the hardware IR
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

// Package sim drives an ir.Module: poke inputs, settle combinational logic
// to a fixpoint, peek any signal, and tick registers/synchronous memories
// across a rising edge. It owns all mutable simulation state; the ir.Module
// itself stays immutable for the Simulator's whole lifetime.
package sim

import "github.com/hdlgo/rhdl/ir"

// memState is the sparse cell backing for one ir.Memory. Cells default to
// zero on first read, so a fresh map needs no pre-sized allocation — the
// "sparse allocation acceptable above ~1 MiB" contract from spec.md §4.2.
type memState struct {
	width int
	cells map[uint64]uint64
}

// Simulator owns the mutable state of one ir.Module instance: register
// contents, memory cells and the last-settled combinational values.
type Simulator struct {
	m *ir.Module

	portVal map[string]uint64 // input port values, set via Poke
	regVal  map[string]uint64 // register contents
	mem     map[string]*memState

	regReset map[string]uint64 // name -> declared reset value, for fast lookup
	assignOf map[string]ir.ExprID

	computed map[string]uint64 // memoized settle results for nets/output ports
	visiting map[string]bool   // recursion guard for cycle detection
}

// New builds a Simulator over top, flattening any hierarchy first (see
// ir.Flatten). Registers start at their declared reset values and all
// memory cells read as zero, matching the state produced by Reset.
func New(top *ir.Module) (*Simulator, error) {
	flat, err := ir.Flatten(top)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		m:        flat,
		portVal:  make(map[string]uint64),
		regVal:   make(map[string]uint64),
		mem:      make(map[string]*memState),
		regReset: make(map[string]uint64),
		assignOf: make(map[string]ir.ExprID),
		computed: make(map[string]uint64),
		visiting: make(map[string]bool),
	}
	for _, p := range flat.Ports {
		if p.Dir == ir.In {
			s.portVal[p.Name] = 0
		}
	}
	for _, r := range flat.Registers {
		s.regVal[r.Name] = r.Reset
		s.regReset[r.Name] = r.Reset
	}
	for _, a := range flat.Assigns {
		s.assignOf[a.Target] = a.Expr
	}
	for _, mem := range flat.Memories {
		s.mem[mem.Name] = &memState{width: mem.Width, cells: make(map[uint64]uint64)}
	}
	return s, nil
}

// Reset clears every register to its declared reset value and every memory
// cell to zero (spec.md §4.2/§6).
func (s *Simulator) Reset() {
	for name, v := range s.regReset {
		s.regVal[name] = v
	}
	for _, ms := range s.mem {
		ms.cells = make(map[uint64]uint64)
	}
	s.computed = make(map[string]uint64)
}

// Poke drives an input port to value (truncated to its declared width).
func (s *Simulator) Poke(port string, value uint64) error {
	info, ok := s.m.Lookup(port)
	if !ok {
		return noSuchSignal(port)
	}
	if info.Class != ir.ClassPort || info.Dir != ir.In {
		return noSuchSignal(port)
	}
	s.portVal[port] = mask(value, info.Width)
	return nil
}

// Peek returns the current value of any declared signal: an input port
// reflects its last poked value, a register its current contents, and a
// net/output port its last-settled combinational value (computed lazily if
// Evaluate has not run since the last state change).
func (s *Simulator) Peek(signal string) (uint64, error) {
	if _, ok := s.m.Lookup(signal); !ok {
		return 0, noSuchSignal(signal)
	}
	return s.resolve(signal)
}

// Evaluate settles every combinational net and output port to a fixpoint
// given current register/memory/input-port state. It is idempotent:
// calling it again without any intervening Poke or Tick reproduces the
// same values (spec.md §4.2).
func (s *Simulator) Evaluate() error {
	s.computed = make(map[string]uint64)
	for _, n := range s.m.Nets {
		if _, err := s.resolve(n.Name); err != nil {
			return err
		}
	}
	for _, p := range s.m.Ports {
		if p.Dir == ir.Out {
			if _, err := s.resolve(p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Tick applies one rising-edge transition: every clocked process's
// right-hand sides are evaluated against the pre-edge settled state, and
// every synchronous memory write is staged the same way; all of it commits
// atomically afterward; nothing written this tick is visible until the
// next Evaluate (spec.md §4.2, testable property 3).
func (s *Simulator) Tick() error {
	if err := s.Evaluate(); err != nil {
		return err
	}

	regNext := make(map[string]uint64, len(s.regVal))
	for name, v := range s.regVal {
		regNext[name] = v
	}
	for _, proc := range s.m.Processes {
		resetAsserted := false
		if proc.Reset != "" {
			v, err := s.resolve(proc.Reset)
			if err != nil {
				return err
			}
			resetAsserted = v != 0
		}
		for _, u := range proc.Updates {
			if resetAsserted {
				regNext[u.Target] = s.regReset[u.Target]
				continue
			}
			v, err := s.evalExpr(u.Expr)
			if err != nil {
				return err
			}
			info, _ := s.m.Lookup(u.Target)
			regNext[u.Target] = mask(v, info.Width)
		}
	}

	type pendingWrite struct {
		mem  string
		addr uint64
		data uint64
	}
	var writes []pendingWrite
	for _, memDecl := range s.m.Memories {
		en, err := s.evalExpr(memDecl.Write.Enable)
		if err != nil {
			return err
		}
		if en&1 == 0 {
			continue
		}
		addr, err := s.evalExpr(memDecl.Write.Addr)
		if err != nil {
			return err
		}
		data, err := s.evalExpr(memDecl.Write.Data)
		if err != nil {
			return err
		}
		writes = append(writes, pendingWrite{mem: memDecl.Name, addr: addr, data: mask(data, memDecl.Width)})
	}

	for name, v := range regNext {
		s.regVal[name] = v
	}
	for _, w := range writes {
		s.mem[w.mem].cells[w.addr] = w.data
	}
	s.computed = make(map[string]uint64)
	return nil
}

// PeekMemory reads one cell of a declared memory directly, bypassing any
// module port — used by tests and by the harness for host-side bulk loads
// (LoadProgram/LoadData) rather than driving one word per cycle through a
// write port.
func (s *Simulator) PeekMemory(memName string, addr uint64) (uint64, error) {
	ms, ok := s.mem[memName]
	if !ok {
		return 0, noSuchSignal(memName)
	}
	return ms.cells[addr], nil
}

// PokeMemory writes one cell of a declared memory directly, bypassing any
// clocked write port (host-side bulk load, not an architectural store).
func (s *Simulator) PokeMemory(memName string, addr, value uint64) error {
	ms, ok := s.mem[memName]
	if !ok {
		return noSuchSignal(memName)
	}
	ms.cells[addr] = mask(value, ms.width)
	return nil
}

func mask(v uint64, width int) uint64 {
	if width <= 0 || width >= 64 {
		return v
	}
	return v & ((uint64(1) << uint(width)) - 1)
}
