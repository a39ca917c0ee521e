package ir

// Flatten inlines every hierarchical Instance of m (recursively) into a
// single instance-free Module whose signal namespace prefixes nested
// signals with "instanceName.". Port bindings are substituted directly:
// a child's reference to one of its own input ports is replaced, in the
// flattened arena, by the parent-side expression connected to it. This
// keeps the Simulator itself free of any notion of hierarchy — it only
// ever evaluates one flat module, the same way a netlist flattens a design
// before place-and-route.
//
// Flatten is a no-op (returns m unchanged) when m has no instances.
func Flatten(m *Module) (*Module, error) {
	if len(m.Instances) == 0 {
		return m, nil
	}
	out := NewModule(m.Name)
	fl := &flattener{out: out}
	if err := fl.inline("", m, nil); err != nil {
		return nil, err
	}
	out.Ports = append([]Port(nil), m.Ports...)
	return out, nil
}

type flattener struct {
	out *Module
}

// inline copies module src's declarations and logic into fl.out under the
// given dotted prefix ("" at top level). subst maps src's *input port*
// names to already-flattened expression ids usable in fl.out (the
// connections supplied by the parent instantiating src); at the top level
// subst is nil since top-level inputs are driven externally by the
// Simulator, not by another module's expression.
func (fl *flattener) inline(prefix string, src *Module, subst map[string]ExprID) error {
	name := func(n string) string {
		if prefix == "" {
			return n
		}
		return prefix + n
	}

	for _, p := range src.Ports {
		full := name(p.Name)
		if prefix == "" {
			fl.out.symbols[full] = symbol{class: classPort, width: p.Width, dir: p.Dir}
			continue
		}
		if p.Dir == In {
			// Nested input ports are substituted away; they become plain
			// references to the parent's expression wherever used and are
			// not separately declared signals.
			continue
		}
		fl.out.symbols[full] = symbol{class: classNet, width: p.Width}
		fl.out.Nets = append(fl.out.Nets, Net{Name: full, Width: p.Width})
	}
	for _, n := range src.Nets {
		full := name(n.Name)
		fl.out.symbols[full] = symbol{class: classNet, width: n.Width}
		fl.out.Nets = append(fl.out.Nets, Net{Name: full, Width: n.Width})
	}
	for _, r := range src.Registers {
		full := name(r.Name)
		fl.out.symbols[full] = symbol{class: classRegister, width: r.Width}
		fl.out.Registers = append(fl.out.Registers, Register{Name: full, Width: r.Width, Reset: r.Reset})
	}

	memo := make(map[ExprID]ExprID)
	copyExpr := func(id ExprID) (ExprID, error) { return fl.copyExpr(src, id, prefix, subst, memo) }

	for _, mem := range src.Memories {
		full := name(mem.Name)
		wEnable, err := copyExpr(mem.Write.Enable)
		if err != nil {
			return err
		}
		wAddr, err := copyExpr(mem.Write.Addr)
		if err != nil {
			return err
		}
		wData, err := copyExpr(mem.Write.Data)
		if err != nil {
			return err
		}
		fl.out.Memories = append(fl.out.Memories, Memory{
			Name: full, Depth: mem.Depth, Width: mem.Width,
			Write: MemWritePort{Clock: mem.Write.Clock, Enable: wEnable, Addr: wAddr, Data: wData},
		})
	}

	for _, a := range src.Assigns {
		e, err := copyExpr(a.Expr)
		if err != nil {
			return err
		}
		full := name(a.Target)
		fl.out.drivers[full] = true
		fl.out.Assigns = append(fl.out.Assigns, Assign{Target: full, Expr: e})
	}

	for _, proc := range src.Processes {
		updates := make([]RegUpdate, 0, len(proc.Updates))
		for _, u := range proc.Updates {
			e, err := copyExpr(u.Expr)
			if err != nil {
				return err
			}
			updates = append(updates, RegUpdate{Target: name(u.Target), Expr: e})
		}
		reset := proc.Reset
		if reset != "" {
			reset = name(reset)
			if prefix != "" {
				// A nested reset signal is itself an input port of src;
				// reuse the parent's reset wiring by name substitution.
				if _, ok := subst[proc.Reset]; ok {
					reset = resolveSignalName(src, proc.Reset, subst)
				}
			}
		}
		fl.out.Processes = append(fl.out.Processes, ClockedProcess{
			Clock: resolveSignalName(src, proc.Clock, subst), Reset: reset, Updates: updates,
		})
	}

	for _, inst := range src.Instances {
		childPrefix := prefix + inst.Name + "."
		childSubst := make(map[string]ExprID, len(inst.Connections))
		for _, c := range inst.Connections {
			e, err := copyExpr(c.Expr)
			if err != nil {
				return err
			}
			childSubst[c.Port] = e
		}
		if err := fl.inline(childPrefix, inst.Child, childSubst); err != nil {
			return err
		}
	}
	return nil
}

// resolveSignalName maps a clock/reset signal name referenced by a nested
// module to its flattened name. Clock and reset are always wired straight
// through from parent to child with the same name (the only sensible way
// to distribute one clock across a hierarchy), so the flattened name is
// simply the original name: the top module's clock/reset signals are never
// prefixed, and nested modules are expected to name their clock/reset
// input ports after the same top-level signal.
func resolveSignalName(_ *Module, sigName string, _ map[string]ExprID) string {
	return sigName
}

func (fl *flattener) copyExpr(src *Module, id ExprID, prefix string, subst map[string]ExprID, memo map[ExprID]ExprID) (ExprID, error) {
	if id == 0 {
		return 0, nil
	}
	if got, ok := memo[id]; ok {
		return got, nil
	}
	e := src.Exprs[id]

	cp := func(sub ExprID) (ExprID, error) { return fl.copyExpr(src, sub, prefix, subst, memo) }

	var out ExprID
	switch e.Op {
	case OpLiteral:
		out = fl.push(Expr{Op: OpLiteral, Width: e.Width, Lit: e.Lit})
	case OpSignal:
		if repl, ok := subst[e.Name]; ok {
			out = repl
		} else {
			full := e.Name
			if prefix != "" {
				full = prefix + e.Name
			}
			out = fl.push(Expr{Op: OpSignal, Width: e.Width, Name: full})
		}
	case OpSlice:
		a, aerr := cp(e.A)
		if aerr != nil {
			return 0, aerr
		}
		out = fl.push(Expr{Op: OpSlice, Width: e.Width, A: a, Lo: e.Lo, Hi: e.Hi})
	case OpConcat:
		parts := make([]ExprID, 0, len(e.Parts))
		for _, p := range e.Parts {
			cpID, perr := cp(p)
			if perr != nil {
				return 0, perr
			}
			parts = append(parts, cpID)
		}
		out = fl.push(Expr{Op: OpConcat, Width: e.Width, Parts: parts})
	case OpReplicate:
		a, aerr := cp(e.A)
		if aerr != nil {
			return 0, aerr
		}
		out = fl.push(Expr{Op: OpReplicate, Width: e.Width, A: a, Count: e.Count})
	case OpLocal:
		a, aerr := cp(e.A)
		if aerr != nil {
			return 0, aerr
		}
		out = fl.push(Expr{Op: OpLocal, Width: e.Width, A: a, Name: e.Name})
	case OpNot:
		a, aerr := cp(e.A)
		if aerr != nil {
			return 0, aerr
		}
		out = fl.push(Expr{Op: OpNot, Width: e.Width, A: a})
	case OpMux:
		s, serr := cp(e.Sel)
		if serr != nil {
			return 0, serr
		}
		a, aerr := cp(e.A)
		if aerr != nil {
			return 0, aerr
		}
		bb, berr := cp(e.B)
		if berr != nil {
			return 0, berr
		}
		out = fl.push(Expr{Op: OpMux, Width: e.Width, Sel: s, A: a, B: bb})
	case OpCase:
		s, serr := cp(e.Sel)
		if serr != nil {
			return 0, serr
		}
		arms := make([]CaseArm, 0, len(e.Arms))
		for _, arm := range e.Arms {
			ae, aerr := cp(arm.Expr)
			if aerr != nil {
				return 0, aerr
			}
			arms = append(arms, CaseArm{Value: arm.Value, Expr: ae})
		}
		d, derr := cp(e.Default)
		if derr != nil {
			return 0, derr
		}
		out = fl.push(Expr{Op: OpCase, Width: e.Width, Sel: s, Arms: arms, Default: d})
	case OpMemRead:
		a, aerr := cp(e.Addr)
		if aerr != nil {
			return 0, aerr
		}
		full := e.Name
		if prefix != "" {
			full = prefix + e.Name
		}
		out = fl.push(Expr{Op: OpMemRead, Width: e.Width, Name: full, Addr: a})
	default: // binary ops
		a, aerr := cp(e.A)
		if aerr != nil {
			return 0, aerr
		}
		bb, berr := cp(e.B)
		if berr != nil {
			return 0, berr
		}
		out = fl.push(Expr{Op: e.Op, Width: e.Width, A: a, B: bb})
	}
	memo[id] = out
	return out, nil
}

func (fl *flattener) push(e Expr) ExprID {
	fl.out.Exprs = append(fl.out.Exprs, e)
	return ExprID(len(fl.out.Exprs) - 1)
}
