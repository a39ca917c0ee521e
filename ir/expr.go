package ir

import "fmt"

func (b *Builder) push(e Expr) ExprID {
	b.m.Exprs = append(b.m.Exprs, e)
	return ExprID(len(b.m.Exprs) - 1)
}

// widthOf returns the fixed width of an already-constructed expression.
func (b *Builder) widthOf(id ExprID) (int, bool) {
	if int(id) <= 0 || int(id) >= len(b.m.Exprs) {
		b.fail(fmt.Errorf("%w: invalid expression id %d", ErrUndefinedSignal, id))
		return 0, false
	}
	return b.m.Exprs[id].Width, true
}

// Lit builds a constant of the given width; value is truncated to width.
func (b *Builder) Lit(width int, value uint64) ExprID {
	if b.err != nil {
		return 0
	}
	return b.push(Expr{Op: OpLiteral, Width: width, Lit: mask(value, width)})
}

// Sig references a previously declared signal (port, net or register) by
// flat name.
func (b *Builder) Sig(name string) ExprID {
	if b.err != nil {
		return 0
	}
	sym, ok := b.m.symbols[name]
	if !ok {
		b.fail(undefinedSignal(name))
		return 0
	}
	return b.push(Expr{Op: OpSignal, Width: sym.width, Name: name})
}

// Slice extracts bits [lo..hi] inclusive (hi >= lo), LSB-indexed.
func (b *Builder) Slice(src ExprID, lo, hi int) ExprID {
	if b.err != nil {
		return 0
	}
	sw, ok := b.widthOf(src)
	if !ok {
		return 0
	}
	if lo < 0 || hi < lo || hi >= sw {
		b.fail(fmt.Errorf("%w: slice [%d:%d] out of range for width %d", ErrWidthMismatch, lo, hi, sw))
		return 0
	}
	return b.push(Expr{Op: OpSlice, Width: hi - lo + 1, A: src, Lo: lo, Hi: hi})
}

// Index extracts a single bit.
func (b *Builder) Index(src ExprID, i int) ExprID {
	return b.Slice(src, i, i)
}

// Concat joins operands MSB-first; width is the sum of operand widths.
func (b *Builder) Concat(parts ...ExprID) ExprID {
	if b.err != nil {
		return 0
	}
	total := 0
	for _, p := range parts {
		w, ok := b.widthOf(p)
		if !ok {
			return 0
		}
		total += w
	}
	return b.push(Expr{Op: OpConcat, Width: total, Parts: append([]ExprID(nil), parts...)})
}

// Replicate repeats src n times.
func (b *Builder) Replicate(src ExprID, n int) ExprID {
	if b.err != nil {
		return 0
	}
	w, ok := b.widthOf(src)
	if !ok {
		return 0
	}
	return b.push(Expr{Op: OpReplicate, Width: w * n, A: src, Count: n})
}

// Not builds a bitwise complement, width-preserving.
func (b *Builder) Not(src ExprID) ExprID {
	if b.err != nil {
		return 0
	}
	w, ok := b.widthOf(src)
	if !ok {
		return 0
	}
	return b.push(Expr{Op: OpNot, Width: w, A: src})
}

// BinOp builds a binary operator node with an explicit result width; the
// result is masked (truncated) to width after evaluation, which is the
// modular-arithmetic contract for explicit narrow assignments (spec.md
// §4.2). Comparison ops should be built with width 1.
func (b *Builder) BinOp(op Op, a, bExpr ExprID, width int) ExprID {
	if b.err != nil {
		return 0
	}
	if _, ok := b.widthOf(a); !ok {
		return 0
	}
	if _, ok := b.widthOf(bExpr); !ok {
		return 0
	}
	return b.push(Expr{Op: op, Width: width, A: a, B: bExpr})
}

// Mux builds a 1-bit-selector multiplexer; whenTrue/whenFalse must share a
// width.
func (b *Builder) Mux(sel, whenTrue, whenFalse ExprID) ExprID {
	if b.err != nil {
		return 0
	}
	sw, ok := b.widthOf(sel)
	if !ok {
		return 0
	}
	if sw != 1 {
		b.fail(fmt.Errorf("%w: mux selector must be width 1, got %d", ErrWidthMismatch, sw))
		return 0
	}
	tw, ok := b.widthOf(whenTrue)
	if !ok {
		return 0
	}
	fw, ok := b.widthOf(whenFalse)
	if !ok {
		return 0
	}
	if tw != fw {
		b.fail(widthMismatch("mux branches", tw, fw))
		return 0
	}
	return b.push(Expr{Op: OpMux, Width: tw, Sel: sel, A: whenTrue, B: whenFalse})
}

// Case builds an n-way selector with a mandatory default; all arms and the
// default must share a width.
func (b *Builder) Case(sel ExprID, arms []CaseArm, def ExprID) ExprID {
	if b.err != nil {
		return 0
	}
	if _, ok := b.widthOf(sel); !ok {
		return 0
	}
	dw, ok := b.widthOf(def)
	if !ok {
		return 0
	}
	for _, arm := range arms {
		aw, ok := b.widthOf(arm.Expr)
		if !ok {
			return 0
		}
		if aw != dw {
			b.fail(widthMismatch("case arm", dw, aw))
			return 0
		}
	}
	return b.push(Expr{Op: OpCase, Width: dw, Sel: sel, Arms: append([]CaseArm(nil), arms...), Default: def})
}

// MemRead reads memName asynchronously at addr; width is the memory's
// declared cell width. The memory need not exist yet at construction time
// (it may be declared after the expression that reads it, as long as it
// exists by the time Finish is called); callers pass width explicitly to
// keep it fixed at construction per spec.md §4.1. Neither the Builder nor
// the Simulator checks it against the memory's declared width.
func (b *Builder) MemRead(memName string, addr ExprID, width int) ExprID {
	if b.err != nil {
		return 0
	}
	if _, ok := b.widthOf(addr); !ok {
		return 0
	}
	return b.push(Expr{Op: OpMemRead, Width: width, Name: memName, Addr: addr})
}

// Let gives expr a debug name without affecting evaluation; it is the IR's
// named local binding for subexpression reuse/readability (spec.md §4.1).
func (b *Builder) Let(name string, expr ExprID) ExprID {
	if b.err != nil {
		return 0
	}
	w, ok := b.widthOf(expr)
	if !ok {
		return 0
	}
	return b.push(Expr{Op: OpLocal, Width: w, A: expr, Name: name})
}

// ZExt zero-extends (or truncates) src to width bits.
func (b *Builder) ZExt(src ExprID, width int) ExprID {
	if b.err != nil {
		return 0
	}
	sw, ok := b.widthOf(src)
	if !ok {
		return 0
	}
	if width == sw {
		return src
	}
	if width < sw {
		return b.Slice(src, 0, width-1)
	}
	return b.Concat(b.Lit(width-sw, 0), src)
}

// SExt sign-extends src (interpreted as a signed value of its own width) to
// width bits.
func (b *Builder) SExt(src ExprID, width int) ExprID {
	if b.err != nil {
		return 0
	}
	sw, ok := b.widthOf(src)
	if !ok {
		return 0
	}
	if width <= sw {
		return b.Slice(src, 0, width-1)
	}
	sign := b.Index(src, sw-1)
	ext := b.Replicate(sign, width-sw)
	return b.Concat(ext, src)
}
