package rv32

import "github.com/hdlgo/rhdl/ir"

// buildALU selects among the RV32I+M operations by the 5-bit aluOp
// selector produced by the decoder (spec.md §4.3). Both operands and the
// result are 32 bits; signed variants sign-extend internally via the IR's
// signed comparison/shift/divide operators.
func buildALU(b *ir.Builder, aluOp, a, operandB ir.ExprID) ir.ExprID {
	zero := b.Lit(32, 0)
	passA := b.BinOp(ir.OpOr, a, zero, 32)
	passB := b.BinOp(ir.OpOr, operandB, zero, 32)
	// RV32 mandates shamt = operand & 0x1f: only the low 5 bits of the
	// shift operand are live, whether it came from an I-immediate (whose
	// upper bits carry SRAI's 0100000 funct7) or a register (rs2 may hold
	// any 32-bit value).
	shamt := b.ZExt(b.Slice(operandB, 0, 4), 32)

	arms := []ir.CaseArm{
		{Value: aluADD, Expr: b.BinOp(ir.OpAdd, a, operandB, 32)},
		{Value: aluSUB, Expr: b.BinOp(ir.OpSub, a, operandB, 32)},
		{Value: aluSLL, Expr: b.BinOp(ir.OpShl, a, shamt, 32)},
		{Value: aluSLT, Expr: b.BinOp(ir.OpLtS, a, operandB, 32)},
		{Value: aluSLTU, Expr: b.BinOp(ir.OpLtU, a, operandB, 32)},
		{Value: aluXOR, Expr: b.BinOp(ir.OpXor, a, operandB, 32)},
		{Value: aluSRL, Expr: b.BinOp(ir.OpShrU, a, shamt, 32)},
		{Value: aluSRA, Expr: b.BinOp(ir.OpShrS, a, shamt, 32)},
		{Value: aluOR, Expr: b.BinOp(ir.OpOr, a, operandB, 32)},
		{Value: aluAND, Expr: b.BinOp(ir.OpAnd, a, operandB, 32)},
		{Value: aluPassA, Expr: passA},
		{Value: aluPassB, Expr: passB},
		{Value: aluMUL, Expr: b.BinOp(ir.OpMul, a, operandB, 32)},
		{Value: aluMULH, Expr: b.BinOp(ir.OpMulH, a, operandB, 32)},
		{Value: aluMULHSU, Expr: b.BinOp(ir.OpMulHSU, a, operandB, 32)},
		{Value: aluMULHU, Expr: b.BinOp(ir.OpMulHU, a, operandB, 32)},
		{Value: aluDIV, Expr: b.BinOp(ir.OpDivS, a, operandB, 32)},
		{Value: aluDIVU, Expr: b.BinOp(ir.OpDivU, a, operandB, 32)},
		{Value: aluREM, Expr: b.BinOp(ir.OpRemS, a, operandB, 32)},
		{Value: aluREMU, Expr: b.BinOp(ir.OpRemU, a, operandB, 32)},
	}
	return b.Case(aluOp, arms, b.BinOp(ir.OpAdd, a, operandB, 32))
}

// buildBranchTaken implements the six branch conditions (spec.md §4.3).
// BLT/BGE use the IR's signed comparison operators, which sign-extend both
// 32-bit operands before comparing; BLTU/BGEU compare them unsigned.
func buildBranchTaken(b *ir.Builder, funct3, rs1v, rs2v ir.ExprID) ir.ExprID {
	eq := b.BinOp(ir.OpEq, rs1v, rs2v, 1)
	ne := b.BinOp(ir.OpNe, rs1v, rs2v, 1)
	lt := b.BinOp(ir.OpLtS, rs1v, rs2v, 1)
	ge := b.BinOp(ir.OpGeS, rs1v, rs2v, 1)
	ltu := b.BinOp(ir.OpLtU, rs1v, rs2v, 1)
	geu := b.BinOp(ir.OpGeU, rs1v, rs2v, 1)
	zero := b.Lit(1, 0)
	return b.Case(funct3, []ir.CaseArm{
		{Value: 0b000, Expr: eq},  // BEQ
		{Value: 0b001, Expr: ne},  // BNE
		{Value: 0b100, Expr: lt},  // BLT
		{Value: 0b101, Expr: ge},  // BGE
		{Value: 0b110, Expr: ltu}, // BLTU
		{Value: 0b111, Expr: geu}, // BGEU
	}, zero)
}
