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

package rv32

import "github.com/hdlgo/rhdl/ir"

// RV32 base opcodes (inst[6:0]).
const (
	opLUI     = 0x37
	opAUIPC   = 0x17
	opJAL     = 0x6F
	opJALR    = 0x67
	opBranch  = 0x63
	opLoad    = 0x03
	opStore   = 0x23
	opImm     = 0x13
	opOp      = 0x33
	opMiscMem = 0x0F
	opSystem  = 0x73
	opAMO     = 0x2F
)

// decoded is every field and control signal pulled out of one instruction
// word, as IR expressions over the core's flat arena.
type decoded struct {
	opcode, funct3, funct7, rd, rs1, rs2 ir.ExprID
	immI, immS, immB, immU, immJ         ir.ExprID

	aluOp                                                   ir.ExprID // 5-bit
	regWrite, isAMO, isSystem, memRead, memWrite, memToReg ir.ExprID
	aluSrc, aluSrcAPC, branch, jump, jalr                  ir.ExprID
}

// otherFlags bit positions within the 11-bit packed control field (see
// decodeInstruction).
const (
	fRegWrite = iota
	fIsAMO
	fIsSystem
	fMemRead
	fMemWrite
	fMemToReg
	fAluSrc
	fAluSrcAPC
	fBranch
	fJump
	fJalr
)

func packFlags(regWrite, isAMO, isSystem, memRead, memWrite, memToReg, aluSrc, aluSrcAPC, branch, jump, jalr bool) uint64 {
	bit := func(b bool, pos int) uint64 {
		if b {
			return 1 << uint(pos)
		}
		return 0
	}
	return bit(regWrite, fRegWrite) | bit(isAMO, fIsAMO) | bit(isSystem, fIsSystem) |
		bit(memRead, fMemRead) | bit(memWrite, fMemWrite) | bit(memToReg, fMemToReg) |
		bit(aluSrc, fAluSrc) | bit(aluSrcAPC, fAluSrcAPC) | bit(branch, fBranch) |
		bit(jump, fJump) | bit(jalr, fJalr)
}

// decodeInstruction builds the combinational decoder + immediate generator
// over inst (32 bits), per spec.md §4.3.
func decodeInstruction(b *ir.Builder, inst ir.ExprID) decoded {
	d := decoded{}
	d.opcode = b.Slice(inst, 0, 6)
	d.rd = b.Slice(inst, 7, 11)
	d.funct3 = b.Slice(inst, 12, 14)
	d.rs1 = b.Slice(inst, 15, 19)
	d.rs2 = b.Slice(inst, 20, 24)
	d.funct7 = b.Slice(inst, 25, 31)
	bit30 := b.Slice(inst, 30, 30)
	bit25 := b.Slice(inst, 25, 25)

	d.immI = b.SExt(b.Slice(inst, 20, 31), 32)
	d.immS = b.SExt(b.Concat(b.Slice(inst, 25, 31), b.Slice(inst, 7, 11)), 32)
	d.immB = b.SExt(b.Concat(
		b.Slice(inst, 31, 31), b.Slice(inst, 7, 7), b.Slice(inst, 25, 30), b.Slice(inst, 8, 11), b.Lit(1, 0),
	), 32)
	d.immU = b.Concat(b.Slice(inst, 12, 31), b.Lit(12, 0))
	d.immJ = b.SExt(b.Concat(
		b.Slice(inst, 31, 31), b.Slice(inst, 12, 19), b.Slice(inst, 20, 20), b.Slice(inst, 21, 30), b.Lit(1, 0),
	), 32)

	rSel := b.Concat(bit25, bit30, d.funct3) // 5 bits: m-ext, funct7[5], funct3
	rOp := b.Case(rSel, []ir.CaseArm{
		{Value: 0x00, Expr: b.Lit(5, aluADD)},
		{Value: 0x08, Expr: b.Lit(5, aluSUB)},
		{Value: 0x01, Expr: b.Lit(5, aluSLL)},
		{Value: 0x02, Expr: b.Lit(5, aluSLT)},
		{Value: 0x03, Expr: b.Lit(5, aluSLTU)},
		{Value: 0x04, Expr: b.Lit(5, aluXOR)},
		{Value: 0x05, Expr: b.Lit(5, aluSRL)},
		{Value: 0x0D, Expr: b.Lit(5, aluSRA)},
		{Value: 0x06, Expr: b.Lit(5, aluOR)},
		{Value: 0x07, Expr: b.Lit(5, aluAND)},
		{Value: 0x10, Expr: b.Lit(5, aluMUL)},
		{Value: 0x11, Expr: b.Lit(5, aluMULH)},
		{Value: 0x12, Expr: b.Lit(5, aluMULHSU)},
		{Value: 0x13, Expr: b.Lit(5, aluMULHU)},
		{Value: 0x14, Expr: b.Lit(5, aluDIV)},
		{Value: 0x15, Expr: b.Lit(5, aluDIVU)},
		{Value: 0x16, Expr: b.Lit(5, aluREM)},
		{Value: 0x17, Expr: b.Lit(5, aluREMU)},
	}, b.Lit(5, aluADD))

	iSel := b.Concat(bit30, d.funct3) // 4 bits
	iOp := b.Case(iSel, []ir.CaseArm{
		{Value: 0x0, Expr: b.Lit(5, aluADD)},
		{Value: 0x8, Expr: b.Lit(5, aluADD)}, // bit30 ignored for ADDI
		{Value: 0x1, Expr: b.Lit(5, aluSLL)},
		{Value: 0x2, Expr: b.Lit(5, aluSLT)},
		{Value: 0x3, Expr: b.Lit(5, aluSLTU)},
		{Value: 0x4, Expr: b.Lit(5, aluXOR)},
		{Value: 0x5, Expr: b.Lit(5, aluSRL)},
		{Value: 0xD, Expr: b.Lit(5, aluSRA)},
		{Value: 0x6, Expr: b.Lit(5, aluOR)},
		{Value: 0x7, Expr: b.Lit(5, aluAND)},
	}, b.Lit(5, aluADD))

	addOp := b.Lit(5, aluADD)
	passBOp := b.Lit(5, aluPassB)
	passAOp := b.Lit(5, aluPassA)

	ctrl := b.Case(d.opcode, []ir.CaseArm{
		{Value: opLUI, Expr: b.Concat(passBOp, b.Lit(11, packFlags(true, false, false, false, false, false, true, false, false, false, false)))},
		{Value: opAUIPC, Expr: b.Concat(addOp, b.Lit(11, packFlags(true, false, false, false, false, false, true, true, false, false, false)))},
		{Value: opJAL, Expr: b.Concat(addOp, b.Lit(11, packFlags(true, false, false, false, false, false, false, false, false, true, false)))},
		{Value: opJALR, Expr: b.Concat(addOp, b.Lit(11, packFlags(true, false, false, false, false, false, true, false, false, true, true)))},
		{Value: opBranch, Expr: b.Concat(addOp, b.Lit(11, packFlags(false, false, false, false, false, false, false, false, true, false, false)))},
		{Value: opLoad, Expr: b.Concat(addOp, b.Lit(11, packFlags(true, false, false, true, false, true, true, false, false, false, false)))},
		{Value: opStore, Expr: b.Concat(addOp, b.Lit(11, packFlags(false, false, false, false, true, false, true, false, false, false, false)))},
		{Value: opImm, Expr: b.Concat(iOp, b.Lit(11, packFlags(true, false, false, false, false, false, true, false, false, false, false)))},
		{Value: opOp, Expr: b.Concat(rOp, b.Lit(11, packFlags(true, false, false, false, false, false, false, false, false, false, false)))},
		{Value: opMiscMem, Expr: b.Concat(addOp, b.Lit(11, 0))},
		{Value: opSystem, Expr: b.Concat(addOp, b.Lit(11, packFlags(false, false, true, false, false, false, false, false, false, false, false)))},
		{Value: opAMO, Expr: b.Concat(passAOp, b.Lit(11, packFlags(true, true, false, false, false, false, false, false, false, false, false)))},
	}, b.Concat(addOp, b.Lit(11, 0)))

	d.aluOp = b.Slice(ctrl, 11, 15)
	flags := ctrl
	bitf := func(pos int) ir.ExprID { return b.Index(flags, pos) }
	d.regWrite = bitf(fRegWrite)
	d.isAMO = bitf(fIsAMO)
	d.isSystem = bitf(fIsSystem)
	d.memRead = bitf(fMemRead)
	d.memWrite = bitf(fMemWrite)
	d.memToReg = bitf(fMemToReg)
	d.aluSrc = bitf(fAluSrc)
	d.aluSrcAPC = bitf(fAluSrcAPC)
	d.branch = bitf(fBranch)
	d.jump = bitf(fJump)
	d.jalr = bitf(fJalr)
	return d
}
