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

// Package rv32 assembles one flat "rv32core" module: an RV32IMA pipeline
// folded into a single combinational cycle per clock, Sv32 translation on
// both the fetch and data sides, M/S-mode privilege and CSR handling, and
// LR/SC/AMO atomics. Every cycle is one instruction: decode, execute and
// writeback all settle combinationally before the next Tick commits
// register, memory and TLB state (spec.md §4.3-§4.6).
package rv32

import "github.com/hdlgo/rhdl/ir"

// Build constructs the rv32core module.
func Build() (*ir.Module, error) {
	b := ir.NewBuilder("rv32core")

	b.AddPort(P.Clk, ir.In, 1)
	b.AddPort(P.Rst, ir.In, 1)
	b.AddPort(P.InstData, ir.In, 32)
	b.AddPort(P.MemReadData, ir.In, 32)
	b.AddPort(P.IRQSoftware, ir.In, 1)
	b.AddPort(P.IRQTimer, ir.In, 1)
	b.AddPort(P.IRQExternal, ir.In, 1)
	b.AddPort(P.DbgRegAddr, ir.In, 5)
	b.AddPort(P.DbgCSRAddr, ir.In, 12)

	b.AddPort(P.InstAddr, ir.Out, 32)
	b.AddPort(P.MemAddr, ir.Out, 32)
	b.AddPort(P.MemWriteData, ir.Out, 32)
	b.AddPort(P.MemReadEn, ir.Out, 1)
	b.AddPort(P.MemWriteEn, ir.Out, 1)
	b.AddPort(P.MemSize, ir.Out, 2)
	b.AddPort(P.MemUnsigned, ir.Out, 1)
	b.AddPort(P.DbgRegData, ir.Out, 32)
	b.AddPort(P.DbgCSRData, ir.Out, 32)
	b.AddPort(P.DbgPC, ir.Out, 32)

	const rst = "rst"
	const clk = "clk"

	b.AddRegister("pc", 32, 0)
	b.AddRegister("r_priv", 2, PrivM)
	b.AddRegister("r_mstatus", 32, 0)
	b.AddRegister("r_mie", 32, 0)
	b.AddRegister("r_mtvec", 32, 0)
	b.AddRegister("r_mscratch", 32, 0)
	b.AddRegister("r_mepc", 32, 0)
	b.AddRegister("r_mcause", 32, 0)
	b.AddRegister("r_mtval", 32, 0)
	b.AddRegister("r_mip", 32, 0)
	b.AddRegister("r_medeleg", 32, 0)
	b.AddRegister("r_mideleg", 32, 0)
	b.AddRegister("r_sstatus", 32, 0)
	b.AddRegister("r_sie", 32, 0)
	b.AddRegister("r_stvec", 32, 0)
	b.AddRegister("r_sscratch", 32, 0)
	b.AddRegister("r_sepc", 32, 0)
	b.AddRegister("r_scause", 32, 0)
	b.AddRegister("r_stval", 32, 0)
	b.AddRegister("r_sip", 32, 0)
	b.AddRegister("r_satp", 32, 0)
	b.AddRegister("r_resv_valid", 1, 0)
	b.AddRegister("r_resv_addr", 32, 0)

	pc := b.Sig("pc")
	priv := b.Sig("r_priv")
	mstatus := b.Sig("r_mstatus")
	mie := b.Sig("r_mie")
	mtvec := b.Sig("r_mtvec")
	mepc := b.Sig("r_mepc")
	medeleg := b.Sig("r_medeleg")
	mideleg := b.Sig("r_mideleg")
	sstatus := b.Sig("r_sstatus")
	sie := b.Sig("r_sie")
	stvec := b.Sig("r_stvec")
	sepc := b.Sig("r_sepc")
	satp := b.Sig("r_satp")
	resvValid := b.Sig("r_resv_valid")
	resvAddr := b.Sig("r_resv_addr")

	inst := b.Sig(P.InstData)
	d := decodeInstruction(b, inst)

	rs1v := b.MemRead("regfile", d.rs1, 32)
	rs2v := b.MemRead("regfile", d.rs2, 32)

	// --- instruction-side translation -------------------------------------
	satpMode := b.Index(satp, 31)
	satpRootPPN := b.ZExt(b.Slice(satp, 0, 21), 32)

	satpAddr := b.Slice(inst, 20, 31) // alias of the csr index field
	csrAddr := satpAddr

	funct7 := d.funct7
	sfenceFunct7 := b.BinOp(ir.OpEq, funct7, b.Lit(7, 0x09), 1) // inst[31:25]==0b0001001
	sysNoFunct3 := b.BinOp(ir.OpEq, d.funct3, b.Lit(3, 0), 1)
	sfenceOp := b.BinOp(ir.OpAnd, d.isSystem, b.BinOp(ir.OpAnd, sysNoFunct3, sfenceFunct7, 1), 1)

	// --- CSR read/write ----------------------------------------------------
	// Computed before either translator so a satp write or SFENCE.VMA this
	// same cycle flushes both TLBs, not just the data-side one.
	isCSR := b.BinOp(ir.OpAnd, d.isSystem, b.BinOp(ir.OpNe, d.funct3, b.Lit(3, 0), 1), 1)
	srcIsZero := b.BinOp(ir.OpEq, d.rs1, b.Lit(5, 0), 1)
	csrOp := b.Slice(d.funct3, 0, 1)
	csrUsesImm := b.Index(d.funct3, 2)
	csrSrcVal := b.Mux(csrUsesImm, b.ZExt(d.rs1, 32), rs1v)

	csrOld := csrRead(b, csrAddr, csrRegs{
		mstatus: mstatus, mie: mie, mtvec: mtvec, mscratch: b.Sig("r_mscratch"),
		mepc: mepc, mcause: b.Sig("r_mcause"), mtval: b.Sig("r_mtval"), mip: b.Sig("r_mip"),
		medeleg: medeleg, mideleg: mideleg,
		sstatus: sstatus, sie: sie, stvec: stvec, sscratch: b.Sig("r_sscratch"),
		sepc: sepc, scause: b.Sig("r_scause"), stval: b.Sig("r_stval"), sip: b.Sig("r_sip"),
		satp: satp,
	})

	csrNew := b.Case(csrOp, []ir.CaseArm{
		{Value: 0b01, Expr: csrSrcVal},
		{Value: 0b10, Expr: b.BinOp(ir.OpOr, csrOld, csrSrcVal, 32)},
		{Value: 0b11, Expr: b.BinOp(ir.OpAnd, csrOld, b.Not(csrSrcVal), 32)},
	}, csrOld)

	csrWriteEnable := b.BinOp(ir.OpAnd, isCSR, b.BinOp(ir.OpOr, b.BinOp(ir.OpEq, csrOp, b.Lit(2, 0b01), 1), b.Not(srcIsZero), 1), 1)
	writesTo := func(addr uint64) ir.ExprID {
		return b.BinOp(ir.OpAnd, csrWriteEnable, b.BinOp(ir.OpEq, csrAddr, b.Lit(12, addr), 1), 1)
	}
	satpWriteNow := writesTo(CSRSatp)
	flush := b.BinOp(ir.OpOr, satpWriteNow, sfenceOp, 1)

	it := buildTranslate(b, "i", clk, rst, pc, satpMode, satpRootPPN, flush,
		priv, mstatus, b.Lit(1, 0), b.Lit(1, 0), b.Lit(1, 1))
	b.Assign(P.InstAddr, it.physAddr)

	// --- data-side translation ----------------------------------------------
	immSelected := b.Case(d.opcode, []ir.CaseArm{
		{Value: opLUI, Expr: d.immU},
		{Value: opAUIPC, Expr: d.immU},
		{Value: opJALR, Expr: d.immI},
		{Value: opLoad, Expr: d.immI},
		{Value: opOp, Expr: d.immI}, // unused by R-type (aluSrc=false selects rs2v below) but keeps the Case total
		{Value: opStore, Expr: d.immS},
	}, d.immI)

	aluA := b.Mux(d.aluSrcAPC, pc, rs1v)
	aluB := b.Mux(d.aluSrc, immSelected, rs2v)
	aluResult := buildALU(b, d.aluOp, aluA, aluB)
	branchTaken := b.BinOp(ir.OpAnd, d.branch, buildBranchTaken(b, d.funct3, rs1v, rs2v), 1)

	memRead := d.memRead
	memWrite := d.memWrite
	isAMO := d.isAMO
	accessHappening := b.BinOp(ir.OpOr, memRead, b.BinOp(ir.OpOr, memWrite, isAMO, 1), 1)

	// Atomics are classified here (rather than down with amoResult) because
	// the data-side translator's permission check needs to know whether this
	// cycle's access reads, writes, or both before it can be built.
	funct5 := b.Slice(inst, 27, 31)
	isLR := b.BinOp(ir.OpAnd, isAMO, b.BinOp(ir.OpEq, funct5, b.Lit(5, 0b00010), 1), 1)
	isSC := b.BinOp(ir.OpAnd, isAMO, b.BinOp(ir.OpEq, funct5, b.Lit(5, 0b00011), 1), 1)
	isAMORMW := b.BinOp(ir.OpAnd, isAMO, b.Not(b.BinOp(ir.OpOr, isLR, isSC, 1)), 1)
	reqRead := b.BinOp(ir.OpOr, memRead, b.BinOp(ir.OpOr, isLR, isAMORMW, 1), 1)
	reqWrite := b.BinOp(ir.OpOr, memWrite, b.BinOp(ir.OpOr, isSC, isAMORMW, 1), 1)

	dataVaddr := b.Mux(d.isAMO, rs1v, aluResult)
	dt := buildTranslate(b, "d", clk, rst, dataVaddr, satpMode, satpRootPPN, flush,
		priv, mstatus, reqRead, reqWrite, b.Lit(1, 0))
	b.Assign(P.MemAddr, dt.physAddr)

	memSize := b.Slice(d.funct3, 0, 1)
	memUnsigned := b.Index(d.funct3, 2)
	b.Assign(P.MemSize, memSize)
	b.Assign(P.MemUnsigned, memUnsigned)

	loadedValue := b.Sig(P.MemReadData)
	scAddrMatch := b.BinOp(ir.OpEq, resvAddr, dt.physAddr, 1)
	scSuccess := b.BinOp(ir.OpAnd, isSC, b.BinOp(ir.OpAnd, resvValid, scAddrMatch, 1), 1)

	amoResult := b.Case(funct5, []ir.CaseArm{
		{Value: 0b00000, Expr: b.BinOp(ir.OpAdd, loadedValue, rs2v, 32)}, // AMOADD
		{Value: 0b00001, Expr: rs2v},                                    // AMOSWAP
		{Value: 0b00100, Expr: b.BinOp(ir.OpXor, loadedValue, rs2v, 32)},
		{Value: 0b01000, Expr: b.BinOp(ir.OpOr, loadedValue, rs2v, 32)},
		{Value: 0b01100, Expr: b.BinOp(ir.OpAnd, loadedValue, rs2v, 32)},
		{Value: 0b10000, Expr: b.Mux(b.BinOp(ir.OpLtS, loadedValue, rs2v, 1), loadedValue, rs2v)}, // AMOMIN
		{Value: 0b10100, Expr: b.Mux(b.BinOp(ir.OpLtS, loadedValue, rs2v, 1), rs2v, loadedValue)}, // AMOMAX
		{Value: 0b11000, Expr: b.Mux(b.BinOp(ir.OpLtU, loadedValue, rs2v, 1), loadedValue, rs2v)}, // AMOMINU
		{Value: 0b11100, Expr: b.Mux(b.BinOp(ir.OpLtU, loadedValue, rs2v, 1), rs2v, loadedValue)}, // AMOMAXU
	}, loadedValue)

	amoWriteback := b.Mux(isSC, b.Mux(scSuccess, b.Lit(32, 0), b.Lit(32, 1)), loadedValue)

	memWriteEnableRaw := b.BinOp(ir.OpOr, memWrite, b.BinOp(ir.OpOr, scSuccess, isAMORMW, 1), 1)
	memWriteData := b.Mux(isAMORMW, amoResult, rs2v)
	b.Assign(P.MemWriteData, memWriteData)

	// --- faults ----------------------------------------------------------------
	ifaultCond := it.fault
	dfaultGated := b.BinOp(ir.OpAnd, dt.fault, accessHappening, 1)
	dfaultStoreCond := b.BinOp(ir.OpAnd, dfaultGated, b.BinOp(ir.OpOr, memWrite, isAMO, 1), 1)
	dfaultLoadCond := b.BinOp(ir.OpAnd, dfaultGated, b.BinOp(ir.OpAnd, memRead, b.Not(isAMO), 1), 1)

	isSystem := d.isSystem
	isECALL := b.BinOp(ir.OpAnd, isSystem, b.BinOp(ir.OpAnd, sysNoFunct3, b.BinOp(ir.OpEq, satpAddr, b.Lit(12, 0x000), 1), 1), 1)
	isEBREAK := b.BinOp(ir.OpAnd, isSystem, b.BinOp(ir.OpAnd, sysNoFunct3, b.BinOp(ir.OpEq, satpAddr, b.Lit(12, 0x001), 1), 1), 1)
	isMRET := b.BinOp(ir.OpAnd, isSystem, b.BinOp(ir.OpAnd, sysNoFunct3, b.BinOp(ir.OpEq, satpAddr, b.Lit(12, 0x302), 1), 1), 1)
	isSRET := b.BinOp(ir.OpAnd, isSystem, b.BinOp(ir.OpAnd, sysNoFunct3, b.BinOp(ir.OpEq, satpAddr, b.Lit(12, 0x102), 1), 1), 1)
	isWFI := b.BinOp(ir.OpAnd, isSystem, b.BinOp(ir.OpAnd, sysNoFunct3, b.BinOp(ir.OpEq, satpAddr, b.Lit(12, 0x105), 1), 1), 1)
	isSFENCEi := sfenceOp // already gated on opSystem + funct3==0 above
	knownSystem := b.BinOp(ir.OpOr, isECALL, b.BinOp(ir.OpOr, isEBREAK, b.BinOp(ir.OpOr, isMRET, b.BinOp(ir.OpOr, isSRET, b.BinOp(ir.OpOr, isWFI, isSFENCEi, 1), 1), 1), 1), 1)
	illegalInstr := b.BinOp(ir.OpAnd, isSystem, b.BinOp(ir.OpAnd, sysNoFunct3, b.Not(knownSystem), 1), 1)

	// --- interrupts --------------------------------------------------------
	extBit := b.ZExt(b.Sig(P.IRQExternal), 32)
	timBit := b.ZExt(b.Sig(P.IRQTimer), 32)
	sftBit := b.ZExt(b.Sig(P.IRQSoftware), 32)
	liveBits := b.BinOp(ir.OpOr,
		b.BinOp(ir.OpShl, extBit, b.Lit(32, IRQExternal), 32),
		b.BinOp(ir.OpOr,
			b.BinOp(ir.OpShl, timBit, b.Lit(32, IRQTimer), 32),
			b.BinOp(ir.OpShl, sftBit, b.Lit(32, IRQSoftware), 32), 32), 32)
	effectiveMip := b.BinOp(ir.OpOr, liveBits, b.Sig("r_mip"), 32)
	mPendingEnabled := b.BinOp(ir.OpAnd, effectiveMip, mie, 32)
	mExtP := b.Index(mPendingEnabled, IRQExternal)
	mSftP := b.Index(mPendingEnabled, IRQSoftware)
	mTimP := b.Index(mPendingEnabled, IRQTimer)
	anyMPending := b.BinOp(ir.OpNe, mPendingEnabled, b.Lit(32, 0), 1)
	mstatusMIE := b.Index(mstatus, bitMIE)
	takeM := b.BinOp(ir.OpAnd, anyMPending, b.BinOp(ir.OpOr, b.BinOp(ir.OpNe, priv, b.Lit(2, PrivM), 1), mstatusMIE, 1), 1)

	sPendingEnabled := b.BinOp(ir.OpAnd, effectiveMip, b.BinOp(ir.OpAnd, mideleg, sie, 32), 32)
	anySPending := b.BinOp(ir.OpNe, sPendingEnabled, b.Lit(32, 0), 1)
	sstatusSIE := b.Index(sstatus, bitSIE)
	sEligible := b.BinOp(ir.OpOr, b.BinOp(ir.OpEq, priv, b.Lit(2, PrivU), 1), b.BinOp(ir.OpAnd, b.BinOp(ir.OpEq, priv, b.Lit(2, PrivS), 1), sstatusSIE, 1), 1)
	takeS := b.BinOp(ir.OpAnd, b.Not(takeM), b.BinOp(ir.OpAnd, anySPending, sEligible, 1), 1)
	sExtP := b.Index(sPendingEnabled, IRQExternal)
	sSftP := b.Index(sPendingEnabled, IRQSoftware)
	sTimP := b.Index(sPendingEnabled, IRQTimer)

	mIntCause := b.Mux(mExtP, b.Lit(32, interruptBit|IRQExternal),
		b.Mux(mSftP, b.Lit(32, interruptBit|IRQSoftware),
			b.Mux(mTimP, b.Lit(32, interruptBit|IRQTimer), b.Lit(32, 0))))
	sIntCause := b.Mux(sExtP, b.Lit(32, interruptBit|IRQExternal),
		b.Mux(sSftP, b.Lit(32, interruptBit|IRQSoftware),
			b.Mux(sTimP, b.Lit(32, interruptBit|IRQTimer), b.Lit(32, 0))))

	// --- synchronous cause priority chain -------------------------------------
	c1 := b.Mux(dfaultStoreCond, b.Lit(32, CauseStorePageFault), b.Lit(32, 0))
	c2 := b.Mux(dfaultLoadCond, b.Lit(32, CauseLoadPageFault), c1)
	c3 := b.Mux(ifaultCond, b.Lit(32, CauseInstrPageFault), c2)
	c4 := b.Mux(illegalInstr, b.Lit(32, CauseIllegalInstruction), c3)
	c5 := b.Mux(isEBREAK, b.Lit(32, CauseBreakpoint), c4)
	ecallCause := b.Case(priv, []ir.CaseArm{
		{Value: PrivU, Expr: b.Lit(32, CauseEcallU)},
		{Value: PrivS, Expr: b.Lit(32, CauseEcallS)},
		{Value: PrivM, Expr: b.Lit(32, CauseEcallM)},
	}, b.Lit(32, CauseEcallM))
	syncCause := b.Mux(isECALL, ecallCause, c5)

	finalCause := b.Mux(takeM, mIntCause, b.Mux(takeS, sIntCause, syncCause))

	syncTrap := b.BinOp(ir.OpOr, illegalInstr, b.BinOp(ir.OpOr, isECALL, b.BinOp(ir.OpOr, isEBREAK, b.BinOp(ir.OpOr, ifaultCond, b.BinOp(ir.OpOr, dfaultLoadCond, dfaultStoreCond, 1), 1), 1), 1), 1)
	trapTaken := b.BinOp(ir.OpOr, takeM, b.BinOp(ir.OpOr, takeS, syncTrap, 1), 1)

	medelegShifted := b.BinOp(ir.OpShrU, medeleg, syncCause, 32)
	medelegBit := b.Index(medelegShifted, 0)
	trapToSSync := b.BinOp(ir.OpAnd, b.Not(takeM), b.BinOp(ir.OpAnd, syncTrap, b.BinOp(ir.OpAnd, medelegBit, b.BinOp(ir.OpNe, priv, b.Lit(2, PrivM), 1), 1), 1), 1)
	trapToS := b.BinOp(ir.OpOr, takeS, trapToSSync, 1)
	trapToM := b.BinOp(ir.OpAnd, trapTaken, b.Not(trapToS), 1)

	tvalVal := b.Mux(illegalInstr, inst, b.Mux(ifaultCond, pc, b.Mux(b.BinOp(ir.OpOr, dfaultLoadCond, dfaultStoreCond, 1), dataVaddr, b.Lit(32, 0))))

	// --- next PC -------------------------------------------------------------
	trapVecM := b.BinOp(ir.OpAnd, mtvec, b.Lit(32, ^uint64(3)), 32)
	trapVecS := b.BinOp(ir.OpAnd, stvec, b.Lit(32, ^uint64(3)), 32)
	trapVec := b.Mux(trapToS, trapVecS, trapVecM)

	jalrTarget := b.BinOp(ir.OpAnd, aluResult, b.Lit(32, ^uint64(1)), 32)
	jalTarget := b.BinOp(ir.OpAdd, pc, d.immJ, 32)
	branchTarget := b.BinOp(ir.OpAdd, pc, d.immB, 32)
	pcPlus4 := b.BinOp(ir.OpAdd, pc, b.Lit(32, 4), 32)

	jumpChain := b.Mux(b.BinOp(ir.OpAnd, d.jump, d.jalr, 1), jalrTarget,
		b.Mux(d.jump, jalTarget, b.Mux(branchTaken, branchTarget, pcPlus4)))
	privJump := b.Mux(isMRET, mepc, b.Mux(isSRET, sepc, jumpChain))
	nextPC := b.Mux(trapTaken, trapVec, privJump)
	b.Clocked(clk, rst, ir.RegUpdate{Target: "pc", Expr: nextPC})
	b.Assign(P.DbgPC, pc)

	// --- writeback -----------------------------------------------------------
	wbValue := b.Mux(isAMO, amoWriteback,
		b.Mux(isCSR, csrOld,
			b.Mux(d.memToReg, loadedValue,
				b.Mux(d.jump, pcPlus4, aluResult))))

	regWriteAny := b.BinOp(ir.OpOr, d.regWrite, isCSR, 1)
	regWriteEnable := b.BinOp(ir.OpAnd, regWriteAny, b.BinOp(ir.OpAnd, b.Not(trapTaken), b.BinOp(ir.OpNe, d.rd, b.Lit(5, 0), 1), 1), 1)
	b.AddMemory("regfile", 32, 32, ir.MemWritePort{Clock: clk, Enable: regWriteEnable, Addr: d.rd, Data: wbValue})
	b.Assign(P.DbgRegData, b.MemRead("regfile", b.Sig(P.DbgRegAddr), 32))
	b.Assign(P.DbgCSRData, csrRead(b, b.Sig(P.DbgCSRAddr), csrRegs{
		mstatus: mstatus, mie: mie, mtvec: mtvec, mscratch: b.Sig("r_mscratch"),
		mepc: mepc, mcause: b.Sig("r_mcause"), mtval: b.Sig("r_mtval"), mip: b.Sig("r_mip"),
		medeleg: medeleg, mideleg: mideleg,
		sstatus: sstatus, sie: sie, stvec: stvec, sscratch: b.Sig("r_sscratch"),
		sepc: sepc, scause: b.Sig("r_scause"), stval: b.Sig("r_stval"), sip: b.Sig("r_sip"),
		satp: satp,
	}))

	// --- memory bus outputs (gated so a squashed instruction has no effect) --
	b.Assign(P.MemReadEn, b.BinOp(ir.OpAnd, b.BinOp(ir.OpOr, memRead, isAMO, 1), b.Not(trapTaken), 1))
	b.Assign(P.MemWriteEn, b.BinOp(ir.OpAnd, memWriteEnableRaw, b.Not(trapTaken), 1))

	// --- reservation register -------------------------------------------------
	resvNextValid := b.Mux(trapTaken, resvValid,
		b.Mux(isLR, b.Lit(1, 1), b.Mux(isSC, b.Lit(1, 0), b.Mux(b.BinOp(ir.OpOr, memWrite, isAMORMW, 1), b.Lit(1, 0), resvValid))))
	resvNextAddr := b.Mux(trapTaken, resvAddr, b.Mux(isLR, dt.physAddr, resvAddr))
	b.Clocked(clk, rst,
		ir.RegUpdate{Target: "r_resv_valid", Expr: resvNextValid},
		ir.RegUpdate{Target: "r_resv_addr", Expr: resvNextAddr},
	)

	// --- privilege + trap/mret/sret CSR updates -------------------------------
	targetPriv := b.Mux(trapToS, b.Lit(2, PrivS), b.Lit(2, PrivM))
	mpp := b.Slice(mstatus, bitMPPLo, bitMPPLo+1)
	spp := b.Index(sstatus, bitSPP)
	sppWide := b.ZExt(spp, 2)
	nextPriv := b.Mux(trapTaken, targetPriv, b.Mux(isMRET, mpp, b.Mux(isSRET, sppWide, priv)))
	b.Clocked(clk, rst, ir.RegUpdate{Target: "r_priv", Expr: nextPriv})

	mstatusAfterTrapM := setBits(b, mstatus, map[int]ir.ExprID{
		bitMPIE: mstatusMIE,
		bitMIE:  b.Lit(1, 0),
	})
	mstatusAfterTrapM = setField(b, mstatusAfterTrapM, bitMPPLo, bitMPPLo+1, priv)
	mstatusAfterMRET := setBits(b, mstatus, map[int]ir.ExprID{
		bitMIE:  b.Index(mstatus, bitMPIE),
		bitMPIE: b.Lit(1, 1),
	})
	mstatusAfterMRET = setField(b, mstatusAfterMRET, bitMPPLo, bitMPPLo+1, b.Lit(2, PrivU))
	nextMstatus := b.Mux(trapToM, mstatusAfterTrapM,
		b.Mux(isMRET, mstatusAfterMRET, b.Mux(writesTo(CSRMstatus), csrNew, mstatus)))
	b.Clocked(clk, rst, ir.RegUpdate{Target: "r_mstatus", Expr: nextMstatus})

	sstatusAfterTrapS := setBits(b, sstatus, map[int]ir.ExprID{
		bitSPIE: sstatusSIE,
		bitSIE:  b.Lit(1, 0),
		bitSPP:  b.Index(priv, 0),
	})
	sstatusAfterSRET := setBits(b, sstatus, map[int]ir.ExprID{
		bitSIE:  b.Index(sstatus, bitSPIE),
		bitSPIE: b.Lit(1, 1),
		bitSPP:  b.Lit(1, 0),
	})
	nextSstatus := b.Mux(trapToS, sstatusAfterTrapS,
		b.Mux(isSRET, sstatusAfterSRET, b.Mux(writesTo(CSRSstatus), csrNew, sstatus)))
	b.Clocked(clk, rst, ir.RegUpdate{Target: "r_sstatus", Expr: nextSstatus})

	nextMepc := b.Mux(trapToM, pc, b.Mux(writesTo(CSRMepc), csrNew, mepc))
	nextMcause := b.Mux(trapToM, finalCause, b.Mux(writesTo(CSRMcause), csrNew, b.Sig("r_mcause")))
	nextMtval := b.Mux(trapToM, tvalVal, b.Mux(writesTo(CSRMtval), csrNew, b.Sig("r_mtval")))
	b.Clocked(clk, rst,
		ir.RegUpdate{Target: "r_mepc", Expr: nextMepc},
		ir.RegUpdate{Target: "r_mcause", Expr: nextMcause},
		ir.RegUpdate{Target: "r_mtval", Expr: nextMtval},
	)

	nextSepc := b.Mux(trapToS, pc, b.Mux(writesTo(CSRSepc), csrNew, sepc))
	nextScause := b.Mux(trapToS, finalCause, b.Mux(writesTo(CSRScause), csrNew, b.Sig("r_scause")))
	nextStval := b.Mux(trapToS, tvalVal, b.Mux(writesTo(CSRStval), csrNew, b.Sig("r_stval")))
	b.Clocked(clk, rst,
		ir.RegUpdate{Target: "r_sepc", Expr: nextSepc},
		ir.RegUpdate{Target: "r_scause", Expr: nextScause},
		ir.RegUpdate{Target: "r_stval", Expr: nextStval},
	)

	b.Clocked(clk, rst,
		ir.RegUpdate{Target: "r_mie", Expr: b.Mux(writesTo(CSRMie), csrNew, mie)},
		ir.RegUpdate{Target: "r_mtvec", Expr: b.Mux(writesTo(CSRMtvec), csrNew, mtvec)},
		ir.RegUpdate{Target: "r_mscratch", Expr: b.Mux(writesTo(CSRMscratch), csrNew, b.Sig("r_mscratch"))},
		ir.RegUpdate{Target: "r_medeleg", Expr: b.Mux(writesTo(CSRMedeleg), csrNew, medeleg)},
		ir.RegUpdate{Target: "r_mideleg", Expr: b.Mux(writesTo(CSRMideleg), csrNew, mideleg)},
		ir.RegUpdate{Target: "r_mip", Expr: b.Mux(writesTo(CSRMip), csrNew, b.Sig("r_mip"))},
	)
	b.Clocked(clk, rst,
		ir.RegUpdate{Target: "r_sie", Expr: b.Mux(writesTo(CSRSie), csrNew, sie)},
		ir.RegUpdate{Target: "r_stvec", Expr: b.Mux(writesTo(CSRStvec), csrNew, stvec)},
		ir.RegUpdate{Target: "r_sscratch", Expr: b.Mux(writesTo(CSRSscratch), csrNew, b.Sig("r_sscratch"))},
		ir.RegUpdate{Target: "r_sip", Expr: b.Mux(writesTo(CSRSip), csrNew, b.Sig("r_sip"))},
		ir.RegUpdate{Target: "r_satp", Expr: b.Mux(satpWriteNow, csrNew, satp)},
	)

	return b.Finish()
}

// setBits returns base with each listed bit position overridden by a 1-bit
// expression, everything else held.
func setBits(b *ir.Builder, base ir.ExprID, bits map[int]ir.ExprID) ir.ExprID {
	out := base
	for pos, val := range bits {
		out = setField(b, out, pos, pos, b.ZExt(val, 1))
	}
	return out
}

// setField overrides base[hi:lo] with val (already sized to hi-lo+1 bits),
// preserving every other bit.
func setField(b *ir.Builder, base ir.ExprID, lo, hi int, val ir.ExprID) ir.ExprID {
	width := hi - lo + 1
	mask := b.BinOp(ir.OpShl, b.Lit(32, (uint64(1)<<uint(width))-1), b.Lit(32, uint64(lo)), 32)
	cleared := b.BinOp(ir.OpAnd, base, b.Not(mask), 32)
	placed := b.BinOp(ir.OpShl, b.ZExt(val, 32), b.Lit(32, uint64(lo)), 32)
	return b.BinOp(ir.OpOr, cleared, placed, 32)
}

type csrRegs struct {
	mstatus, mie, mtvec, mscratch, mepc, mcause, mtval, mip ir.ExprID
	medeleg, mideleg                                        ir.ExprID
	sstatus, sie, stvec, sscratch, sepc, scause, stval, sip ir.ExprID
	satp                                                    ir.ExprID
}

// csrRead builds the combinational read mux shared by the instruction path
// and the debug port: any address outside the implemented subset reads 0.
func csrRead(b *ir.Builder, addr ir.ExprID, r csrRegs) ir.ExprID {
	return b.Case(addr, []ir.CaseArm{
		{Value: CSRMstatus, Expr: r.mstatus},
		{Value: CSRMie, Expr: r.mie},
		{Value: CSRMtvec, Expr: r.mtvec},
		{Value: CSRMscratch, Expr: r.mscratch},
		{Value: CSRMepc, Expr: r.mepc},
		{Value: CSRMcause, Expr: r.mcause},
		{Value: CSRMtval, Expr: r.mtval},
		{Value: CSRMip, Expr: r.mip},
		{Value: CSRMedeleg, Expr: r.medeleg},
		{Value: CSRMideleg, Expr: r.mideleg},
		{Value: CSRSstatus, Expr: r.sstatus},
		{Value: CSRSie, Expr: r.sie},
		{Value: CSRStvec, Expr: r.stvec},
		{Value: CSRSscratch, Expr: r.sscratch},
		{Value: CSRSepc, Expr: r.sepc},
		{Value: CSRScause, Expr: r.scause},
		{Value: CSRStval, Expr: r.stval},
		{Value: CSRSip, Expr: r.sip},
		{Value: CSRSatp, Expr: r.satp},
	}, b.Lit(32, 0))
}
