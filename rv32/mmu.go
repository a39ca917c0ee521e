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

// translateResult is the output of one Sv32 translation, combinational
// over the current cycle's TLB contents plus any page-walk data the
// harness has poked back this settle round (spec.md §4.6).
type translateResult struct {
	physAddr ir.ExprID // 32 bits
	fault    ir.ExprID // 1 bit
}

// buildTranslate wires one Sv32 translator (instruction-side or data-side,
// distinguished by prefix) for a single flat rv32core module: a 4-entry
// direct-mapped TLB backed by an ir.Memory, a two-level page walk exposed
// on dedicated ports for the harness to service (§4.8 step 2), and an
// epoch register so a flush (SFENCE.VMA or a satp write) invalidates every
// entry in one cycle without needing a 4-wide write port.
//
// priv and mstatus carry the current privilege level and the SUM/MXR bits
// needed to judge the PTE's R/W/X/U permission nibble (§4.6.5); reqRead,
// reqWrite and reqExec are 1-bit signals naming which of those permissions
// this cycle's access actually needs (a fetch wants X only, a load wants R,
// a store wants W, an AMO wants both R and W). Any permission mismatch is
// folded into the same fault output as a missing page: core.go classifies
// a fault as fetch, load or store by which translator raised it and by the
// access type, not by its reason.
func buildTranslate(b *ir.Builder, prefix string, clock, reset string, vaddr, satpMode, satpRootPPN, flush, priv, mstatus, reqRead, reqWrite, reqExec ir.ExprID) translateResult {
	ptwAddr1 := prefix + "ptw_addr1"
	ptwAddr2 := prefix + "ptw_addr2"
	ptwData1 := prefix + "ptw_data1"
	ptwData2 := prefix + "ptw_data2"
	tlbMem := prefix + "tlb"
	epochReg := prefix + "tlb_epoch"

	b.AddPort(ptwAddr1, ir.Out, 32)
	b.AddPort(ptwAddr2, ir.Out, 32)
	b.AddPort(ptwData1, ir.In, 32)
	b.AddPort(ptwData2, ir.In, 32)
	b.AddRegister(epochReg, 8, 0)

	vpn1 := b.Slice(vaddr, 22, 31)
	vpn0 := b.Slice(vaddr, 12, 21)
	pageOff := b.Slice(vaddr, 0, 11)
	vpn := b.Concat(vpn1, vpn0) // 20 bits, the TLB tag

	epoch := b.Sig(epochReg)
	nextEpoch := b.Mux(flush, b.BinOp(ir.OpAdd, epoch, b.Lit(8, 1), 8), epoch)
	b.Clocked(clock, reset, ir.RegUpdate{Target: epochReg, Expr: nextEpoch})

	tlbIndex := b.Slice(vpn0, 0, 1) // VPN[1:0], 2 bits -> 4 entries

	// entry layout, MSB to LSB: valid(1) epoch(8) tag(20) ppn(20) perm(4)
	const entryWidth = 53
	entry := b.MemRead(tlbMem, tlbIndex, entryWidth)
	entryValid := b.Index(entry, entryWidth-1)
	entryEpoch := b.Slice(entry, entryWidth-9, entryWidth-2)
	entryTag := b.Slice(entry, entryWidth-29, entryWidth-10)
	entryPPN := b.Slice(entry, 4, 23)
	entryPerm := b.Slice(entry, 0, 3)

	epochOK := b.BinOp(ir.OpEq, entryEpoch, epoch, 1)
	tagOK := b.BinOp(ir.OpEq, entryTag, vpn, 1)
	hit := b.BinOp(ir.OpAnd, b.BinOp(ir.OpAnd, entryValid, epochOK, 1), tagOK, 1)

	addr1 := b.BinOp(ir.OpAdd,
		b.BinOp(ir.OpShl, satpRootPPN, b.Lit(32, 12), 32),
		b.BinOp(ir.OpShl, b.ZExt(vpn1, 32), b.Lit(32, 2), 32), 32)
	pte1 := b.Sig(ptwData1)
	pte1V := b.Index(pte1, 0)
	pte1R := b.Index(pte1, 1)
	pte1X := b.Index(pte1, 3)
	leaf1 := b.BinOp(ir.OpAnd, pte1V, b.BinOp(ir.OpOr, pte1R, pte1X, 1), 1)
	nonleaf1 := b.BinOp(ir.OpAnd, pte1V, b.Not(b.BinOp(ir.OpOr, pte1R, pte1X, 1)), 1)
	pte1PPN := b.Slice(pte1, 10, 29)
	pte1PPN1 := b.Slice(pte1PPN, 10, 19)
	megaPPN := b.Concat(pte1PPN1, vpn0)
	pte1Perm := b.Slice(pte1, 1, 4) // R,W,X,U bits as stored, reused directly

	addr2 := b.BinOp(ir.OpAdd,
		b.BinOp(ir.OpShl, b.ZExt(pte1PPN, 32), b.Lit(32, 12), 32),
		b.BinOp(ir.OpShl, b.ZExt(vpn0, 32), b.Lit(32, 2), 32), 32)
	pte2 := b.Sig(ptwData2)
	pte2V := b.Index(pte2, 0)
	pte2R := b.Index(pte2, 1)
	pte2X := b.Index(pte2, 3)
	leaf2 := b.BinOp(ir.OpAnd, pte2V, b.BinOp(ir.OpOr, pte2R, pte2X, 1), 1)
	pte2PPN := b.Slice(pte2, 10, 29)
	pte2Perm := b.Slice(pte2, 1, 4)

	walkedPPN := b.Mux(leaf1, megaPPN, pte2PPN)
	walkedPerm := b.Mux(leaf1, pte1Perm, pte2Perm)
	walkedFault := b.Mux(leaf1, b.Lit(1, 0), b.Mux(nonleaf1, b.Not(leaf2), b.Lit(1, 1)))

	b.Assign(ptwAddr1, addr1)
	b.Assign(ptwAddr2, addr2)

	fillEnable := b.BinOp(ir.OpAnd, satpMode, b.BinOp(ir.OpAnd, b.Not(hit), b.Not(walkedFault), 1), 1)
	newEntry := b.Concat(b.Lit(1, 1), nextEpoch, vpn, walkedPPN, walkedPerm)
	b.AddMemory(tlbMem, 4, entryWidth, ir.MemWritePort{Clock: clock, Enable: fillEnable, Addr: tlbIndex, Data: newEntry})

	ppn := b.Mux(hit, entryPPN, walkedPPN)
	notPresentFault := b.Mux(hit, b.Lit(1, 0), walkedFault)

	// Permission check (§4.6.5): resolve the live R/W/X/U nibble (from the
	// TLB on a hit, from the walk otherwise) and judge it against the
	// requested access and current privilege.
	permBits := b.Mux(hit, entryPerm, walkedPerm)
	permR := b.Index(permBits, 0)
	permW := b.Index(permBits, 1)
	permX := b.Index(permBits, 2)
	permU := b.Index(permBits, 3)

	mxr := b.Index(mstatus, bitMXR)
	sum := b.Index(mstatus, bitSUM)
	isU := b.BinOp(ir.OpEq, priv, b.Lit(2, PrivU), 1)
	isS := b.BinOp(ir.OpEq, priv, b.Lit(2, PrivS), 1)
	isM := b.BinOp(ir.OpEq, priv, b.Lit(2, PrivM), 1)

	// A U-marked page is reachable from U-mode always, and from S-mode
	// only for a non-fetch access with mstatus.SUM set; a non-U page is
	// never reachable from U-mode. M-mode never goes through satp in real
	// hardware unless mstatus.MPRV borrows a lower privilege's view; this
	// core always translates once satp.MODE is set, so M-mode is exempted
	// from the U-bit check here rather than being unable to reach any
	// U-marked page.
	sAccessingUPage := b.BinOp(ir.OpAnd, isS, b.BinOp(ir.OpAnd, b.Not(reqExec), sum, 1), 1)
	privOK := b.Mux(isM, b.Lit(1, 1), b.Mux(permU, b.BinOp(ir.OpOr, isU, sAccessingUPage, 1), b.Not(isU)))

	readOK := b.BinOp(ir.OpOr, b.Not(reqRead), b.BinOp(ir.OpOr, permR, b.BinOp(ir.OpAnd, mxr, permX, 1), 1), 1)
	writeOK := b.BinOp(ir.OpOr, b.Not(reqWrite), permW, 1)
	execOK := b.BinOp(ir.OpOr, b.Not(reqExec), permX, 1)
	typeOK := b.BinOp(ir.OpAnd, readOK, b.BinOp(ir.OpAnd, writeOK, execOK, 1), 1)

	permFault := b.Not(b.BinOp(ir.OpAnd, privOK, typeOK, 1))

	fault := b.BinOp(ir.OpAnd, satpMode, b.BinOp(ir.OpOr, notPresentFault, permFault, 1), 1)
	physAddr := b.Mux(satpMode, b.Concat(ppn, pageOff), vaddr)

	return translateResult{physAddr: physAddr, fault: fault}
}
