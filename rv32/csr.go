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

// CSR addresses implemented by the reference core (spec.md §4.5).
const (
	CSRSstatus = 0x100
	CSRSie     = 0x104
	CSRStvec   = 0x105
	CSRSscratch = 0x140
	CSRSepc    = 0x141
	CSRScause  = 0x142
	CSRStval   = 0x143
	CSRSip     = 0x144
	CSRSatp    = 0x180

	CSRMstatus  = 0x300
	CSRMedeleg  = 0x302
	CSRMideleg  = 0x303
	CSRMie      = 0x304
	CSRMtvec    = 0x305
	CSRMscratch = 0x340
	CSRMepc     = 0x341
	CSRMcause   = 0x342
	CSRMtval    = 0x343
	CSRMip      = 0x344
)

// Privilege levels (spec.md §4.5).
const (
	PrivU = 0
	PrivS = 1
	PrivM = 3
)

// Trap causes (synchronous; the interrupt bit is ORed in separately for
// asynchronous causes).
const (
	CauseInstrAddrMisaligned = 0
	CauseIllegalInstruction  = 2
	CauseBreakpoint          = 3
	CauseEcallU              = 8
	CauseEcallS              = 9
	CauseEcallM              = 11
	CauseInstrPageFault      = 12
	CauseLoadPageFault       = 13
	CauseStorePageFault      = 15
)

// Interrupt causes, pre-shift; the taken mcause/scause value is this OR'd
// with the interrupt bit (1<<31).
const (
	IRQSoftware = 3
	IRQTimer    = 7
	IRQExternal = 11
)

const interruptBit = uint64(1) << 31

// mstatus/sstatus bit positions used by this core.
const (
	bitMIE  = 3
	bitSIE  = 1
	bitMPIE = 7
	bitSPIE = 5
	bitMPPLo = 11 // mstatus.MPP occupies bits 12:11
	bitSPP   = 8
	bitMXR   = 19
	bitSUM   = 18
)

// ALU operation selector values (internal control signal, not an
// architectural encoding).
const (
	aluADD = iota
	aluSUB
	aluSLL
	aluSLT
	aluSLTU
	aluXOR
	aluSRL
	aluSRA
	aluOR
	aluAND
	aluPassA
	aluPassB
	aluMUL
	aluMULH
	aluMULHSU
	aluMULHU
	aluDIV
	aluDIVU
	aluREM
	aluREMU
)
