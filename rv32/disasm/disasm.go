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

// Package disasm renders one RV32IMA instruction word as text, for the
// monitor's disasm command. It decodes the opcode/funct3/funct7 fields
// itself rather than importing rv32, which keeps its field constants
// private to the core.
package disasm

import "fmt"

const (
	opLoad     = 0x03
	opMiscMem  = 0x0F
	opImm      = 0x13
	opAUIPC    = 0x17
	opStore    = 0x23
	opAMO      = 0x2F
	opOp       = 0x33
	opLUI      = 0x37
	opBranch   = 0x63
	opJALR     = 0x67
	opJAL      = 0x6F
	opSystem   = 0x73
)

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func reg(i uint32) string { return regNames[i&0x1f] }

func fields(inst uint32) (opcode, rd, funct3, rs1, rs2, funct7 uint32) {
	opcode = inst & 0x7f
	rd = (inst >> 7) & 0x1f
	funct3 = (inst >> 12) & 0x7
	rs1 = (inst >> 15) & 0x1f
	rs2 = (inst >> 20) & 0x1f
	funct7 = (inst >> 25) & 0x7f
	return
}

func immI(inst uint32) int32 { return int32(inst) >> 20 }

func immS(inst uint32) int32 {
	u := ((inst >> 25) << 5) | ((inst >> 7) & 0x1f)
	return signExtend(u, 12)
}

func immB(inst uint32) int32 {
	u := (((inst >> 31) & 1) << 12) | (((inst >> 7) & 1) << 11) |
		(((inst >> 25) & 0x3f) << 5) | (((inst >> 8) & 0xf) << 1)
	return signExtend(u, 13)
}

func immU(inst uint32) int32 { return int32(inst & 0xfffff000) }

func immJ(inst uint32) int32 {
	u := (((inst >> 31) & 1) << 20) | (((inst >> 12) & 0xff) << 12) |
		(((inst >> 20) & 1) << 11) | (((inst >> 21) & 0x3ff) << 1)
	return signExtend(u, 21)
}

func signExtend(v uint32, bits int) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

var loadMnemonics = map[uint32]string{0: "lb", 1: "lh", 2: "lw", 4: "lbu", 5: "lhu"}
var storeMnemonics = map[uint32]string{0: "sb", 1: "sh", 2: "sw"}
var branchMnemonics = map[uint32]string{0: "beq", 1: "bne", 4: "blt", 5: "bge", 6: "bltu", 7: "bgeu"}

var immAluMnemonics = map[uint32]string{
	0: "addi", 2: "slti", 3: "sltiu", 4: "xori", 6: "ori", 7: "andi",
}

var regAluMnemonics = map[[2]uint32]string{
	{0, 0x00}: "add", {0, 0x20}: "sub", {1, 0x00}: "sll", {2, 0x00}: "slt",
	{3, 0x00}: "sltu", {4, 0x00}: "xor", {5, 0x00}: "srl", {5, 0x20}: "sra",
	{6, 0x00}: "or", {7, 0x00}: "and",
	{0, 0x01}: "mul", {1, 0x01}: "mulh", {2, 0x01}: "mulhsu", {3, 0x01}: "mulhu",
	{4, 0x01}: "div", {5, 0x01}: "divu", {6, 0x01}: "rem", {7, 0x01}: "remu",
}

// Disassemble renders inst (fetched at pc, used only to resolve branch and
// jump targets) as a mnemonic-and-operands string, and reports the byte
// length consumed (always 4; RV32IMA carries no compressed forms here).
func Disassemble(pc, inst uint32) (string, int) {
	opcode, rd, funct3, rs1, rs2, funct7 := fields(inst)

	switch opcode {
	case opLUI:
		return fmt.Sprintf("lui     %s,0x%x", reg(rd), uint32(immU(inst))>>12), 4
	case opAUIPC:
		return fmt.Sprintf("auipc   %s,0x%x", reg(rd), uint32(immU(inst))>>12), 4
	case opJAL:
		return fmt.Sprintf("jal     %s,0x%x", reg(rd), pc+uint32(immJ(inst))), 4
	case opJALR:
		return fmt.Sprintf("jalr    %s,%d(%s)", reg(rd), immI(inst), reg(rs1)), 4
	case opBranch:
		name, ok := branchMnemonics[funct3]
		if !ok {
			return undefined(inst), 4
		}
		return fmt.Sprintf("%-7s %s,%s,0x%x", name, reg(rs1), reg(rs2), pc+uint32(immB(inst))), 4
	case opLoad:
		name, ok := loadMnemonics[funct3]
		if !ok {
			return undefined(inst), 4
		}
		return fmt.Sprintf("%-7s %s,%d(%s)", name, reg(rd), immI(inst), reg(rs1)), 4
	case opStore:
		name, ok := storeMnemonics[funct3]
		if !ok {
			return undefined(inst), 4
		}
		return fmt.Sprintf("%-7s %s,%d(%s)", name, reg(rs2), immS(inst), reg(rs1)), 4
	case opImm:
		if funct3 == 1 {
			return fmt.Sprintf("slli    %s,%s,%d", reg(rd), reg(rs1), rs2), 4
		}
		if funct3 == 5 {
			if funct7 == 0x20 {
				return fmt.Sprintf("srai    %s,%s,%d", reg(rd), reg(rs1), rs2), 4
			}
			return fmt.Sprintf("srli    %s,%s,%d", reg(rd), reg(rs1), rs2), 4
		}
		name, ok := immAluMnemonics[funct3]
		if !ok {
			return undefined(inst), 4
		}
		return fmt.Sprintf("%-7s %s,%s,%d", name, reg(rd), reg(rs1), immI(inst)), 4
	case opOp:
		name, ok := regAluMnemonics[[2]uint32{funct3, funct7}]
		if !ok {
			return undefined(inst), 4
		}
		return fmt.Sprintf("%-7s %s,%s,%s", name, reg(rd), reg(rs1), reg(rs2)), 4
	case opMiscMem:
		return "fence", 4
	case opAMO:
		return disassembleAMO(rd, funct3, rs1, rs2, inst), 4
	case opSystem:
		return disassembleSystem(rd, funct3, rs1, inst), 4
	default:
		return undefined(inst), 4
	}
}

func disassembleAMO(rd, funct3, rs1, rs2, inst uint32) string {
	if funct3 != 2 {
		return undefined(inst)
	}
	funct5 := inst >> 27
	switch funct5 {
	case 0b00010:
		return fmt.Sprintf("lr.w    %s,(%s)", reg(rd), reg(rs1))
	case 0b00011:
		return fmt.Sprintf("sc.w    %s,%s,(%s)", reg(rd), reg(rs2), reg(rs1))
	case 0b00001:
		return fmt.Sprintf("amoswap.w %s,%s,(%s)", reg(rd), reg(rs2), reg(rs1))
	case 0b00000:
		return fmt.Sprintf("amoadd.w %s,%s,(%s)", reg(rd), reg(rs2), reg(rs1))
	case 0b00100:
		return fmt.Sprintf("amoxor.w %s,%s,(%s)", reg(rd), reg(rs2), reg(rs1))
	case 0b01100:
		return fmt.Sprintf("amoand.w %s,%s,(%s)", reg(rd), reg(rs2), reg(rs1))
	case 0b01000:
		return fmt.Sprintf("amoor.w %s,%s,(%s)", reg(rd), reg(rs2), reg(rs1))
	default:
		return undefined(inst)
	}
}

func disassembleSystem(rd, funct3, rs1, inst uint32) string {
	if funct3 == 0 {
		csr := (inst >> 20) & 0xfff
		switch csr {
		case 0x000:
			return "ecall"
		case 0x001:
			return "ebreak"
		case 0x302:
			return "mret"
		case 0x102:
			return "sret"
		case 0x105:
			return "wfi"
		default:
			return fmt.Sprintf("sfence.vma %s,%s", reg(rs1), reg((inst>>20)&0x1f))
		}
	}
	csr := (inst >> 20) & 0xfff
	names := map[uint32]string{1: "csrrw", 2: "csrrs", 3: "csrrc", 5: "csrrwi", 6: "csrrsi", 7: "csrrci"}
	name, ok := names[funct3]
	if !ok {
		return undefined(inst)
	}
	if funct3 >= 5 {
		return fmt.Sprintf("%-7s %s,0x%x,%d", name, reg(rd), csr, rs1)
	}
	return fmt.Sprintf("%-7s %s,0x%x,%s", name, reg(rd), csr, reg(rs1))
}

func undefined(inst uint32) string {
	return fmt.Sprintf(".word   0x%08x", inst)
}
