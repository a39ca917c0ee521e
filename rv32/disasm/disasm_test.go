package disasm

import "testing"

func encR(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}
func encI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}
func encU(opcode, rd, imm20 uint32) uint32 { return imm20<<12 | rd<<7 | opcode }

func TestDisassembleArithmeticAndImmediate(t *testing.T) {
	cases := []struct {
		inst uint32
		want string
	}{
		{encR(opOp, 0, 0x00, 3, 1, 2), "add     gp,ra,sp"},
		{encR(opOp, 0, 0x20, 3, 1, 2), "sub     gp,ra,sp"},
		{encR(opOp, 4, 0x01, 3, 1, 2), "div     gp,ra,sp"},
		{encI(opImm, 0, 1, 0, 5), "addi    ra,zero,5"},
		{encI(opImm, 0, 1, 0, -4), "addi    ra,zero,-4"},
	}
	for _, c := range cases {
		got, n := Disassemble(0, c.inst)
		if got != c.want {
			t.Errorf("Disassemble(%#x) = %q, want %q", c.inst, got, c.want)
		}
		if n != 4 {
			t.Errorf("Disassemble(%#x) length = %d, want 4", c.inst, n)
		}
	}
}

func TestDisassembleLoadStore(t *testing.T) {
	inst := encI(opLoad, 2, 5, 1, 16)
	if got, _ := Disassemble(0, inst); got != "lw      t0,16(ra)" {
		t.Errorf("lw disassembly = %q", got)
	}
	// sw t0,0(ra): funct3=2, rs1=ra(1), rs2=t0(5), imm=0
	storeInst := (uint32(0) << 25) | (5 << 20) | (1 << 15) | (2 << 12) | (0 << 7) | opStore
	if got, _ := Disassemble(0, storeInst); got != "sw      t0,0(ra)" {
		t.Errorf("sw disassembly = %q", got)
	}
}

func TestDisassembleLUIAndJumpsResolveTargets(t *testing.T) {
	if got, _ := Disassemble(0, encU(opLUI, 1, 0x10000)); got != "lui     ra,0x10000" {
		t.Errorf("lui disassembly = %q", got)
	}
	// jal x0,8: offset encoded in the J-type immediate fields.
	jal := (uint32(8) << 20) | opJAL // imm bit 3 lands in inst[23], matching immJ's layout
	if got, _ := Disassemble(100, jal); got != "jal     zero,0x6c" {
		t.Errorf("jal disassembly = %q", got)
	}
}

func TestDisassembleSystemInstructions(t *testing.T) {
	ecall := encI(opSystem, 0, 0, 0, 0)
	if got, _ := Disassemble(0, ecall); got != "ecall" {
		t.Errorf("ecall disassembly = %q", got)
	}
	mret := encI(opSystem, 0, 0, 0, 0x302)
	if got, _ := Disassemble(0, mret); got != "mret" {
		t.Errorf("mret disassembly = %q", got)
	}
	csrrw := encI(opSystem, 1, 2, 1, 0x300)
	if got, _ := Disassemble(0, csrrw); got != "csrrw   sp,0x300,ra" {
		t.Errorf("csrrw disassembly = %q", got)
	}
}

func TestDisassembleUnknownOpcodeRendersWordLiteral(t *testing.T) {
	got, n := Disassemble(0, 0x0000007f)
	if got != ".word   0x0000007f" {
		t.Errorf("undefined disassembly = %q", got)
	}
	if n != 4 {
		t.Errorf("undefined length = %d, want 4", n)
	}
}
