package rv32

import (
	"testing"

	"github.com/hdlgo/rhdl/sim"
)

// harness is a minimal bare-metal driver for rv32core used only by this
// package's own tests: satp stays zero (Sv32 disabled) so the page-walk
// ports are never exercised here; that is covered by the Sv32 tests in
// package harness, which supply two-level page tables.
type harness struct {
	t   *testing.T
	s   *sim.Simulator
	mem map[uint32]uint32 // word-addressed physical RAM
}

func newHarness(t *testing.T, program []uint32) *harness {
	t.Helper()
	m, err := Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s, err := sim.New(m)
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	h := &harness{t: t, s: s, mem: make(map[uint32]uint32)}
	for i, w := range program {
		h.mem[uint32(i*4)] = w
	}
	must(t, s.Poke(P.Rst, 1))
	must(t, s.Tick())
	must(t, s.Poke(P.Rst, 0))
	return h
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// step settles combinationally (servicing the instruction/data memory buses
// from h.mem), then advances one clock edge.
func (h *harness) step() {
	h.t.Helper()
	must(h.t, h.s.Evaluate())

	instAddr, err := h.s.Peek(P.InstAddr)
	must(h.t, err)
	must(h.t, h.s.Poke(P.InstData, uint64(h.mem[uint32(instAddr)])))
	must(h.t, h.s.Evaluate())

	memAddr, err := h.s.Peek(P.MemAddr)
	must(h.t, err)
	readEn, _ := h.s.Peek(P.MemReadEn)
	if readEn != 0 {
		must(h.t, h.s.Poke(P.MemReadData, uint64(h.mem[uint32(memAddr)&^3])))
	}
	must(h.t, h.s.Evaluate())

	writeEn, _ := h.s.Peek(P.MemWriteEn)
	if writeEn != 0 {
		data, _ := h.s.Peek(P.MemWriteData)
		h.mem[uint32(memAddr)&^3] = uint32(data)
	}
	must(h.t, h.s.Tick())
}

func (h *harness) reg(i uint64) uint64 {
	h.t.Helper()
	must(h.t, h.s.Poke(P.DbgRegAddr, i))
	must(h.t, h.s.Evaluate())
	v, err := h.s.Peek(P.DbgRegData)
	must(h.t, err)
	return v
}

func (h *harness) csr(addr uint64) uint64 {
	h.t.Helper()
	must(h.t, h.s.Poke(P.DbgCSRAddr, addr))
	must(h.t, h.s.Evaluate())
	v, err := h.s.Peek(P.DbgCSRData)
	must(h.t, err)
	return v
}

func (h *harness) pc() uint64 {
	h.t.Helper()
	must(h.t, h.s.Evaluate())
	v, err := h.s.Peek(P.DbgPC)
	must(h.t, err)
	return v
}

// encoders for the instruction formats this test file needs.
func encR(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}
func encI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}
func encS(funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u&0x1f)<<7 | opStore
}
func encB(funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>12&1)<<31 | (u>>5&0x3f)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u>>11&1)<<7 | (u>>1&0xf)<<8 | opBranch
}
func encU(opcode, rd uint32, imm uint32) uint32 { return imm&0xfffff000 | rd<<7 | opcode }
func encSystem(funct3, rd, rs1 uint32, imm uint32) uint32 {
	return imm<<20 | rs1<<15 | funct3<<12 | rd<<7 | opSystem
}

func addi(rd, rs1 uint32, imm int32) uint32 { return encI(opImm, 0b000, rd, rs1, imm) }
func add(rd, rs1, rs2 uint32) uint32        { return encR(opOp, 0b000, 0x00, rd, rs1, rs2) }
func sw(rs1, rs2 uint32, imm int32) uint32  { return encS(0b010, rs1, rs2, imm) }
func lw(rd, rs1 uint32, imm int32) uint32   { return encI(opLoad, 0b010, rd, rs1, imm) }
func beq(rs1, rs2 uint32, imm int32) uint32 { return encB(0b000, rs1, rs2, imm) }
func ecall() uint32                         { return encSystem(0, 0, 0, 0x000) }

func slli(rd, rs1, shamt uint32) uint32 { return encI(opImm, 0b001, rd, rs1, int32(shamt)) }
func srli(rd, rs1, shamt uint32) uint32 { return encI(opImm, 0b101, rd, rs1, int32(shamt)) }
func srai(rd, rs1, shamt uint32) uint32 { return encI(opImm, 0b101, rd, rs1, int32(0x400|shamt)) }
func sll(rd, rs1, rs2 uint32) uint32    { return encR(opOp, 0b001, 0x00, rd, rs1, rs2) }
func srl(rd, rs1, rs2 uint32) uint32    { return encR(opOp, 0b101, 0x00, rd, rs1, rs2) }
func sra(rd, rs1, rs2 uint32) uint32    { return encR(opOp, 0b101, 0x20, rd, rs1, rs2) }
func csrrw(rd, rs1 uint32, csr uint32) uint32 {
	return encSystem(0b001, rd, rs1, csr)
}

func TestResetForcesDeclaredResetValues(t *testing.T) {
	h := newHarness(t, nil)
	if pc := h.pc(); pc != 0 {
		t.Fatalf("pc after reset = %#x, want 0", pc)
	}
	if v := h.csr(0); v != 0 {
		t.Fatalf("unimplemented csr address should read 0, got %#x", v)
	}
}

func TestAddImmediateAndAdd(t *testing.T) {
	h := newHarness(t, []uint32{
		addi(1, 0, 5),  // x1 = 5
		addi(2, 0, 7),  // x2 = 7
		add(3, 1, 2),   // x3 = x1+x2
	})
	for i := 0; i < 3; i++ {
		h.step()
	}
	if v := h.reg(3); v != 12 {
		t.Fatalf("x3 = %d, want 12", v)
	}
	if pc := h.pc(); pc != 12 {
		t.Fatalf("pc = %d, want 12", pc)
	}
}

func TestX0IsAlwaysZero(t *testing.T) {
	h := newHarness(t, []uint32{
		addi(0, 0, 123), // write to x0 must be suppressed
	})
	h.step()
	if v := h.reg(0); v != 0 {
		t.Fatalf("x0 = %d, want 0", v)
	}
}

func TestStoreThenLoad(t *testing.T) {
	h := newHarness(t, []uint32{
		addi(1, 0, 0x100), // x1 = base address
		addi(2, 0, 42),    // x2 = 42
		sw(1, 2, 0),       // mem[x1] = x2
		lw(3, 1, 0),       // x3 = mem[x1]
	})
	for i := 0; i < 4; i++ {
		h.step()
	}
	if v := h.reg(3); v != 42 {
		t.Fatalf("x3 = %d, want 42", v)
	}
}

func TestBranchTakenSkipsInstruction(t *testing.T) {
	h := newHarness(t, []uint32{
		addi(1, 0, 1),    // x1 = 1
		beq(1, 1, 8),     // always equal here, skip the next instruction
		addi(2, 0, 999),  // should be skipped
		addi(3, 0, 7),    // x3 = 7
	})
	for i := 0; i < 3; i++ {
		h.step()
	}
	if v := h.reg(2); v != 0 {
		t.Fatalf("x2 = %d, want 0 (branch should have skipped it)", v)
	}
	if v := h.reg(3); v != 7 {
		t.Fatalf("x3 = %d, want 7", v)
	}
}

func TestEcallTrapsToMachineModeAndSetsEpc(t *testing.T) {
	h := newHarness(t, []uint32{
		addi(1, 0, 1), // at pc=0
		ecall(),       // at pc=4
	})
	h.step()
	h.step()
	if v := h.csr(CSRMepc); v != 4 {
		t.Fatalf("mepc = %#x, want 4", v)
	}
	if v := h.csr(CSRMcause); v != CauseEcallM {
		t.Fatalf("mcause = %d, want %d", v, CauseEcallM)
	}
	if pc := h.pc(); pc != 0 {
		t.Fatalf("pc after trap = %#x, want 0 (mtvec reset value)", pc)
	}
}

// TestShiftAmountIgnoresHighBits exercises SRAI's funct7-in-the-immediate
// encoding: the raw I-immediate for "srai x2,x1,2" is 0x402, not 2, so an
// unmasked shift would shift by 1026 instead of 2.
func TestShiftAmountIgnoresHighBits(t *testing.T) {
	h := newHarness(t, []uint32{
		addi(1, 0, -8), // x1 = 0xfffffff8 (-8)
		srai(2, 1, 2),  // x2 = x1 >>s 2 = -2
	})
	h.step()
	h.step()
	if v := int32(h.reg(2)); v != -2 {
		t.Fatalf("x2 = %d, want -2", v)
	}
}

func TestShiftImmediateLogicalAndLeft(t *testing.T) {
	h := newHarness(t, []uint32{
		addi(1, 0, 1),
		slli(2, 1, 4), // x2 = 1<<4 = 16
		srli(3, 2, 2), // x3 = 16>>2 = 4
	})
	h.step()
	h.step()
	h.step()
	if v := h.reg(2); v != 16 {
		t.Fatalf("x2 = %d, want 16", v)
	}
	if v := h.reg(3); v != 4 {
		t.Fatalf("x3 = %d, want 4", v)
	}
}

// TestRegisterShiftMasksRS2 exercises the register-operand form: rs2 holds
// 32+2, which must behave like a shift of 2, not collapse to 0.
func TestRegisterShiftMasksRS2(t *testing.T) {
	h := newHarness(t, []uint32{
		addi(1, 0, 1),  // x1 = 1
		addi(2, 0, 34), // x2 = 34 (0x22, low 5 bits = 2)
		sll(3, 1, 2),   // x3 = x1 << (x2 & 0x1f) = 1<<2 = 4
	})
	h.step()
	h.step()
	h.step()
	if v := h.reg(3); v != 4 {
		t.Fatalf("x3 = %d, want 4", v)
	}
}

func TestCSRReadWriteRoundTrip(t *testing.T) {
	h := newHarness(t, []uint32{
		addi(1, 0, 0x55),
		csrrw(0, 1, CSRMscratch), // mscratch = x1, rd=x0 so old value discarded
	})
	h.step()
	h.step()
	if v := h.csr(CSRMscratch); v != 0x55 {
		t.Fatalf("mscratch = %#x, want 0x55", v)
	}
}
