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

// Package harness wires an rv32 core into a sim.Simulator and a fixed
// peripheral set, and drives the per-cycle protocol described in spec.md
// §4.8: settle, service the page-table-walk ports, fetch the next
// instruction, answer the data-side walk ports again for that instruction,
// dispatch the data bus by address range, service any VirtIO
// queue notification, aggregate interrupt lines, then clock the core
// forward. This mirrors the way the teacher's core package runs the CPU
// loop against host-side device models rather than carrying them in IR.
package harness

import (
	"fmt"

	"github.com/hdlgo/rhdl/peripheral/clint"
	"github.com/hdlgo/rhdl/peripheral/plic"
	"github.com/hdlgo/rhdl/peripheral/ram"
	"github.com/hdlgo/rhdl/peripheral/uart"
	"github.com/hdlgo/rhdl/peripheral/virtio"
	"github.com/hdlgo/rhdl/rv32"
	"github.com/hdlgo/rhdl/sim"
)

// Memory map base addresses (spec.md §4.7).
const (
	baseCLINT  uint32 = 0x02000000
	baseClintEnd uint32 = 0x0200c000
	basePLIC   uint32 = 0x0C000000
	basePlicEnd uint32 = 0x0C210000
	baseUART   uint32 = 0x10000000
	baseUARTEnd uint32 = 0x10000008
	baseVirtIO uint32 = 0x10001000
	baseVirtIOEnd uint32 = 0x10002000
)

// Config describes one Harness instance.
type Config struct {
	// RAMSize is the byte size of guest physical memory.
	RAMSize uint32
	// DiskImage seeds the VirtIO block device's backing store.
	DiskImage []byte
}

// Harness is the outermost driver: core + simulator + peripheral set, plus
// the injected-interrupt-line overrides exposed through SetInterrupts and
// SetPLICSources.
type Harness struct {
	sim *sim.Simulator
	ram *ram.RAM

	clint  *clint.CLINT
	plic   *plic.PLIC
	uart   *uart.UART16550
	virtio *virtio.BlockDevice

	injSoftware, injTimer, injExternal bool
}

// New builds the rv32 core, wraps it in a sim.Simulator, constructs the
// fixed peripheral set, and pulses reset once.
func New(cfg Config) (*Harness, error) {
	m, err := rv32.Build()
	if err != nil {
		return nil, fmt.Errorf("building rv32 core: %w", err)
	}
	s, err := sim.New(m)
	if err != nil {
		return nil, fmt.Errorf("constructing simulator: %w", err)
	}
	h := &Harness{
		sim:    s,
		ram:    ram.New(cfg.RAMSize),
		clint:  clint.New(),
		plic:   plic.New(),
		uart:   uart.New(),
		virtio: virtio.New(cfg.DiskImage),
	}
	h.Reset()
	return h, nil
}

// Reset clears the core's registers/memories to their declared reset
// values by pulsing rst for one cycle (spec.md §6 reset()).
func (h *Harness) Reset() {
	h.sim.Reset()
	must(h.sim.Poke(rv32.P.Rst, 1))
	must(h.sim.Evaluate())
	must(h.sim.Tick())
	must(h.sim.Poke(rv32.P.Rst, 0))
	must(h.sim.Evaluate())
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("harness: unexpected simulator error: %v", err))
	}
}

// LoadProgram writes a little-endian word stream into RAM starting at
// addr, the instruction image.
func (h *Harness) LoadProgram(words []uint32, addr uint32) {
	h.loadWords(words, addr)
}

// LoadData writes a little-endian word stream into RAM starting at addr,
// for data the guest expects to find preloaded.
func (h *Harness) LoadData(words []uint32, addr uint32) {
	h.loadWords(words, addr)
}

func (h *Harness) loadWords(words []uint32, addr uint32) {
	for i, w := range words {
		h.ram.Write(addr+uint32(i)*4, 4, w)
	}
}

// LoadVirtIODisk populates the block device's backing image starting at
// offset.
func (h *Harness) LoadVirtIODisk(data []byte, offset int) {
	h.virtio.LoadDiskAt(offset, data)
}

// SetInterrupts injects the software/timer/external lines in addition to
// whatever the peripheral set itself asserts.
func (h *Harness) SetInterrupts(software, timer, external bool) {
	h.injSoftware, h.injTimer, h.injExternal = software, timer, external
}

// SetPLICSources drives the two PLIC source inputs (IDs 1 and 10).
func (h *Harness) SetPLICSources(source1, source10 bool) {
	h.plic.SetSource(1, source1)
	h.plic.SetSource(10, source10)
}

// UARTReceiveBytes enqueues bytes into the UART's RX FIFO.
func (h *Harness) UARTReceiveBytes(bs []byte) {
	h.uart.ReceiveBytes(bs)
}

// UARTTxBytes returns the bytes the guest has transmitted so far.
func (h *Harness) UARTTxBytes() []byte {
	return h.uart.TxBytes()
}

// ClearUARTTxBytes discards the accumulated TX byte stream.
func (h *Harness) ClearUARTTxBytes() {
	h.uart.ClearTxBytes()
}

// PeekAddr reads one 32-bit word from the same address-ranged bus the core
// itself uses, for host-side inspection tools (the monitor's peek/disasm
// commands).
func (h *Harness) PeekAddr(addr uint32) uint32 {
	return h.dispatchRead(addr, 4)
}

// PokeAddr writes one 32-bit word through the same address-ranged bus the
// core itself uses, for host-side inspection tools (the monitor's poke
// command).
func (h *Harness) PokeAddr(addr uint32, value uint32) {
	h.dispatchWrite(addr, 4, value)
}

// ReadPC returns the core's current program counter via its debug port.
func (h *Harness) ReadPC() uint32 {
	must(h.sim.Evaluate())
	v, err := h.sim.Peek(rv32.P.DbgPC)
	must(err)
	return uint32(v)
}

// ReadReg returns integer register i via the core's debug register port.
func (h *Harness) ReadReg(i int) uint32 {
	must(h.sim.Poke(rv32.P.DbgRegAddr, uint64(i)))
	must(h.sim.Evaluate())
	v, err := h.sim.Peek(rv32.P.DbgRegData)
	must(err)
	return uint32(v)
}

// ReadCSR returns CSR addr (a 12-bit CSR index) via the core's debug CSR
// port; addresses the core does not implement read as zero.
func (h *Harness) ReadCSR(addr uint32) uint32 {
	must(h.sim.Poke(rv32.P.DbgCSRAddr, uint64(addr)))
	must(h.sim.Evaluate())
	v, err := h.sim.Peek(rv32.P.DbgCSRData)
	must(err)
	return uint32(v)
}

// RunCycles repeats ClockCycle n times.
func (h *Harness) RunCycles(n int) {
	for i := 0; i < n; i++ {
		h.ClockCycle()
	}
}

// ClockCycle runs one full rising-edge cycle per spec.md §4.8: settle,
// service PTW reads for both translation paths, fetch the next
// instruction, service the data-side PTW reads again for that
// instruction, dispatch the data bus, service VirtIO, aggregate
// interrupts, then clock the core and re-settle.
func (h *Harness) ClockCycle() {
	must(h.sim.Evaluate())
	h.servicePTW()

	instAddr, err := h.sim.Peek(rv32.P.InstAddr)
	must(err)
	must(h.sim.Poke(rv32.P.InstData, uint64(h.ram.Read(uint32(instAddr), 4))))
	must(h.sim.Evaluate())
	// The data-side walk addresses follow from the instruction just
	// fetched, so that side's PTEs are answered again for it.
	h.servicePTWSide(rv32.P.DPTWAddr1, rv32.P.DPTWData1)
	must(h.sim.Evaluate())
	h.servicePTWSide(rv32.P.DPTWAddr2, rv32.P.DPTWData2)
	must(h.sim.Evaluate())

	h.serviceDataBus()
	h.virtio.ServiceQueue(h.ram)
	h.aggregateInterrupts()

	must(h.sim.Poke(rv32.P.Clk, 1))
	must(h.sim.Tick())
	must(h.sim.Poke(rv32.P.Clk, 0))
	must(h.sim.Evaluate())

	h.clint.Tick()
}

// servicePTW answers the instruction-side and data-side page-walk ports
// from RAM, re-settling between each poke the way real combinational
// feedback would (a poke may change which PTE the next level's address
// depends on).
func (h *Harness) servicePTW() {
	h.servicePTWSide(rv32.P.IPTWAddr1, rv32.P.IPTWData1)
	must(h.sim.Evaluate())
	h.servicePTWSide(rv32.P.IPTWAddr2, rv32.P.IPTWData2)
	must(h.sim.Evaluate())
	h.servicePTWSide(rv32.P.DPTWAddr1, rv32.P.DPTWData1)
	must(h.sim.Evaluate())
	h.servicePTWSide(rv32.P.DPTWAddr2, rv32.P.DPTWData2)
	must(h.sim.Evaluate())
}

func (h *Harness) servicePTWSide(addrPort, dataPort string) {
	addr, err := h.sim.Peek(addrPort)
	must(err)
	must(h.sim.Poke(dataPort, uint64(h.ram.Read(uint32(addr), 4))))
}

// serviceDataBus dispatches the core's data-memory bus by address range
// to CLINT/PLIC/UART/VirtIO/RAM, and commits any pending write.
func (h *Harness) serviceDataBus() {
	memAddr, err := h.sim.Peek(rv32.P.MemAddr)
	must(err)
	addr := uint32(memAddr)
	size := h.accessSize()

	readEn, _ := h.sim.Peek(rv32.P.MemReadEn)
	if readEn != 0 {
		unsigned, _ := h.sim.Peek(rv32.P.MemUnsigned)
		raw := h.dispatchRead(addr, size)
		if unsigned == 0 && size < 4 {
			raw = uint32(signExtend(raw, size))
		}
		must(h.sim.Poke(rv32.P.MemReadData, uint64(raw)))
	}
	must(h.sim.Evaluate())

	writeEn, _ := h.sim.Peek(rv32.P.MemWriteEn)
	if writeEn != 0 {
		data, _ := h.sim.Peek(rv32.P.MemWriteData)
		h.dispatchWrite(addr, size, uint32(data))
	}
}

// signExtend sign-extends a zero-extended size-byte value (1 or 2) to 32
// bits, for LB/LH (as opposed to LBU/LHU, which pass MemReadData through
// zero-extended, already the dispatchRead result).
func signExtend(v uint32, size int) int32 {
	switch size {
	case 1:
		return int32(int8(v))
	case 2:
		return int32(int16(v))
	default:
		return int32(v)
	}
}

func (h *Harness) accessSize() int {
	sz, _ := h.sim.Peek(rv32.P.MemSize)
	switch sz {
	case 0:
		return 1
	case 1:
		return 2
	default:
		return 4
	}
}

func (h *Harness) dispatchRead(addr uint32, size int) uint32 {
	switch {
	case addr >= baseCLINT && addr < baseClintEnd:
		return h.clint.Read(addr-baseCLINT, size)
	case addr >= basePLIC && addr < basePlicEnd:
		return h.plic.Read(addr-basePLIC, size)
	case addr >= baseUART && addr < baseUARTEnd:
		return h.uart.Read(addr-baseUART, size)
	case addr >= baseVirtIO && addr < baseVirtIOEnd:
		return h.virtio.Read(addr-baseVirtIO, size)
	default:
		return h.ram.Read(addr, size)
	}
}

func (h *Harness) dispatchWrite(addr uint32, size int, value uint32) {
	switch {
	case addr >= baseCLINT && addr < baseClintEnd:
		h.clint.Write(addr-baseCLINT, size, value)
	case addr >= basePLIC && addr < basePlicEnd:
		h.plic.Write(addr-basePLIC, size, value)
	case addr >= baseUART && addr < baseUARTEnd:
		h.uart.Write(addr-baseUART, size, value)
	case addr >= baseVirtIO && addr < baseVirtIOEnd:
		h.virtio.Write(addr-baseVirtIO, size, value)
	default:
		h.ram.Write(addr, size, value)
	}
}

// aggregateInterrupts ORs each peripheral-asserted line with its injected
// override and pokes the three IRQ input ports (spec.md §4.8 step 6).
func (h *Harness) aggregateInterrupts() {
	software := h.clint.SoftwarePending() || h.injSoftware
	timer := h.clint.TimerPending() || h.injTimer
	external := h.plic.Pending() || h.injExternal

	must(h.sim.Poke(rv32.P.IRQSoftware, boolBit(software)))
	must(h.sim.Poke(rv32.P.IRQTimer, boolBit(timer)))
	must(h.sim.Poke(rv32.P.IRQExternal, boolBit(external)))
	must(h.sim.Evaluate())
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
