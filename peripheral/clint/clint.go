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

// Package clint implements a single-hart core-local interruptor: a
// software-interrupt doorbell register and a free-running timer compared
// against a programmable deadline.
package clint

// Register offsets, relative to the CLINT's own base address.
const (
	OffMSIP      uint32 = 0x0000
	OffMTimeCmp  uint32 = 0x4000
	OffMTime     uint32 = 0xBFF8
)

// CLINT is a single-hart core-local interrupt controller: msip raises the
// machine software interrupt, mtime/mtimecmp raise the machine timer
// interrupt once mtime reaches mtimecmp.
type CLINT struct {
	msip     uint32
	mtime    uint64
	mtimecmp uint64
}

// New returns a CLINT with mtime and mtimecmp both reset to zero.
func New() *CLINT {
	return &CLINT{}
}

// Tick advances the free-running timer by one cycle, called once per
// harness clock edge regardless of whether the core itself retired an
// instruction that cycle.
func (c *CLINT) Tick() {
	c.mtime++
}

// SoftwarePending reports whether the software-interrupt doorbell is set.
func (c *CLINT) SoftwarePending() bool {
	return c.msip&1 != 0
}

// TimerPending reports whether the free-running timer has reached the
// programmed comparator value.
func (c *CLINT) TimerPending() bool {
	return c.mtime >= c.mtimecmp
}

// Read dispatches a load at offset (relative to the CLINT's base address).
func (c *CLINT) Read(offset uint32, size int) uint32 {
	switch {
	case offset == OffMSIP:
		return c.msip & 1
	case offset == OffMTimeCmp:
		return uint32(c.mtimecmp)
	case offset == OffMTimeCmp+4:
		return uint32(c.mtimecmp >> 32)
	case offset == OffMTime:
		return uint32(c.mtime)
	case offset == OffMTime+4:
		return uint32(c.mtime >> 32)
	default:
		return 0
	}
}

// Write dispatches a store at offset (relative to the CLINT's base address).
func (c *CLINT) Write(offset uint32, size int, value uint32) {
	switch {
	case offset == OffMSIP:
		c.msip = value & 1
	case offset == OffMTimeCmp:
		c.mtimecmp = (c.mtimecmp &^ 0xffffffff) | uint64(value)
	case offset == OffMTimeCmp+4:
		c.mtimecmp = (c.mtimecmp & 0xffffffff) | uint64(value)<<32
	case offset == OffMTime:
		c.mtime = (c.mtime &^ 0xffffffff) | uint64(value)
	case offset == OffMTime+4:
		c.mtime = (c.mtime & 0xffffffff) | uint64(value)<<32
	}
}
