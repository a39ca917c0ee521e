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

// Package ram implements guest physical memory for the harness: a
// byte-addressable, sparse-backed RAM above 1 MiB of guest address space.
package ram

const pageSize = 4096
const pageMask = pageSize - 1

// RAM is guest physical memory, backed by a map of 4 KiB pages allocated on
// first touch rather than one flat array, since guest physical memory can
// range far past a few megabytes.
type RAM struct {
	pages map[uint32]*[pageSize]byte
	size  uint32
}

// New returns a RAM of the given size in bytes, addresses [0, size).
func New(size uint32) *RAM {
	return &RAM{pages: make(map[uint32]*[pageSize]byte), size: size}
}

// Size reports the RAM's configured byte size.
func (r *RAM) Size() uint32 { return r.size }

func (r *RAM) page(addr uint32) *[pageSize]byte {
	key := addr &^ pageMask
	p, ok := r.pages[key]
	if !ok {
		p = &[pageSize]byte{}
		r.pages[key] = p
	}
	return p
}

func (r *RAM) readByte(addr uint32) byte {
	if addr >= r.size {
		return 0
	}
	return r.page(addr)[addr&pageMask]
}

func (r *RAM) writeByte(addr uint32, v byte) {
	if addr >= r.size {
		return
	}
	r.page(addr)[addr&pageMask] = v
}

// Read returns size bytes (1, 2 or 4) starting at addr, little-endian,
// zero-extended to 32 bits. Out-of-range bytes read as zero.
func (r *RAM) Read(addr uint32, size int) uint32 {
	var v uint32
	for i := 0; i < size; i++ {
		v |= uint32(r.readByte(addr+uint32(i))) << (8 * i)
	}
	return v
}

// Write stores the low size bytes (1, 2 or 4) of value at addr,
// little-endian, as a sequence of natural byte stores. Out-of-range bytes
// are dropped.
func (r *RAM) Write(addr uint32, size int, value uint32) {
	for i := 0; i < size; i++ {
		r.writeByte(addr+uint32(i), byte(value>>(8*i)))
	}
}

// LoadImage copies data into RAM starting at addr, for program/disk loading.
func (r *RAM) LoadImage(addr uint32, data []byte) {
	for i, b := range data {
		r.writeByte(addr+uint32(i), b)
	}
}
