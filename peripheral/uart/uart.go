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

// Package uart implements a byte-addressable 16550-compatible UART: RX data
// is fed in by the harness from outside the simulation, TX data accumulates
// in a byte stream the harness can drain.
package uart

// Register offsets, relative to the UART's own base address.
const (
	OffRBR = 0x0 // read, DLAB=0
	OffTHR = 0x0 // write, DLAB=0
	OffDLL = 0x0 // DLAB=1
	OffIER = 0x1 // DLAB=0
	OffDLM = 0x1 // DLAB=1
	OffIIR = 0x2 // read
	OffFCR = 0x2 // write
	OffLCR = 0x3
	OffMCR = 0x4
	OffLSR = 0x5
	OffMSR = 0x6
	OffSCR = 0x7
)

const (
	lsrDR   = 1 << 0 // data ready
	lsrTHRE = 1 << 5 // transmit holding register empty
	lsrTEMT = 1 << 6 // transmitter empty

	lcrDLAB = 1 << 7

	ierRDA  = 1 << 0 // enable received-data-available interrupt
	ierTHRE = 1 << 1 // enable THR-empty interrupt

	fcrClearRX = 1 << 1 // FCR bit 1: clear the RX FIFO
)

// UART16550 is a 16550-compatible UART with the RX side fed by the harness
// and the TX side observed by the harness rather than backed by a real
// serial line.
type UART16550 struct {
	rx []byte // bytes queued for the guest to read
	tx []byte // bytes the guest has transmitted, awaiting drain

	ier, lcr, mcr, scr byte
	fcrEnabled         bool
	dll, dlm           byte
}

// New returns a UART with both FIFOs empty and all registers reset to zero.
func New() *UART16550 {
	return &UART16550{}
}

// ReceiveBytes appends externally-arrived bytes to the RX queue, making
// them visible to the guest through RBR and LSR.DR.
func (u *UART16550) ReceiveBytes(data []byte) {
	u.rx = append(u.rx, data...)
}

// TxBytes returns the bytes the guest has written to THR so far, without
// clearing them.
func (u *UART16550) TxBytes() []byte {
	return u.tx
}

// ClearTxBytes discards the accumulated TX byte stream, called by the
// harness once it has consumed and delivered them.
func (u *UART16550) ClearTxBytes() {
	u.tx = nil
}

func (u *UART16550) lsr() byte {
	v := byte(lsrTHRE | lsrTEMT) // THR/transmitter always immediately ready
	if len(u.rx) > 0 {
		v |= lsrDR
	}
	return v
}

// InterruptPending reports whether any IER-enabled condition is asserted.
func (u *UART16550) InterruptPending() bool {
	if u.ier&ierRDA != 0 && len(u.rx) > 0 {
		return true
	}
	if u.ier&ierTHRE != 0 {
		return true // THR is always empty in this model
	}
	return false
}

// Read dispatches a load at offset (relative to the UART's base address).
func (u *UART16550) Read(offset uint32, size int) uint32 {
	dlab := u.lcr&lcrDLAB != 0
	switch offset {
	case OffRBR:
		if dlab {
			return uint32(u.dll)
		}
		if len(u.rx) == 0 {
			return 0
		}
		b := u.rx[0]
		u.rx = u.rx[1:]
		return uint32(b)
	case OffIER:
		if dlab {
			return uint32(u.dlm)
		}
		return uint32(u.ier)
	case OffIIR:
		iir := byte(0x01) // no interrupt pending
		if u.ier&ierRDA != 0 && len(u.rx) > 0 {
			iir = 0x04 // RX data available
		} else if u.ier&ierTHRE != 0 {
			iir = 0x02 // THR empty
		}
		if u.fcrEnabled {
			iir |= 0xC0
		}
		return uint32(iir)
	case OffLCR:
		return uint32(u.lcr)
	case OffMCR:
		return uint32(u.mcr)
	case OffLSR:
		return uint32(u.lsr())
	case OffMSR:
		return 0
	case OffSCR:
		return uint32(u.scr)
	default:
		return 0
	}
}

// Write dispatches a store at offset (relative to the UART's base address).
func (u *UART16550) Write(offset uint32, size int, value uint32) {
	v := byte(value)
	dlab := u.lcr&lcrDLAB != 0
	switch offset {
	case OffTHR:
		if dlab {
			u.dll = v
			return
		}
		u.tx = append(u.tx, v)
	case OffIER:
		if dlab {
			u.dlm = v
			return
		}
		u.ier = v
	case OffFCR:
		u.fcrEnabled = v&1 != 0
		if v&fcrClearRX != 0 {
			u.rx = nil
		}
	case OffLCR:
		u.lcr = v
	case OffMCR:
		u.mcr = v
	case OffSCR:
		u.scr = v
	}
}
