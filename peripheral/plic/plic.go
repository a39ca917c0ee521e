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

// Package plic implements a minimal platform-level interrupt controller
// with two level-triggered sources (IDs 1 and 10) and a single consuming
// context (machine mode, hart 0).
package plic

// NumSources is the highest valid source ID; source 0 is reserved (no
// interrupt) as in the real PLIC spec.
const NumSources = 10

// Register offsets relative to the PLIC's own base address, single
// context (context 0).
const (
	priorityBase  uint32 = 0x0000 // + 4*id
	pendingBase   uint32 = 0x1000
	enableBase    uint32 = 0x2000
	thresholdBase uint32 = 0x200000
	claimBase     uint32 = 0x200004
)

// PLIC is a level-triggered interrupt gateway and single-context arbiter.
type PLIC struct {
	priority  [NumSources + 1]uint32
	level     [NumSources + 1]bool // current raw source level, set by SetSource
	pending   uint32                // bitmask, bit id: asserted and not yet claimed
	inService uint32                // bitmask, bit id: claimed, awaiting Complete
	enabled   uint32                // bitmask, bit id: enabled for the one context
	threshold uint32
}

// New returns a PLIC with all sources disabled and priority zero.
func New() *PLIC {
	return &PLIC{}
}

// SetSource sets source id's raw level. A rising edge on a source not
// currently claimed marks it pending.
func (p *PLIC) SetSource(id int, level bool) {
	if id <= 0 || id > NumSources {
		return
	}
	p.level[id] = level
	if level && p.inService&(1<<uint(id)) == 0 {
		p.pending |= 1 << uint(id)
	}
	if !level {
		p.pending &^= 1 << uint(id)
	}
}

// Pending reports whether any enabled, above-threshold source is pending,
// the condition the harness wires to the core's external-interrupt input.
func (p *PLIC) Pending() bool {
	return p.best() != 0
}

// best returns the highest-priority pending, enabled, above-threshold
// source id with no claim in service, or 0 if none qualifies. Ties break
// toward the lower id.
func (p *PLIC) best() int {
	candidates := p.pending & p.enabled &^ p.inService
	bestID := 0
	var bestPrio uint32
	for id := 1; id <= NumSources; id++ {
		if candidates&(1<<uint(id)) == 0 {
			continue
		}
		prio := p.priority[id]
		if prio <= p.threshold {
			continue
		}
		if prio > bestPrio {
			bestPrio = prio
			bestID = id
		}
	}
	return bestID
}

// Claim returns the highest-priority pending source id and moves it to
// in-service, or returns 0 if nothing is pending.
func (p *PLIC) Claim() uint32 {
	id := p.best()
	if id == 0 {
		return 0
	}
	p.pending &^= 1 << uint(id)
	p.inService |= 1 << uint(id)
	return uint32(id)
}

// Complete retires an in-service source. If its raw level is still
// asserted, it becomes pending again immediately.
func (p *PLIC) Complete(id uint32) {
	if id == 0 || id > NumSources {
		return
	}
	p.inService &^= 1 << id
	if p.level[id] {
		p.pending |= 1 << id
	}
}

// Read dispatches a load at offset (relative to the PLIC's base address).
func (p *PLIC) Read(offset uint32, size int) uint32 {
	switch {
	case offset >= priorityBase && offset < priorityBase+4*(NumSources+1):
		id := (offset - priorityBase) / 4
		return p.priority[id]
	case offset == pendingBase:
		return p.pending
	case offset == enableBase:
		return p.enabled
	case offset == thresholdBase:
		return p.threshold
	case offset == claimBase:
		return p.Claim()
	default:
		return 0
	}
}

// Write dispatches a store at offset (relative to the PLIC's base address).
func (p *PLIC) Write(offset uint32, size int, value uint32) {
	switch {
	case offset >= priorityBase && offset < priorityBase+4*(NumSources+1):
		id := (offset - priorityBase) / 4
		if id > 0 {
			p.priority[id] = value & 0x7
		}
	case offset == enableBase:
		p.enabled = value
	case offset == thresholdBase:
		p.threshold = value & 0x7
	case offset == claimBase:
		p.Complete(value)
	}
}
