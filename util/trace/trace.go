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

// Package trace provides mask/level-gated debug tracing and word-oriented
// hex-dump formatting. Tracef is grounded on the teacher's util/debug
// (Debugf's mask&level gate), adapted from a package-level log file
// singleton to an explicit io.Writer the caller owns; HexDump is grounded
// on the teacher's util/hex (digit-by-digit strings.Builder formatting),
// adapted from IBM 370's word/halfword/displacement field shapes to a
// flat address-prefixed word dump.
package trace

import (
	"fmt"
	"io"
	"strings"
)

// Trace levels, ORed into a Tracer's mask to select which Tracef calls
// actually print.
const (
	LevelCPU = 1 << iota
	LevelMem
	LevelIRQ
)

// Tracer gates formatted trace lines by a runtime-adjustable level mask.
type Tracer struct {
	out  io.Writer
	mask int
}

// New returns a Tracer writing to out, active for the levels set in mask.
func New(out io.Writer, mask int) *Tracer {
	return &Tracer{out: out, mask: mask}
}

// SetMask replaces the active level mask.
func (t *Tracer) SetMask(mask int) {
	t.mask = mask
}

// Mask returns the active level mask.
func (t *Tracer) Mask() int {
	return t.mask
}

// Tracef writes one formatted, newline-terminated line if level is set in
// the tracer's mask.
func (t *Tracer) Tracef(level int, format string, a ...interface{}) {
	if t.mask&level == 0 {
		return
	}
	fmt.Fprintf(t.out, format+"\n", a...)
}

var hexDigits = "0123456789abcdef"

// HexDump renders words as an address-prefixed hex dump, width words per
// line (4 if width <= 0).
func HexDump(base uint32, words []uint32, width int) string {
	if width <= 0 {
		width = 4
	}
	var sb strings.Builder
	for i := 0; i < len(words); i += width {
		fmt.Fprintf(&sb, "%08x: ", base+uint32(i)*4)
		end := i + width
		if end > len(words) {
			end = len(words)
		}
		for _, w := range words[i:end] {
			formatWord(&sb, w)
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatWord(sb *strings.Builder, word uint32) {
	shift := 28
	for i := 0; i < 8; i++ {
		sb.WriteByte(hexDigits[(word>>uint(shift))&0xf])
		shift -= 4
	}
}
