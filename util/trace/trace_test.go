package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestTracefGatedByMask(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf, LevelCPU)

	tr.Tracef(LevelMem, "mem write %#x", 0x1000)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for ungated level, got %q", buf.String())
	}

	tr.Tracef(LevelCPU, "pc = %#x", 4)
	if !strings.Contains(buf.String(), "pc = 0x4") {
		t.Fatalf("output = %q, want pc trace line", buf.String())
	}
}

func TestSetMaskChangesGating(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf, 0)
	tr.Tracef(LevelIRQ, "irq fired")
	if buf.Len() != 0 {
		t.Fatalf("expected no output before SetMask, got %q", buf.String())
	}

	tr.SetMask(LevelIRQ)
	tr.Tracef(LevelIRQ, "irq fired")
	if !strings.Contains(buf.String(), "irq fired") {
		t.Fatalf("output = %q, want irq trace line", buf.String())
	}
}

func TestHexDumpFormatsWordsPerLine(t *testing.T) {
	words := []uint32{0x00500093, 0x00300113, 0x002081b3, 0xdeadbeef, 0x1}
	got := HexDump(0x1000, words, 4)
	want := "00001000: 00500093 00300113 002081b3 deadbeef \n" +
		"00001010: 00000001 \n"
	if got != want {
		t.Fatalf("HexDump =\n%q\nwant\n%q", got, want)
	}
}

func TestHexDumpDefaultsWidth(t *testing.T) {
	got := HexDump(0, []uint32{1, 2}, 0)
	if !strings.HasPrefix(got, "00000000: 00000001 00000002") {
		t.Fatalf("HexDump with width<=0 = %q, want 4-word default", got)
	}
}
