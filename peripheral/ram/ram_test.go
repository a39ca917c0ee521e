package ram

import "testing"

func TestByteHalfWordRoundTrip(t *testing.T) {
	r := New(1 << 20)
	r.Write(0x100, 4, 0xdeadbeef)
	if v := r.Read(0x100, 4); v != 0xdeadbeef {
		t.Fatalf("word read = %#x, want 0xdeadbeef", v)
	}
	if v := r.Read(0x100, 2); v != 0xbeef {
		t.Fatalf("half read = %#x, want 0xbeef", v)
	}
	if v := r.Read(0x100, 1); v != 0xef {
		t.Fatalf("byte read = %#x, want 0xef", v)
	}
}

func TestOutOfRangeReadsAsZeroWritesDropped(t *testing.T) {
	r := New(0x1000)
	r.Write(0x2000, 4, 0x12345678)
	if v := r.Read(0x2000, 4); v != 0 {
		t.Fatalf("out-of-range read = %#x, want 0", v)
	}
}

func TestSparsePagesIndependent(t *testing.T) {
	r := New(1 << 24)
	r.Write(0x10, 4, 1)
	r.Write(0x200000, 4, 2)
	if v := r.Read(0x10, 4); v != 1 {
		t.Fatalf("page 0 = %#x, want 1", v)
	}
	if v := r.Read(0x200000, 4); v != 2 {
		t.Fatalf("page far away = %#x, want 2", v)
	}
	if v := r.Read(0x1000, 4); v != 0 {
		t.Fatalf("untouched page = %#x, want 0", v)
	}
}

func TestLoadImage(t *testing.T) {
	r := New(1 << 12)
	r.LoadImage(0x40, []byte{1, 2, 3, 4})
	if v := r.Read(0x40, 4); v != 0x04030201 {
		t.Fatalf("loaded image = %#x, want 0x04030201", v)
	}
}
