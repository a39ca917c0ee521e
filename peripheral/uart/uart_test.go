package uart

import (
	"bytes"
	"testing"
)

func TestTxByteStreamAccumulatesAndDrains(t *testing.T) {
	u := New()
	u.Write(OffTHR, 1, 'h')
	u.Write(OffTHR, 1, 'i')
	if got := u.TxBytes(); !bytes.Equal(got, []byte("hi")) {
		t.Fatalf("tx bytes = %q, want %q", got, "hi")
	}
	u.ClearTxBytes()
	if got := u.TxBytes(); len(got) != 0 {
		t.Fatalf("tx bytes after clear = %q, want empty", got)
	}
}

func TestRxFIFOAndDataReadyBit(t *testing.T) {
	u := New()
	if u.Read(OffLSR, 1)&lsrDR != 0 {
		t.Fatalf("LSR.DR should be clear with an empty RX FIFO")
	}
	u.ReceiveBytes([]byte{0x41})
	if u.Read(OffLSR, 1)&lsrDR == 0 {
		t.Fatalf("LSR.DR should be set once a byte is queued")
	}
	if v := u.Read(OffRBR, 1); v != 0x41 {
		t.Fatalf("RBR = %#x, want 0x41", v)
	}
	if u.Read(OffLSR, 1)&lsrDR != 0 {
		t.Fatalf("LSR.DR should clear once the byte is consumed")
	}
}

func TestDLABGatesDivisorLatchAccess(t *testing.T) {
	u := New()
	u.Write(OffLCR, 1, lcrDLAB)
	u.Write(OffTHR, 1, 0x01) // DLL when DLAB set
	u.Write(OffIER, 1, 0x02) // DLM when DLAB set
	u.Write(OffLCR, 1, 0)
	if v := u.Read(OffIER, 1); v != 0 {
		t.Fatalf("IER should read back as 0 (never written with DLAB clear), got %#x", v)
	}
}

func TestFCRBit1ClearsRXFIFO(t *testing.T) {
	u := New()
	u.ReceiveBytes([]byte{0x41, 0x42})
	if u.Read(OffLSR, 1)&lsrDR == 0 {
		t.Fatalf("LSR.DR should be set with bytes queued")
	}
	u.Write(OffFCR, 1, fcrClearRX)
	if u.Read(OffLSR, 1)&lsrDR != 0 {
		t.Fatalf("LSR.DR should clear once FCR bit 1 clears the RX FIFO")
	}
}

func TestInterruptPendingGatedByIER(t *testing.T) {
	u := New()
	u.ReceiveBytes([]byte{0x58})
	if u.InterruptPending() {
		t.Fatalf("IER.RDA clear should suppress the interrupt")
	}
	u.Write(OffIER, 1, ierRDA)
	if !u.InterruptPending() {
		t.Fatalf("IER.RDA set with data ready should raise the interrupt")
	}
}
