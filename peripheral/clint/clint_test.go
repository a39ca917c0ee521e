package clint

import "testing"

func TestTimerPendingAtComparator(t *testing.T) {
	c := New()
	c.Write(OffMTimeCmp, 4, 10)
	for i := 0; i < 10; i++ {
		if c.TimerPending() {
			t.Fatalf("timer pending early at mtime=%d", i)
		}
		c.Tick()
	}
	if !c.TimerPending() {
		t.Fatalf("mtime = %d, want timer pending once mtime >= mtimecmp", c.mtime)
	}
}

func TestSoftwareInterruptDoorbell(t *testing.T) {
	c := New()
	if c.SoftwarePending() {
		t.Fatalf("msip should start clear")
	}
	c.Write(OffMSIP, 4, 1)
	if !c.SoftwarePending() {
		t.Fatalf("msip write should raise software interrupt")
	}
	c.Write(OffMSIP, 4, 0)
	if c.SoftwarePending() {
		t.Fatalf("msip clear should lower software interrupt")
	}
}

func TestMTimeReadBack(t *testing.T) {
	c := New()
	for i := 0; i < 5; i++ {
		c.Tick()
	}
	if v := c.Read(OffMTime, 4); v != 5 {
		t.Fatalf("mtime low = %d, want 5", v)
	}
	if v := c.Read(OffMTime+4, 4); v != 0 {
		t.Fatalf("mtime high = %d, want 0", v)
	}
}
