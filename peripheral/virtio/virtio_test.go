package virtio

import "testing"

// fakeMem is a byte-addressable scratch memory satisfying GuestMemory,
// standing in for the harness's RAM in these unit tests.
type fakeMem struct {
	b map[uint32]byte
}

func newFakeMem() *fakeMem { return &fakeMem{b: make(map[uint32]byte)} }

func (m *fakeMem) Read(addr uint32, size int) uint32 {
	var v uint32
	for i := 0; i < size; i++ {
		v |= uint32(m.b[addr+uint32(i)]) << (8 * i)
	}
	return v
}

func (m *fakeMem) Write(addr uint32, size int, value uint32) {
	for i := 0; i < size; i++ {
		m.b[addr+uint32(i)] = byte(value >> (8 * i))
	}
}

func TestMagicAndDeviceID(t *testing.T) {
	d := New(make([]byte, 1024))
	if v := d.Read(OffMagic, 4); v != magicValue {
		t.Fatalf("magic = %#x, want %#x", v, magicValue)
	}
	if v := d.Read(OffDeviceID, 4); v != deviceIDBlk {
		t.Fatalf("device id = %d, want %d", v, deviceIDBlk)
	}
}

func TestConfigCapacityInSectors(t *testing.T) {
	d := New(make([]byte, 512*4))
	if v := d.Read(OffConfig, 4); v != 4 {
		t.Fatalf("capacity = %d sectors, want 4", v)
	}
}

// buildReadRequest lays out one virtio-blk read request: descriptor chain
// of 3 (header, data, status), a one-entry avail ring, in mem.
func buildReadRequest(mem *fakeMem, descBase, availBase uint32, sector uint64, dataAddr, statusAddr, hdrAddr uint32, length uint32) {
	// header: type(4) reserved(4) sector(8)
	mem.Write(hdrAddr, 4, blkTypeIn)
	mem.Write(hdrAddr+4, 4, 0)
	mem.Write(hdrAddr+8, 4, uint32(sector))
	mem.Write(hdrAddr+12, 4, uint32(sector>>32))

	// desc0: header, 16 bytes, NEXT -> desc1
	mem.Write(descBase+0, 4, hdrAddr)
	mem.Write(descBase+4, 4, 0)
	mem.Write(descBase+8, 4, 16)
	mem.Write(descBase+12, 2, descFlagNext)
	mem.Write(descBase+14, 2, 1)

	// desc1: data buffer, length bytes, WRITE|NEXT -> desc2
	mem.Write(descBase+16+0, 4, dataAddr)
	mem.Write(descBase+16+4, 4, 0)
	mem.Write(descBase+16+8, 4, length)
	mem.Write(descBase+16+12, 2, descFlagNext|descFlagWrite)
	mem.Write(descBase+16+14, 2, 2)

	// desc2: status byte, WRITE, no next
	mem.Write(descBase+32+0, 4, statusAddr)
	mem.Write(descBase+32+4, 4, 0)
	mem.Write(descBase+32+8, 4, 1)
	mem.Write(descBase+32+12, 2, descFlagWrite)

	// avail ring: flags(2) idx(2) ring[0]=0
	mem.Write(availBase+2, 2, 1) // idx = 1, one new entry
	mem.Write(availBase+4, 2, 0) // ring[0] = head desc 0
}

func TestServiceQueuePerformsBlockRead(t *testing.T) {
	disk := make([]byte, 512)
	for i := range disk[:16] {
		disk[i] = byte(i + 1)
	}
	d := New(disk)

	mem := newFakeMem()
	const descBase, availBase, usedBase = 0x1000, 0x2000, 0x3000
	const dataAddr, statusAddr, hdrAddr = 0x4000, 0x4100, 0x4200

	d.Write(OffQueueNum, 4, 8)
	d.Write(OffQueueReady, 4, 1)
	d.Write(OffQueueDescLow, 4, descBase)
	d.Write(OffQueueDriveLow, 4, availBase)
	d.Write(OffQueueDeviceLow, 4, usedBase)

	buildReadRequest(mem, descBase, availBase, 0, dataAddr, statusAddr, hdrAddr, 16)

	d.ServiceQueue(mem)

	for i := 0; i < 16; i++ {
		if got := mem.Read(dataAddr+uint32(i), 1); byte(got) != disk[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got, disk[i])
		}
	}
	if status := mem.Read(statusAddr, 1); status != 0 {
		t.Fatalf("status = %d, want 0 (OK)", status)
	}
	if !d.InterruptPending() {
		t.Fatalf("expected used-buffer interrupt after service")
	}
	if usedIdx := mem.Read(usedBase+2, 2); usedIdx != 1 {
		t.Fatalf("used idx = %d, want 1", usedIdx)
	}
}
