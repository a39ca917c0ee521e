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

// Package virtio implements a minimal VirtIO-MMIO block device: a single
// queue (queue 0), no feature negotiation, and a byte-slice-backed disk
// image. Sufficient to drive a guest virtio-blk front-end, not a
// conformance claim against the full VirtIO specification.
package virtio

// GuestMemory is the narrow view of guest physical memory ServiceQueue
// needs to walk the virtqueue's descriptor, avail and used rings; the
// harness satisfies it with its peripheral/ram.RAM.
type GuestMemory interface {
	Read(addr uint32, size int) uint32
	Write(addr uint32, size int, value uint32)
}

// Register offsets, relative to the device's own base address (VirtIO-MMIO
// version 2 layout).
const (
	OffMagic          = 0x000
	OffVersion        = 0x004
	OffDeviceID       = 0x008
	OffVendorID       = 0x00c
	OffDeviceFeatures = 0x010
	OffDeviceFeatSel  = 0x014
	OffDriverFeatures = 0x020
	OffDriverFeatSel  = 0x024
	OffQueueSel       = 0x030
	OffQueueNumMax    = 0x034
	OffQueueNum       = 0x038
	OffQueueReady     = 0x044
	OffQueueNotify    = 0x050
	OffInterruptStat  = 0x060
	OffInterruptACK   = 0x064
	OffStatus         = 0x070
	OffQueueDescLow   = 0x080
	OffQueueDescHigh  = 0x084
	OffQueueDriveLow  = 0x090
	OffQueueDriveHigh = 0x094
	OffQueueDeviceLow = 0x0a0
	OffQueueDeviHigh  = 0x0a4
	OffConfigGen      = 0x0fc
	OffConfig         = 0x100
)

const (
	magicValue  = 0x74726976 // "virt"
	version     = 2
	deviceIDBlk = 2
	vendorID    = 0x52484c44 // "RHLD", arbitrary

	queueNumMax = 64

	blkTypeIn  = 0 // read from disk
	blkTypeOut = 1 // write to disk

	descFlagNext  = 1
	descFlagWrite = 2
)

// BlockDevice is a minimal single-queue VirtIO block device.
type BlockDevice struct {
	image []byte

	deviceFeatSel uint32
	driverFeatSel uint32
	driverFeat    [2]uint32 // recorded, never rejected (no negotiation)

	queueSel    uint32
	queueNum    uint32
	queueReady  uint32
	descLow     uint32
	descHigh    uint32
	driveLow    uint32
	driveHigh   uint32
	deviceLow   uint32
	deviceHigh  uint32
	lastAvail   uint16
	status      uint32
	interrupt   uint32
}

// New returns a block device backed by image, the raw disk bytes.
func New(image []byte) *BlockDevice {
	return &BlockDevice{image: image}
}

// LoadDisk replaces the backing disk image.
func (d *BlockDevice) LoadDisk(image []byte) {
	d.image = image
}

// LoadDiskAt copies data into the backing image starting at offset,
// growing the image if necessary.
func (d *BlockDevice) LoadDiskAt(offset int, data []byte) {
	need := offset + len(data)
	if need > len(d.image) {
		grown := make([]byte, need)
		copy(grown, d.image)
		d.image = grown
	}
	copy(d.image[offset:], data)
}

// InterruptPending reports whether a used-buffer notification is pending.
func (d *BlockDevice) InterruptPending() bool {
	return d.interrupt != 0
}

// Read dispatches a load at offset (relative to the device's base address).
func (d *BlockDevice) Read(offset uint32, size int) uint32 {
	switch {
	case offset == OffMagic:
		return magicValue
	case offset == OffVersion:
		return version
	case offset == OffDeviceID:
		return deviceIDBlk
	case offset == OffVendorID:
		return vendorID
	case offset == OffDeviceFeatures:
		if d.deviceFeatSel == 0 {
			return 1 << 1 // VIRTIO_BLK_F_SIZE_MAX-ish placeholder bit, reported not negotiated
		}
		return 0
	case offset == OffQueueNumMax:
		return queueNumMax
	case offset == OffQueueReady:
		return d.queueReady
	case offset == OffInterruptStat:
		return d.interrupt
	case offset == OffStatus:
		return d.status
	case offset == OffConfigGen:
		return 0
	case offset >= OffConfig && offset < OffConfig+8:
		// 64-bit disk capacity in 512-byte sectors, little-endian.
		capacity := uint64(len(d.image)) / 512
		shift := (offset - OffConfig) * 8
		return uint32(capacity >> shift)
	default:
		return 0
	}
}

// Write dispatches a store at offset (relative to the device's base address).
func (d *BlockDevice) Write(offset uint32, size int, value uint32) {
	switch {
	case offset == OffDeviceFeatSel:
		d.deviceFeatSel = value
	case offset == OffDriverFeatSel:
		d.driverFeatSel = value
	case offset == OffDriverFeatures:
		if d.driverFeatSel < uint32(len(d.driverFeat)) {
			d.driverFeat[d.driverFeatSel] = value // recorded, never negotiated
		}
	case offset == OffQueueSel:
		d.queueSel = value
	case offset == OffQueueNum:
		d.queueNum = value
	case offset == OffQueueReady:
		d.queueReady = value
	case offset == OffQueueDescLow:
		d.descLow = value
	case offset == OffQueueDescHigh:
		d.descHigh = value
	case offset == OffQueueDriveLow:
		d.driveLow = value
	case offset == OffQueueDriveHigh:
		d.driveHigh = value
	case offset == OffQueueDeviceLow:
		d.deviceLow = value
	case offset == OffQueueDeviHigh:
		d.deviceHigh = value
	case offset == OffInterruptACK:
		d.interrupt &^= value
	case offset == OffStatus:
		d.status = value
	case offset == OffQueueNotify:
		// queue index is always 0 in this minimal subset; ServiceQueue is
		// invoked by the harness, which owns guest memory access.
	}
}

type vqDesc struct {
	addr  uint64
	len   uint32
	flags uint16
	next  uint16
}

func readDesc(mem GuestMemory, base uint32, idx uint16) vqDesc {
	entry := base + uint32(idx)*16
	lo := mem.Read(entry, 4)
	hi := mem.Read(entry+4, 4)
	length := mem.Read(entry+8, 4)
	flags := mem.Read(entry+12, 2)
	next := mem.Read(entry+14, 2)
	return vqDesc{addr: uint64(hi)<<32 | uint64(lo), len: length, flags: uint16(flags), next: uint16(next)}
}

// ServiceQueue walks every new avail-ring entry since the last call,
// performs the requested sector read/write against the disk image, writes
// the virtio-blk status byte, publishes a used-ring entry, and raises the
// device's interrupt line. mem gives access to the guest physical memory
// the descriptor/avail/used rings and request buffers live in.
func (d *BlockDevice) ServiceQueue(mem GuestMemory) {
	if d.queueReady == 0 || d.queueNum == 0 {
		return
	}
	descBase := uint32(uint64(d.descHigh)<<32 | uint64(d.descLow))
	availBase := uint32(uint64(d.driveHigh)<<32 | uint64(d.driveLow))
	usedBase := uint32(uint64(d.deviceHigh)<<32 | uint64(d.deviceLow))

	availIdx := uint16(mem.Read(availBase+2, 2))
	for d.lastAvail != availIdx {
		slot := d.lastAvail % uint16(d.queueNum)
		head := uint16(mem.Read(availBase+4+uint32(slot)*2, 2))
		d.processChain(mem, descBase, usedBase, head)
		d.lastAvail++
	}
}

func (d *BlockDevice) processChain(mem GuestMemory, descBase, usedBase uint32, head uint16) {
	hdr := readDesc(mem, descBase, head)
	if hdr.flags&descFlagNext == 0 {
		return
	}
	reqType := mem.Read(uint32(hdr.addr), 4)
	sector := uint64(mem.Read(uint32(hdr.addr)+8, 4)) | uint64(mem.Read(uint32(hdr.addr)+12, 4))<<32

	data := readDesc(mem, descBase, hdr.next)
	var statusDesc vqDesc
	if data.flags&descFlagNext != 0 {
		statusDesc = readDesc(mem, descBase, data.next)
	} else {
		statusDesc = data
	}

	status := byte(0) // VIRTIO_BLK_S_OK
	byteOff := sector * 512
	switch reqType {
	case blkTypeIn:
		for i := uint32(0); i < data.len; i++ {
			var b byte
			if int(byteOff)+int(i) < len(d.image) {
				b = d.image[int(byteOff)+int(i)]
			}
			mem.Write(uint32(data.addr)+i, 1, uint32(b))
		}
	case blkTypeOut:
		for i := uint32(0); i < data.len; i++ {
			if int(byteOff)+int(i) < len(d.image) {
				d.image[int(byteOff)+int(i)] = byte(mem.Read(uint32(data.addr)+i, 1))
			}
		}
	default:
		status = 2 // VIRTIO_BLK_S_UNSUPP
	}
	mem.Write(uint32(statusDesc.addr), 1, uint32(status))

	usedIdx := uint16(mem.Read(usedBase+2, 2))
	entry := usedBase + 4 + uint32(usedIdx)*8
	mem.Write(entry, 4, uint32(head))
	mem.Write(entry+4, 4, hdr.len+data.len+statusDesc.len)
	mem.Write(usedBase+2, 2, uint32(usedIdx+1))

	d.interrupt |= 1
}
