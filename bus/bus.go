// Package bus implements the 16-bit address decoder that sits between the
// CPU and the machine's memory regions.
package bus

import (
	"fmt"
	"sort"
)

// Region names, used for diagnostics such as the region table String prints.
const (
	RAM  = "RAM"
	VRAM = "VRAM"
	ROM  = "ROM"
)

const (
	ramBase, ramSize   = 0x0000, 0x6000
	vramBase, vramSize = 0x6000, 0x2000
	romBase, romSize   = 0x8000, 0x8000
)

// region is one entry in the bus's address-decode table: a contiguous,
// fixed-size byte array with a base address and a write-enable capability.
// Regions are additive -- a fourth region (a memory-mapped peripheral, say)
// is just another entry in the table, not a new branch in Read/Write.
type region struct {
	name     string
	base     uint16
	data     []uint8
	writable bool
}

// Bus decodes a 16-bit address to a (region, offset) pair and delegates
// byte reads/writes. It is stateless aside from its owned regions and may
// be shared by multiple readers (the CPU and the video scan-out loop both
// hold a reference to the same Bus).
type Bus struct {
	regions []*region
	ram     *region
	vram    *region
	rom     *region
}

// New builds a Bus with the fixed RAM/VRAM/ROM layout from the data model:
// 24 KiB of writable RAM at 0x0000, 8 KiB of writable VRAM at 0x6000, and
// 32 KiB of read-only ROM at 0x8000.
func New() *Bus {
	ram := &region{name: RAM, base: ramBase, data: make([]uint8, ramSize), writable: true}
	vram := &region{name: VRAM, base: vramBase, data: make([]uint8, vramSize), writable: true}
	rom := &region{name: ROM, base: romBase, data: make([]uint8, romSize), writable: false}

	regions := []*region{ram, vram, rom}
	sort.Slice(regions, func(i, j int) bool { return regions[i].base < regions[j].base })

	return &Bus{regions: regions, ram: ram, vram: vram, rom: rom}
}

// find returns the region owning addr. Every address in 0x0000-0xFFFF maps
// to exactly one of the three fixed regions, so this never returns nil.
func (b *Bus) find(addr uint16) *region {
	i := sort.Search(len(b.regions), func(i int) bool {
		return addr < b.regions[i].base
	})
	// i is the first region whose base is beyond addr; the owning region,
	// if any, is the one before it.
	if i == 0 {
		return b.regions[0]
	}
	return b.regions[i-1]
}

// Read returns the byte at addr. Reads never fail: every address belongs
// to exactly one region.
func (b *Bus) Read(addr uint16) uint8 {
	r := b.find(addr)
	return r.data[addr-r.base]
}

// Write stores val at addr. Writes to a read-only region (ROM) are
// silently discarded, matching real 6502 hardware wired to a ROM chip.
func (b *Bus) Write(addr uint16, val uint8) {
	r := b.find(addr)
	if r.writable {
		r.data[addr-r.base] = val
	}
}

// LoadROM copies data verbatim into ROM starting at offset 0 (absolute
// 0x8000). Bytes beyond the ROM's capacity are not copied.
func (b *Bus) LoadROM(data []uint8) {
	copy(b.rom.data, data)
}

// VRAM returns the raw VRAM byte slice for the video scan-out loop. The
// slice is shared, unsynchronized, mutable state: per-byte tearing between
// the CPU writing a pixel byte and the scan-out loop reading it is an
// accepted, documented behavior, not a bug.
func (b *Bus) VRAM() []uint8 {
	return b.vram.data
}

// String reports the region table, mirroring the kind of diagnostic output
// a debug monitor prints when a user asks what's mapped where.
func (b *Bus) String() string {
	s := ""
	for _, r := range b.regions {
		s += fmt.Sprintf("$%04X-$%04X: %s (writable=%t)\n", r.base, int(r.base)+len(r.data)-1, r.name, r.writable)
	}
	return s
}
