// Package program loads a raw 6502 program image from disk into ROM.
package program

import (
	"fmt"
	"io"
	"os"
)

// MaxSize is the capacity of the ROM region a loaded image is copied into.
// Images larger than this are rejected outright rather than silently
// truncated.
const MaxSize = 0x8000

// romBase is the absolute address ROM starts at, so ROM offset 0x7FFC is
// the reset vector at 0xFFFC.
const romBase = 0x8000

// Load reads an entire program image from path. The image is the literal
// byte stream that will be copied into ROM starting at offset 0 -- there is
// no header to parse.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening program image %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading program image %q: %w", path, err)
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("program image %q is %d bytes, exceeds %d-byte ROM", path, len(data), MaxSize)
	}
	return data, nil
}

// EnsureResetVector writes entry into the reset vector slot (0xFFFC/0xFFFD,
// offset 0x7FFC/0x7FFD within the ROM image) if the loaded image didn't
// already populate one -- i.e. both vector bytes are still zero. Images
// that come with their own vector are left untouched.
func EnsureResetVector(rom []byte, entry uint16) []byte {
	const lo, hi = 0x7FFC, 0x7FFD

	if len(rom) < hi+1 {
		grown := make([]byte, hi+1)
		copy(grown, rom)
		rom = grown
	}

	if rom[lo] != 0 || rom[hi] != 0 {
		return rom
	}

	rom[lo] = byte(entry)
	rom[hi] = byte(entry >> 8)
	return rom
}
