package program

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadReturnsExactBytes(t *testing.T) {
	want := []byte{0xA9, 0x42, 0x00}
	path := writeTemp(t, want)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Load returned %v, want %v", got, want)
	}
}

func TestLoadRejectsOversizedImage(t *testing.T) {
	path := writeTemp(t, make([]byte, MaxSize+1))

	if _, err := Load(path); err == nil {
		t.Error("Load should reject an image larger than ROM capacity")
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("Load should error on a missing file")
	}
}

func TestEnsureResetVectorFillsWhenUnset(t *testing.T) {
	rom := make([]byte, 0x4000)

	rom = EnsureResetVector(rom, 0x8100)

	if rom[0x7FFC] != 0x00 || rom[0x7FFD] != 0x81 {
		t.Errorf("reset vector = %02X%02X, want 8100", rom[0x7FFD], rom[0x7FFC])
	}
}

func TestEnsureResetVectorLeavesExistingVectorAlone(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x7FFC] = 0x34
	rom[0x7FFD] = 0x12

	rom = EnsureResetVector(rom, 0x8100)

	if rom[0x7FFC] != 0x34 || rom[0x7FFD] != 0x12 {
		t.Errorf("EnsureResetVector overwrote an existing vector")
	}
}
