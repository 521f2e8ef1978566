package bus

import "testing"

func TestRegionClassification(t *testing.T) {
	cases := []struct {
		addr uint16
		name string
	}{
		{0x0000, RAM},
		{0x5FFF, RAM},
		{0x6000, VRAM},
		{0x7FFF, VRAM},
		{0x8000, ROM},
		{0xFFFF, ROM},
	}

	b := New()
	for _, tc := range cases {
		if got := b.find(tc.addr).name; got != tc.name {
			t.Errorf("find(%04x) = %s, want %s", tc.addr, got, tc.name)
		}
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	b := New()

	for _, a := range []uint16{0x0000, 0x1234, 0x5FFF, 0x6000, 0x7FFF} {
		b.Write(a, 0x42)
		if got := b.Read(a); got != 0x42 {
			t.Errorf("Read(%04x) = %02x, want 0x42", a, got)
		}
	}
}

func TestWritesToROMAreDiscarded(t *testing.T) {
	b := New()
	b.LoadROM([]uint8{0xAA})

	b.Write(0x8000, 0xFF)
	if got := b.Read(0x8000); got != 0xAA {
		t.Errorf("Read(0x8000) = %02x, want 0xAA (ROM write should be discarded)", got)
	}
}

func TestReadIsTotal(t *testing.T) {
	b := New()
	for i := 0; i < 0x10000; i += 0x0101 {
		_ = b.Read(uint16(i))
	}
}

func TestLoadROMAtOffsetZero(t *testing.T) {
	b := New()
	img := []uint8{0x01, 0x02, 0x03}
	b.LoadROM(img)

	for i, want := range img {
		if got := b.Read(0x8000 + uint16(i)); got != want {
			t.Errorf("ROM[%d] = %02x, want %02x", i, got, want)
		}
	}
}

func TestVRAMSharesStorageWithBus(t *testing.T) {
	b := New()
	b.Write(0x6000, 0xFC)

	if got := b.VRAM()[0]; got != 0xFC {
		t.Errorf("VRAM()[0] = %02x, want 0xfc", got)
	}
}
