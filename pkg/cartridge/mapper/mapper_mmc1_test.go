package mapper

import "testing"

// cpuCycleNotifiee mirrors pkg/cartridge's unexported interface of the
// same name, used here only to reach mmc1.NotifyCPUCycle directly in
// tests without importing pkg/cartridge (which would be a cycle: it
// imports this package).
type cpuCycleNotifiee interface {
	NotifyCPUCycle(cycle uint64)
}

func newMMC1ForTest(t *testing.T) Mapper {
	t.Helper()
	m, err := New(1, &Data{
		PRGROM: make([]uint8, 4*0x4000), // 4x16KB PRG banks
		CHRRAM: make([]uint8, 8192),
	})
	if err != nil {
		t.Fatalf("New(1, ...) failed: %v", err)
	}
	return m
}

// writeSerial performs the 5 single-bit writes a 6502 program uses to
// load MMC1's shift register, committing to the register selected by
// addr on the 5th write.
func writeSerial(m Mapper, addr uint16, value uint8) {
	for i := 0; i < 5; i++ {
		m.WritePRG(addr, (value>>i)&1)
	}
}

func TestMMC1SerialWriteCommitsOnFifthBit(t *testing.T) {
	m := newMMC1ForTest(t)
	mm := m.(*mmc1)
	mm.prg[3*0x4000] = 0xAA // bank 3 marker (last 16KB bank)

	writeSerial(m, 0x8000, 0x0F) // control: PRG mode 3 (fix last, switch $8000), CHR mode 0

	if got := mm.control; got != 0x0F {
		t.Fatalf("expected control register 0x0F, got 0x%02X", got)
	}
	if got := m.ReadPRG(0xC000); got != 0xAA {
		t.Errorf("expected $C000 fixed to the last 16KB bank, got 0x%02X", got)
	}
}

func TestMMC1Bit7ResetsShiftAndForcesPRGMode3(t *testing.T) {
	m := newMMC1ForTest(t)
	mm := m.(*mmc1)

	m.WritePRG(0x8000, 1) // partial shift in progress
	m.WritePRG(0x8000, 0x80)

	if mm.shiftCount != 0 {
		t.Errorf("expected shift register reset, got shiftCount=%d", mm.shiftCount)
	}
	if mm.control&0x0C != 0x0C {
		t.Errorf("expected reset to force PRG mode 3 (bits 2-3 set), got control=0x%02X", mm.control)
	}
}

func TestMMC1PRGBankSwitching(t *testing.T) {
	m := newMMC1ForTest(t)
	mm := m.(*mmc1)
	mm.prg[1*0x4000] = 0x11 // bank 1 marker
	mm.prg[3*0x4000] = 0xAA // last bank marker

	writeSerial(m, 0x8000, 0x0F) // PRG mode 3: $8000 switches via bank reg, $C000 fixed to last
	writeSerial(m, 0xE000, 0x01) // select PRG bank 1

	if got := m.ReadPRG(0x8000); got != 0x11 {
		t.Errorf("expected $8000 switched to bank 1, got 0x%02X", got)
	}
	if got := m.ReadPRG(0xC000); got != 0xAA {
		t.Errorf("expected $C000 still fixed to the last bank, got 0x%02X", got)
	}
}

// TestMMC1SuppressesSameCycleDuplicateWrite models a read-modify-write
// instruction (e.g. INC/ASL on $8000) whose dummy write must not count
// as a second serial bit for the same CPU cycle.
func TestMMC1SuppressesSameCycleDuplicateWrite(t *testing.T) {
	m := newMMC1ForTest(t)
	mm := m.(*mmc1)
	notifiee := m.(cpuCycleNotifiee)

	notifiee.NotifyCPUCycle(100)
	m.WritePRG(0x8000, 1) // dummy write of the RMW instruction
	notifiee.NotifyCPUCycle(100)
	m.WritePRG(0x8000, 1) // real write, same cycle: must be suppressed

	if mm.shiftCount != 1 {
		t.Errorf("expected exactly 1 bit latched (same-cycle write suppressed), got shiftCount=%d", mm.shiftCount)
	}

	notifiee.NotifyCPUCycle(102)
	m.WritePRG(0x8000, 0)
	if mm.shiftCount != 2 {
		t.Errorf("expected a write on a later, non-adjacent cycle to latch normally, got shiftCount=%d", mm.shiftCount)
	}
}

func TestMMC1MirroringModes(t *testing.T) {
	m := newMMC1ForTest(t)

	testCases := []struct {
		bits uint8
		want MirrorMode
	}{
		{0x00, MirrorSingleLower},
		{0x01, MirrorSingleUpper},
		{0x02, MirrorVertical},
		{0x03, MirrorHorizontal},
	}
	for _, tc := range testCases {
		writeSerial(m, 0x8000, 0x0C|tc.bits)
		if got := m.Mirroring(); got != tc.want {
			t.Errorf("bits=0x%02X: expected mirroring %v, got %v", tc.bits, tc.want, got)
		}
	}
}
