package cpu

// testBus is a flat 64KB RAM satisfying the Bus interface, standing in
// for the real bus (PPU/APU/cartridge wiring) in CPU-only unit tests.
type testBus struct {
	ram  [65536]uint8
	nmi  bool
	irq  bool
}

func newTestBus() *testBus {
	return &testBus{}
}

func (b *testBus) Read(addr uint16) uint8         { return b.ram[addr] }
func (b *testBus) Write(addr uint16, value uint8) { b.ram[addr] = value }
func (b *testBus) NMIPending() bool               { return b.nmi }
func (b *testBus) IRQLine() bool                  { return b.irq }

// SetNMI latches (or clears) a pending NMI for the next Step call.
func (b *testBus) SetNMI(pending bool) { b.nmi = pending }

// SetIRQ raises (or lowers) the level-triggered IRQ line.
func (b *testBus) SetIRQ(asserted bool) { b.irq = asserted }
