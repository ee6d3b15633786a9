// Package cpu implements the 6502-derived 2A03 core. Every memory access
// goes through the bus, which is what actually advances PPU/APU time;
// the CPU never computes "this instruction took N cycles" and hands
// that number to anything else.
package cpu

import (
	"github.com/nesquik/nescore/pkg/logger"
)

// Bus is everything the CPU needs from the rest of the machine: memory
// access (which itself advances PPU/APU time) and the two interrupt
// lines.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
	NMIPending() bool
	IRQLine() bool
}

// CPU represents the 6502-derived processor core.
type CPU struct {
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter
	P  uint8  // Status register

	Bus Bus

	// Cycles counts total bus accesses since Reset, for diagnostics only;
	// nothing in the core derives timing from it.
	Cycles uint64

	// pollIFlag is the I flag value used by the interrupt poll that runs
	// before the next instruction, snapshotted before the instruction
	// that's about to execute runs. Real hardware polls IRQ during the
	// second-to-last cycle of an instruction, one cycle before CLI/SEI/PLP
	// can actually change the flag; using the pre-instruction snapshot
	// instead of the post-instruction P register reproduces that one
	// instruction of delay (the classic blargg cpu_interrupts_v2 case).
	pollIFlag bool
}

// Status flag bits
const (
	FlagCarry     = 1 << 0 // C
	FlagZero      = 1 << 1 // Z
	FlagInterrupt = 1 << 2 // I
	FlagDecimal   = 1 << 3 // D
	FlagBreak     = 1 << 4 // B
	FlagUnused    = 1 << 5 // -
	FlagOverflow  = 1 << 6 // V
	FlagNegative  = 1 << 7 // N
)

// New creates a new CPU instance wired to the given bus.
func New(bus Bus) *CPU {
	return &CPU{
		Bus:       bus,
		SP:        0x00,
		P:         FlagUnused | FlagInterrupt,
		pollIFlag: true,
	}
}

// Reset resets the CPU to power-on-adjacent state and loads PC from the
// reset vector. The stack pointer is decremented by 3, so the first Reset
// after New leaves it at 0xFD.
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.SP -= 3
	c.P = FlagUnused | FlagInterrupt
	c.pollIFlag = true
	c.PC = c.read16(0xFFFC)
}

// Step services a pending interrupt if one is latched, otherwise fetches
// and executes exactly one instruction. It returns the number of bus
// accesses the step consumed, for diagnostics only.
//
// NMI is edge-latched and not gated by any flag, so it's polled against
// the live bus state directly. IRQ is level-triggered and gated by the
// I flag, but the flag value used here is pollIFlag, a snapshot taken
// before the previous instruction ran rather than c.P's current value
// — see pollIFlag's doc comment.
func (c *CPU) Step() int {
	before := c.Cycles

	if c.Bus.NMIPending() {
		c.serviceInterrupt(0xFFFA, false)
		c.pollIFlag = c.getFlag(FlagInterrupt)
		return int(c.Cycles - before)
	}

	if c.Bus.IRQLine() && !c.pollIFlag {
		c.serviceInterrupt(0xFFFE, false)
		c.pollIFlag = c.getFlag(FlagInterrupt)
		return int(c.Cycles - before)
	}

	c.pollIFlag = c.getFlag(FlagInterrupt)

	opcode := c.read(c.PC)
	c.PC++

	c.executeInstruction(opcode)
	return int(c.Cycles - before)
}

// serviceInterrupt runs the common NMI/IRQ sequence: push PC and status,
// set the I flag, and load PC from the given vector. brk distinguishes a
// software BRK (which pushes P with the B flag set) from a hardware
// interrupt (which does not).
func (c *CPU) serviceInterrupt(vector uint16, brk bool) {
	c.read(c.PC) // two throwaway internal-operation reads, as real hardware does
	c.read(c.PC)
	c.push16(c.PC)
	if brk {
		c.push(c.P | FlagBreak)
	} else {
		c.push(c.P &^ FlagBreak)
	}
	c.setFlag(FlagInterrupt, true)
	c.PC = c.read16(vector)
	logger.LogCPU("interrupt serviced: vector=$%04X new PC=$%04X", vector, c.PC)
}

// Flag operations
func (c *CPU) getFlag(flag uint8) bool {
	return c.P&flag != 0
}

func (c *CPU) setFlag(flag uint8, value bool) {
	if value {
		c.P |= flag
	} else {
		c.P &^= flag
	}
}

// Memory operations
func (c *CPU) read(addr uint16) uint8 {
	c.Cycles++
	return c.Bus.Read(addr)
}

func (c *CPU) write(addr uint16, value uint8) {
	c.Cycles++
	c.Bus.Write(addr, value)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hi := uint16(c.read(addr + 1))
	return hi<<8 | lo
}

// Stack operations
func (c *CPU) push(value uint8) {
	c.write(0x100|uint16(c.SP), value)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.read(0x100 | uint16(c.SP))
}

func (c *CPU) push16(value uint16) {
	c.push(uint8(value >> 8))
	c.push(uint8(value & 0xFF))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// GetFlag returns the state of a flag (exported for testing).
func (c *CPU) GetFlag(flag uint8) bool {
	return c.getFlag(flag)
}
