package cpu

import "github.com/nesquik/nescore/pkg/logger"

// executeInstruction executes the given opcode. Timing falls out purely
// from the bus accesses each handler and its addressing mode helper
// perform; no opcode here computes or returns a cycle count.
func (c *CPU) executeInstruction(opcode uint8) {
	switch opcode {
	case 0xAA, 0x8A, 0xA8, 0x98, 0x9A, 0xBA, 0x18, 0x38, 0x58, 0x78, 0xB8, 0xD8, 0xF8,
		0x48, 0x68, 0x08, 0x28, 0x60, 0x40, 0x0A, 0x4A, 0x2A, 0x6A, 0xE8, 0xCA, 0xC8, 0x88,
		0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA:
		// One-byte instructions read (and discard) the byte after the
		// opcode on their second cycle.
		c.read(c.PC)
	}

	switch opcode {
	// LDA - Load Accumulator
	case 0xA9: // LDA #immediate
		c.execLDA(AddrImmediate)
	case 0xA5: // LDA zeropage
		c.execLDA(AddrZeroPage)
	case 0xB5: // LDA zeropage,X
		c.execLDA(AddrZeroPageX)
	case 0xAD: // LDA absolute
		c.execLDA(AddrAbsolute)
	case 0xBD: // LDA absolute,X
		c.execLDA(AddrAbsoluteX)
	case 0xB9: // LDA absolute,Y
		c.execLDA(AddrAbsoluteY)
	case 0xA1: // LDA (zeropage,X)
		c.execLDA(AddrIndexedIndirect)
	case 0xB1: // LDA (zeropage),Y
		c.execLDA(AddrIndirectIndexed)

	// LDX - Load X Register
	case 0xA2: // LDX #immediate
		c.execLDX(AddrImmediate)
	case 0xA6: // LDX zeropage
		c.execLDX(AddrZeroPage)
	case 0xB6: // LDX zeropage,Y
		c.execLDX(AddrZeroPageY)
	case 0xAE: // LDX absolute
		c.execLDX(AddrAbsolute)
	case 0xBE: // LDX absolute,Y
		c.execLDX(AddrAbsoluteY)

	// LDY - Load Y Register
	case 0xA0: // LDY #immediate
		c.execLDY(AddrImmediate)
	case 0xA4: // LDY zeropage
		c.execLDY(AddrZeroPage)
	case 0xB4: // LDY zeropage,X
		c.execLDY(AddrZeroPageX)
	case 0xAC: // LDY absolute
		c.execLDY(AddrAbsolute)
	case 0xBC: // LDY absolute,X
		c.execLDY(AddrAbsoluteX)

	// STA - Store Accumulator
	case 0x85: // STA zeropage
		c.execSTA(AddrZeroPage)
	case 0x95: // STA zeropage,X
		c.execSTA(AddrZeroPageX)
	case 0x8D: // STA absolute
		c.execSTA(AddrAbsolute)
	case 0x9D: // STA absolute,X
		c.execSTA(AddrAbsoluteX)
	case 0x99: // STA absolute,Y
		c.execSTA(AddrAbsoluteY)
	case 0x81: // STA (zeropage,X)
		c.execSTA(AddrIndexedIndirect)
	case 0x91: // STA (zeropage),Y
		c.execSTA(AddrIndirectIndexed)

	// STX - Store X Register
	case 0x86: // STX zeropage
		c.execSTX(AddrZeroPage)
	case 0x96: // STX zeropage,Y
		c.execSTX(AddrZeroPageY)
	case 0x8E: // STX absolute
		c.execSTX(AddrAbsolute)

	// STY - Store Y Register
	case 0x84: // STY zeropage
		c.execSTY(AddrZeroPage)
	case 0x94: // STY zeropage,X
		c.execSTY(AddrZeroPageX)
	case 0x8C: // STY absolute
		c.execSTY(AddrAbsolute)

	// ADC - Add with Carry
	case 0x69: // ADC #immediate
		c.execADC(AddrImmediate)
	case 0x65: // ADC zeropage
		c.execADC(AddrZeroPage)
	case 0x75: // ADC zeropage,X
		c.execADC(AddrZeroPageX)
	case 0x6D: // ADC absolute
		c.execADC(AddrAbsolute)
	case 0x7D: // ADC absolute,X
		c.execADC(AddrAbsoluteX)
	case 0x79: // ADC absolute,Y
		c.execADC(AddrAbsoluteY)
	case 0x61: // ADC (zeropage,X)
		c.execADC(AddrIndexedIndirect)
	case 0x71: // ADC (zeropage),Y
		c.execADC(AddrIndirectIndexed)

	// SBC - Subtract with Carry
	case 0xE9: // SBC #immediate
		c.execSBC(AddrImmediate)
	case 0xE5: // SBC zeropage
		c.execSBC(AddrZeroPage)
	case 0xF5: // SBC zeropage,X
		c.execSBC(AddrZeroPageX)
	case 0xED: // SBC absolute
		c.execSBC(AddrAbsolute)
	case 0xFD: // SBC absolute,X
		c.execSBC(AddrAbsoluteX)
	case 0xF9: // SBC absolute,Y
		c.execSBC(AddrAbsoluteY)
	case 0xE1: // SBC (zeropage,X)
		c.execSBC(AddrIndexedIndirect)
	case 0xF1: // SBC (zeropage),Y
		c.execSBC(AddrIndirectIndexed)

	// CMP - Compare Accumulator
	case 0xC9: // CMP #immediate
		c.execCMP(AddrImmediate)
	case 0xC5: // CMP zeropage
		c.execCMP(AddrZeroPage)
	case 0xD5: // CMP zeropage,X
		c.execCMP(AddrZeroPageX)
	case 0xCD: // CMP absolute
		c.execCMP(AddrAbsolute)
	case 0xDD: // CMP absolute,X
		c.execCMP(AddrAbsoluteX)
	case 0xD9: // CMP absolute,Y
		c.execCMP(AddrAbsoluteY)
	case 0xC1: // CMP (zeropage,X)
		c.execCMP(AddrIndexedIndirect)
	case 0xD1: // CMP (zeropage),Y
		c.execCMP(AddrIndirectIndexed)

	// Transfer instructions
	case 0xAA: // TAX
		c.execTAX()
	case 0x8A: // TXA
		c.execTXA()
	case 0xA8: // TAY
		c.execTAY()
	case 0x98: // TYA
		c.execTYA()
	case 0x9A: // TXS
		c.execTXS()
	case 0xBA: // TSX
		c.execTSX()

	// Flag instructions
	case 0x18: // CLC
		c.execCLC()
	case 0x38: // SEC
		c.execSEC()
	case 0x58: // CLI
		c.execCLI()
	case 0x78: // SEI
		c.execSEI()
	case 0xB8: // CLV
		c.execCLV()
	case 0xD8: // CLD
		c.execCLD()
	case 0xF8: // SED
		c.execSED()

	// Stack instructions
	case 0x48: // PHA
		c.execPHA()
	case 0x68: // PLA
		c.execPLA()
	case 0x08: // PHP
		c.execPHP()
	case 0x28: // PLP
		c.execPLP()

	// Branch instructions
	case 0x10: // BPL - Branch if Positive
		c.execBPL()
	case 0x30: // BMI - Branch if Minus
		c.execBMI()
	case 0x50: // BVC - Branch if Overflow Clear
		c.execBVC()
	case 0x70: // BVS - Branch if Overflow Set
		c.execBVS()
	case 0x90: // BCC - Branch if Carry Clear
		c.execBCC()
	case 0xB0: // BCS - Branch if Carry Set
		c.execBCS()
	case 0xD0: // BNE - Branch if Not Equal
		c.execBNE()
	case 0xF0: // BEQ - Branch if Equal
		c.execBEQ()

	// Jump instructions
	case 0x4C: // JMP absolute
		c.execJMPAbsolute()
	case 0x6C: // JMP indirect
		c.execJMPIndirect()
	case 0x20: // JSR - Jump to Subroutine
		c.execJSR()
	case 0x60: // RTS - Return from Subroutine
		c.execRTS()
	case 0x40: // RTI - Return from Interrupt
		c.execRTI()

	// Logical operations
	case 0x29: // AND #immediate
		c.execAND(AddrImmediate)
	case 0x25: // AND zeropage
		c.execAND(AddrZeroPage)
	case 0x35: // AND zeropage,X
		c.execAND(AddrZeroPageX)
	case 0x2D: // AND absolute
		c.execAND(AddrAbsolute)
	case 0x3D: // AND absolute,X
		c.execAND(AddrAbsoluteX)
	case 0x39: // AND absolute,Y
		c.execAND(AddrAbsoluteY)
	case 0x21: // AND (zeropage,X)
		c.execAND(AddrIndexedIndirect)
	case 0x31: // AND (zeropage),Y
		c.execAND(AddrIndirectIndexed)

	case 0x09: // ORA #immediate
		c.execORA(AddrImmediate)
	case 0x05: // ORA zeropage
		c.execORA(AddrZeroPage)
	case 0x15: // ORA zeropage,X
		c.execORA(AddrZeroPageX)
	case 0x0D: // ORA absolute
		c.execORA(AddrAbsolute)
	case 0x1D: // ORA absolute,X
		c.execORA(AddrAbsoluteX)
	case 0x19: // ORA absolute,Y
		c.execORA(AddrAbsoluteY)
	case 0x01: // ORA (zeropage,X)
		c.execORA(AddrIndexedIndirect)
	case 0x11: // ORA (zeropage),Y
		c.execORA(AddrIndirectIndexed)

	case 0x49: // EOR #immediate
		c.execEOR(AddrImmediate)
	case 0x45: // EOR zeropage
		c.execEOR(AddrZeroPage)
	case 0x55: // EOR zeropage,X
		c.execEOR(AddrZeroPageX)
	case 0x4D: // EOR absolute
		c.execEOR(AddrAbsolute)
	case 0x5D: // EOR absolute,X
		c.execEOR(AddrAbsoluteX)
	case 0x59: // EOR absolute,Y
		c.execEOR(AddrAbsoluteY)
	case 0x41: // EOR (zeropage,X)
		c.execEOR(AddrIndexedIndirect)
	case 0x51: // EOR (zeropage),Y
		c.execEOR(AddrIndirectIndexed)

	// Shift and rotate instructions
	case 0x0A: // ASL accumulator
		c.execASLAccumulator()
	case 0x06: // ASL zeropage
		c.execASL(AddrZeroPage)
	case 0x16: // ASL zeropage,X
		c.execASL(AddrZeroPageX)
	case 0x0E: // ASL absolute
		c.execASL(AddrAbsolute)
	case 0x1E: // ASL absolute,X
		c.execASL(AddrAbsoluteX)

	case 0x4A: // LSR accumulator
		c.execLSRAccumulator()
	case 0x46: // LSR zeropage
		c.execLSR(AddrZeroPage)
	case 0x56: // LSR zeropage,X
		c.execLSR(AddrZeroPageX)
	case 0x4E: // LSR absolute
		c.execLSR(AddrAbsolute)
	case 0x5E: // LSR absolute,X
		c.execLSR(AddrAbsoluteX)

	case 0x2A: // ROL accumulator
		c.execROLAccumulator()
	case 0x26: // ROL zeropage
		c.execROL(AddrZeroPage)
	case 0x36: // ROL zeropage,X
		c.execROL(AddrZeroPageX)
	case 0x2E: // ROL absolute
		c.execROL(AddrAbsolute)
	case 0x3E: // ROL absolute,X
		c.execROL(AddrAbsoluteX)

	case 0x6A: // ROR accumulator
		c.execRORAccumulator()
	case 0x66: // ROR zeropage
		c.execROR(AddrZeroPage)
	case 0x76: // ROR zeropage,X
		c.execROR(AddrZeroPageX)
	case 0x6E: // ROR absolute
		c.execROR(AddrAbsolute)
	case 0x7E: // ROR absolute,X
		c.execROR(AddrAbsoluteX)

	// Increment/Decrement instructions
	case 0xE6: // INC zeropage
		c.execINC(AddrZeroPage)
	case 0xF6: // INC zeropage,X
		c.execINC(AddrZeroPageX)
	case 0xEE: // INC absolute
		c.execINC(AddrAbsolute)
	case 0xFE: // INC absolute,X
		c.execINC(AddrAbsoluteX)

	case 0xC6: // DEC zeropage
		c.execDEC(AddrZeroPage)
	case 0xD6: // DEC zeropage,X
		c.execDEC(AddrZeroPageX)
	case 0xCE: // DEC absolute
		c.execDEC(AddrAbsolute)
	case 0xDE: // DEC absolute,X
		c.execDEC(AddrAbsoluteX)

	case 0xE8: // INX
		c.execINX()
	case 0xCA: // DEX
		c.execDEX()
	case 0xC8: // INY
		c.execINY()
	case 0x88: // DEY
		c.execDEY()

	// Compare instructions
	case 0xE0: // CPX #immediate
		c.execCPX(AddrImmediate)
	case 0xE4: // CPX zeropage
		c.execCPX(AddrZeroPage)
	case 0xEC: // CPX absolute
		c.execCPX(AddrAbsolute)

	case 0xC0: // CPY #immediate
		c.execCPY(AddrImmediate)
	case 0xC4: // CPY zeropage
		c.execCPY(AddrZeroPage)
	case 0xCC: // CPY absolute
		c.execCPY(AddrAbsolute)

	// Bit test instruction
	case 0x24: // BIT zeropage
		c.execBIT(AddrZeroPage)
	case 0x2C: // BIT absolute
		c.execBIT(AddrAbsolute)

	// Interrupt instructions
	case 0x00: // BRK
		c.execBRK()

	// NOP - official
	case 0xEA: // NOP
		c.execNOP()

	// Illegal NOPs (undocumented opcodes that act like NOP)
	case 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA: // NOP (implied)
		c.execNOP()
	case 0x80, 0x82, 0x89, 0xC2, 0xE2: // NOP #imm (immediate)
		c.read(c.PC) // dummy operand fetch
		c.PC++
	case 0x04, 0x44, 0x64: // NOP zp (zero page)
		addr, _ := c.getOperandAddress(AddrZeroPage)
		c.read(addr)
	case 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4: // NOP zp,X (zero page,X)
		addr, _ := c.getOperandAddress(AddrZeroPageX)
		c.read(addr)
	case 0x0C: // NOP abs (absolute)
		addr, _ := c.getOperandAddress(AddrAbsolute)
		c.read(addr)
	case 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC: // NOP abs,X (absolute,X)
		addr, _ := c.getOperandAddress(AddrAbsoluteX)
		c.read(addr)

	// Illegal opcodes that perform actual operations
	// LAX - Load A and X
	case 0xAF: // LAX abs
		c.execLAX(AddrAbsolute)
	case 0xBF: // LAX abs,Y
		c.execLAX(AddrAbsoluteY)
	case 0xA7: // LAX zp
		c.execLAX(AddrZeroPage)
	case 0xB7: // LAX zp,Y
		c.execLAX(AddrZeroPageY)
	case 0xA3: // LAX (zp,X)
		c.execLAX(AddrIndexedIndirect)
	case 0xB3: // LAX (zp),Y
		c.execLAX(AddrIndirectIndexed)

	// SAX - Store A AND X
	case 0x8F: // SAX abs
		c.execSAX(AddrAbsolute)
	case 0x87: // SAX zp
		c.execSAX(AddrZeroPage)
	case 0x97: // SAX zp,Y
		c.execSAX(AddrZeroPageY)
	case 0x83: // SAX (zp,X)
		c.execSAX(AddrIndexedIndirect)

	// SBC immediate (illegal opcode 0xEB)
	case 0xEB: // SBC #imm (same as 0xE9)
		c.execSBC(AddrImmediate)

	// AAC - AND accumulator with immediate (same as AND but sets carry)
	case 0x0B, 0x2B: // AAC #imm
		c.execAAC()

	// ASR - AND with immediate, then LSR
	case 0x4B: // ASR #imm
		c.execASR()

	// ARR - AND with immediate, then ROR
	case 0x6B: // ARR #imm
		c.execARR()

	// ATX - AND X register with immediate, transfer to A
	case 0xAB: // ATX #imm
		c.execATX()

	// AXS - AND X with A, then subtract immediate
	case 0xCB: // AXS #imm
		c.execAXS()

	// DCP - Decrement and Compare
	case 0xCF: // DCP abs
		c.execDCP(AddrAbsolute)
	case 0xDF: // DCP abs,X
		c.execDCP(AddrAbsoluteX)
	case 0xDB: // DCP abs,Y
		c.execDCP(AddrAbsoluteY)
	case 0xC7: // DCP zp
		c.execDCP(AddrZeroPage)
	case 0xD7: // DCP zp,X
		c.execDCP(AddrZeroPageX)
	case 0xC3: // DCP (zp,X)
		c.execDCP(AddrIndexedIndirect)
	case 0xD3: // DCP (zp),Y
		c.execDCP(AddrIndirectIndexed)

	// ISB - Increment and Subtract with Borrow
	case 0xEF: // ISB abs
		c.execISB(AddrAbsolute)
	case 0xFF: // ISB abs,X
		c.execISB(AddrAbsoluteX)
	case 0xFB: // ISB abs,Y
		c.execISB(AddrAbsoluteY)
	case 0xE7: // ISB zp
		c.execISB(AddrZeroPage)
	case 0xF7: // ISB zp,X
		c.execISB(AddrZeroPageX)
	case 0xE3: // ISB (zp,X)
		c.execISB(AddrIndexedIndirect)
	case 0xF3: // ISB (zp),Y
		c.execISB(AddrIndirectIndexed)

	// SLO - Shift Left and OR
	case 0x0F: // SLO abs
		c.execSLO(AddrAbsolute)
	case 0x1F: // SLO abs,X
		c.execSLO(AddrAbsoluteX)
	case 0x1B: // SLO abs,Y
		c.execSLO(AddrAbsoluteY)
	case 0x07: // SLO zp
		c.execSLO(AddrZeroPage)
	case 0x17: // SLO zp,X
		c.execSLO(AddrZeroPageX)
	case 0x03: // SLO (zp,X)
		c.execSLO(AddrIndexedIndirect)
	case 0x13: // SLO (zp),Y
		c.execSLO(AddrIndirectIndexed)

	// RLA - Rotate Left and AND
	case 0x2F: // RLA abs
		c.execRLA(AddrAbsolute)
	case 0x3F: // RLA abs,X
		c.execRLA(AddrAbsoluteX)
	case 0x3B: // RLA abs,Y
		c.execRLA(AddrAbsoluteY)
	case 0x27: // RLA zp
		c.execRLA(AddrZeroPage)
	case 0x37: // RLA zp,X
		c.execRLA(AddrZeroPageX)
	case 0x23: // RLA (zp,X)
		c.execRLA(AddrIndexedIndirect)
	case 0x33: // RLA (zp),Y
		c.execRLA(AddrIndirectIndexed)

	// SRE - Shift Right and EOR
	case 0x4F: // SRE abs
		c.execSRE(AddrAbsolute)
	case 0x5F: // SRE abs,X
		c.execSRE(AddrAbsoluteX)
	case 0x5B: // SRE abs,Y
		c.execSRE(AddrAbsoluteY)
	case 0x47: // SRE zp
		c.execSRE(AddrZeroPage)
	case 0x57: // SRE zp,X
		c.execSRE(AddrZeroPageX)
	case 0x43: // SRE (zp,X)
		c.execSRE(AddrIndexedIndirect)
	case 0x53: // SRE (zp),Y
		c.execSRE(AddrIndirectIndexed)

	// RRA - Rotate Right and Add
	case 0x6F: // RRA abs
		c.execRRA(AddrAbsolute)
	case 0x7F: // RRA abs,X
		c.execRRA(AddrAbsoluteX)
	case 0x7B: // RRA abs,Y
		c.execRRA(AddrAbsoluteY)
	case 0x67: // RRA zp
		c.execRRA(AddrZeroPage)
	case 0x77: // RRA zp,X
		c.execRRA(AddrZeroPageX)
	case 0x63: // RRA (zp,X)
		c.execRRA(AddrIndexedIndirect)
	case 0x73: // RRA (zp),Y
		c.execRRA(AddrIndirectIndexed)

	default:
		c.read(c.PC) // second cycle of the 2-cycle NOP
		logger.LogWarn("unimplemented opcode $%02X at $%04X, treated as a NOP", opcode, c.PC-1)
	}
}

// LDA - Load Accumulator
func (c *CPU) execLDA(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	c.A = value
	c.setZN(c.A)
}

// LDX - Load X Register
func (c *CPU) execLDX(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	c.X = value
	c.setZN(c.X)
}

// LDY - Load Y Register
func (c *CPU) execLDY(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	c.Y = value
	c.setZN(c.Y)
}

// STA - Store Accumulator
func (c *CPU) execSTA(mode AddressingMode) {
	addr, pageCrossed := c.getOperandAddress(mode)
	if !pageCrossed && (mode == AddrAbsoluteX || mode == AddrAbsoluteY || mode == AddrIndirectIndexed) {
		// Indexed stores spend the fix-up read even without a page cross.
		c.read(addr)
	}
	c.write(addr, c.A)
}

// STX - Store X Register
func (c *CPU) execSTX(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	c.write(addr, c.X)
}

// STY - Store Y Register
func (c *CPU) execSTY(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	c.write(addr, c.Y)
}

// ADC - Add with Carry
func (c *CPU) execADC(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	c.performADC(value)
}

// SBC - Subtract with Carry
func (c *CPU) execSBC(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	c.performSBC(value)
}

// CMP - Compare Accumulator
func (c *CPU) execCMP(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	result := c.A - value
	c.setFlag(FlagCarry, c.A >= value)
	c.setZN(result)
}

// Transfer instructions
func (c *CPU) execTAX() {
	c.X = c.A
	c.setZN(c.X)
}

func (c *CPU) execTXA() {
	c.A = c.X
	c.setZN(c.A)
}

func (c *CPU) execTAY() {
	c.Y = c.A
	c.setZN(c.Y)
}

func (c *CPU) execTYA() {
	c.A = c.Y
	c.setZN(c.A)
}

func (c *CPU) execTXS() {
	c.SP = c.X
}

func (c *CPU) execTSX() {
	c.X = c.SP
	c.setZN(c.X)
}

// Flag instructions
func (c *CPU) execCLC() {
	c.setFlag(FlagCarry, false)
}

func (c *CPU) execSEC() {
	c.setFlag(FlagCarry, true)
}

func (c *CPU) execCLI() {
	c.setFlag(FlagInterrupt, false)
}

func (c *CPU) execSEI() {
	c.setFlag(FlagInterrupt, true)
}

func (c *CPU) execCLV() {
	c.setFlag(FlagOverflow, false)
}

func (c *CPU) execCLD() {
	c.setFlag(FlagDecimal, false)
}

func (c *CPU) execSED() {
	c.setFlag(FlagDecimal, true)
}

// Stack instructions
func (c *CPU) execPHA() {
	c.push(c.A)
}

func (c *CPU) execPLA() {
	c.read(0x100 | uint16(c.SP)) // dummy stack read during the pre-increment cycle
	c.A = c.pop()
	c.setZN(c.A)
}

func (c *CPU) execPHP() {
	c.push(c.P | FlagBreak)
}

func (c *CPU) execPLP() {
	c.read(0x100 | uint16(c.SP)) // dummy stack read during the pre-increment cycle
	c.P = c.pop()
	c.P |= FlagUnused
	c.P &^= FlagBreak
}

// Branch instructions
func (c *CPU) execBEQ() {
	c.branch(c.getFlag(FlagZero))
}

func (c *CPU) execBNE() {
	c.branch(!c.getFlag(FlagZero))
}

func (c *CPU) execBCC() {
	c.branch(!c.getFlag(FlagCarry))
}

func (c *CPU) execBCS() {
	c.branch(c.getFlag(FlagCarry))
}

func (c *CPU) execBPL() {
	c.branch(!c.getFlag(FlagNegative))
}

func (c *CPU) execBMI() {
	c.branch(c.getFlag(FlagNegative))
}

func (c *CPU) execBVC() {
	c.branch(!c.getFlag(FlagOverflow))
}

func (c *CPU) execBVS() {
	c.branch(c.getFlag(FlagOverflow))
}

// branch performs the relative-addressing jump. A taken branch costs an
// extra internal-operation read, and a taken branch that crosses a page
// boundary costs a second one on top of that — both modeled as real bus
// reads so the timing falls out of actual bus traffic rather than a
// returned cycle count.
func (c *CPU) branch(condition bool) {
	offset := int8(c.read(c.PC))
	c.PC++

	if !condition {
		return
	}

	oldPC := c.PC
	newPC := uint16(int32(c.PC) + int32(offset))
	c.read(oldPC) // internal operation while PC is recalculated
	c.PC = newPC

	if (oldPC & 0xFF00) != (newPC & 0xFF00) {
		c.read((oldPC & 0xFF00) | (newPC & 0xFF)) // extra cycle fixing up the high byte
	}
}

// Jump instructions
func (c *CPU) execJMPAbsolute() {
	low := c.read(c.PC)
	c.PC++
	high := c.read(c.PC)
	c.PC = uint16(high)<<8 | uint16(low)
}

func (c *CPU) execJMPIndirect() {
	// Read indirect address
	low := c.read(c.PC)
	c.PC++
	high := c.read(c.PC)
	indirectAddr := uint16(high)<<8 | uint16(low)

	// Read actual jump address with 6502 page boundary bug
	// If indirect address low byte is 0xFF, high byte is read from same page
	var actualLow, actualHigh uint8
	actualLow = c.read(indirectAddr)
	if (indirectAddr & 0xFF) == 0xFF {
		// Bug: reads from same page instead of next page
		actualHigh = c.read(indirectAddr & 0xFF00)
	} else {
		actualHigh = c.read(indirectAddr + 1)
	}

	c.PC = uint16(actualHigh)<<8 | uint16(actualLow)
}

func (c *CPU) execJSR() {
	// Read target address
	low := c.read(c.PC)
	c.PC++
	high := c.read(c.PC)

	c.read(0x100 | uint16(c.SP)) // internal delay before the return address is pushed

	// Push return address - 1 (PC is currently pointing to high byte)
	returnAddr := c.PC
	c.push(uint8(returnAddr >> 8))   // Push high byte
	c.push(uint8(returnAddr & 0xFF)) // Push low byte

	// Jump to subroutine
	c.PC = uint16(high)<<8 | uint16(low)
}

func (c *CPU) execRTS() {
	c.read(0x100 | uint16(c.SP)) // dummy stack read during the pre-increment cycle
	// Pop return address
	low := c.pop()
	high := c.pop()
	c.PC = (uint16(high)<<8 | uint16(low)) + 1
	c.read(c.PC - 1) // internal delay incrementing PC
}

func (c *CPU) execRTI() {
	c.read(0x100 | uint16(c.SP)) // dummy stack read during the pre-increment cycle
	// Pop status register
	c.P = c.pop()
	c.P |= FlagUnused
	c.P &^= FlagBreak

	// Pop return address
	low := c.pop()
	high := c.pop()
	c.PC = uint16(high)<<8 | uint16(low)
}

// Logical operations
func (c *CPU) execAND(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	c.A = c.A & value
	c.setZN(c.A)
}

func (c *CPU) execORA(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	c.A = c.A | value
	c.setZN(c.A)
}

func (c *CPU) execEOR(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	c.A = c.A ^ value
	c.setZN(c.A)
}

// Shift and rotate instructions
func (c *CPU) execASLAccumulator() {
	c.setFlag(FlagCarry, c.A&0x80 != 0)
	c.A = c.A << 1
	c.setZN(c.A)
}

func (c *CPU) execASL(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value) // dummy write-back of the unmodified value

	c.setFlag(FlagCarry, value&0x80 != 0)
	result := value << 1
	c.setZN(result)

	c.write(addr, result)
}

func (c *CPU) execLSRAccumulator() {
	c.setFlag(FlagCarry, c.A&0x01 != 0)
	c.A = c.A >> 1
	c.setZN(c.A)
}

func (c *CPU) execLSR(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value)

	c.setFlag(FlagCarry, value&0x01 != 0)
	result := value >> 1
	c.setZN(result)

	c.write(addr, result)
}

func (c *CPU) execROLAccumulator() {
	oldCarry := uint8(0)
	if c.getFlag(FlagCarry) {
		oldCarry = 1
	}

	c.setFlag(FlagCarry, c.A&0x80 != 0)
	c.A = (c.A << 1) | oldCarry
	c.setZN(c.A)
}

func (c *CPU) execROL(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value)

	oldCarry := uint8(0)
	if c.getFlag(FlagCarry) {
		oldCarry = 1
	}

	c.setFlag(FlagCarry, value&0x80 != 0)
	result := (value << 1) | oldCarry
	c.setZN(result)

	c.write(addr, result)
}

func (c *CPU) execRORAccumulator() {
	oldCarry := uint8(0)
	if c.getFlag(FlagCarry) {
		oldCarry = 0x80
	}

	c.setFlag(FlagCarry, c.A&0x01 != 0)
	c.A = (c.A >> 1) | oldCarry
	c.setZN(c.A)
}

func (c *CPU) execROR(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value)

	oldCarry := uint8(0)
	if c.getFlag(FlagCarry) {
		oldCarry = 0x80
	}

	c.setFlag(FlagCarry, value&0x01 != 0)
	result := (value >> 1) | oldCarry
	c.setZN(result)

	c.write(addr, result)
}

// Increment/Decrement instructions
func (c *CPU) execINC(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value)
	result := value + 1
	c.setZN(result)
	c.write(addr, result)
}

func (c *CPU) execDEC(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value)
	result := value - 1

	c.setZN(result)

	c.write(addr, result)
}

func (c *CPU) execINX() {
	c.X++
	c.setZN(c.X)
}

func (c *CPU) execDEX() {
	c.X--
	c.setZN(c.X)
}

func (c *CPU) execINY() {
	c.Y++
	c.setZN(c.Y)
}

func (c *CPU) execDEY() {
	c.Y--
	c.setZN(c.Y)
}

// Compare instructions
func (c *CPU) execCPX(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	result := c.X - value
	c.setFlag(FlagCarry, c.X >= value)
	c.setZN(result)
}

func (c *CPU) execCPY(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	result := c.Y - value
	c.setFlag(FlagCarry, c.Y >= value)
	c.setZN(result)
}

// Bit test instruction
func (c *CPU) execBIT(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	result := c.A & value

	c.setFlag(FlagZero, result == 0)
	c.setFlag(FlagNegative, value&0x80 != 0) // Bit 7 of memory
	c.setFlag(FlagOverflow, value&0x40 != 0) // Bit 6 of memory
}

// BRK instruction - software interrupt. If an NMI edge lands on one of
// BRK's own cycles, real hardware "hijacks" the sequence: everything
// still gets pushed, but the vector fetched is NMI's, not IRQ/BRK's.
func (c *CPU) execBRK() {
	c.read(c.PC) // BRK's padding byte, fetched and discarded
	c.PC++
	c.push16(c.PC)
	c.push(c.P | FlagBreak)
	c.setFlag(FlagInterrupt, true)

	vector := uint16(0xFFFE)
	if c.Bus.NMIPending() {
		vector = 0xFFFA
	}
	c.PC = c.read16(vector)
}

// NOP
func (c *CPU) execNOP() {}

// Helper function to set Zero and Negative flags
func (c *CPU) setZN(value uint8) {
	c.setFlag(FlagZero, value == 0)
	c.setFlag(FlagNegative, value&0x80 != 0)
}

// Illegal opcodes implementation

// LAX - Load Accumulator and X register
func (c *CPU) execLAX(mode AddressingMode) {
	value, _ := c.getOperand(mode)
	c.A = value
	c.X = value
	c.setZN(value)
}

// SAX - Store A AND X
func (c *CPU) execSAX(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	result := c.A & c.X
	c.write(addr, result)
}

// DCP - Decrement and Compare
func (c *CPU) execDCP(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value) // dummy write-back of the unmodified value
	value--
	c.write(addr, value)

	// Compare with A register
	result := uint16(c.A) - uint16(value)
	c.setFlag(FlagCarry, result < 0x100)
	c.setZN(uint8(result))
}

// ISB - Increment and Subtract with Borrow
func (c *CPU) execISB(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value) // dummy write-back of the unmodified value
	value++
	c.write(addr, value)

	// Perform SBC with the incremented value
	c.performSBC(value)
}

// SLO - Shift Left and OR
func (c *CPU) execSLO(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value) // dummy write-back of the unmodified value

	// Shift left
	c.setFlag(FlagCarry, value&0x80 != 0)
	value <<= 1
	c.write(addr, value)

	// OR with A
	c.A |= value
	c.setZN(c.A)
}

// RLA - Rotate Left and AND
func (c *CPU) execRLA(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value) // dummy write-back of the unmodified value

	// Rotate left through carry
	newCarry := value&0x80 != 0
	carryBit := uint8(0)
	if c.getFlag(FlagCarry) {
		carryBit = 1
	}
	value = (value << 1) | carryBit
	c.setFlag(FlagCarry, newCarry)
	c.write(addr, value)

	// AND with A
	c.A &= value
	c.setZN(c.A)
}

// SRE - Shift Right and EOR
func (c *CPU) execSRE(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value) // dummy write-back of the unmodified value

	// Shift right
	c.setFlag(FlagCarry, value&0x01 != 0)
	value >>= 1
	c.write(addr, value)

	// EOR with A
	c.A ^= value
	c.setZN(c.A)
}

// RRA - Rotate Right and Add
func (c *CPU) execRRA(mode AddressingMode) {
	addr, _ := c.getOperandAddress(mode)
	value := c.read(addr)
	c.write(addr, value) // dummy write-back of the unmodified value

	// Rotate right through carry
	newCarry := value&0x01 != 0
	carryBit := uint8(0)
	if c.getFlag(FlagCarry) {
		carryBit = 0x80
	}
	value = (value >> 1) | carryBit
	c.setFlag(FlagCarry, newCarry)
	c.write(addr, value)

	// Add to A with carry
	c.performADC(value)
}

// Helper function for SBC operation (used by execSBC and ISB)
func (c *CPU) performSBC(value uint8) {
	// SBC is equivalent to ADC with inverted value
	c.performADC(^value)
}

// Helper function for ADC operation (used by execADC and RRA)
func (c *CPU) performADC(value uint8) {
	carryValue := uint16(0)
	if c.getFlag(FlagCarry) {
		carryValue = 1
	}
	result := uint16(c.A) + uint16(value) + carryValue

	// Set overflow flag
	overflow := (c.A^value)&0x80 == 0 && (c.A^uint8(result))&0x80 != 0
	c.setFlag(FlagOverflow, overflow)

	// Set carry flag
	c.setFlag(FlagCarry, result > 0xFF)

	c.A = uint8(result)
	c.setZN(c.A)
}

// AAC - AND accumulator with immediate (also sets carry flag)
func (c *CPU) execAAC() {
	value := c.read(c.PC)
	c.PC++

	c.A &= value
	c.setZN(c.A)
	c.setFlag(FlagCarry, c.A&0x80 != 0) // Set carry flag based on bit 7
}

// ASR - AND with immediate, then LSR
func (c *CPU) execASR() {
	value := c.read(c.PC)
	c.PC++

	// AND with immediate
	c.A &= value

	// Then LSR (logical shift right)
	c.setFlag(FlagCarry, c.A&0x01 != 0)
	c.A >>= 1
	c.setZN(c.A)
}

// ARR - AND with immediate, then ROR
func (c *CPU) execARR() {
	value := c.read(c.PC)
	c.PC++

	// AND with immediate
	c.A &= value

	// Then ROR (rotate right through carry)
	newCarry := c.A&0x01 != 0
	carryBit := uint8(0)
	if c.getFlag(FlagCarry) {
		carryBit = 0x80
	}
	c.A = (c.A >> 1) | carryBit
	c.setFlag(FlagCarry, newCarry)
	c.setZN(c.A)

	// ARR sets overflow and carry flags in a special way
	// V = bit 6 XOR bit 5 of result
	c.setFlag(FlagOverflow, ((c.A>>6)&1)^((c.A>>5)&1) != 0)
	// C = bit 6 of result
	c.setFlag(FlagCarry, c.A&0x40 != 0)
}

// ATX - Load immediate to A and X (also known as LXA)
func (c *CPU) execATX() {
	value := c.read(c.PC)
	c.PC++

	// ATX (LXA) loads immediate value to both A and X
	c.A = value
	c.X = value
	c.setZN(c.A)
}

// AXS - AND X with A, then subtract immediate (without borrow)
func (c *CPU) execAXS() {
	value := c.read(c.PC)
	c.PC++

	// AND X with A
	temp := c.A & c.X

	// Subtract immediate (without borrow)
	result := uint16(temp) - uint16(value)
	c.X = uint8(result)

	// Set flags
	c.setFlag(FlagCarry, result < 0x100) // Set carry if no borrow
	c.setZN(c.X)
}
