package cpu

// dispatch runs the operation identified by op using mode to find its
// operand. Only the opcode byte has been fetched on entry; each operation
// body fetches its operand bytes through readOperand, storeAddr or
// resolveAddr.
func (c *CPU) dispatch(op mnemonic, mode addressMode) {
	switch op {
	case mnADC:
		c.adc(c.readOperand(mode))
	case mnSBC:
		c.adc(c.readOperand(mode) ^ 0xFF)
	case mnAND:
		c.acc &= c.readOperand(mode)
		c.setZN(c.acc)
	case mnORA:
		c.acc |= c.readOperand(mode)
		c.setZN(c.acc)
	case mnEOR:
		c.acc ^= c.readOperand(mode)
		c.setZN(c.acc)
	case mnBIT:
		v := c.readOperand(mode)
		c.setFlag(flagZ, c.acc&v == 0)
		c.setFlag(flagV, v&0x40 != 0)
		c.setFlag(flagN, v&0x80 != 0)

	case mnLDA:
		c.acc = c.readOperand(mode)
		c.setZN(c.acc)
	case mnLDX:
		c.x = c.readOperand(mode)
		c.setZN(c.x)
	case mnLDY:
		c.y = c.readOperand(mode)
		c.setZN(c.y)
	case mnSTA:
		c.writeByte(c.storeAddr(mode), c.acc)
	case mnSTX:
		c.writeByte(c.storeAddr(mode), c.x)
	case mnSTY:
		c.writeByte(c.storeAddr(mode), c.y)

	case mnCMP:
		c.compare(c.acc, c.readOperand(mode))
	case mnCPX:
		c.compare(c.x, c.readOperand(mode))
	case mnCPY:
		c.compare(c.y, c.readOperand(mode))

	case mnINC:
		c.rmw(mode, func(v uint8) uint8 { return v + 1 })
	case mnDEC:
		c.rmw(mode, func(v uint8) uint8 { return v - 1 })
	case mnASL:
		c.shift(mode, c.asl)
	case mnLSR:
		c.shift(mode, c.lsr)
	case mnROL:
		c.shift(mode, c.rol)
	case mnROR:
		c.shift(mode, c.ror)

	case mnINX:
		c.x++
		c.setZN(c.x)
		c.cycles++
	case mnINY:
		c.y++
		c.setZN(c.y)
		c.cycles++
	case mnDEX:
		c.x--
		c.setZN(c.x)
		c.cycles++
	case mnDEY:
		c.y--
		c.setZN(c.y)
		c.cycles++
	case mnTAX:
		c.x = c.acc
		c.setZN(c.x)
		c.cycles++
	case mnTAY:
		c.y = c.acc
		c.setZN(c.y)
		c.cycles++
	case mnTXA:
		c.acc = c.x
		c.setZN(c.acc)
		c.cycles++
	case mnTYA:
		c.acc = c.y
		c.setZN(c.acc)
		c.cycles++
	case mnTSX:
		c.x = c.sp
		c.setZN(c.x)
		c.cycles++
	case mnTXS:
		c.sp = c.x
		c.cycles++

	case mnPHA:
		c.push(c.acc)
		c.cycles++
	case mnPHP:
		c.push(c.status | flagB | flagU)
		c.cycles++
	case mnPLA:
		c.acc = c.pop()
		c.setZN(c.acc)
		c.cycles += 2
	case mnPLP:
		popped := c.pop()
		c.status = (popped &^ (flagB | flagU)) | (c.status & (flagB | flagU))
		c.cycles += 2

	case mnJMP:
		addr, _ := c.resolveAddr(mode)
		c.pc = addr
	case mnJSR:
		addr, _ := c.resolveAddr(mode)
		c.pushWord(c.pc - 1)
		c.pc = addr
		c.cycles++
	case mnRTS:
		c.pc = c.popWord() + 1
		c.cycles += 3

	case mnBRK:
		c.pushWord(c.pc + 1)
		c.push(c.status | flagB | flagU)
		c.setFlag(flagI, true)
		c.pc = c.readWord(vectorIRQ)
		c.cycles++
	case mnRTI:
		popped := c.pop()
		c.status = (popped &^ (flagB | flagU)) | (c.status & (flagB | flagU))
		c.pc = c.popWord()
		c.cycles += 2

	case mnBCC:
		c.branch(mode, !c.flag(flagC))
	case mnBCS:
		c.branch(mode, c.flag(flagC))
	case mnBEQ:
		c.branch(mode, c.flag(flagZ))
	case mnBNE:
		c.branch(mode, !c.flag(flagZ))
	case mnBMI:
		c.branch(mode, c.flag(flagN))
	case mnBPL:
		c.branch(mode, !c.flag(flagN))
	case mnBVC:
		c.branch(mode, !c.flag(flagV))
	case mnBVS:
		c.branch(mode, c.flag(flagV))

	case mnCLC:
		c.setFlag(flagC, false)
		c.cycles++
	case mnSEC:
		c.setFlag(flagC, true)
		c.cycles++
	case mnCLI:
		c.setFlag(flagI, false)
		c.cycles++
	case mnSEI:
		c.setFlag(flagI, true)
		c.cycles++
	case mnCLD:
		c.setFlag(flagD, false)
		c.cycles++
	case mnSED:
		c.setFlag(flagD, true)
		c.cycles++
	case mnCLV:
		c.setFlag(flagV, false)
		c.cycles++

	case mnNOP:
		c.cycles++
	}
}

// adc adds operand and the carry flag into the accumulator, setting all
// four arithmetic flags. SBC is implemented by calling this with the
// operand's one's complement, the standard trick that makes subtraction
// borrow-as-inverted-carry fall out of the same addition logic.
func (c *CPU) adc(operand uint8) {
	carry := uint16(0)
	if c.flag(flagC) {
		carry = 1
	}
	sum := uint16(c.acc) + uint16(operand) + carry
	result := uint8(sum)

	c.setFlag(flagC, sum > 0xFF)
	c.setFlag(flagV, (uint16(c.acc)^sum)&(uint16(operand)^sum)&0x80 != 0)
	c.acc = result
	c.setZN(c.acc)
}

func (c *CPU) compare(reg, operand uint8) {
	c.setFlag(flagC, reg >= operand)
	c.setZN(reg - operand)
}

func (c *CPU) asl(v uint8) uint8 {
	c.setFlag(flagC, v&0x80 != 0)
	r := v << 1
	c.setZN(r)
	return r
}

func (c *CPU) lsr(v uint8) uint8 {
	c.setFlag(flagC, v&0x01 != 0)
	r := v >> 1
	c.setZN(r)
	return r
}

func (c *CPU) rol(v uint8) uint8 {
	carryIn := uint8(0)
	if c.flag(flagC) {
		carryIn = 1
	}
	c.setFlag(flagC, v&0x80 != 0)
	r := (v << 1) | carryIn
	c.setZN(r)
	return r
}

func (c *CPU) ror(v uint8) uint8 {
	carryIn := uint8(0)
	if c.flag(flagC) {
		carryIn = 0x80
	}
	c.setFlag(flagC, v&0x01 != 0)
	r := (v >> 1) | carryIn
	c.setZN(r)
	return r
}

// shift applies fn to either the accumulator (mode == modeAccumulator) or a
// memory operand, writing the result back in either case. ASL/LSR/ROL/ROR
// all share this shape.
func (c *CPU) shift(mode addressMode, fn func(uint8) uint8) {
	if mode == modeAccumulator {
		c.acc = fn(c.acc)
		c.cycles++
		return
	}
	c.rmw(mode, fn)
}

// rmw implements the read-modify-write instructions (INC, DEC, and the
// memory forms of the shift/rotate family): read the operand, transform it,
// write it back, spending one extra cycle for the internal transform step
// the way the register-only instructions do.
func (c *CPU) rmw(mode addressMode, fn func(uint8) uint8) {
	addr := c.storeAddr(mode)
	v := c.readByte(addr)
	r := fn(v)
	c.writeByte(addr, r)
	c.cycles++
}

// branch takes the branch if cond holds, spending one extra cycle for the
// branch itself and one more if it lands on a different page -- on top of
// the base 2 cycles (opcode fetch + relative-offset fetch) every branch
// already spent resolving its operand.
func (c *CPU) branch(mode addressMode, cond bool) {
	target, _ := c.resolveAddr(mode)
	if !cond {
		return
	}
	c.cycles++
	if (target & 0xFF00) != (c.pc & 0xFF00) {
		c.cycles++
	}
	c.pc = target
}
