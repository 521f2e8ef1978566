// Package cpu implements a cycle-accurate MOS 6502 core over an arbitrary
// byte-addressable memory bus.
package cpu

import (
	"context"
	"fmt"
	"os"
)

// Memory is the interface the CPU requires from whatever backs its
// 16-bit address space. A *bus.Bus satisfies it directly.
type Memory interface {
	Read(addr uint16) uint8
	Write(addr uint16, val uint8)
}

// Interrupt vectors, fixed by the processor.
const (
	vectorNMI   uint16 = 0xFFFA
	vectorReset uint16 = 0xFFFC
	vectorIRQ   uint16 = 0xFFFE
)

const stackBase uint16 = 0x0100

// CPU holds all processor-visible state: the registers, the packed status
// byte, and a running cycle count. It owns no memory of its own -- all
// reads and writes are delegated to mem, so a CPU and a video scan-out loop
// can share the same underlying bus without the CPU knowing anything about
// video.
type CPU struct {
	acc, x, y uint8
	status    uint8
	sp        uint8
	pc        uint16

	mem    Memory
	cycles uint64

	// Debug, when set, makes every memory access print an "AAAA READ BB"
	// or "AAAA WRITE BB" trace line to stderr.
	Debug bool

	halted bool
}

// New returns a CPU wired to mem. Call Reset before running it.
func New(mem Memory) *CPU {
	return &CPU{mem: mem}
}

// Cycles returns the number of bus-level clock cycles spent since the CPU
// was created.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// PC returns the current program counter, used by the debug monitor to
// display and set breakpoints.
func (c *CPU) PC() uint16 {
	return c.pc
}

// SetPC forces the program counter, used by the debug monitor's "set PC"
// command.
func (c *CPU) SetPC(addr uint16) {
	c.pc = addr
}

// Registers is a snapshot of CPU state for reporting and the debug monitor,
// decoupled from the live CPU so callers can't mutate it by reference.
type Registers struct {
	A, X, Y, SP uint8
	PC          uint16
	Status      uint8
}

// Snapshot returns the CPU's current register state.
func (c *CPU) Snapshot() Registers {
	return Registers{A: c.acc, X: c.x, Y: c.y, SP: c.sp, PC: c.pc, Status: c.status}
}

func (c *CPU) String() string {
	return fmt.Sprintf("PC=%04X A=%02X X=%02X Y=%02X SP=%02X  N V D I Z C\n                  %s",
		c.pc, c.acc, c.x, c.y, c.sp, c.statusString())
}

// readByte reads one byte through the bus, advancing the cycle count and,
// when Debug is set, tracing the access. Every memory access the CPU makes
// funnels through readByte or writeByte, each costing one cycle, mirroring
// the real part's per-access bus timing; instruction bodies and addressing
// modes add their internal cycles on top of that.
func (c *CPU) readByte(addr uint16) uint8 {
	v := c.mem.Read(addr)
	c.cycles++
	if c.Debug {
		fmt.Fprintf(os.Stderr, "%04X READ %02X\n", addr, v)
	}
	return v
}

func (c *CPU) writeByte(addr uint16, v uint8) {
	c.mem.Write(addr, v)
	c.cycles++
	if c.Debug {
		fmt.Fprintf(os.Stderr, "%04X WRITE %02X\n", addr, v)
	}
}

// fetchByte reads the byte at PC and advances PC. Used both for opcode
// fetch and for consuming operand bytes during addressing-mode resolution.
func (c *CPU) fetchByte() uint8 {
	v := c.readByte(c.pc)
	c.pc++
	return v
}

func (c *CPU) fetchWord() uint16 {
	lo := uint16(c.fetchByte())
	hi := uint16(c.fetchByte())
	return hi<<8 | lo
}

func (c *CPU) readWord(addr uint16) uint16 {
	lo := uint16(c.readByte(addr))
	hi := uint16(c.readByte(addr + 1))
	return hi<<8 | lo
}

func (c *CPU) push(v uint8) {
	c.writeByte(stackBase+uint16(c.sp), v)
	c.sp--
}

func (c *CPU) pop() uint8 {
	c.sp++
	return c.readByte(stackBase + uint16(c.sp))
}

func (c *CPU) pushWord(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) popWord() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// Reset puts the processor into its defined power-on register state --
// A, X, Y, and every flag cleared, SP at 0xFF -- then loads PC from the
// reset vector. The vector fetch alone spends 2 cycles; one further cycle
// accounts for the reset line settling before the first fetch.
func (c *CPU) Reset() {
	c.acc, c.x, c.y = 0, 0, 0
	c.sp = 0xFF
	c.status = 0
	c.pc = c.readWord(vectorReset)
	c.cycles++
	c.halted = false
}

// IRQ services a maskable interrupt if the interrupt-disable flag is clear.
// Per this processor's interrupt protocol, the return address pushed is
// PC+1 rather than the bare PC.
func (c *CPU) IRQ() {
	if c.flag(flagI) {
		return
	}
	c.pushWord(c.pc + 1)
	c.setFlag(flagB, false)
	c.push((c.status | flagU) &^ flagB)
	c.setFlag(flagI, true)
	c.pc = c.readWord(vectorIRQ)
	c.cycles += 2
}

// NMI services a non-maskable interrupt unconditionally, using the same
// push sequence as IRQ but reading its vector from 0xFFFA.
func (c *CPU) NMI() {
	c.pushWord(c.pc + 1)
	c.setFlag(flagB, false)
	c.push((c.status | flagU) &^ flagB)
	c.setFlag(flagI, true)
	c.pc = c.readWord(vectorNMI)
	c.cycles += 2
}

// Halted reports whether the CPU stopped itself after hitting an unknown
// opcode.
func (c *CPU) Halted() bool {
	return c.halted
}

// Step executes exactly one instruction and returns the number of cycles it
// spent. If the opcode at PC is not one of the documented opcodes, Step
// reports it to stderr, consumes the single fetch cycle, and halts the CPU
// rather than guessing at an operation.
func (c *CPU) Step() uint64 {
	before := c.cycles
	opcode := c.fetchByte()
	entry := opcodeTable[opcode]

	if entry.op == mnUnknown {
		fmt.Fprintf(os.Stderr, "unimplemented opcode %02X at %04X\n", opcode, c.pc-1)
		c.halted = true
		return c.cycles - before
	}

	c.dispatch(entry.op, entry.mode)
	return c.cycles - before
}

// Execute runs instructions until ctx is canceled, the CPU halts, or (when
// budget is nonzero) the cycle counter has advanced by budget, whichever
// comes first, returning the number of cycles actually spent. A budget of 0
// means no cycle limit at all -- callers that want a single step should
// pass budget=1, which stops after exactly one Step since every instruction
// spends at least one cycle. This is the free-run primitive both the
// top-level run loop and the debug monitor's "run" command delegate to, so
// both share one cancellation and halt-detection path.
func (c *CPU) Execute(ctx context.Context, budget uint64) uint64 {
	before := c.cycles
	for !c.halted {
		select {
		case <-ctx.Done():
			return c.cycles - before
		default:
		}
		if budget != 0 && c.cycles-before >= budget {
			return c.cycles - before
		}
		c.Step()
	}
	return c.cycles - before
}

// resolveAddr computes the effective address for mode, consuming whatever
// operand bytes that mode requires. crossed reports whether an indexed
// absolute or indirect-indexed computation crossed a page boundary; callers
// decide whether that matters (it's a free extra cycle for loads, but
// store and read-modify-write instructions always pay it).
func (c *CPU) resolveAddr(mode addressMode) (addr uint16, crossed bool) {
	switch mode {
	case modeZeroPage:
		return uint16(c.fetchByte()), false
	case modeZeroPageX:
		base := c.fetchByte()
		c.cycles++
		return uint16(base + c.x), false
	case modeZeroPageY:
		base := c.fetchByte()
		c.cycles++
		return uint16(base + c.y), false
	case modeAbsolute:
		return c.fetchWord(), false
	case modeAbsoluteX:
		base := c.fetchWord()
		addr := base + uint16(c.x)
		return addr, (base & 0xFF00) != (addr & 0xFF00)
	case modeAbsoluteY:
		base := c.fetchWord()
		addr := base + uint16(c.y)
		return addr, (base & 0xFF00) != (addr & 0xFF00)
	case modeIndirectX:
		zp := c.fetchByte() + c.x
		c.cycles++
		lo := uint16(c.readByte(uint16(zp)))
		hi := uint16(c.readByte(uint16(zp + 1)))
		return hi<<8 | lo, false
	case modeIndirectY:
		zp := c.fetchByte()
		lo := uint16(c.readByte(uint16(zp)))
		hi := uint16(c.readByte(uint16(zp + 1)))
		base := hi<<8 | lo
		addr := base + uint16(c.y)
		return addr, (base & 0xFF00) != (addr & 0xFF00)
	case modeRelative:
		offset := int8(c.fetchByte())
		return uint16(int32(c.pc) + int32(offset)), false
	case modeIndirect:
		ptr := c.fetchWord()
		lo := uint16(c.readByte(ptr))
		hi := uint16(c.readByte(ptr + 1))
		return hi<<8 | lo, false
	default:
		return 0, false
	}
}

// readOperand reads the operand for a read-only instruction (one that
// never writes back through addr), applying the conditional page-cross
// bonus cycle that only loads and other pure reads are entitled to.
func (c *CPU) readOperand(mode addressMode) uint8 {
	if mode == modeImmediate {
		return c.fetchByte()
	}
	if mode == modeAccumulator {
		return c.acc
	}
	addr, crossed := c.resolveAddr(mode)
	if crossed {
		c.cycles++
	}
	return c.readByte(addr)
}

// storeAddr resolves addr for a store or read-modify-write instruction,
// where an indexed absolute/indirect-indexed mode always pays the extra
// cycle regardless of whether a page boundary was actually crossed (the
// real processor performs a dummy read either way).
func (c *CPU) storeAddr(mode addressMode) uint16 {
	addr, _ := c.resolveAddr(mode)
	switch mode {
	case modeAbsoluteX, modeAbsoluteY, modeIndirectY:
		c.cycles++
	}
	return addr
}
