// Package monitor implements an interactive debug console for stepping,
// breaking, and inspecting a running machine.
package monitor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/bdwalton/m6502/bus"
	"github.com/bdwalton/m6502/cpu"
)

// Machine is the subset of the running system the monitor needs: a CPU to
// step/inspect and a bus to read memory from for the dump/stack commands.
type Machine struct {
	CPU *cpu.CPU
	Bus *bus.Bus
}

// Run drives the interactive menu until the user quits; a free run returns
// to the menu when it stops. It puts stdin into raw mode so menu choices take effect on a single
// keypress, restoring the previous terminal state before returning.
func Run(m *Machine) error {
	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("putting stdin into raw mode: %w", err)
	}
	defer term.Restore(fd, old)

	breaks := make(map[uint16]struct{})
	in := bufio.NewReader(os.Stdin)

	for {
		fmt.Printf("\r\n%s\r\n\r\n", m.CPU)
		for _, line := range []string{
			"(B)reak - add breakpoint",
			"(C)lear - clear breakpoints",
			"(R)un - run until a breakpoint or quit",
			"(S)tep - step one instruction",
			"R(e)set - hit the reset button",
			"(M)emory - dump a memory range",
			"S(t)ack - show the last 3 stack entries",
			"(P)C - set the program counter",
			"(Q)uit - shut down",
			"Choice: ",
		} {
			fmt.Printf("%s\r\n", line)
		}

		choice, err := readKey(in)
		if err != nil {
			return err
		}
		fmt.Printf("\r\n")

		switch choice {
		case 'b', 'B':
			addr, err := readAddressCooked(fd, old, "Breakpoint (e.g. ff15): ")
			if err == nil {
				breaks[addr] = struct{}{}
			}
		case 'c', 'C':
			breaks = make(map[uint16]struct{})
		case 'p', 'P':
			addr, err := readAddressCooked(fd, old, "Set PC to (e.g. 0400): ")
			if err == nil {
				m.CPU.SetPC(addr)
			}
		case 'q', 'Q':
			return nil
		case 'r', 'R':
			runUntilBreak(m, breaks, fd, old)
		case 's', 'S':
			m.CPU.Step()
		case 'e', 'E':
			m.CPU.Reset()
		case 't', 'T':
			dumpStack(m)
		case 'm', 'M':
			low, err := readAddressCooked(fd, old, "Low address (e.g. f00d): ")
			if err != nil {
				continue
			}
			high, err := readAddressCooked(fd, old, "High address (e.g. beef): ")
			if err != nil {
				continue
			}
			dumpMemory(m, low, high)
		}
	}
}

// readKey reads a single byte from in without waiting for Enter.
func readKey(in *bufio.Reader) (byte, error) {
	return in.ReadByte()
}

// readAddressCooked temporarily restores the terminal to its original
// (cooked) state, saved as old, so the user can type and edit a hex
// address with normal line discipline, then puts raw mode back before
// returning.
func readAddressCooked(fd int, old *term.State, prompt string) (uint16, error) {
	if err := term.Restore(fd, old); err != nil {
		return 0, err
	}
	defer term.MakeRaw(fd)

	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(line), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// runUntilBreak free-runs the CPU until it hits a programmed breakpoint,
// halts on an unknown opcode, or is interrupted. It delegates to
// (*cpu.CPU).Execute one instruction at a time under a cancelable context
// so a breakpoint hit can stop the run between instructions; the context is
// also canceled by SIGINT/SIGTERM, the same escape hatch the teacher's BIOS
// menu wires up for its own "run" command. raw mode disables the terminal's
// own signal generation, so the terminal is returned to cooked mode for the
// duration of the run -- otherwise Ctrl-C would never reach the process.
func runUntilBreak(m *Machine, breaks map[uint16]struct{}, fd int, old *term.State) {
	if err := term.Restore(fd, old); err != nil {
		return
	}
	defer term.MakeRaw(fd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigQuit := make(chan os.Signal, 1)
	signal.Notify(sigQuit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigQuit)

	go func() {
		select {
		case <-sigQuit:
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Print("running until breakpoint or Ctrl-C...\r\n")
	for {
		m.CPU.Execute(ctx, 1)
		if m.CPU.Halted() {
			return
		}
		if _, hit := breaks[m.CPU.PC()]; hit {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func dumpStack(m *Machine) {
	sp := m.CPU.Snapshot().SP
	for i := 1; i <= 3 && int(sp)+i <= 0xFF; i++ {
		addr := uint16(0x0100) + uint16(sp) + uint16(i)
		fmt.Printf("0x%04x: 0x%02x\r\n", addr, m.Bus.Read(addr))
	}
}

func dumpMemory(m *Machine, low, high uint16) {
	fmt.Print("\r\n")
	col := 0
	for addr := uint32(low); addr <= uint32(high); addr++ {
		fmt.Printf("0x%04x: 0x%02x  ", addr, m.Bus.Read(uint16(addr)))
		col++
		if col%5 == 0 {
			fmt.Print("\r\n")
		}
		if addr == 0xFFFF {
			break
		}
	}
	fmt.Print("\r\n")
}
