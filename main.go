package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bdwalton/m6502/bus"
	"github.com/bdwalton/m6502/cpu"
	"github.com/bdwalton/m6502/monitor"
	"github.com/bdwalton/m6502/program"
	"github.com/bdwalton/m6502/video"
)

var (
	romPath    = flag.String("rom", "", "Path to the program image to load into ROM.")
	debug      = flag.Bool("debug", false, "Trace every bus access and show the on-screen HUD.")
	interact   = flag.Bool("monitor", false, "Drop into the interactive debug console instead of free-running.")
	frameDelay = flag.Int("frame-delay", 16, "Milliseconds to sleep between presented frames.")
	clockNS    = flag.Int64("clock-ns", 0, "Per-cycle throttle in nanoseconds; 0 disables throttling.")
)

func main() {
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}

	image, err := program.Load(*romPath)
	if err != nil {
		log.Fatalf("loading program image: %v", err)
	}
	image = program.EnsureResetVector(image, 0x8000)

	b := bus.New()
	b.LoadROM(image)

	c := cpu.New(b)
	c.Debug = *debug
	c.Reset()

	if *interact {
		if err := monitor.Run(&monitor.Machine{CPU: c, Bus: b}); err != nil {
			log.Fatalf("monitor: %v", err)
		}
		report(c)
		return
	}

	run(c, b)
	report(c)
}

// run drives the CPU and video scan-out concurrently until the video
// window closes or the CPU halts, then tears both down. ebiten.RunGame
// must be called from this, the main, goroutine, so the CPU loop and the
// scan-out loop are pushed onto an errgroup instead.
func run(c *cpu.CPU, b *bus.Bus) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	sink := video.NewEbitenSink(*debug)

	g.Go(func() error {
		return runCPU(gctx, c, sink, time.Duration(*clockNS))
	})

	g.Go(func() error {
		scanout := video.NewScanout(b, sink, time.Duration(*frameDelay)*time.Millisecond)
		scanout.Run(gctx.Done())
		return nil
	})

	// The CPU goroutine returning errHalted cancels gctx, as does cancel()
	// below once the window closes; once it's canceled, close the window
	// ourselves so a CPU halt tears the video loop down too instead of
	// leaving it running with no CPU behind it.
	go func() {
		<-gctx.Done()
		sink.Quit()
	}()

	if err := sink.Open("m6502"); err != nil {
		fmt.Printf("video backend exited: %v\n", err)
	}
	cancel()

	if err := g.Wait(); err != nil && err != errHalted {
		fmt.Printf("shutdown error: %v\n", err)
	}
}

// errHalted is returned by the CPU goroutine when the CPU stops itself on
// an undocumented opcode, so errgroup cancels gctx and tears the video loop
// down along with it.
var errHalted = errors.New("cpu halted")

// runCPU steps the CPU, one instruction per Execute call, until ctx is
// canceled or it halts on an undocumented opcode, reporting its register
// state to sink's debug HUD after every step. When clockPerCycle is
// nonzero, it sleeps that long per cycle spent, throttling emulation speed
// to something closer to a real part's clock rate.
func runCPU(ctx context.Context, c *cpu.CPU, sink *video.EbitenSink, clockPerCycle time.Duration) error {
	for {
		spent := c.Execute(ctx, 1)
		sink.SetRegisters(c.Snapshot())
		if c.Halted() {
			return errHalted
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if clockPerCycle > 0 {
			time.Sleep(clockPerCycle * time.Duration(spent))
		}
	}
}

func report(c *cpu.CPU) {
	fmt.Printf("\nfinal state:\n%s\ncycles: %d\n", c, c.Cycles())
}
