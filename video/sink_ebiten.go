package video

import (
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/bdwalton/m6502/cpu"
)

// Scale is how many host pixels each emulated pixel occupies on screen.
const Scale = 6

// EbitenSink is the concrete PixelSink backed by an ebiten window. The
// scan-out loop calls SetColor/DrawPoint/Present from its own goroutine
// while ebiten's own goroutine calls Update/Draw; frameBuffer, frameCount and
// registers are guarded by mu, and the quit flag is an atomic.Bool.
type EbitenSink struct {
	mu          sync.Mutex
	frameBuffer []byte // Width*Height*4 bytes, RGBA
	color       [3]uint8
	image       *ebiten.Image

	quit atomic.Bool

	// Debug, when set, draws a small HUD with the frame counter and the
	// live register state last reported via SetRegisters.
	Debug      bool
	frameCount uint64
	registers  cpu.Registers
}

// NewEbitenSink returns a sink sized for the fixed Width x Height display,
// scaled up by Scale for visibility.
func NewEbitenSink(debug bool) *EbitenSink {
	return &EbitenSink{
		frameBuffer: make([]byte, Width*Height*4),
		Debug:       debug,
	}
}

// Open configures and starts the ebiten window. It blocks until the window
// closes or Quit is observed. ebiten requires it to run on the main
// goroutine, so callers run the emulation on other goroutines.
func (s *EbitenSink) Open(title string) error {
	ebiten.SetWindowSize(Width*Scale, Height*Scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(false)
	return ebiten.RunGame(s)
}

// SetColor records the color the next DrawPoint call will use.
func (s *EbitenSink) SetColor(r, g, b uint8) {
	s.color = [3]uint8{r, g, b}
}

// DrawPoint writes the current color into the frame buffer at (x, y).
func (s *EbitenSink) DrawPoint(x, y int) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	i := (y*Width + x) * 4
	s.mu.Lock()
	s.frameBuffer[i+0] = s.color[0]
	s.frameBuffer[i+1] = s.color[1]
	s.frameBuffer[i+2] = s.color[2]
	s.frameBuffer[i+3] = 0xFF
	s.mu.Unlock()
}

// Present is a no-op beyond bookkeeping: ebiten's own Draw callback reads
// the frame buffer on its own schedule, so there's nothing to flush here.
func (s *EbitenSink) Present() {
	s.mu.Lock()
	s.frameCount++
	s.mu.Unlock()
}

// PollEvents reports SignalQuit once the window has been asked to close or
// Escape has been pressed, as observed by Update.
func (s *EbitenSink) PollEvents() Signal {
	if s.quit.Load() {
		return SignalQuit
	}
	return SignalNone
}

// SetRegisters records the CPU state the debug HUD should show on the next
// Draw call. The caller is expected to call this once per step from the CPU
// goroutine; it is cheap enough to call unconditionally even when Debug is
// off.
func (s *EbitenSink) SetRegisters(r cpu.Registers) {
	s.mu.Lock()
	s.registers = r
	s.mu.Unlock()
}

// Quit asks the window to close on its next Update, the same as pressing
// Escape or clicking the close button. Used to tear the video loop down when
// the CPU halts rather than when the window itself is closed.
func (s *EbitenSink) Quit() {
	s.quit.Store(true)
}

// Update implements ebiten.Game. It only watches for the two quit
// triggers; emulation state lives entirely outside ebiten's loop.
func (s *EbitenSink) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsWindowBeingClosed() {
		s.quit.Store(true)
	}
	if s.quit.Load() {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game, blitting the shared frame buffer and, when
// Debug is set, a small text HUD showing the frame count and the last
// reported register state.
func (s *EbitenSink) Draw(screen *ebiten.Image) {
	if s.image == nil {
		s.image = ebiten.NewImage(Width, Height)
	}

	s.mu.Lock()
	s.image.WritePixels(s.frameBuffer)
	frameCount := s.frameCount
	regs := s.registers
	s.mu.Unlock()

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(Scale, Scale)
	screen.DrawImage(s.image, opts)

	if s.Debug {
		hud := fmt.Sprintf("frame %d  PC=%04X A=%02X X=%02X Y=%02X SP=%02X P=%02X",
			frameCount, regs.PC, regs.A, regs.X, regs.Y, regs.SP, regs.Status)
		text.Draw(screen, hud, basicfont.Face7x13, 4, Height*Scale-4, color.White)
	}
}

// Layout implements ebiten.Game, rendering at the scaled window size.
func (s *EbitenSink) Layout(outsideWidth, outsideHeight int) (int, int) {
	return Width * Scale, Height * Scale
}
