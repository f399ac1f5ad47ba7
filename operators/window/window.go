// Package window shows a take in a desktop window with ebiten.
//
// It lives apart from the other operators because ebiten needs a display
// and cgo on most platforms.
package window

import (
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/teranos/snowcam"
)

// Operator hands frames to an ebiten game through a one-slot channel:
// a newer frame replaces one the window has not drawn yet, so a slow
// display never holds up the director.
type Operator struct {
	title  string
	scale  float64
	width  int
	height int

	frames chan *image.RGBA
	done   chan struct{}
	once   sync.Once

	screen *ebiten.Image
	shown  int
}

// New creates a window operator for frames of width x height pixels,
// shown at scale.
func New(title string, width, height int, scale float64) *Operator {
	if scale <= 0 {
		scale = 1
	}
	return &Operator{
		title:  title,
		scale:  scale,
		width:  width,
		height: height,
		frames: make(chan *image.RGBA, 1),
		done:   make(chan struct{}),
	}
}

// OnFrame implements snowcam.Observer.
func (op *Operator) OnFrame(info snowcam.FrameInfo) error {
	if info.Image == nil {
		return snowcam.ErrNoFrame
	}
	op.offer(copyFrame(info.Image))
	return nil
}

// offer puts frame in the slot, dropping an undrawn older frame.
func (op *Operator) offer(frame *image.RGBA) {
	for {
		select {
		case op.frames <- frame:
			return
		default:
		}
		select {
		case <-op.frames:
		default:
		}
	}
}

// latest takes the pending frame, if any.
func (op *Operator) latest() *image.RGBA {
	select {
	case frame := <-op.frames:
		return frame
	default:
		return nil
	}
}

// Run opens the window and blocks until it is closed or Close is called.
// ebiten requires it to run on the main goroutine.
func (op *Operator) Run() error {
	ebiten.SetWindowSize(int(float64(op.width)*op.scale), int(float64(op.height)*op.scale))
	ebiten.SetWindowTitle(op.title)
	return ebiten.RunGame(op)
}

// Close makes Run return at the next tick.
func (op *Operator) Close() {
	op.once.Do(func() { close(op.done) })
}

// Shown returns how many frames were uploaded to the window.
func (op *Operator) Shown() int {
	return op.shown
}

// Update implements ebiten.Game.
func (op *Operator) Update() error {
	select {
	case <-op.done:
		return ebiten.Termination
	default:
	}

	frame := op.latest()
	if frame == nil {
		return nil
	}
	b := frame.Bounds()
	if op.screen == nil || op.screen.Bounds().Dx() != b.Dx() || op.screen.Bounds().Dy() != b.Dy() {
		op.screen = ebiten.NewImage(b.Dx(), b.Dy())
	}
	op.screen.WritePixels(frame.Pix)
	op.shown++
	return nil
}

// Draw implements ebiten.Game.
func (op *Operator) Draw(screen *ebiten.Image) {
	if op.screen == nil {
		return
	}
	screen.DrawImage(op.screen, nil)
}

// Layout implements ebiten.Game; the logical screen is the frame size.
func (op *Operator) Layout(outsideWidth, outsideHeight int) (int, int) {
	return op.width, op.height
}

func copyFrame(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return dst
}
