package scene

import (
	"fmt"
	"image"
)

// RenderWindow is the output surface: it owns the pixel buffer that its
// renderers draw into on every Render call.
type RenderWindow struct {
	width, height int
	renderers     []*Renderer
	fb            *frameBuffer
	renders       int
}

// NewRenderWindow creates a window of the given pixel size.
func NewRenderWindow(width, height int) (*RenderWindow, error) {
	w := &RenderWindow{}
	if err := w.SetSize(width, height); err != nil {
		return nil, err
	}
	return w, nil
}

// SetSize resizes the window. The frame buffer is reallocated on the next Render.
func (w *RenderWindow) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("window size %dx%d: %w", width, height, ErrInvalidSize)
	}
	w.width, w.height = width, height
	return nil
}

// Size returns the pixel size.
func (w *RenderWindow) Size() (width, height int) {
	return w.width, w.height
}

// AddRenderer adds r; renderers draw in insertion order.
func (w *RenderWindow) AddRenderer(r *Renderer) {
	w.renderers = append(w.renderers, r)
}

// Renderers returns the attached renderers.
func (w *RenderWindow) Renderers() []*Renderer {
	return w.renderers
}

// Render rasterizes every renderer into the frame buffer.
func (w *RenderWindow) Render() error {
	if len(w.renderers) == 0 {
		return ErrNoRenderer
	}
	if w.fb == nil || w.fb.img.Rect.Dx() != w.width || w.fb.img.Rect.Dy() != w.height {
		w.fb = newFrameBuffer(w.width, w.height)
	}
	for _, r := range w.renderers {
		w.fb.drawRenderer(r)
	}
	w.renders++
	return nil
}

// Frame returns the most recent frame, or nil before the first Render.
// The image is reused by the next Render; copy it to keep it.
func (w *RenderWindow) Frame() *image.RGBA {
	if w.fb == nil {
		return nil
	}
	return w.fb.img
}

// Renders returns how many frames have been rendered.
func (w *RenderWindow) Renders() int {
	return w.renders
}
