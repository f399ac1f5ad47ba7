package scene

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// Renderer holds a set of actors, a background colour and an active camera,
// and draws them into a viewport of a RenderWindow.
type Renderer struct {
	actors     []*Actor
	background colorful.Color
	camera     *Camera
	viewport   [4]float64 // xmin, ymin, xmax, ymax in [0,1], y up
}

// NewRenderer returns a renderer with a black background, a default camera
// and a full-window viewport.
func NewRenderer() *Renderer {
	return &Renderer{
		camera:   NewCamera(),
		viewport: [4]float64{0, 0, 1, 1},
	}
}

// AddActor adds a to the renderer. Adding an actor twice has no effect.
func (r *Renderer) AddActor(a *Actor) {
	for _, existing := range r.actors {
		if existing == a {
			return
		}
	}
	r.actors = append(r.actors, a)
}

// RemoveActor removes a if present.
func (r *Renderer) RemoveActor(a *Actor) {
	for i, existing := range r.actors {
		if existing == a {
			r.actors = append(r.actors[:i], r.actors[i+1:]...)
			return
		}
	}
}

// Actors returns the actors in draw order.
func (r *Renderer) Actors() []*Actor {
	return r.actors
}

// SetBackground sets the background colour from RGB components in [0, 1].
func (r *Renderer) SetBackground(red, green, blue float64) {
	r.background = colorful.Color{R: red, G: green, B: blue}
}

// SetBackgroundColor sets the background colour.
func (r *Renderer) SetBackgroundColor(c colorful.Color) {
	r.background = c
}

// Background returns the background colour.
func (r *Renderer) Background() colorful.Color {
	return r.background
}

// ActiveCamera returns the camera used for drawing.
func (r *Renderer) ActiveCamera() *Camera {
	return r.camera
}

// SetActiveCamera replaces the camera.
func (r *Renderer) SetActiveCamera(c *Camera) {
	r.camera = c
}

// SetViewport sets the normalized window region the renderer draws into.
// Coordinates follow the window's lower-left origin convention.
func (r *Renderer) SetViewport(xmin, ymin, xmax, ymax float64) {
	r.viewport = [4]float64{xmin, ymin, xmax, ymax}
}

// Viewport returns the normalized viewport.
func (r *Renderer) Viewport() [4]float64 {
	return r.viewport
}

// pixelRect converts the viewport to image coordinates for a w x h window.
func (r *Renderer) pixelRect(w, h int) image.Rectangle {
	vp := r.viewport
	x0 := int(vp[0]*float64(w) + 0.5)
	x1 := int(vp[2]*float64(w) + 0.5)
	y0 := int((1-vp[3])*float64(h) + 0.5)
	y1 := int((1-vp[1])*float64(h) + 0.5)
	return image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, w, h))
}
