// Package snowman builds the snowman figure and its canonical animation.
package snowman

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/teranos/snowcam"
	"github.com/teranos/snowcam/scene"
)

// Target names used by the timing table.
const (
	TargetBody          = "body"
	TargetHead          = "head"
	TargetLeftEye       = "left_eye"
	TargetRightEye      = "right_eye"
	TargetNose          = "nose"
	TargetHeadLower     = "head_lower"
	TargetNoseTranslate = "nose_translate"
	TargetCamera        = "camera"
	TargetEyes          = "eyes"
)

// Options size the render window. Zero values take the defaults.
type Options struct {
	Width      int
	Height     int
	Background colorful.Color
	// Resolution is the theta and phi resolution of every sphere.
	Resolution int
}

// DefaultOptions is a 500x500 window on a dark blue background.
func DefaultOptions() Options {
	return Options{
		Width:      500,
		Height:     500,
		Background: colorful.Color{R: 0.1, G: 0.2, B: 0.4},
		Resolution: 15,
	}
}

// Scene is the assembled snowman. It implements snowcam.Redrawer and
// snowcam.Framer through its window.
type Scene struct {
	Window   *scene.RenderWindow
	Renderer *scene.Renderer
	Camera   *scene.Camera

	Body     *scene.Actor
	Head     *scene.Actor
	LeftEye  *scene.Actor
	RightEye *scene.Actor
	Nose     *scene.Actor

	// HeadLower sinks the head into the body; NoseTranslate moves the
	// nose along its own depth axis.
	HeadLower     *scene.Transform
	NoseTranslate *scene.Transform
}

// Build creates the body, head, eyes and nose, wires them into a renderer
// and window and points the camera at the origin from (0, 0, 22). The eyes
// start hidden. Both user transforms are attached as identities.
func Build(opts Options) (*Scene, error) {
	defaults := DefaultOptions()
	if opts.Width == 0 && opts.Height == 0 {
		opts.Width, opts.Height = defaults.Width, defaults.Height
	}
	if opts.Background == (colorful.Color{}) {
		opts.Background = defaults.Background
	}
	if opts.Resolution == 0 {
		opts.Resolution = defaults.Resolution
	}

	sphere := func(name string, center mgl64.Vec3, radius float64) (*scene.Actor, error) {
		src, err := scene.NewSphereSource(scene.SphereParams{
			Center:          center,
			Radius:          radius,
			ThetaResolution: opts.Resolution,
			PhiResolution:   opts.Resolution,
		})
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", name, err)
		}
		return scene.NewActor(name, scene.NewMapper(src)), nil
	}

	s := &Scene{}
	var err error
	if s.Body, err = sphere(TargetBody, mgl64.Vec3{0, 0, 0}, 2.0); err != nil {
		return nil, err
	}
	if s.Head, err = sphere(TargetHead, mgl64.Vec3{-4, 0, 0}, 1.5); err != nil {
		return nil, err
	}
	if s.LeftEye, err = sphere(TargetLeftEye, mgl64.Vec3{0.5, 3.5, 1.3}, 0.2); err != nil {
		return nil, err
	}
	if s.RightEye, err = sphere(TargetRightEye, mgl64.Vec3{-0.5, 3.5, 1.3}, 0.2); err != nil {
		return nil, err
	}

	cone, err := scene.NewConeSource(scene.ConeParams{
		Center:     mgl64.Vec3{4, 0, 0},
		Direction:  mgl64.Vec3{0, -1, 0},
		Height:     0.5,
		Radius:     0.1,
		Resolution: 20,
	})
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", TargetNose, err)
	}
	s.Nose = scene.NewActor(TargetNose, scene.NewMapper(cone))
	s.Nose.Property().SetColor(1, 0.5, 0)

	for _, eye := range []*scene.Actor{s.LeftEye, s.RightEye} {
		eye.Property().SetColor(0, 0, 0)
		eye.SetVisibility(false)
	}

	s.HeadLower = scene.NewTransform(TargetHeadLower)
	s.Head.SetUserTransform(s.HeadLower)
	s.NoseTranslate = scene.NewTransform(TargetNoseTranslate)
	s.Nose.SetUserTransform(s.NoseTranslate)

	s.Renderer = scene.NewRenderer()
	for _, a := range []*scene.Actor{s.Head, s.Body, s.Nose, s.LeftEye, s.RightEye} {
		s.Renderer.AddActor(a)
	}
	s.Renderer.SetBackgroundColor(opts.Background)

	s.Camera = s.Renderer.ActiveCamera()
	s.Camera.SetName(TargetCamera)
	s.Camera.SetFocalPoint(0, 0, 0)
	s.Camera.SetPosition(0, 0, 22)

	if s.Window, err = scene.NewRenderWindow(opts.Width, opts.Height); err != nil {
		return nil, fmt.Errorf("build window: %w", err)
	}
	s.Window.AddRenderer(s.Renderer)
	return s, nil
}

// Targets maps every timing-table target name to its object. "eyes" is a
// group of both eyes.
func (s *Scene) Targets() map[string]snowcam.Target {
	return map[string]snowcam.Target{
		TargetBody:          s.Body,
		TargetHead:          s.Head,
		TargetLeftEye:       s.LeftEye,
		TargetRightEye:      s.RightEye,
		TargetNose:          s.Nose,
		TargetHeadLower:     s.HeadLower,
		TargetNoseTranslate: s.NoseTranslate,
		TargetCamera:        s.Camera,
		TargetEyes:          snowcam.NewGroup(TargetEyes, s.LeftEye, s.RightEye),
	}
}

// Render redraws the window.
func (s *Scene) Render() error {
	return s.Window.Render()
}

// Frame returns the last rendered frame.
func (s *Scene) Frame() *image.RGBA {
	return s.Window.Frame()
}
