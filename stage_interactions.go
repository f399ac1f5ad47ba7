package snowcam

import (
	"fmt"

	"github.com/teranos/snowcam/scene"
)

// Rotator rotates about its own principal axes.
// Implemented by *scene.Actor and *scene.Transform.
type Rotator interface {
	Target
	RotateX(deg float64)
	RotateY(deg float64)
	RotateZ(deg float64)
}

// Translator accumulates translations. Implemented by *scene.Transform.
type Translator interface {
	Target
	Translate(x, y, z float64)
}

// Positioner offsets its position. Implemented by *scene.Actor.
type Positioner interface {
	Target
	AddPosition(x, y, z float64)
}

// Shower can be shown or hidden. Implemented by *scene.Actor.
type Shower interface {
	Target
	SetVisibility(visible bool)
	Visible() bool
}

// Orbiter is a camera. Implemented by *scene.Camera.
type Orbiter interface {
	Target
	Roll(deg float64)
	Azimuth(deg float64)
	Elevation(deg float64)
}

var (
	_ Rotator    = (*scene.Actor)(nil)
	_ Rotator    = (*scene.Transform)(nil)
	_ Translator = (*scene.Transform)(nil)
	_ Positioner = (*scene.Actor)(nil)
	_ Shower     = (*scene.Actor)(nil)
	_ Orbiter    = (*scene.Camera)(nil)
)

// apply runs fn on target, or on every member when target is a Group.
func apply(target Target, fn func(Target) error) error {
	if g, ok := target.(Group); ok {
		for _, member := range g.Members() {
			if err := apply(member, fn); err != nil {
				return err
			}
		}
		return nil
	}
	return fn(target)
}

func unsupported(target Target, capability string) error {
	return fmt.Errorf("%s cannot %s: %w", target.Name(), capability, ErrUnsupportedTarget)
}

// Supports reports whether target (or every member of a Group) can perform
// the named capability: "rotate", "translate", "position", "visibility" or
// "orbit".
func Supports(target Target, capability string) bool {
	err := apply(target, func(t Target) error {
		var ok bool
		switch capability {
		case "rotate":
			_, ok = t.(Rotator)
		case "translate":
			_, ok = t.(Translator)
		case "position":
			_, ok = t.(Positioner)
		case "visibility":
			_, ok = t.(Shower)
		case "orbit":
			_, ok = t.(Orbiter)
		}
		if !ok {
			return ErrUnsupportedTarget
		}
		return nil
	})
	return err == nil
}
