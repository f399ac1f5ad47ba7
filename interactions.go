package snowcam

import (
	"fmt"
	"time"

	"github.com/teranos/snowcam/scene"
)

// Rotate returns a mutation rotating the target deg degrees about axis
// every frame.
//
// Example:
//
//	head := snowcam.Stage{Name: "spin", Target: headActor,
//		Mutate: snowcam.Rotate(scene.AxisZ, -1), Frames: 90}
func Rotate(axis scene.Axis, deg float64) Mutation {
	return func(target Target, _ int) error {
		if !axis.Valid() {
			return fmt.Errorf("rotate about axis %d: %w", int(axis), scene.ErrInvalidAxis)
		}
		return apply(target, func(t Target) error {
			r, ok := t.(Rotator)
			if !ok {
				return unsupported(t, "rotate")
			}
			switch axis {
			case scene.AxisX:
				r.RotateX(deg)
			case scene.AxisY:
				r.RotateY(deg)
			case scene.AxisZ:
				r.RotateZ(deg)
			}
			return nil
		})
	}
}

// Translate returns a mutation appending a translation to a transform handle
// every frame.
func Translate(x, y, z float64) Mutation {
	return func(target Target, _ int) error {
		return apply(target, func(t Target) error {
			tr, ok := t.(Translator)
			if !ok {
				return unsupported(t, "translate")
			}
			tr.Translate(x, y, z)
			return nil
		})
	}
}

// AddPosition returns a mutation offsetting an actor's position every frame.
func AddPosition(x, y, z float64) Mutation {
	return func(target Target, _ int) error {
		return apply(target, func(t Target) error {
			p, ok := t.(Positioner)
			if !ok {
				return unsupported(t, "change position")
			}
			p.AddPosition(x, y, z)
			return nil
		})
	}
}

// SetVisibility returns a mutation showing or hiding the target.
// Setting the current value again leaves the target unchanged.
func SetVisibility(visible bool) Mutation {
	return func(target Target, _ int) error {
		return apply(target, func(t Target) error {
			s, ok := t.(Shower)
			if !ok {
				return unsupported(t, "change visibility")
			}
			s.SetVisibility(visible)
			return nil
		})
	}
}

// Roll returns a mutation rolling a camera deg degrees every frame.
func Roll(deg float64) Mutation {
	return orbit("roll", deg, Orbiter.Roll)
}

// Azimuth returns a mutation orbiting a camera deg degrees about view-up
// every frame.
func Azimuth(deg float64) Mutation {
	return orbit("azimuth", deg, Orbiter.Azimuth)
}

// Elevation returns a mutation raising a camera deg degrees every frame.
func Elevation(deg float64) Mutation {
	return orbit("elevate", deg, Orbiter.Elevation)
}

func orbit(capability string, deg float64, move func(Orbiter, float64)) Mutation {
	return func(target Target, _ int) error {
		return apply(target, func(t Target) error {
			o, ok := t.(Orbiter)
			if !ok {
				return unsupported(t, capability)
			}
			move(o, deg)
			return nil
		})
	}
}

// Compose runs several mutations in order within one frame. The first
// error stops the frame.
func Compose(mutations ...Mutation) Mutation {
	return func(target Target, frame int) error {
		for _, m := range mutations {
			if err := m(target, frame); err != nil {
				return err
			}
		}
		return nil
	}
}

// RotateStage builds a stage rotating target about axis by deg per frame.
func RotateStage(name string, target Rotator, axis scene.Axis, deg float64, frames int, delay time.Duration) Stage {
	return Stage{Name: name, Target: target, Mutate: Rotate(axis, deg), Frames: frames, Delay: delay}
}

// TranslateStage builds a stage translating a transform handle per frame.
func TranslateStage(name string, target Translator, x, y, z float64, frames int, delay time.Duration) Stage {
	return Stage{Name: name, Target: target, Mutate: Translate(x, y, z), Frames: frames, Delay: delay}
}

// AddPositionStage builds a stage moving an actor per frame.
func AddPositionStage(name string, target Positioner, x, y, z float64, frames int, delay time.Duration) Stage {
	return Stage{Name: name, Target: target, Mutate: AddPosition(x, y, z), Frames: frames, Delay: delay}
}

// VisibilityStage builds a single-frame stage showing or hiding target.
// target may be a Group.
func VisibilityStage(name string, target Target, visible bool) Stage {
	return Stage{Name: name, Target: target, Mutate: SetVisibility(visible), Frames: 1}
}

// RollStage builds a camera roll stage.
func RollStage(name string, camera Orbiter, deg float64, frames int, delay time.Duration) Stage {
	return Stage{Name: name, Target: camera, Mutate: Roll(deg), Frames: frames, Delay: delay}
}

// AzimuthStage builds a camera azimuth stage.
func AzimuthStage(name string, camera Orbiter, deg float64, frames int, delay time.Duration) Stage {
	return Stage{Name: name, Target: camera, Mutate: Azimuth(deg), Frames: frames, Delay: delay}
}

// ElevationStage builds a camera elevation stage.
func ElevationStage(name string, camera Orbiter, deg float64, frames int, delay time.Duration) Stage {
	return Stage{Name: name, Target: camera, Mutate: Elevation(deg), Frames: frames, Delay: delay}
}
