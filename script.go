package snowcam

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/teranos/snowcam/scene"
)

// scriptRuntime runs a compiled tengo snippet once per frame.
//
// The script sees the globals frame, frames and target (the target name)
// and can call rotate_x, rotate_y, rotate_z, translate, add_position,
// set_visible, roll, azimuth and elevation on the stage target. The math
// module is importable.
type scriptRuntime struct {
	compiled *tengo.Compiled
	target   Target
	frame    int
	err      error // first mutation failure of the current frame
}

// ScriptMutation compiles source into a Mutation. frames is exposed to the
// script so it can shape its deltas over the stage.
//
// Example:
//
//	m, err := snowcam.ScriptMutation(`rotate_z(frame < frames/2 ? -1 : 1)`, 90)
func ScriptMutation(source string, frames int) (Mutation, error) {
	rt := &scriptRuntime{}

	script := tengo.NewScript([]byte(source))
	script.SetImports(stdlib.GetModuleMap("math"))
	globals := map[string]interface{}{
		"frame":  0,
		"frames": frames,
		"target": "",
	}
	for name, fn := range rt.engine() {
		globals[name] = fn
	}
	for name, value := range globals {
		if err := script.Add(name, value); err != nil {
			return nil, fmt.Errorf("script global %s: %w", name, err)
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	rt.compiled = compiled
	return rt.run, nil
}

func (rt *scriptRuntime) run(target Target, frame int) error {
	rt.target = target
	rt.frame = frame
	rt.err = nil

	if err := rt.compiled.Set("frame", frame); err != nil {
		return err
	}
	if err := rt.compiled.Set("target", target.Name()); err != nil {
		return err
	}
	if err := rt.compiled.Run(); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	return rt.err
}

// do applies m to the current target. Failures are kept for the frame
// result and reported to the script as false.
func (rt *scriptRuntime) do(m Mutation) (tengo.Object, error) {
	if err := m(rt.target, rt.frame); err != nil {
		if rt.err == nil {
			rt.err = err
		}
		return tengo.FalseValue, nil
	}
	return tengo.TrueValue, nil
}

func (rt *scriptRuntime) engine() map[string]*tengo.UserFunction {
	fns := make(map[string]*tengo.UserFunction)

	degrees := func(name string, mutation func(float64) Mutation) {
		fns[name] = &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			v, ok := tengo.ToFloat64(args[0])
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "degrees", Expected: "float", Found: args[0].TypeName()}
			}
			return rt.do(mutation(v))
		}}
	}
	vector := func(name string, mutation func(x, y, z float64) Mutation) {
		fns[name] = &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 3 {
				return nil, tengo.ErrWrongNumArguments
			}
			var v [3]float64
			for i, arg := range args {
				f, ok := tengo.ToFloat64(arg)
				if !ok {
					return nil, tengo.ErrInvalidArgumentType{Name: "xyz"[i : i+1], Expected: "float", Found: arg.TypeName()}
				}
				v[i] = f
			}
			return rt.do(mutation(v[0], v[1], v[2]))
		}}
	}

	degrees("rotate_x", func(d float64) Mutation { return Rotate(scene.AxisX, d) })
	degrees("rotate_y", func(d float64) Mutation { return Rotate(scene.AxisY, d) })
	degrees("rotate_z", func(d float64) Mutation { return Rotate(scene.AxisZ, d) })
	degrees("roll", Roll)
	degrees("azimuth", Azimuth)
	degrees("elevation", Elevation)
	vector("translate", Translate)
	vector("add_position", AddPosition)

	fns["set_visible"] = &tengo.UserFunction{Name: "set_visible", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		return rt.do(SetVisibility(!args[0].IsFalsy()))
	}}

	return fns
}
