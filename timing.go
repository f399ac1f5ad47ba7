package snowcam

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teranos/snowcam/scene"
	"github.com/teranos/snowcam/trip"
)

// Step operations understood by the timing table compiler.
const (
	OpRotateX       = "rotate_x"
	OpRotateY       = "rotate_y"
	OpRotateZ       = "rotate_z"
	OpTranslate     = "translate"
	OpAddPosition   = "add_position"
	OpSetVisibility = "set_visibility"
	OpRoll          = "roll"
	OpAzimuth       = "azimuth"
	OpElevation     = "elevation"
	OpScript        = "script"
)

// TimingTable is the data form of a Sequence.
//
//	stages:
//	  - name: rotate_head_over_body
//	    target: head
//	    frames: 90
//	    delay: 30ms
//	    steps:
//	      - {op: rotate_z, degrees: -1}
//	  - name: reveal_eyes
//	    targets: [left_eye, right_eye]
//	    frames: 1
//	    steps:
//	      - {op: set_visibility, visible: true}
type TimingTable struct {
	Stages []StageSpec `yaml:"stages"`
}

// StageSpec describes one stage. Exactly one of Target and Targets is set.
type StageSpec struct {
	Name    string        `yaml:"name"`
	Target  string        `yaml:"target,omitempty"`
	Targets []string      `yaml:"targets,omitempty,flow"`
	Frames  int           `yaml:"frames"`
	Delay   time.Duration `yaml:"delay,omitempty"`
	Steps   []StepSpec    `yaml:"steps"`
}

// StepSpec is one per-frame operation. Steps of a stage run in order
// within every frame.
type StepSpec struct {
	Op      string    `yaml:"op"`
	Degrees *float64  `yaml:"degrees,omitempty"`
	Offset  []float64 `yaml:"offset,omitempty,flow"`
	Visible *bool     `yaml:"visible,omitempty"`
	Source  string    `yaml:"source,omitempty"`
	File    string    `yaml:"file,omitempty"` // script file, relative to the table
}

// LoadTimingTable decodes a timing table. Unknown fields are rejected.
func LoadTimingTable(r io.Reader) (*TimingTable, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var table TimingTable
	if err := decoder.Decode(&table); err != nil {
		return nil, trip.NewTrip(trip.TypeConfig, "invalid timing table", nil).WithCause(err)
	}
	return &table, nil
}

// ReadTimingFile loads a timing table from path.
func ReadTimingFile(path string) (*TimingTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open timing table: %w", err)
	}
	defer f.Close()

	table, err := LoadTimingTable(f)
	if err != nil {
		if t, ok := err.(*trip.Trip); ok {
			t.Context = trip.Context{"path": path}
		}
		return nil, err
	}
	if err := table.loadScripts(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return table, nil
}

// loadScripts reads the source of script steps that name a file.
func (tt *TimingTable) loadScripts(dir string) error {
	for i := range tt.Stages {
		for j := range tt.Stages[i].Steps {
			step := &tt.Stages[i].Steps[j]
			if step.File == "" || step.Source != "" {
				continue
			}
			path := step.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return configTrip(i, tt.Stages[i].Name, fmt.Errorf("step %d: %w", j, err))
			}
			step.Source = string(b)
		}
	}
	return nil
}

// Write encodes the table as YAML.
func (tt *TimingTable) Write(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(tt); err != nil {
		return err
	}
	return encoder.Close()
}

// TotalFrames is the number of redraws the table describes.
func (tt *TimingTable) TotalFrames() int {
	total := 0
	for _, s := range tt.Stages {
		total += s.Frames
	}
	return total
}

// Compile resolves target names against targets and builds the Sequence.
// Errors are *trip.Trip values of type config naming the offending stage.
func (tt *TimingTable) Compile(targets map[string]Target) (Sequence, error) {
	if len(tt.Stages) == 0 {
		return nil, trip.NewTrip(trip.TypeConfig, "timing table has no stages", nil).WithCause(ErrEmptySequence)
	}

	seq := make(Sequence, 0, len(tt.Stages))
	for i, spec := range tt.Stages {
		stage, err := spec.compile(targets)
		if err != nil {
			return nil, configTrip(i, spec.Name, err)
		}
		seq = append(seq, stage)
	}
	return seq, nil
}

func configTrip(index int, name string, cause error) *trip.Trip {
	return trip.NewTrip(trip.TypeConfig, fmt.Sprintf("stage %d (%s) is invalid", index, name), trip.Context{
		trip.KeyStage: name,
		"index":       index,
	}).WithCause(cause)
}

func (spec StageSpec) compile(targets map[string]Target) (Stage, error) {
	target, err := spec.resolveTarget(targets)
	if err != nil {
		return Stage{}, err
	}
	if len(spec.Steps) == 0 {
		return Stage{}, fmt.Errorf("no steps: %w", ErrNoMutation)
	}

	mutations := make([]Mutation, 0, len(spec.Steps))
	for j, step := range spec.Steps {
		m, err := step.compile(target, spec.Frames)
		if err != nil {
			return Stage{}, fmt.Errorf("step %d (%s): %w", j, step.Op, err)
		}
		mutations = append(mutations, m)
	}

	mutate := mutations[0]
	if len(mutations) > 1 {
		mutate = Compose(mutations...)
	}

	stage := Stage{
		Name:   spec.Name,
		Target: target,
		Mutate: mutate,
		Frames: spec.Frames,
		Delay:  spec.Delay,
	}
	return stage, stage.Validate()
}

func (spec StageSpec) resolveTarget(targets map[string]Target) (Target, error) {
	lookup := func(name string) (Target, error) {
		t, ok := targets[name]
		if !ok || t == nil {
			return nil, fmt.Errorf("unknown target %q: %w", name, ErrNoTarget)
		}
		return t, nil
	}

	switch {
	case spec.Target != "" && len(spec.Targets) > 0:
		return nil, fmt.Errorf("both target and targets are set")
	case spec.Target != "":
		return lookup(spec.Target)
	case len(spec.Targets) > 0:
		members := make([]Target, 0, len(spec.Targets))
		for _, name := range spec.Targets {
			t, err := lookup(name)
			if err != nil {
				return nil, err
			}
			members = append(members, t)
		}
		return NewGroup(spec.Name, members...), nil
	default:
		return nil, ErrNoTarget
	}
}

func (step StepSpec) compile(target Target, frames int) (Mutation, error) {
	need := func(capability string) error {
		if !Supports(target, capability) {
			return unsupported(target, capability)
		}
		return nil
	}
	degrees := func() (float64, error) {
		if step.Degrees == nil {
			return 0, fmt.Errorf("%s needs degrees", step.Op)
		}
		return *step.Degrees, nil
	}
	offset := func() (x, y, z float64, err error) {
		if len(step.Offset) != 3 {
			return 0, 0, 0, fmt.Errorf("offset needs 3 components, got %d", len(step.Offset))
		}
		return step.Offset[0], step.Offset[1], step.Offset[2], nil
	}

	switch step.Op {
	case OpRotateX, OpRotateY, OpRotateZ:
		if err := need("rotate"); err != nil {
			return nil, err
		}
		deg, err := degrees()
		if err != nil {
			return nil, err
		}
		axis := map[string]scene.Axis{OpRotateX: scene.AxisX, OpRotateY: scene.AxisY, OpRotateZ: scene.AxisZ}[step.Op]
		return Rotate(axis, deg), nil

	case OpTranslate:
		if err := need("translate"); err != nil {
			return nil, err
		}
		x, y, z, err := offset()
		if err != nil {
			return nil, err
		}
		return Translate(x, y, z), nil

	case OpAddPosition:
		if err := need("position"); err != nil {
			return nil, err
		}
		x, y, z, err := offset()
		if err != nil {
			return nil, err
		}
		return AddPosition(x, y, z), nil

	case OpSetVisibility:
		if err := need("visibility"); err != nil {
			return nil, err
		}
		if step.Visible == nil {
			return nil, fmt.Errorf("set_visibility needs visible")
		}
		return SetVisibility(*step.Visible), nil

	case OpRoll, OpAzimuth, OpElevation:
		if err := need("orbit"); err != nil {
			return nil, err
		}
		deg, err := degrees()
		if err != nil {
			return nil, err
		}
		switch step.Op {
		case OpRoll:
			return Roll(deg), nil
		case OpAzimuth:
			return Azimuth(deg), nil
		default:
			return Elevation(deg), nil
		}

	case OpScript:
		if step.Source == "" {
			return nil, fmt.Errorf("script needs source or file")
		}
		return ScriptMutation(step.Source, frames)

	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

// Bool returns a pointer to v, for building StepSpec.Visible in code.
func Bool(v bool) *bool {
	return &v
}

// Degrees returns a pointer to v, for building StepSpec.Degrees in code.
func Degrees(v float64) *float64 {
	return &v
}
