// Package snowcam plays scripted 3D animations one frame at a time.
//
// An animation is a Sequence of Stages. Each Stage names a target, a
// per-frame mutation, a frame count and a per-frame delay. The Director
// runs the stages strictly in order and triggers exactly one redraw per
// frame, so the timing table is data rather than control flow.
//
// Basic usage:
//
//	win, _ := scene.NewRenderWindow(500, 500)
//	// ... build actors, renderer, camera ...
//
//	seq := snowcam.Sequence{
//		snowcam.RotateStage("spin_head", head, scene.AxisZ, -1, 90, 30*time.Millisecond),
//		snowcam.VisibilityStage("reveal_eyes", eyes, true),
//	}
//
//	result, err := snowcam.NewDirector(win, snowcam.DefaultStageConfig()).
//		WithPacer(snowcam.NoDelay).
//		Run(ctx, seq)
//
// For filming frames to disk:
//
//	op := snowcam.NewOperator("film/", 10)
//	defer op.Close()
//	snowcam.NewDirector(win, config).WithObserver(op).Run(ctx, seq)
package snowcam

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/teranos/snowcam/trip"
)

var (
	ErrEmptySequence     = errors.New("sequence has no stages")
	ErrInvalidFrames     = errors.New("stage frame count must be at least 1")
	ErrNegativeDelay     = errors.New("stage delay must not be negative")
	ErrNoTarget          = errors.New("stage has no target")
	ErrNoMutation        = errors.New("stage has no mutation")
	ErrUnsupportedTarget = errors.New("target does not support mutation")
)

// Target is anything a stage can mutate: an actor, a transform handle,
// a camera or a Group of them. The name is used in logs and timing tables.
type Target interface {
	Name() string
}

// Mutation applies one incremental change to target. frame counts from 0
// within the stage.
type Mutation func(target Target, frame int) error

// Stage is one phase of an animation.
type Stage struct {
	Name   string
	Target Target
	Mutate Mutation
	Frames int           // at least 1
	Delay  time.Duration // paced before every frame; cosmetic
}

// Validate checks the stage invariants.
func (s Stage) Validate() error {
	switch {
	case s.Target == nil:
		return fmt.Errorf("stage %q: %w", s.Name, ErrNoTarget)
	case s.Mutate == nil:
		return fmt.Errorf("stage %q: %w", s.Name, ErrNoMutation)
	case s.Frames < 1:
		return fmt.Errorf("stage %q has %d frames: %w", s.Name, s.Frames, ErrInvalidFrames)
	case s.Delay < 0:
		return fmt.Errorf("stage %q has delay %v: %w", s.Name, s.Delay, ErrNegativeDelay)
	}
	return nil
}

// Sequence is the ordered list of stages for one run.
type Sequence []Stage

// Validate rejects empty sequences and invalid stages.
func (seq Sequence) Validate() error {
	if len(seq) == 0 {
		return ErrEmptySequence
	}
	for i, stage := range seq {
		if err := stage.Validate(); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return nil
}

// TotalFrames is the number of redraws a full run performs.
func (seq Sequence) TotalFrames() int {
	total := 0
	for _, stage := range seq {
		total += stage.Frames
	}
	return total
}

// Duration is the nominal run time: the sum of frames * delay.
func (seq Sequence) Duration() time.Duration {
	var d time.Duration
	for _, stage := range seq {
		d += time.Duration(stage.Frames) * stage.Delay
	}
	return d
}

// Group lets one stage mutate several targets in the same frame.
type Group struct {
	name    string
	members []Target
}

// NewGroup creates a named group.
func NewGroup(name string, members ...Target) Group {
	return Group{name: name, members: members}
}

func (g Group) Name() string { return g.name }

// Members returns the grouped targets in order.
func (g Group) Members() []Target { return g.members }

// StageAction records a single event of a run.
type StageAction struct {
	Timestamp time.Time
	Type      string      // "stage_start", "stage_end", "frame", "stumble", "fall"
	Details   interface{} // Specific action details
	Result    interface{} // Outcome of the action
}

// StageRecord summarizes one executed stage.
type StageRecord struct {
	Index    int
	Name     string
	Target   string
	Frames   int // frames actually executed
	Planned  int // frames in the stage definition
	Start    time.Time
	Duration time.Duration
}

// FrameInfo is passed to observers after every redraw.
type FrameInfo struct {
	Index       int    // frame index across the whole run
	TotalFrames int    // frames in the whole run
	StageIndex  int    // position of the stage in the sequence
	Stage       string // stage name
	Target      string // target name
	Frame       int    // frame index within the stage
	Frames      int    // frames in the stage
	Timestamp   time.Time

	// Image is the rendered frame when the redrawer can expose it and
	// frame capture is enabled. It is reused by the next redraw.
	Image *image.RGBA
}

// StageResult contains the complete results of a run.
//
// Example usage:
//
//	result, err := director.Run(ctx, seq)
//	if err != nil {
//		log.Printf("take failed after %d frames: %s", result.Redraws, result.ErrorMessage)
//		log.Print(result.TripReport)
//	}
type StageResult struct {
	Name         string        // take name from the config
	Stages       []StageRecord // executed stages in order
	Actions      []StageAction // run log
	TotalFrames  int           // frames the sequence defines
	Redraws      int           // redraws actually performed
	Success      bool          // whether the run completed without falls
	Cancelled    bool          // whether the context ended the run
	Duration     time.Duration // wall time of the run
	ErrorMessage string        // human-readable error description
	Error        error         // structured error for programmatic handling
	ErrorDetails string        // detailed technical error information
	TripReport   string        // trip handler report
}

// newStageTrip creates a new trip for run errors
func newStageTrip(errorType, message string, context map[string]interface{}) *trip.Trip {
	tripContext := make(trip.Context)
	for k, v := range context {
		tripContext[k] = v
	}
	return trip.NewTrip(errorType, message, tripContext)
}

// StageConfig configures the behavior of the Director.
//
// Example usage:
//
//	config := snowcam.StageConfig{
//		Name:          "snowman",
//		Timeout:       2 * time.Minute,
//		CaptureFrames: true,  // observers receive FrameInfo.Image
//		RecordFrames:  false, // keep the action log to stage boundaries
//	}
type StageConfig struct {
	// Name identifies the take in logs and reports
	Name string
	// Timeout bounds the whole run (0 = no limit)
	Timeout time.Duration
	// CaptureFrames hands the rendered image to observers
	CaptureFrames bool
	// RecordFrames adds one action per frame to the run log
	RecordFrames bool
}

// DefaultStageConfig returns a StageConfig with sensible defaults.
//
// The default configuration provides:
//   - no run timeout
//   - frame capture enabled
//   - stage-level action log only
func DefaultStageConfig() StageConfig {
	return StageConfig{
		Name:          "take",
		CaptureFrames: true,
	}
}
