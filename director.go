package snowcam

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/teranos/snowcam/trip"
)

// Redrawer presents the current scene state. It is called exactly once per
// frame; a failing redraw ends the run.
type Redrawer interface {
	Render() error
}

// RedrawFunc adapts a function to Redrawer.
type RedrawFunc func() error

func (f RedrawFunc) Render() error { return f() }

// Framer is implemented by redrawers that can expose the frame they drew.
type Framer interface {
	Frame() *image.RGBA
}

// Observer is notified after every redraw. Returned errors are recorded as
// stumbles and do not stop the run unless the trip policy's stumble limit
// is exceeded.
type Observer interface {
	OnFrame(info FrameInfo) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(info FrameInfo) error

func (f ObserverFunc) OnFrame(info FrameInfo) error { return f(info) }

// StageObserver is optionally implemented by observers that care about
// stage boundaries.
type StageObserver interface {
	OnStageStart(index int, stage Stage)
	OnStageEnd(record StageRecord)
}

// Finisher is optionally implemented by observers that need the final result.
type Finisher interface {
	OnFinish(result *StageResult)
}

// Director runs a Sequence against a Redrawer.
//
// Stages and frames execute one at a time on the calling goroutine: pace,
// mutate, redraw, notify. The director is the only writer of scene state
// and the redrawer its only reader, strictly alternating, so no locking is
// involved. Observers that hand frames to other goroutines must copy them.
//
// A Director may be reused for several runs, but not concurrently.
type Director struct {
	redraw    Redrawer
	pacer     Pacer
	observers []Observer
	logger    *log.Logger
	policy    *trip.Policy

	// Run state, reset by every Run
	tripHandler *trip.Handler
	lastTrip    *trip.Trip
	failed      bool
	cancelled   bool
	actions     []StageAction
	stages      []StageRecord
	stageIndex  int
	frameIndex  int
	redraws     int

	config StageConfig
}

// Run executes seq front to back.
//
// For each stage, for each frame in 0..Frames-1 it waits on the pacer,
// applies the mutation, redraws and notifies observers. A failing or
// panicking mutation and a failing redraw are falls: the run stops at once
// and the returned error is a *trip.Trip wrapping the cause. Context
// cancellation stops the run between frames.
//
// The result is never nil.
func (d *Director) Run(ctx context.Context, seq Sequence) (*StageResult, error) {
	d.reset()
	start := time.Now()

	if err := seq.Validate(); err != nil {
		d.recordTrip(newStageTrip(trip.TypeConfig, err.Error(), map[string]interface{}{
			"stages": len(seq),
		}).WithCause(err))
		return d.finish(start, seq)
	}

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	total := seq.TotalFrames()
	d.logger.Printf("🎬 Action: %s (%d stages, %d frames, nominal %v)", d.config.Name, len(seq), total, seq.Duration())

	index := 0
	for i, stage := range seq {
		d.stageIndex = i
		record := d.beginStage(i, stage)

		for frame := 0; frame < stage.Frames; frame++ {
			d.frameIndex = frame

			if err := d.pacer.Wait(ctx, stage.Delay); err != nil {
				d.handleInterrupted(stage, frame, err)
				d.endStage(&record, frame)
				return d.finish(start, seq)
			}

			if err := d.mutate(stage, frame); err != nil {
				d.handleMutationFailure(stage, frame, err)
				d.endStage(&record, frame)
				return d.finish(start, seq)
			}

			if err := d.redraw.Render(); err != nil {
				d.handleRedrawFailure(stage, frame, err)
				d.endStage(&record, frame)
				return d.finish(start, seq)
			}
			d.redraws++

			info := FrameInfo{
				Index:       index,
				TotalFrames: total,
				StageIndex:  i,
				Stage:       stage.Name,
				Target:      stage.Target.Name(),
				Frame:       frame,
				Frames:      stage.Frames,
				Timestamp:   time.Now(),
			}
			if d.config.CaptureFrames {
				if f, ok := d.redraw.(Framer); ok {
					info.Image = f.Frame()
				}
			}
			if d.config.RecordFrames {
				d.recordAction("frame", fmt.Sprintf("%s[%d]", stage.Name, frame), "success")
			}

			d.notify(info)
			if !d.tripHandler.ShouldContinue() {
				d.handleStumbleLimit(stage, frame)
				d.endStage(&record, frame+1)
				return d.finish(start, seq)
			}
			index++
		}

		d.endStage(&record, stage.Frames)
	}

	d.logger.Printf("🎞️ Cut: %s (%d redraws in %v)", d.config.Name, d.redraws, time.Since(start).Round(time.Millisecond))
	return d.finish(start, seq)
}

// mutate applies one frame's mutation, converting panics into errors.
func (d *Director) mutate(stage Stage, frame int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &mutationPanic{value: r}
		}
	}()
	return stage.Mutate(stage.Target, frame)
}

// mutationPanic carries a recovered panic value.
type mutationPanic struct {
	value interface{}
}

func (p *mutationPanic) Error() string {
	return fmt.Sprintf("mutation panicked: %v", p.value)
}

// notify delivers a frame to every observer, recording failures as stumbles.
func (d *Director) notify(info FrameInfo) {
	for _, obs := range d.observers {
		if err := d.safeObserve(obs, info); err != nil {
			d.recordTrip(trip.NewStumble(trip.TypeVisual, "observer failed", trip.Context{
				trip.KeyStage: info.Stage,
				trip.KeyFrame: info.Frame,
				"observer":    fmt.Sprintf("%T", obs),
			}).WithCause(err))
		}
	}
}

func (d *Director) safeObserve(obs Observer, info FrameInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panicked: %v", r)
		}
	}()
	return obs.OnFrame(info)
}

func (d *Director) beginStage(i int, stage Stage) StageRecord {
	d.logger.Printf("▶️ Stage %d/%s: %s x%d @ %v", i+1, stage.Name, stage.Target.Name(), stage.Frames, stage.Delay)
	d.recordAction("stage_start", stage.Name, stage.Target.Name())
	for _, obs := range d.observers {
		if so, ok := obs.(StageObserver); ok {
			so.OnStageStart(i, stage)
		}
	}
	return StageRecord{
		Index:   i,
		Name:    stage.Name,
		Target:  stage.Target.Name(),
		Planned: stage.Frames,
		Start:   time.Now(),
	}
}

func (d *Director) endStage(record *StageRecord, frames int) {
	record.Frames = frames
	record.Duration = time.Since(record.Start)
	d.stages = append(d.stages, *record)
	d.recordAction("stage_end", record.Name, frames)
	for _, obs := range d.observers {
		if so, ok := obs.(StageObserver); ok {
			so.OnStageEnd(*record)
		}
	}
}

// isCancellation reports whether err came from the run context.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
