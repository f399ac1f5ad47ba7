package snowcam

import (
	"io"
	"log"

	"github.com/teranos/snowcam/trip"
)

// NewDirector creates a Director that redraws through redraw.
//
// The director starts with real-time pacing, no observers, a silent logger
// and the default trip policy.
//
// Example:
//
//	director := NewDirector(window, DefaultStageConfig()).
//		WithPacer(SleepPacer{TimeScale: 0.5}).
//		WithObserver(operator).
//		WithLogger(log.Default())
func NewDirector(redraw Redrawer, config StageConfig) *Director {
	d := &Director{
		redraw: redraw,
		pacer:  SleepPacer{},
		logger: log.New(io.Discard, "", 0),
		policy: trip.DefaultPolicy(),
		config: config,
	}
	d.reset()
	return d
}

// WithPacer replaces the pacing strategy. A nil pacer disables pacing.
func (d *Director) WithPacer(p Pacer) *Director {
	if p == nil {
		p = NoDelay
	}
	d.pacer = p
	return d
}

// WithObserver adds an observer; observers are notified in insertion order.
func (d *Director) WithObserver(obs Observer) *Director {
	if obs != nil {
		d.observers = append(d.observers, obs)
	}
	return d
}

// WithLogger sets the logger for stage boundaries and failures.
func (d *Director) WithLogger(logger *log.Logger) *Director {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// WithTripPolicy sets how stumbles and falls are tolerated.
func (d *Director) WithTripPolicy(policy *trip.Policy) *Director {
	if policy != nil {
		d.policy = policy
	}
	return d
}

// WithConfig replaces the configuration.
func (d *Director) WithConfig(config StageConfig) *Director {
	d.config = config
	return d
}

// Config returns the current configuration.
func (d *Director) Config() StageConfig {
	return d.config
}

// Position returns the stage and frame index the last run reached.
func (d *Director) Position() (stage, frame int) {
	return d.stageIndex, d.frameIndex
}

// Redraws returns the number of redraws performed by the last run.
func (d *Director) Redraws() int {
	return d.redraws
}

// TripHandler exposes the trips recorded by the last run.
func (d *Director) TripHandler() *trip.Handler {
	return d.tripHandler
}
