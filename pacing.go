package snowcam

import (
	"context"
	"fmt"
	"time"
)

// Pacer blocks before every frame. Pacing only makes the animation
// watchable; it never affects the resulting scene state.
//
// Wait must return ctx.Err() once ctx is done so a cancelled run stops
// between frames.
type Pacer interface {
	Wait(ctx context.Context, delay time.Duration) error
}

// SleepPacer waits for each stage's delay, scaled by TimeScale.
// A zero TimeScale means real time.
type SleepPacer struct {
	TimeScale float64
}

func (p SleepPacer) Wait(ctx context.Context, delay time.Duration) error {
	if p.TimeScale > 0 {
		delay = time.Duration(float64(delay) * p.TimeScale)
	}
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ClockPacer paces frames at a fixed rate and ignores per-stage delays.
// When the caller falls behind by more than one interval the clock
// re-anchors instead of bursting to catch up.
type ClockPacer struct {
	interval time.Duration
	next     time.Time
	now      func() time.Time
}

// NewClockPacer returns a pacer producing fps frames per second.
func NewClockPacer(fps float64) (*ClockPacer, error) {
	if !(fps > 0) {
		return nil, fmt.Errorf("clock pacer needs a positive frame rate, got %v", fps)
	}
	return &ClockPacer{
		interval: time.Duration(float64(time.Second) / fps),
		now:      time.Now,
	}, nil
}

// Interval returns the time between frames.
func (p *ClockPacer) Interval() time.Duration {
	return p.interval
}

func (p *ClockPacer) Wait(ctx context.Context, _ time.Duration) error {
	now := p.now()
	if p.next.IsZero() || now.Sub(p.next) > p.interval {
		p.next = now
	}
	wait := p.next.Sub(now)
	p.next = p.next.Add(p.interval)

	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type noDelay struct{}

func (noDelay) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// NoDelay runs frames back to back. Used by tests and filming.
var NoDelay Pacer = noDelay{}

// Pacing modes accepted by PacerFor.
const (
	PacingSleep = "sleep"
	PacingClock = "clock"
	PacingNone  = "none"
)

// PacingConfig selects a pacer from configuration.
type PacingConfig struct {
	Mode      string  `yaml:"mode"`       // sleep, clock or none
	TimeScale float64 `yaml:"time_scale"` // sleep mode multiplier
	FPS       float64 `yaml:"fps"`        // clock mode rate
}

// PacerFor builds the pacer cfg describes. An empty mode means sleep.
func PacerFor(cfg PacingConfig) (Pacer, error) {
	switch cfg.Mode {
	case "", PacingSleep:
		if cfg.TimeScale < 0 {
			return nil, fmt.Errorf("pacing time_scale must not be negative, got %v", cfg.TimeScale)
		}
		return SleepPacer{TimeScale: cfg.TimeScale}, nil
	case PacingClock:
		return NewClockPacer(cfg.FPS)
	case PacingNone:
		return NoDelay, nil
	default:
		return nil, fmt.Errorf("unknown pacing mode %q", cfg.Mode)
	}
}
