package snowcam

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teranos/snowcam/trip"
)

// reset prepares the director for a fresh run.
func (d *Director) reset() {
	d.tripHandler = trip.NewHandler(d.config.Name, d.policy)
	d.lastTrip = nil
	d.failed = false
	d.cancelled = false
	d.actions = make([]StageAction, 0)
	d.stages = make([]StageRecord, 0)
	d.stageIndex = 0
	d.frameIndex = 0
	d.redraws = 0
}

// recordTrip stores a trip; anything worse than a stumble fails the run.
func (d *Director) recordTrip(t *trip.Trip) {
	d.tripHandler.Record(t)
	if t.Severity == trip.Stumble {
		d.logger.Printf("⚠️ Stumble: %s", t.Error())
		d.recordAction("stumble", t.Message, t.Error())
		return
	}
	d.lastTrip = t
	d.failed = true
	d.recordAction(t.Severity.String(), t.Message, t.Error())
}

// recordAction appends to the run log.
func (d *Director) recordAction(actionType string, details, result interface{}) {
	d.actions = append(d.actions, StageAction{
		Timestamp: time.Now(),
		Type:      actionType,
		Details:   details,
		Result:    result,
	})
}

// handleMutationFailure implements fail-fast handling for mutation errors and panics
func (d *Director) handleMutationFailure(stage Stage, frame int, err error) {
	message := "mutation failed"
	if _, ok := err.(*mutationPanic); ok {
		message = "mutation panicked"
	}
	d.logger.Printf("🚨 FAIL-FAST: %s in stage %s frame %d: %v", message, stage.Name, frame, err)

	d.recordTrip(trip.NewFall(trip.TypeMutation, message, trip.Context{
		trip.KeyStage: stage.Name,
		"target":      stage.Target.Name(),
		trip.KeyFrame: frame,
	}).WithCause(err))

	d.logger.Printf("🛑 FAIL-FAST: director stopped after %d redraws", d.redraws)
}

// handleRedrawFailure implements fail-fast handling for redraw errors
func (d *Director) handleRedrawFailure(stage Stage, frame int, err error) {
	d.logger.Printf("🚨 FAIL-FAST: redraw failed in stage %s frame %d: %v", stage.Name, frame, err)

	d.recordTrip(trip.NewFall(trip.TypeRender, "redraw failed", trip.Context{
		trip.KeyStage: stage.Name,
		trip.KeyFrame: frame,
		"redraws":     d.redraws,
	}).WithCause(err))

	d.logger.Printf("🛑 FAIL-FAST: director stopped after %d redraws", d.redraws)
}

// handleInterrupted stops the run when pacing is cut short.
func (d *Director) handleInterrupted(stage Stage, frame int, err error) {
	message := "pacing failed"
	if isCancellation(err) {
		d.cancelled = true
		message = "run cancelled"
	}
	d.logger.Printf("✂️ %s: stage %s frame %d: %v", message, stage.Name, frame, err)

	d.recordTrip(trip.NewFall(trip.TypeTiming, message, trip.Context{
		trip.KeyStage: stage.Name,
		trip.KeyFrame: frame,
	}).WithCause(err))
}

// handleStumbleLimit stops the run once observers have failed too often.
func (d *Director) handleStumbleLimit(stage Stage, frame int) {
	stumbles := len(d.tripHandler.GetStumbles())
	d.logger.Printf("🛑 Too many stumbles (%d), stopping at stage %s frame %d", stumbles, stage.Name, frame)

	d.recordTrip(trip.NewFall(trip.TypeVisual, "stumble limit exceeded", trip.Context{
		trip.KeyStage: stage.Name,
		trip.KeyFrame: frame,
		"stumbles":    stumbles,
	}))
}

// finish builds the result and notifies finishers.
func (d *Director) finish(start time.Time, seq Sequence) (*StageResult, error) {
	result := &StageResult{
		Name:         d.config.Name,
		Stages:       d.stages,
		Actions:      d.actions,
		TotalFrames:  seq.TotalFrames(),
		Redraws:      d.redraws,
		Success:      !d.failed && d.lastTrip == nil,
		Cancelled:    d.cancelled,
		Duration:     time.Since(start),
		ErrorMessage: d.getErrorMessage(),
		ErrorDetails: d.getErrorDetails(),
	}
	if d.tripHandler.HasTrips() || d.tripHandler.HasStumbles() {
		result.TripReport = d.tripHandler.DetailedReport()
	}

	var err error
	if d.lastTrip != nil {
		result.Error = d.lastTrip
		err = d.lastTrip
	}

	for _, obs := range d.observers {
		if f, ok := obs.(Finisher); ok {
			f.OnFinish(result)
		}
	}
	return result, err
}

// getErrorMessage returns a human-readable error message
func (d *Director) getErrorMessage() string {
	if d.lastTrip == nil {
		return ""
	}
	msg := fmt.Sprintf("[%s] %s", strings.ToLower(d.lastTrip.Type), d.lastTrip.Message)
	if d.lastTrip.Cause != nil {
		msg += ": " + d.lastTrip.Cause.Error()
	}
	return msg
}

// getErrorDetails returns the technical description of the last trip
func (d *Director) getErrorDetails() string {
	if d.lastTrip == nil {
		return ""
	}

	var details strings.Builder
	details.WriteString(fmt.Sprintf("Trip Type: %s\n", d.lastTrip.Type))
	details.WriteString(fmt.Sprintf("Error: %s\n", d.lastTrip.Message))
	details.WriteString(fmt.Sprintf("Timestamp: %s\n", d.lastTrip.Timestamp.Format(time.RFC3339)))
	details.WriteString(fmt.Sprintf("Position: stage %d frame %d\n", d.stageIndex, d.frameIndex))

	if len(d.lastTrip.Context) > 0 {
		keys := make([]string, 0, len(d.lastTrip.Context))
		for key := range d.lastTrip.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		details.WriteString("Context:\n")
		for _, key := range keys {
			details.WriteString(fmt.Sprintf("  %s: %v\n", key, d.lastTrip.Context[key]))
		}
	}

	if stumbles := d.tripHandler.GetStumbles(); len(stumbles) > 0 {
		details.WriteString(fmt.Sprintf("\nStumbles before failure: %d\n", len(stumbles)))
	}
	return details.String()
}
