// Package trip classifies what goes wrong during a take.
//
// A take either stumbles (a frame could not be filmed, streamed or shown;
// the animation itself is fine) or falls (a mutation or redraw failed and
// the scene can no longer be trusted). Configuration problems are plain
// errors found before the first frame.
package trip

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Trip types.
const (
	TypeConfig   = "config"   // timing table or config file
	TypeMutation = "mutation" // a stage mutation failed or panicked
	TypeRender   = "render"   // the redraw failed
	TypeVisual   = "visual"   // filming, streaming or display
	TypeTiming   = "timing"   // pacing interrupted
)

// Context keys the director fills in for every trip it records.
const (
	KeyStage = "stage"
	KeyFrame = "frame"
)

// Context carries where and why a trip happened.
type Context map[string]interface{}

// Severity says what a trip does to the take.
type Severity int

const (
	// Stumble is recorded and the take keeps rolling.
	Stumble Severity = iota
	// Error stops a take from starting.
	Error
	// Fall ends the take at the current frame.
	Fall
)

func (s Severity) String() string {
	switch s {
	case Stumble:
		return "stumble"
	case Error:
		return "error"
	case Fall:
		return "fall"
	}
	return "unknown"
}

// Trip is an error with a type, a severity and the position in the take
// it happened at.
//
//	return trip.NewFall(trip.TypeRender, "redraw failed",
//		trip.Context{trip.KeyStage: "lower_head", trip.KeyFrame: 12}).WithCause(err)
type Trip struct {
	Type      string
	Message   string
	Context   Context
	Timestamp time.Time
	Severity  Severity
	Cause     error
}

// NewTrip returns a trip of Error severity.
func NewTrip(errorType, message string, context Context) *Trip {
	return &Trip{
		Type:      errorType,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
		Severity:  Error,
	}
}

func NewStumble(errorType, message string, context Context) *Trip {
	return NewTrip(errorType, message, context).WithSeverity(Stumble)
}

func NewFall(errorType, message string, context Context) *Trip {
	return NewTrip(errorType, message, context).WithSeverity(Fall)
}

func (t *Trip) WithSeverity(severity Severity) *Trip {
	t.Severity = severity
	return t
}

func (t *Trip) WithCause(cause error) *Trip {
	t.Cause = cause
	return t
}

func (t *Trip) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", t.Type, t.Severity, t.Message)
	if t.Cause != nil {
		msg += ": " + t.Cause.Error()
	}
	return msg
}

func (t *Trip) Unwrap() error {
	return t.Cause
}

// CanRecover reports whether the take can continue past this trip.
func (t *Trip) CanRecover() bool {
	return t.Severity == Stumble
}

func (t *Trip) IsFall() bool {
	return t.Severity == Fall
}

// GetContext returns one context value.
func (t *Trip) GetContext(key string) (interface{}, bool) {
	v, ok := t.Context[key]
	return v, ok
}

// Position returns the stage and frame the trip was recorded at, if the
// context has them.
func (t *Trip) Position() (stage string, frame int, ok bool) {
	s, hasStage := t.Context[KeyStage].(string)
	f, hasFrame := t.Context[KeyFrame].(int)
	return s, f, hasStage && hasFrame
}

// DetailedString renders the trip over several lines: the error, where in
// the take it happened, then any remaining context in key order.
func (t *Trip) DetailedString() string {
	var b strings.Builder
	b.WriteString(t.Error())
	fmt.Fprintf(&b, "\n  time:  %s", t.Timestamp.Format("15:04:05.000"))

	if stage, frame, ok := t.Position(); ok {
		fmt.Fprintf(&b, "\n  at:    %s frame %d", stage, frame)
	}

	keys := make([]string, 0, len(t.Context))
	for k := range t.Context {
		if k == KeyStage || k == KeyFrame {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, t.Context[k])
	}
	return b.String()
}

// Policy decides when recorded trips stop a take.
type Policy struct {
	// StopOnFall stops at the first fall.
	StopOnFall bool
	// MaxStumbles stops once more stumbles than this were recorded.
	// Zero means no limit.
	MaxStumbles int
}

// DefaultPolicy stops on any fall and after 25 stumbles.
func DefaultPolicy() *Policy {
	return &Policy{StopOnFall: true, MaxStumbles: 25}
}

// Handler collects the trips of one take.
type Handler struct {
	take     string
	policy   *Policy
	trips    []*Trip
	stumbles []*Trip
}

// NewHandler returns a handler for the named take. A nil policy means
// DefaultPolicy.
func NewHandler(take string, policy *Policy) *Handler {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Handler{take: take, policy: policy}
}

// Record files a trip under stumbles or trips by severity.
func (h *Handler) Record(t *Trip) {
	if t.Severity == Stumble {
		h.stumbles = append(h.stumbles, t)
		return
	}
	h.trips = append(h.trips, t)
}

// ShouldContinue reports whether the policy lets the take keep rolling.
func (h *Handler) ShouldContinue() bool {
	if h.policy.StopOnFall {
		for _, t := range h.trips {
			if t.IsFall() {
				return false
			}
		}
	}
	return h.policy.MaxStumbles == 0 || len(h.stumbles) <= h.policy.MaxStumbles
}

func (h *Handler) HasTrips() bool { return len(h.trips) > 0 }

func (h *Handler) HasStumbles() bool { return len(h.stumbles) > 0 }

func (h *Handler) GetTrips() []*Trip { return h.trips }

func (h *Handler) GetStumbles() []*Trip { return h.stumbles }

// Summary is a one line count, e.g. "snowman: 1 fall, 3 stumbles".
func (h *Handler) Summary() string {
	if !h.HasTrips() && !h.HasStumbles() {
		return h.take + ": clean take"
	}
	var parts []string
	counts := map[Severity]int{}
	for _, t := range h.trips {
		counts[t.Severity]++
	}
	counts[Stumble] = len(h.stumbles)
	for _, s := range []Severity{Fall, Error, Stumble} {
		if n := counts[s]; n > 0 {
			parts = append(parts, plural(n, s.String()))
		}
	}
	return h.take + ": " + strings.Join(parts, ", ")
}

// DetailedReport lists every trip, falls and errors first.
func (h *Handler) DetailedReport() string {
	var b strings.Builder
	b.WriteString(h.Summary())
	b.WriteString("\n")
	section := func(title string, trips []*Trip) {
		if len(trips) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for i, t := range trips {
			fmt.Fprintf(&b, "%d. %s\n", i+1, t.DetailedString())
		}
	}
	section("Trips", h.trips)
	section("Stumbles", h.stumbles)
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
