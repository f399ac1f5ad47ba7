package trip

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrip_Error(t *testing.T) {
	tr := NewTrip(TypeRender, "redraw failed", Context{KeyStage: "lower_head", KeyFrame: 12})

	assert.Equal(t, Error, tr.Severity)
	assert.WithinDuration(t, time.Now(), tr.Timestamp, time.Second)
	assert.Equal(t, "[render:error] redraw failed", tr.Error())

	tr.WithCause(errors.New("surface lost"))
	assert.Equal(t, "[render:error] redraw failed: surface lost", tr.Error())
}

func TestTrip_Severities(t *testing.T) {
	stumble := NewStumble(TypeVisual, "frame not filmed", nil)
	configErr := NewTrip(TypeConfig, "unknown target", nil)
	fall := NewFall(TypeRender, "window gone", nil)

	for _, tc := range []struct {
		trip     *Trip
		severity Severity
		recover  bool
		isFall   bool
	}{
		{stumble, Stumble, true, false},
		{configErr, Error, false, false},
		{fall, Fall, false, true},
	} {
		assert.Equal(t, tc.severity, tc.trip.Severity)
		assert.Equal(t, tc.recover, tc.trip.CanRecover(), tc.trip.Message)
		assert.Equal(t, tc.isFall, tc.trip.IsFall(), tc.trip.Message)
	}
}

func TestTrip_Position(t *testing.T) {
	tr := NewFall(TypeMutation, "mutation panicked", Context{
		KeyStage: "swing_nose_into_head",
		KeyFrame: 40,
		"target": "nose",
		"axis":   "z",
	})

	stage, frame, ok := tr.Position()
	require.True(t, ok)
	assert.Equal(t, "swing_nose_into_head", stage)
	assert.Equal(t, 40, frame)

	detailed := tr.DetailedString()
	assert.Contains(t, detailed, "at:    swing_nose_into_head frame 40")
	assert.Contains(t, detailed, "target: nose")
	assert.NotContains(t, detailed, "stage:", "position is not repeated as context")
	assert.Less(t, strings.Index(detailed, "axis: z"), strings.Index(detailed, "target: nose"), "context keys are sorted")

	_, _, ok = NewTrip(TypeConfig, "bad table", Context{"index": 3}).Position()
	assert.False(t, ok)

	v, ok := tr.GetContext("target")
	assert.True(t, ok)
	assert.Equal(t, "nose", v)
	_, ok = NewTrip(TypeConfig, "x", nil).GetContext("target")
	assert.False(t, ok)
}

func TestTrip_Cause(t *testing.T) {
	sentinel := errors.New("surface lost")
	var err error = NewFall(TypeRender, "redraw failed", nil).WithCause(sentinel)

	assert.ErrorIs(t, err, sentinel)

	var tr *Trip
	require.ErrorAs(t, err, &tr)
	assert.True(t, tr.IsFall())
}

func TestHandler(t *testing.T) {
	handler := NewHandler("snowman", DefaultPolicy())

	assert.True(t, handler.ShouldContinue())
	assert.Equal(t, "snowman: clean take", handler.Summary())

	handler.Record(NewStumble(TypeVisual, "dropped frame", nil))
	handler.Record(NewStumble(TypeVisual, "dropped frame", nil))
	assert.True(t, handler.ShouldContinue())
	assert.True(t, handler.HasStumbles())
	assert.False(t, handler.HasTrips())

	handler.Record(NewFall(TypeRender, "redraw failed", Context{KeyStage: "roll_camera", KeyFrame: 7}))
	assert.False(t, handler.ShouldContinue())
	assert.True(t, handler.HasTrips())
	assert.Len(t, handler.GetTrips(), 1)
	assert.Equal(t, "snowman: 1 fall, 2 stumbles", handler.Summary())

	report := handler.DetailedReport()
	assert.True(t, strings.HasPrefix(report, "snowman: 1 fall, 2 stumbles\n"))
	assert.Less(t, strings.Index(report, "Trips:"), strings.Index(report, "Stumbles:"))
	assert.Contains(t, report, "roll_camera frame 7")
}

func TestHandler_StumbleLimit(t *testing.T) {
	handler := NewHandler("snowman", &Policy{StopOnFall: true, MaxStumbles: 2})

	for i := 0; i < 2; i++ {
		handler.Record(NewStumble(TypeVisual, "dropped frame", nil))
	}
	assert.True(t, handler.ShouldContinue())

	handler.Record(NewStumble(TypeVisual, "dropped frame", nil))
	assert.False(t, handler.ShouldContinue())
}

func TestHandler_LenientPolicy(t *testing.T) {
	handler := NewHandler("snowman", &Policy{})
	handler.Record(NewFall(TypeRender, "redraw failed", nil))
	for i := 0; i < 100; i++ {
		handler.Record(NewStumble(TypeVisual, "dropped frame", nil))
	}
	assert.True(t, handler.ShouldContinue())
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()
	assert.True(t, policy.StopOnFall)
	assert.Equal(t, 25, policy.MaxStumbles)

	assert.Equal(t, policy, NewHandler("x", nil).policy)
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "stumble", Stumble.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "fall", Fall.String())
	assert.Equal(t, "unknown", Severity(42).String())
}
