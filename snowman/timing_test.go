package snowman

import (
	"context"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/snowcam"
	"github.com/teranos/snowcam/scene"
)

func smallScene(t *testing.T) *Scene {
	t.Helper()
	s, err := Build(Options{Width: 48, Height: 48, Resolution: 6})
	require.NoError(t, err)
	return s
}

func TestDefaultTimingTable(t *testing.T) {
	table := DefaultTimingTable()
	require.Len(t, table.Stages, 11)
	assert.Equal(t, 1503, table.TotalFrames())

	names := make([]string, len(table.Stages))
	for i, s := range table.Stages {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"rotate_head_over_body", "lower_head", "rotate_nose_to_front", "bring_nose_closer",
		"swing_nose_into_head", "surface_nose", "reveal_eyes", "roll_camera",
		"azimuth_camera", "raise_camera", "lower_camera",
	}, names)

	// callers get their own copy
	table.Stages[0].Frames = 1
	assert.Equal(t, 90, DefaultTimingTable().Stages[0].Frames)
}

func TestSequence_Default(t *testing.T) {
	seq, err := Sequence(smallScene(t), nil)
	require.NoError(t, err)
	require.Len(t, seq, 11)
	assert.Equal(t, 1503, seq.TotalFrames())
	assert.Equal(t, 23460*time.Millisecond, seq.Duration())
	assert.Equal(t, "reveal_eyes", seq[6].Target.Name())
	assert.Equal(t, time.Duration(0), seq[6].Delay)
}

func TestSequence_CustomTable(t *testing.T) {
	table, err := snowcam.LoadTimingTable(strings.NewReader(`
stages:
  - name: nod
    target: head
    frames: 10
    steps:
      - {op: rotate_x, degrees: 2}
`))
	require.NoError(t, err)

	s := smallScene(t)
	seq, err := Sequence(s, table)
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Same(t, s.Head, seq[0].Target)

	_, err = Sequence(s, &snowcam.TimingTable{Stages: []snowcam.StageSpec{{
		Name: "bad", Target: "hat", Frames: 1,
		Steps: []snowcam.StepSpec{{Op: snowcam.OpRotateX, Degrees: snowcam.Degrees(1)}},
	}}})
	assert.ErrorIs(t, err, snowcam.ErrNoTarget)
}

func TestFullTake(t *testing.T) {
	s := smallScene(t)
	seq, err := Sequence(s, nil)
	require.NoError(t, err)

	director := snowcam.NewDirector(s, snowcam.DefaultStageConfig()).WithPacer(snowcam.NoDelay)
	result, err := director.Run(context.Background(), seq)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1503, result.Redraws)
	assert.Equal(t, 1503, s.Window.Renders())

	assert.InDelta(t, -90, s.Head.NetRotation(scene.AxisZ), 1e-9)
	assert.InDelta(t, -0.8, s.HeadLower.Translation().Y(), 1e-9)
	assert.InDelta(t, -90, s.Nose.NetRotation(scene.AxisY), 1e-9)
	assert.InDelta(t, 82, s.Nose.NetRotation(scene.AxisZ), 1e-9)
	assert.InDelta(t, -0.82, s.Nose.Position().Y(), 1e-9)
	assert.InDelta(t, 1.2, s.NoseTranslate.Translation().Z(), 1e-9)
	assert.True(t, s.LeftEye.Visible())
	assert.True(t, s.RightEye.Visible())

	assert.InDelta(t, 0, s.Camera.NetRoll(), 1e-9)
	assert.InDelta(t, 0, s.Camera.NetAzimuth(), 1e-9)
	assert.InDelta(t, 0, s.Camera.NetElevation(), 1e-9)
	assert.InDelta(t, 1, s.Camera.ViewUp().Y(), 1e-6)
	assert.InDelta(t, 22, s.Camera.Distance(), 1e-6)
}

func darkPixels(img *image.RGBA) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] < 8 && img.Pix[i+1] < 8 && img.Pix[i+2] < 8 {
			n++
		}
	}
	return n
}

func TestRevealEyes_Renders(t *testing.T) {
	s, err := Build(Options{Width: 200, Height: 200})
	require.NoError(t, err)

	var before, after int
	observer := snowcam.ObserverFunc(func(info snowcam.FrameInfo) error {
		switch info.Stage {
		case "surface_nose":
			before = darkPixels(info.Image)
		case "reveal_eyes":
			after = darkPixels(info.Image)
		}
		return nil
	})

	table := DefaultTimingTable()
	table.Stages = table.Stages[:7]
	seq, err := Sequence(s, table)
	require.NoError(t, err)

	_, err = snowcam.NewDirector(s, snowcam.DefaultStageConfig()).
		WithPacer(snowcam.NoDelay).
		WithObserver(observer).
		Run(context.Background(), seq)
	require.NoError(t, err)

	assert.Zero(t, before)
	assert.Positive(t, after)
}
