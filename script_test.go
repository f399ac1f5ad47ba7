package snowcam

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/snowcam/scene"
)

func TestScriptMutation_Rotates(t *testing.T) {
	head := newTestActor(t, "head")
	m, err := ScriptMutation(`rotate_z(-1)`, 90)
	require.NoError(t, err)

	_, err = newTestDirector(&countingRedrawer{}).Run(context.Background(), Sequence{
		{Name: "scripted", Target: head, Mutate: m, Frames: 90},
	})
	require.NoError(t, err)
	assert.InDelta(t, -90, head.NetRotation(scene.AxisZ), 1e-9)
}

func TestScriptMutation_SeesFrameAndTarget(t *testing.T) {
	nose := newTestActor(t, "nose")
	m, err := ScriptMutation(`
if target == "nose" && frame >= frames - 2 {
	add_position(0, frame, 0)
}
`, 5)
	require.NoError(t, err)

	for frame := 0; frame < 5; frame++ {
		require.NoError(t, m(nose, frame))
	}
	assert.InDelta(t, 3+4, nose.Position().Y(), 1e-9)
}

func TestScriptMutation_MathModule(t *testing.T) {
	a := newTestActor(t, "a")
	m, err := ScriptMutation(`
math := import("math")
rotate_x(math.sin(math.pi / 2) * 10)
`, 1)
	require.NoError(t, err)

	require.NoError(t, m(a, 0))
	assert.InDelta(t, 10, a.NetRotation(scene.AxisX), 1e-9)
}

func TestScriptMutation_Camera(t *testing.T) {
	camera := scene.NewCamera()
	m, err := ScriptMutation(`roll(1); azimuth(2); elevation(3)`, 1)
	require.NoError(t, err)

	require.NoError(t, m(camera, 0))
	assert.InDelta(t, 1, camera.NetRoll(), 1e-9)
	assert.InDelta(t, 2, camera.NetAzimuth(), 1e-9)
	assert.InDelta(t, 3, camera.NetElevation(), 1e-9)
}

func TestScriptMutation_Visibility(t *testing.T) {
	eye := newTestActor(t, "eye")
	eye.SetVisibility(false)
	m, err := ScriptMutation(`set_visible(frame > 0)`, 2)
	require.NoError(t, err)

	require.NoError(t, m(eye, 0))
	assert.False(t, eye.Visible())
	require.NoError(t, m(eye, 1))
	assert.True(t, eye.Visible())
}

func TestScriptMutation_Errors(t *testing.T) {
	t.Run("compile error", func(t *testing.T) {
		_, err := ScriptMutation(`rotate_z(`, 1)
		assert.Error(t, err)
	})

	t.Run("wrong argument count", func(t *testing.T) {
		m, err := ScriptMutation(`translate(1, 2)`, 1)
		require.NoError(t, err)
		assert.Error(t, m(scene.NewTransform("t"), 0))
	})

	t.Run("wrong argument type", func(t *testing.T) {
		m, err := ScriptMutation(`rotate_y("left")`, 1)
		require.NoError(t, err)
		assert.Error(t, m(newTestActor(t, "a"), 0))
	})

	t.Run("unsupported target", func(t *testing.T) {
		m, err := ScriptMutation(`ok := roll(1); if ok { rotate_z(1) }`, 1)
		require.NoError(t, err)
		a := newTestActor(t, "a")
		err = m(a, 0)
		assert.ErrorIs(t, err, ErrUnsupportedTarget)
		assert.Zero(t, a.NetRotation(scene.AxisZ), "script saw the failure as false")
	})
}

func TestScriptMutation_Globals(t *testing.T) {
	names := []string{
		"frame", "frames", "target",
		"rotate_x", "rotate_y", "rotate_z", "roll", "azimuth", "elevation",
		"translate", "add_position", "set_visible",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			m, err := ScriptMutation("g := "+name, 10)
			require.NoError(t, err)
			assert.NoError(t, m(newTestActor(t, "a"), 0))
		})
	}

	t.Run("undefined", func(t *testing.T) {
		_, err := ScriptMutation(`g := frame_count`, 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compile script")
	})
}
