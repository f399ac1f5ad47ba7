package snowcam

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStill(t *testing.T, dir, name string, c color.RGBA) {
	t.Helper()
	rs := NewRenderingStage(RenderConfig{OutputDir: dir, Scale: 1})
	require.NoError(t, rs.CaptureFrame(solidFrame(10, 10, c), name))
}

func TestScriptSupervisor_ValidateConsistency(t *testing.T) {
	baseline, current := t.TempDir(), t.TempDir()
	blue := color.RGBA{0, 0, 255, 255}

	writeStill(t, baseline, "same.png", blue)
	writeStill(t, current, "same.png", blue)
	writeStill(t, baseline, "changed.png", blue)
	writeStill(t, current, "changed.png", color.RGBA{255, 255, 0, 255})

	ss := NewScriptSupervisor(baseline, current)
	assert.NoError(t, ss.ValidateConsistency("same"))
	assert.NoFileExists(t, filepath.Join(current, "same_diff.png"))

	err := ss.ValidateConsistency("changed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "100.00% difference")
	assert.FileExists(t, filepath.Join(current, "changed_diff.png"))

	assert.Error(t, ss.ValidateConsistency("absent"))
}

func TestScriptSupervisor_Tolerance(t *testing.T) {
	baseline, current := t.TempDir(), t.TempDir()
	writeStill(t, baseline, "a.png", color.RGBA{0, 0, 255, 255})

	// one pixel of a hundred differs
	img := solidFrame(10, 10, color.RGBA{0, 0, 255, 255})
	img.SetRGBA(3, 3, color.RGBA{255, 255, 255, 255})
	require.NoError(t, NewRenderingStage(RenderConfig{OutputDir: current, Scale: 1}).CaptureFrame(img, "a.png"))

	assert.Error(t, NewScriptSupervisor(baseline, current).ValidateConsistency("a"))
	assert.NoError(t, NewScriptSupervisor(baseline, current).WithTolerance(2).ValidateConsistency("a"))
}

func TestScriptSupervisor_ValidateFilm(t *testing.T) {
	baseline, current := t.TempDir(), t.TempDir()
	blue := color.RGBA{0, 0, 255, 255}

	writeStill(t, baseline, "frame_00000_a_000.png", blue)
	writeStill(t, baseline, "frame_00001_a_001.png", blue)
	writeStill(t, current, "frame_00000_a_000.png", blue)
	writeStill(t, current, "frame_00001_a_001.png", blue)

	ss := NewScriptSupervisor(baseline, current)
	fc, err := ss.ValidateFilm()
	require.NoError(t, err)
	assert.True(t, fc.Passed())
	assert.Equal(t, 2, fc.Frames)
	assert.Zero(t, fc.MaxDifference)
	assert.Equal(t, 0.5, fc.Tolerance)

	t.Run("regressions and missing stills", func(t *testing.T) {
		writeStill(t, current, "frame_00001_a_001.png", color.RGBA{255, 0, 0, 255})
		writeStill(t, baseline, "frame_00002_a_002.png", blue)
		writeStill(t, current, "frame_00003_b_000.png", blue)

		fc, err := ss.ValidateFilm()
		require.Error(t, err)
		require.NotNil(t, fc)
		assert.False(t, fc.Passed())
		assert.Equal(t, []string{"frame_00001_a_001.png"}, fc.Failed)
		assert.Equal(t, []string{"frame_00002_a_002.png"}, fc.Missing)
		assert.Equal(t, []string{"frame_00003_b_000.png"}, fc.Extra)
		assert.Equal(t, 100.0, fc.MaxDifference)

		// diff images are not stills
		stills, err := listStills(current)
		require.NoError(t, err)
		assert.Len(t, stills, 3)
	})

	t.Run("missing baseline directory", func(t *testing.T) {
		_, err := NewScriptSupervisor(filepath.Join(t.TempDir(), "none"), current).ValidateFilm()
		assert.Error(t, err)
	})
}

func TestScriptSupervisor_SetBaselineFilm(t *testing.T) {
	baseline := filepath.Join(t.TempDir(), "baseline")
	current := t.TempDir()

	writeStill(t, current, "frame_00000_a_000.png", color.RGBA{1, 2, 3, 255})
	writeStill(t, current, "frame_00004_a_004.png", color.RGBA{1, 2, 3, 255})
	require.NoError(t, os.WriteFile(filepath.Join(current, "frame_00004_a_004_diff.png"), []byte("x"), 0644))

	ss := NewScriptSupervisor(baseline, current)
	n, err := ss.SetBaselineFilm()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// replacing drops stale baseline stills
	require.NoError(t, os.Remove(filepath.Join(current, "frame_00004_a_004.png")))
	n, err = ss.SetBaselineFilm()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	stills, err := listStills(baseline)
	require.NoError(t, err)
	assert.Equal(t, []string{"frame_00000_a_000.png"}, stills)

	require.NoError(t, ss.SetBaseline("final", filepath.Join(current, "frame_00000_a_000.png")))
	assert.FileExists(t, filepath.Join(baseline, "final.png"))
}
