package snowcam

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForEvent(t *testing.T, w *Watcher) string {
	t.Helper()
	select {
	case name := <-w.Events:
		return name
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher event")
	}
	return ""
}

func TestWatcher_ReportsWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	timing := filepath.Join(dir, "timing.yaml")
	require.NoError(t, os.WriteFile(timing, []byte("stages: []\n"), 0644))

	w, err := NewWatcher(timing)
	require.NoError(t, err)
	defer w.Close()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(timing, []byte("stages: [{}]\n"), 0644))

	got := waitForEvent(t, w)
	assert.Equal(t, "timing.yaml", filepath.Base(got))
}

func TestWatcher_ReportsScripts(t *testing.T) {
	dir := t.TempDir()
	timing := filepath.Join(dir, "timing.yaml")
	require.NoError(t, os.WriteFile(timing, []byte("stages: []\n"), 0644))

	w, err := NewWatcher(timing)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "spin.tengo"), []byte("rotate_z(1)"), 0644))

	got := waitForEvent(t, w)
	assert.Equal(t, "spin.tengo", filepath.Base(got))
}

func TestWatcher_Close(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close(), "second close is a no-op")

	_, open := <-w.Events
	assert.False(t, open)
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	assert.Error(t, err)
}
