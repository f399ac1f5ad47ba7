//go:build !window

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/snowcam"
)

func TestLoadConfig_WindowNotBuiltIn(t *testing.T) {
	path := writeConfig(t, "pacing: {mode: none}\n")

	_, err := loadConfig(options{configPath: path, window: true})
	assert.ErrorIs(t, err, errNoWindow)
}

func TestTake_WindowNotBuiltIn(t *testing.T) {
	cfg := snowcam.DefaultConfig()
	cfg.Display.Enabled = true

	err := take(context.Background(), cfg, options{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoWindow)
}
