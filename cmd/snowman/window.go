//go:build window

package main

import "github.com/teranos/snowcam/operators/window"

const windowSupport = true

func newWindow(title string, width, height int, scale float64) (surface, error) {
	return window.New(title, width, height, scale), nil
}
