//go:build !window

package main

// Builds without the window tag leave out ebiten and never need cgo.
const windowSupport = false

func newWindow(string, int, int, float64) (surface, error) {
	return nil, errNoWindow
}
