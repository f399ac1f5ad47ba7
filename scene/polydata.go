// Package scene is a small retained-mode scene graph: procedural geometry
// sources feed mappers, mappers feed actors, actors are added to a renderer,
// and a render window rasterizes its renderers into an RGBA frame on every
// Render call.
//
// The vocabulary follows the classic visualization pipeline
// (source -> mapper -> actor -> renderer -> window) so animation scripts can
// be written against it directly.
package scene

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrInvalidRadius     = errors.New("radius must be positive")
	ErrInvalidHeight     = errors.New("height must be positive")
	ErrInvalidResolution = errors.New("resolution too low")
	ErrInvalidDirection  = errors.New("direction must be non-zero")
	ErrInvalidSize       = errors.New("window size must be positive")
	ErrNoRenderer        = errors.New("render window has no renderers")
	ErrInvalidAxis       = errors.New("axis must be x, y or z")
)

// Triangle indexes three points of a PolyData.
type Triangle [3]int

// PolyData is polygonal geometry: a point list and triangles indexing it.
type PolyData struct {
	Points    []mgl64.Vec3
	Triangles []Triangle
}

// Bounds returns the axis-aligned bounding box of the points.
// An empty PolyData returns two zero vectors.
func (p *PolyData) Bounds() (lo, hi mgl64.Vec3) {
	if p == nil || len(p.Points) == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, pt := range p.Points {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], pt[i])
			hi[i] = math.Max(hi[i], pt[i])
		}
	}
	return lo, hi
}

// Center returns the centroid of the points.
func (p *PolyData) Center() mgl64.Vec3 {
	if p == nil || len(p.Points) == 0 {
		return mgl64.Vec3{}
	}
	var sum mgl64.Vec3
	for _, pt := range p.Points {
		sum = sum.Add(pt)
	}
	return sum.Mul(1 / float64(len(p.Points)))
}
