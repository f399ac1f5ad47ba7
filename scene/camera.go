package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera defined by position, focal point and view-up.
//
// Roll, Azimuth and Elevation compound like their visualization-toolkit
// namesakes; the cumulative angle of each is tracked so callers can assert
// net orientation without replaying the deltas.
type Camera struct {
	name string

	position   mgl64.Vec3
	focalPoint mgl64.Vec3
	viewUp     mgl64.Vec3

	viewAngle float64 // vertical field of view in degrees
	near, far float64

	roll, azimuth, elevation float64
}

// NewCamera returns a camera at (0,0,1) looking at the origin with +Y up
// and a 30 degree view angle.
func NewCamera() *Camera {
	return &Camera{
		name:      "camera",
		position:  mgl64.Vec3{0, 0, 1},
		viewUp:    mgl64.Vec3{0, 1, 0},
		viewAngle: 30,
		near:      0.1,
		far:       1000,
	}
}

// Name identifies the camera in timing tables.
func (c *Camera) Name() string { return c.name }

// SetName renames the camera.
func (c *Camera) SetName(name string) { c.name = name }

// SetPosition moves the eye point.
func (c *Camera) SetPosition(x, y, z float64) { c.position = mgl64.Vec3{x, y, z} }

// Position returns the eye point.
func (c *Camera) Position() mgl64.Vec3 { return c.position }

// SetFocalPoint moves the point the camera looks at.
func (c *Camera) SetFocalPoint(x, y, z float64) { c.focalPoint = mgl64.Vec3{x, y, z} }

// FocalPoint returns the point the camera looks at.
func (c *Camera) FocalPoint() mgl64.Vec3 { return c.focalPoint }

// SetViewUp sets the up direction.
func (c *Camera) SetViewUp(x, y, z float64) { c.viewUp = mgl64.Vec3{x, y, z} }

// ViewUp returns the up direction.
func (c *Camera) ViewUp() mgl64.Vec3 { return c.viewUp }

// SetViewAngle sets the vertical field of view in degrees.
func (c *Camera) SetViewAngle(deg float64) { c.viewAngle = deg }

// ViewAngle returns the vertical field of view in degrees.
func (c *Camera) ViewAngle() float64 { return c.viewAngle }

// SetClippingRange sets the near and far planes.
func (c *Camera) SetClippingRange(near, far float64) {
	c.near, c.far = near, far
}

// ClippingRange returns the near and far planes.
func (c *Camera) ClippingRange() (near, far float64) { return c.near, c.far }

// DirectionOfProjection returns the unit vector from the eye to the focal point.
func (c *Camera) DirectionOfProjection() mgl64.Vec3 {
	return c.focalPoint.Sub(c.position).Normalize()
}

// Distance returns the eye to focal point distance.
func (c *Camera) Distance() float64 {
	return c.focalPoint.Sub(c.position).Len()
}

// Roll rotates the view-up vector deg degrees about the direction of projection.
func (c *Camera) Roll(deg float64) {
	q := mgl64.QuatRotate(mgl64.DegToRad(deg), c.DirectionOfProjection())
	c.viewUp = q.Rotate(c.viewUp)
	c.roll += deg
}

// Azimuth rotates the eye deg degrees about the view-up vector, centered at
// the focal point.
func (c *Camera) Azimuth(deg float64) {
	c.orbit(c.viewUp.Normalize(), deg)
	c.azimuth += deg
}

// Elevation rotates the eye deg degrees about the camera's negative right
// vector, centered at the focal point. View-up is left untouched.
// Positive angles raise the camera.
func (c *Camera) Elevation(deg float64) {
	right := c.DirectionOfProjection().Cross(c.viewUp)
	if right.Len() > 1e-12 {
		c.orbit(right.Normalize().Mul(-1), deg)
	}
	c.elevation += deg
}

func (c *Camera) orbit(axis mgl64.Vec3, deg float64) {
	q := mgl64.QuatRotate(mgl64.DegToRad(deg), axis)
	c.position = c.focalPoint.Add(q.Rotate(c.position.Sub(c.focalPoint)))
}

// NetRoll returns the cumulative roll folded into (-360, 360).
func (c *Camera) NetRoll() float64 { return NormalizeDegrees(c.roll) }

// NetAzimuth returns the cumulative azimuth folded into (-360, 360).
func (c *Camera) NetAzimuth() float64 { return NormalizeDegrees(c.azimuth) }

// NetElevation returns the cumulative elevation folded into (-360, 360).
func (c *Camera) NetElevation() float64 { return NormalizeDegrees(c.elevation) }

// ViewMatrix returns the world to eye transform.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.position, c.focalPoint, c.viewUp)
}

// ProjectionMatrix returns the perspective projection for the given aspect ratio.
func (c *Camera) ProjectionMatrix(aspect float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.viewAngle), aspect, c.near, c.far)
}
