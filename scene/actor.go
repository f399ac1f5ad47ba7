package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// Property holds the surface appearance of an actor.
type Property struct {
	Color   colorful.Color
	Ambient float64
	Diffuse float64
}

// DefaultProperty is white, mostly diffuse.
func DefaultProperty() Property {
	return Property{
		Color:   colorful.Color{R: 1, G: 1, B: 1},
		Ambient: 0.15,
		Diffuse: 0.85,
	}
}

// SetColor sets the colour from RGB components in [0, 1].
func (p *Property) SetColor(r, g, b float64) {
	p.Color = colorful.Color{R: r, G: g, B: b}
}

// Actor places a mapper's geometry in the scene.
//
// The model matrix is
//
//	user · T(position + origin) · R · T(-origin)
//
// where R accumulates RotateX/Y/Z calls about the actor's own axes and
// user is the optional attached Transform.
type Actor struct {
	name     string
	mapper   *Mapper
	property Property
	visible  bool

	position mgl64.Vec3
	origin   mgl64.Vec3
	rotation mgl64.Mat4
	angles   [3]float64 // cumulative degrees per axis

	user *Transform
}

// NewActor creates a visible actor with the default property.
func NewActor(name string, mapper *Mapper) *Actor {
	return &Actor{
		name:     name,
		mapper:   mapper,
		property: DefaultProperty(),
		visible:  true,
		rotation: mgl64.Ident4(),
	}
}

// Name identifies the actor in timing tables.
func (a *Actor) Name() string { return a.name }

// Mapper returns the bound mapper.
func (a *Actor) Mapper() *Mapper { return a.mapper }

// SetMapper rebinds the actor.
func (a *Actor) SetMapper(m *Mapper) { a.mapper = m }

// Property returns the mutable appearance.
func (a *Actor) Property() *Property { return &a.property }

// SetVisibility shows or hides the actor. Setting the current value is a no-op.
func (a *Actor) SetVisibility(visible bool) { a.visible = visible }

// Visible reports whether the actor is drawn.
func (a *Actor) Visible() bool { return a.visible }

// RotateX rotates the actor deg degrees about its own X axis.
func (a *Actor) RotateX(deg float64) { a.rotate(AxisX, deg) }

// RotateY rotates the actor deg degrees about its own Y axis.
func (a *Actor) RotateY(deg float64) { a.rotate(AxisY, deg) }

// RotateZ rotates the actor deg degrees about its own Z axis.
func (a *Actor) RotateZ(deg float64) { a.rotate(AxisZ, deg) }

func (a *Actor) rotate(axis Axis, deg float64) {
	a.rotation = a.rotation.Mul4(axis.rotation(deg))
	a.angles[axis] += deg
}

// Orientation returns the cumulative degrees applied about each axis.
func (a *Actor) Orientation() [3]float64 { return a.angles }

// NetRotation returns the cumulative rotation about axis folded into (-360, 360).
func (a *Actor) NetRotation(axis Axis) float64 {
	return NormalizeDegrees(a.angles[axis])
}

// Rotation returns the accumulated rotation matrix.
func (a *Actor) Rotation() mgl64.Mat4 { return a.rotation }

// SetPosition places the actor.
func (a *Actor) SetPosition(x, y, z float64) { a.position = mgl64.Vec3{x, y, z} }

// AddPosition offsets the actor's position.
func (a *Actor) AddPosition(x, y, z float64) {
	a.position = a.position.Add(mgl64.Vec3{x, y, z})
}

// Position returns the actor position.
func (a *Actor) Position() mgl64.Vec3 { return a.position }

// SetOrigin moves the point rotations are applied about.
func (a *Actor) SetOrigin(x, y, z float64) { a.origin = mgl64.Vec3{x, y, z} }

// Origin returns the rotation origin.
func (a *Actor) Origin() mgl64.Vec3 { return a.origin }

// SetUserTransform attaches t after the actor's own pose; nil detaches.
func (a *Actor) SetUserTransform(t *Transform) { a.user = t }

// UserTransform returns the attached transform, or nil.
func (a *Actor) UserTransform() *Transform { return a.user }

// Matrix returns the full model matrix.
func (a *Actor) Matrix() mgl64.Mat4 {
	pivot := a.position.Add(a.origin)
	m := mgl64.Translate3D(pivot[0], pivot[1], pivot[2]).
		Mul4(a.rotation).
		Mul4(mgl64.Translate3D(-a.origin[0], -a.origin[1], -a.origin[2]))
	if a.user != nil {
		m = a.user.Matrix().Mul4(m)
	}
	return m
}

// WorldPoint maps a model-space point through the actor's matrix.
func (a *Actor) WorldPoint(p mgl64.Vec3) mgl64.Vec3 {
	return a.Matrix().Mul4x1(p.Vec4(1)).Vec3()
}

// WorldCenter returns the world position of the geometry's centroid.
func (a *Actor) WorldCenter() mgl64.Vec3 {
	return a.WorldPoint(a.mapper.PolyData().Center())
}
