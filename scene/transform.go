package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axis names a principal axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "?"
	}
}

// Valid reports whether a is one of AxisX, AxisY and AxisZ.
func (a Axis) Valid() bool {
	return a >= AxisX && a <= AxisZ
}

// rotation returns the homogeneous rotation of deg degrees about the axis.
func (a Axis) rotation(deg float64) mgl64.Mat4 {
	rad := mgl64.DegToRad(deg)
	switch a {
	case AxisX:
		return mgl64.HomogRotate3DX(rad)
	case AxisY:
		return mgl64.HomogRotate3DY(rad)
	case AxisZ:
		return mgl64.HomogRotate3DZ(rad)
	}
	panic(fmt.Sprintf("scene: rotation about invalid axis %d", int(a)))
}

// NormalizeDegrees folds a cumulative angle into (-360, 360), keeping its sign.
func NormalizeDegrees(deg float64) float64 {
	n := math.Mod(deg, 360)
	if n == 0 {
		return 0 // avoid -0
	}
	return n
}

// Transform is an incrementally accumulating affine transform.
// Every call is pre-multiplied, so operations compound in the transform's
// own frame, and a handle can be attached to several actors.
type Transform struct {
	name   string
	matrix mgl64.Mat4
}

// NewTransform returns an identity transform.
func NewTransform(name string) *Transform {
	return &Transform{name: name, matrix: mgl64.Ident4()}
}

// Name identifies the transform in timing tables.
func (t *Transform) Name() string {
	return t.name
}

// Identity resets the transform.
func (t *Transform) Identity() {
	t.matrix = mgl64.Ident4()
}

// Translate appends a translation.
func (t *Transform) Translate(x, y, z float64) {
	t.matrix = t.matrix.Mul4(mgl64.Translate3D(x, y, z))
}

// RotateX appends a rotation of deg degrees about X.
func (t *Transform) RotateX(deg float64) { t.rotate(AxisX, deg) }

// RotateY appends a rotation of deg degrees about Y.
func (t *Transform) RotateY(deg float64) { t.rotate(AxisY, deg) }

// RotateZ appends a rotation of deg degrees about Z.
func (t *Transform) RotateZ(deg float64) { t.rotate(AxisZ, deg) }

func (t *Transform) rotate(axis Axis, deg float64) {
	t.matrix = t.matrix.Mul4(axis.rotation(deg))
}

// Matrix returns the accumulated matrix.
func (t *Transform) Matrix() mgl64.Mat4 {
	return t.matrix
}

// Translation returns the translation component of the accumulated matrix.
func (t *Transform) Translation() mgl64.Vec3 {
	return t.matrix.Col(3).Vec3()
}

// TransformPoint applies the transform to a point.
func (t *Transform) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return t.matrix.Mul4x1(p.Vec4(1)).Vec3()
}
