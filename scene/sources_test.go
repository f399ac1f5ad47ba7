package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphereSource_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params SphereParams
		want   error
	}{
		{"negative radius", SphereParams{Radius: -1, ThetaResolution: 15, PhiResolution: 15}, ErrInvalidRadius},
		{"zero radius", SphereParams{Radius: 0, ThetaResolution: 15, PhiResolution: 15}, ErrInvalidRadius},
		{"low theta", SphereParams{Radius: 1, ThetaResolution: 2, PhiResolution: 15}, ErrInvalidResolution},
		{"low phi", SphereParams{Radius: 1, ThetaResolution: 15, PhiResolution: 2}, ErrInvalidResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSphereSource(tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSphereSource_Geometry(t *testing.T) {
	src, err := NewSphereSource(SphereParams{
		Center:          mgl64.Vec3{-4, 0, 0},
		Radius:          1.5,
		ThetaResolution: 15,
		PhiResolution:   15,
	})
	require.NoError(t, err)

	pd := src.Output()
	assert.Len(t, pd.Points, 2+13*15)
	assert.Len(t, pd.Triangles, 2*15+2*15*12)

	for _, p := range pd.Points {
		assert.InDelta(t, 1.5, p.Sub(mgl64.Vec3{-4, 0, 0}).Len(), 1e-9)
	}
	for _, tri := range pd.Triangles {
		for _, idx := range tri {
			assert.Less(t, idx, len(pd.Points))
		}
	}

	center := pd.Center()
	assert.InDelta(t, -4.0, center[0], 1e-9)
	assert.InDelta(t, 0.0, center[1], 1e-9)
	assert.InDelta(t, 0.0, center[2], 1e-9)
}

func TestConeSource_Validation(t *testing.T) {
	base := ConeParams{Direction: mgl64.Vec3{0, -1, 0}, Height: 0.5, Radius: 0.1, Resolution: 20}

	t.Run("valid", func(t *testing.T) {
		_, err := NewConeSource(base)
		assert.NoError(t, err)
	})

	t.Run("zero height", func(t *testing.T) {
		p := base
		p.Height = 0
		_, err := NewConeSource(p)
		assert.ErrorIs(t, err, ErrInvalidHeight)
	})

	t.Run("negative radius", func(t *testing.T) {
		p := base
		p.Radius = -0.1
		_, err := NewConeSource(p)
		assert.ErrorIs(t, err, ErrInvalidRadius)
	})

	t.Run("zero direction", func(t *testing.T) {
		p := base
		p.Direction = mgl64.Vec3{}
		_, err := NewConeSource(p)
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})

	t.Run("low resolution", func(t *testing.T) {
		p := base
		p.Resolution = 2
		_, err := NewConeSource(p)
		assert.ErrorIs(t, err, ErrInvalidResolution)
	})
}

func TestConeSource_Geometry(t *testing.T) {
	src, err := NewConeSource(ConeParams{
		Center:     mgl64.Vec3{4, 0, 0},
		Direction:  mgl64.Vec3{0, -1, 0},
		Height:     0.5,
		Radius:     0.1,
		Resolution: 20,
	})
	require.NoError(t, err)

	apex := src.Apex()
	assert.InDelta(t, 4.0, apex[0], 1e-9)
	assert.InDelta(t, -0.25, apex[1], 1e-9)

	pd := src.Output()
	// apex, rim, cap center
	assert.Len(t, pd.Points, 1+20+1)
	assert.Len(t, pd.Triangles, 40)

	for _, p := range pd.Points[1:21] {
		assert.InDelta(t, 0.25, p[1], 1e-9)
		assert.InDelta(t, 0.1, mgl64.Vec2{p[0] - 4, p[2]}.Len(), 1e-9)
	}

	t.Run("uncapped", func(t *testing.T) {
		open, err := NewConeSource(ConeParams{Direction: mgl64.Vec3{1, 0, 0}, Height: 1, Radius: 1, Resolution: 8, Uncapped: true})
		require.NoError(t, err)
		assert.Len(t, open.Output().Triangles, 8)
	})
}

func TestMapper_Unbound(t *testing.T) {
	var m *Mapper
	assert.Nil(t, m.PolyData())
	assert.Nil(t, NewMapper(nil).PolyData())
}
