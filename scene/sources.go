package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Source produces polygonal geometry.
type Source interface {
	Output() *PolyData
}

// SphereParams configures a SphereSource.
type SphereParams struct {
	// Center is the sphere center in model coordinates.
	Center mgl64.Vec3
	// Radius must be positive.
	Radius float64
	// ThetaResolution is the number of points around the equator (>= 3).
	ThetaResolution int
	// PhiResolution is the number of points from pole to pole (>= 3).
	PhiResolution int
}

// SphereSource generates a UV sphere.
type SphereSource struct {
	params SphereParams
	output *PolyData
}

// NewSphereSource validates params and generates the sphere geometry.
//
// Parameters:
//   - params: center, radius and angular resolution
//
// Returns:
//   - *SphereSource: the source, with geometry generated eagerly
//   - error: ErrInvalidRadius or ErrInvalidResolution (wrapped) on bad input
func NewSphereSource(params SphereParams) (*SphereSource, error) {
	if !(params.Radius > 0) {
		return nil, fmt.Errorf("sphere radius %v: %w", params.Radius, ErrInvalidRadius)
	}
	if params.ThetaResolution < 3 {
		return nil, fmt.Errorf("sphere theta resolution %d: %w", params.ThetaResolution, ErrInvalidResolution)
	}
	if params.PhiResolution < 3 {
		return nil, fmt.Errorf("sphere phi resolution %d: %w", params.PhiResolution, ErrInvalidResolution)
	}

	s := &SphereSource{params: params}
	s.output = s.generate()
	return s, nil
}

// Params returns the parameters the sphere was generated with.
func (s *SphereSource) Params() SphereParams {
	return s.params
}

// Output returns the generated geometry.
func (s *SphereSource) Output() *PolyData {
	return s.output
}

func (s *SphereSource) generate() *PolyData {
	p := s.params
	rings := p.PhiResolution - 2
	pd := &PolyData{
		Points:    make([]mgl64.Vec3, 0, 2+rings*p.ThetaResolution),
		Triangles: make([]Triangle, 0, 2*p.ThetaResolution*(rings+1)),
	}

	// poles first, then rings from north to south
	pd.Points = append(pd.Points,
		p.Center.Add(mgl64.Vec3{0, 0, p.Radius}),
		p.Center.Add(mgl64.Vec3{0, 0, -p.Radius}),
	)
	for j := 1; j <= rings; j++ {
		phi := math.Pi * float64(j) / float64(p.PhiResolution-1)
		for i := 0; i < p.ThetaResolution; i++ {
			theta := 2 * math.Pi * float64(i) / float64(p.ThetaResolution)
			pd.Points = append(pd.Points, p.Center.Add(mgl64.Vec3{
				p.Radius * math.Sin(phi) * math.Cos(theta),
				p.Radius * math.Sin(phi) * math.Sin(theta),
				p.Radius * math.Cos(phi),
			}))
		}
	}

	ring := func(j, i int) int {
		return 2 + j*p.ThetaResolution + (i % p.ThetaResolution)
	}
	for i := 0; i < p.ThetaResolution; i++ {
		pd.Triangles = append(pd.Triangles, Triangle{0, ring(0, i), ring(0, i+1)})
		pd.Triangles = append(pd.Triangles, Triangle{1, ring(rings-1, i+1), ring(rings-1, i)})
	}
	for j := 0; j < rings-1; j++ {
		for i := 0; i < p.ThetaResolution; i++ {
			a, b := ring(j, i), ring(j, i+1)
			c, d := ring(j+1, i), ring(j+1, i+1)
			pd.Triangles = append(pd.Triangles, Triangle{a, c, b}, Triangle{b, c, d})
		}
	}
	return pd
}

// ConeParams configures a ConeSource.
type ConeParams struct {
	// Center is the midpoint of the cone axis.
	Center mgl64.Vec3
	// Direction points from the base to the apex; it must be non-zero.
	Direction mgl64.Vec3
	// Height must be positive.
	Height float64
	// Radius of the base; must be positive.
	Radius float64
	// Resolution is the number of facets around the axis (>= 3).
	Resolution int
	// Uncapped leaves the base open.
	Uncapped bool
}

// ConeSource generates a faceted cone.
type ConeSource struct {
	params ConeParams
	output *PolyData
}

// NewConeSource validates params and generates the cone geometry.
func NewConeSource(params ConeParams) (*ConeSource, error) {
	if !(params.Height > 0) {
		return nil, fmt.Errorf("cone height %v: %w", params.Height, ErrInvalidHeight)
	}
	if !(params.Radius > 0) {
		return nil, fmt.Errorf("cone radius %v: %w", params.Radius, ErrInvalidRadius)
	}
	if params.Resolution < 3 {
		return nil, fmt.Errorf("cone resolution %d: %w", params.Resolution, ErrInvalidResolution)
	}
	if params.Direction.Len() == 0 {
		return nil, fmt.Errorf("cone direction %v: %w", params.Direction, ErrInvalidDirection)
	}

	c := &ConeSource{params: params}
	c.output = c.generate()
	return c, nil
}

// Params returns the parameters the cone was generated with.
func (c *ConeSource) Params() ConeParams {
	return c.params
}

// Output returns the generated geometry.
func (c *ConeSource) Output() *PolyData {
	return c.output
}

// Apex returns the tip of the cone in model coordinates.
func (c *ConeSource) Apex() mgl64.Vec3 {
	return c.params.Center.Add(c.params.Direction.Normalize().Mul(c.params.Height / 2))
}

func (c *ConeSource) generate() *PolyData {
	p := c.params
	axis := p.Direction.Normalize()
	u, v := basis(axis)
	base := p.Center.Sub(axis.Mul(p.Height / 2))

	pd := &PolyData{
		Points: make([]mgl64.Vec3, 0, p.Resolution+2),
	}
	pd.Points = append(pd.Points, c.Apex())
	for i := 0; i < p.Resolution; i++ {
		theta := 2 * math.Pi * float64(i) / float64(p.Resolution)
		offset := u.Mul(p.Radius * math.Cos(theta)).Add(v.Mul(p.Radius * math.Sin(theta)))
		pd.Points = append(pd.Points, base.Add(offset))
	}

	rim := func(i int) int { return 1 + (i % p.Resolution) }
	for i := 0; i < p.Resolution; i++ {
		pd.Triangles = append(pd.Triangles, Triangle{0, rim(i), rim(i + 1)})
	}
	if !p.Uncapped {
		pd.Points = append(pd.Points, base)
		center := len(pd.Points) - 1
		for i := 0; i < p.Resolution; i++ {
			pd.Triangles = append(pd.Triangles, Triangle{center, rim(i + 1), rim(i)})
		}
	}
	return pd
}

// basis returns two unit vectors orthogonal to axis and to each other.
func basis(axis mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	ref := mgl64.Vec3{0, 0, 1}
	if math.Abs(axis.Dot(ref)) > 0.9 {
		ref = mgl64.Vec3{1, 0, 0}
	}
	u := axis.Cross(ref).Normalize()
	v := axis.Cross(u).Normalize()
	return u, v
}
