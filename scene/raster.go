package scene

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// frameBuffer is an RGBA image with a matching depth buffer.
type frameBuffer struct {
	img   *image.RGBA
	depth []float64
}

func newFrameBuffer(w, h int) *frameBuffer {
	return &frameBuffer{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float64, w*h),
	}
}

// clear fills rect with c and resets its depth.
func (fb *frameBuffer) clear(rect image.Rectangle, c colorful.Color) {
	r, g, b := c.Clamped().RGB255()
	w := fb.img.Rect.Dx()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := fb.img.PixOffset(x, y)
			fb.img.Pix[i+0] = r
			fb.img.Pix[i+1] = g
			fb.img.Pix[i+2] = b
			fb.img.Pix[i+3] = 0xff
			fb.depth[y*w+x] = math.Inf(1)
		}
	}
}

// screenVertex is a projected vertex in pixel coordinates with NDC depth.
type screenVertex struct {
	x, y, z float64
}

// drawRenderer clears the renderer's viewport and rasterizes its visible actors.
func (fb *frameBuffer) drawRenderer(r *Renderer) {
	w, h := fb.img.Rect.Dx(), fb.img.Rect.Dy()
	rect := r.pixelRect(w, h)
	if rect.Empty() {
		return
	}
	fb.clear(rect, r.background)

	cam := r.camera
	if cam == nil {
		return
	}
	aspect := float64(rect.Dx()) / float64(rect.Dy())
	viewProj := cam.ProjectionMatrix(aspect).Mul4(cam.ViewMatrix())
	eye := cam.Position()

	for _, a := range r.actors {
		if !a.Visible() {
			continue
		}
		fb.drawActor(a, viewProj, eye, rect)
	}
}

func (fb *frameBuffer) drawActor(a *Actor, viewProj mgl64.Mat4, eye mgl64.Vec3, rect image.Rectangle) {
	pd := a.Mapper().PolyData()
	if pd == nil {
		return
	}
	model := a.Matrix()
	mvp := viewProj.Mul4(model)
	prop := a.Property()

	world := make([]mgl64.Vec3, len(pd.Points))
	screen := make([]screenVertex, len(pd.Points))
	valid := make([]bool, len(pd.Points))
	for i, p := range pd.Points {
		world[i] = model.Mul4x1(p.Vec4(1)).Vec3()
		clip := mvp.Mul4x1(p.Vec4(1))
		if clip[3] <= 1e-9 {
			continue
		}
		ndc := clip.Vec3().Mul(1 / clip[3])
		screen[i] = screenVertex{
			x: float64(rect.Min.X) + (ndc[0]+1)*0.5*float64(rect.Dx()),
			y: float64(rect.Min.Y) + (1-ndc[1])*0.5*float64(rect.Dy()),
			z: ndc[2],
		}
		valid[i] = true
	}

	for _, tri := range pd.Triangles {
		if !valid[tri[0]] || !valid[tri[1]] || !valid[tri[2]] {
			continue
		}
		w0, w1, w2 := world[tri[0]], world[tri[1]], world[tri[2]]
		normal := w1.Sub(w0).Cross(w2.Sub(w0))
		if normal.Len() < 1e-12 {
			continue
		}
		centroid := w0.Add(w1).Add(w2).Mul(1.0 / 3)
		light := eye.Sub(centroid).Normalize()
		// two-sided headlight
		intensity := prop.Ambient + prop.Diffuse*math.Abs(normal.Normalize().Dot(light))
		shade := colorful.Color{
			R: prop.Color.R * intensity,
			G: prop.Color.G * intensity,
			B: prop.Color.B * intensity,
		}
		fb.fillTriangle(screen[tri[0]], screen[tri[1]], screen[tri[2]], shade, rect)
	}
}

func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func (fb *frameBuffer) fillTriangle(v0, v1, v2 screenVertex, c colorful.Color, rect image.Rectangle) {
	area := edge(v0, v1, v2.x, v2.y)
	if math.Abs(area) < 1e-12 {
		return
	}

	minX := int(math.Max(math.Floor(math.Min(v0.x, math.Min(v1.x, v2.x))), float64(rect.Min.X)))
	maxX := int(math.Min(math.Ceil(math.Max(v0.x, math.Max(v1.x, v2.x))), float64(rect.Max.X-1)))
	minY := int(math.Max(math.Floor(math.Min(v0.y, math.Min(v1.y, v2.y))), float64(rect.Min.Y)))
	maxY := int(math.Min(math.Ceil(math.Max(v0.y, math.Max(v1.y, v2.y))), float64(rect.Max.Y-1)))
	if minX > maxX || minY > maxY {
		return
	}

	r, g, b := c.Clamped().RGB255()
	stride := fb.img.Rect.Dx()
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			b0 := edge(v1, v2, px, py) / area
			b1 := edge(v2, v0, px, py) / area
			b2 := edge(v0, v1, px, py) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}
			z := b0*v0.z + b1*v1.z + b2*v2.z
			if z < -1 || z > 1 {
				continue
			}
			di := y*stride + x
			if z >= fb.depth[di] {
				continue
			}
			fb.depth[di] = z
			i := fb.img.PixOffset(x, y)
			fb.img.Pix[i+0] = r
			fb.img.Pix[i+1] = g
			fb.img.Pix[i+2] = b
			fb.img.Pix[i+3] = 0xff
		}
	}
}
