package scene

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestWindow builds a 64x64 window looking down -Z at a black sphere
// in front of a white background.
func newTestWindow(t *testing.T) (*RenderWindow, *Renderer, *Actor) {
	t.Helper()
	ball := NewActor("ball", newTestSphere(t, mgl64.Vec3{}, 1))
	ball.Property().SetColor(0, 0, 0)

	ren := NewRenderer()
	ren.SetBackground(1, 1, 1)
	ren.ActiveCamera().SetPosition(0, 0, 10)
	ren.AddActor(ball)

	win, err := NewRenderWindow(64, 64)
	require.NoError(t, err)
	win.AddRenderer(ren)
	return win, ren, ball
}

func TestRenderWindow_Size(t *testing.T) {
	_, err := NewRenderWindow(0, 10)
	assert.ErrorIs(t, err, ErrInvalidSize)

	win, err := NewRenderWindow(500, 500)
	require.NoError(t, err)
	w, h := win.Size()
	assert.Equal(t, 500, w)
	assert.Equal(t, 500, h)
	assert.Nil(t, win.Frame())
}

func TestRenderWindow_NoRenderer(t *testing.T) {
	win, err := NewRenderWindow(8, 8)
	require.NoError(t, err)
	assert.ErrorIs(t, win.Render(), ErrNoRenderer)
	assert.Equal(t, 0, win.Renders())
}

func TestRenderWindow_Render(t *testing.T) {
	win, _, ball := newTestWindow(t)

	t.Run("visible actor", func(t *testing.T) {
		require.NoError(t, win.Render())
		frame := win.Frame()
		require.NotNil(t, frame)
		assert.Equal(t, color.RGBA{0, 0, 0, 255}, frame.RGBAAt(32, 32))
		assert.Equal(t, color.RGBA{255, 255, 255, 255}, frame.RGBAAt(0, 0))
	})

	t.Run("hidden actor", func(t *testing.T) {
		ball.SetVisibility(false)
		require.NoError(t, win.Render())
		assert.Equal(t, color.RGBA{255, 255, 255, 255}, win.Frame().RGBAAt(32, 32))
	})

	assert.Equal(t, 2, win.Renders())
}

func TestRenderWindow_DepthOrder(t *testing.T) {
	win, ren, _ := newTestWindow(t)

	front := NewActor("front", newTestSphere(t, mgl64.Vec3{0, 0, 3}, 0.5))
	front.Property().SetColor(1, 0, 0)
	ren.AddActor(front)
	ren.AddActor(front)
	assert.Len(t, ren.Actors(), 2)

	require.NoError(t, win.Render())
	px := win.Frame().RGBAAt(32, 32)
	assert.Greater(t, px.R, uint8(100))
	assert.Equal(t, uint8(0), px.G)

	ren.RemoveActor(front)
	require.NoError(t, win.Render())
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, win.Frame().RGBAAt(32, 32))
}

func TestRenderer_Viewport(t *testing.T) {
	win, ren, _ := newTestWindow(t)
	ren.SetViewport(0, 0, 0.5, 1)

	require.NoError(t, win.Render())
	// right half is never touched
	assert.Equal(t, color.RGBA{}, win.Frame().RGBAAt(48, 32))
	assert.Equal(t, [4]float64{0, 0, 0.5, 1}, ren.Viewport())
}

func BenchmarkRenderWindow_Render(b *testing.B) {
	src, _ := NewSphereSource(SphereParams{Radius: 2, ThetaResolution: 15, PhiResolution: 15})
	ren := NewRenderer()
	ren.ActiveCamera().SetPosition(0, 0, 22)
	ren.AddActor(NewActor("body", NewMapper(src)))
	win, _ := NewRenderWindow(500, 500)
	win.AddRenderer(ren)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = win.Render()
	}
}
