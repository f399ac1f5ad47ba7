package snowcam

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderConfig defines how film frames look on disk.
type RenderConfig struct {
	Caption    bool       // Draw stage and frame under the picture
	Background color.RGBA // Caption band color
	Foreground color.RGBA // Caption text color
	Scale      float64    // Downscale factor in (0, 1]; 0 means 1
	OutputDir  string     // Directory relative film names are written to
}

// DefaultRenderConfig returns white captions on a black band, full size.
func DefaultRenderConfig(outputDir string) RenderConfig {
	return RenderConfig{
		Caption:    true,
		Background: color.RGBA{0, 0, 0, 255},
		Foreground: color.RGBA{255, 255, 255, 255},
		Scale:      1,
		OutputDir:  outputDir,
	}
}

// RenderingStage turns rendered frames into film stills. It holds no
// per-frame state and is safe for concurrent use.
type RenderingStage struct {
	config     RenderConfig
	font       font.Face
	charWidth  int
	charHeight int
}

func NewRenderingStage(config RenderConfig) *RenderingStage {
	if config.Scale <= 0 || config.Scale > 1 {
		config.Scale = 1
	}
	return &RenderingStage{
		config:     config,
		font:       basicfont.Face7x13,
		charWidth:  7,
		charHeight: 16,
	}
}

// Config returns the stage configuration.
func (rs *RenderingStage) Config() RenderConfig {
	return rs.config
}

// Caption formats the caption of a frame: "stage 12/90".
func Caption(info FrameInfo) string {
	return fmt.Sprintf("%s %d/%d", info.Stage, info.Frame+1, info.Frames)
}

// RenderFrame returns a new image holding src, scaled, with caption drawn
// in a band below it when captions are enabled. src is not modified.
func (rs *RenderingStage) RenderFrame(src *image.RGBA, caption string) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if rs.config.Scale < 1 {
		w = max(1, int(math.Round(float64(w)*rs.config.Scale)))
		h = max(1, int(math.Round(float64(h)*rs.config.Scale)))
	}

	band := 0
	if rs.config.Caption {
		band = rs.charHeight
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h+band))
	picture := image.Rect(0, 0, w, h)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, picture, src, b.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, picture, src, b, draw.Src, nil)
	}

	if band > 0 {
		draw.Draw(dst, image.Rect(0, h, w, h+band), image.NewUniform(rs.config.Background), image.Point{}, draw.Src)
		rs.drawText(dst, caption, 2, h+band-4)
	}
	return dst
}

// drawText writes text with its baseline at (x, y), clipped to dst.
func (rs *RenderingStage) drawText(dst *image.RGBA, text string, x, y int) {
	maxChars := (dst.Bounds().Dx() - x) / rs.charWidth
	if maxChars <= 0 {
		return
	}
	runes := []rune(text)
	if len(runes) > maxChars {
		runes = runes[:maxChars]
	}

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(rs.config.Foreground),
		Face: rs.font,
		Dot: fixed.Point26_6{
			X: fixed.I(x),
			Y: fixed.I(y),
		},
	}
	drawer.DrawString(string(runes))
}

// CaptureFrame writes img as a PNG. Relative names are placed under the
// configured output directory, which is created on demand.
func (rs *RenderingStage) CaptureFrame(img image.Image, filename string) error {
	path := filename
	if !filepath.IsAbs(path) && rs.config.OutputDir != "" {
		path = filepath.Join(rs.config.OutputDir, filename)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create film directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	return file.Close()
}
