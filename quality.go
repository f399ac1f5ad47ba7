package snowcam

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// pixelThreshold is the Lab distance above which two pixels count as
// different. It absorbs rounding in the rasterizer and PNG round trips.
const pixelThreshold = 0.02

// ScriptSupervisor checks that takes stay visually consistent by comparing
// filmed stills against a baseline film.
type ScriptSupervisor struct {
	baselineDir string
	currentDir  string
	tolerance   float64 // fraction of differing pixels allowed
}

// NewScriptSupervisor creates a supervisor comparing currentDir against
// baselineDir with a 0.5% tolerance.
func NewScriptSupervisor(baselineDir, currentDir string) *ScriptSupervisor {
	return &ScriptSupervisor{
		baselineDir: baselineDir,
		currentDir:  currentDir,
		tolerance:   0.005,
	}
}

// WithTolerance sets the allowed share of differing pixels, in percent.
func (ss *ScriptSupervisor) WithTolerance(percent float64) *ScriptSupervisor {
	ss.tolerance = percent / 100
	return ss
}

// ValidateConsistency compares one still, name.png, with its baseline.
// Differences over the tolerance write name_diff.png next to the current
// still.
func (ss *ScriptSupervisor) ValidateConsistency(name string) error {
	difference, err := ss.compare(name + ".png")
	if err != nil {
		return err
	}
	if difference > ss.tolerance {
		return fmt.Errorf("visual regression detected in %s: %.2f%% difference (tolerance: %.2f%%)",
			name, difference*100, ss.tolerance*100)
	}
	return nil
}

// FilmComparison is the outcome of comparing a whole film.
type FilmComparison struct {
	Frames        int                // stills compared
	Differences   map[string]float64 // percent of differing pixels per still
	Failed        []string           // stills over tolerance
	Missing       []string           // in the baseline, not in the current film
	Extra         []string           // in the current film, not in the baseline
	MaxDifference float64            // percent
	Tolerance     float64            // percent
}

// Passed reports whether the film matches its baseline.
func (fc *FilmComparison) Passed() bool {
	return len(fc.Failed) == 0 && len(fc.Missing) == 0
}

// ValidateFilm compares every still of the baseline film with the current
// film. The comparison is returned even when validation fails.
func (ss *ScriptSupervisor) ValidateFilm() (*FilmComparison, error) {
	baseline, err := listStills(ss.baselineDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list baseline: %w", err)
	}
	current, err := listStills(ss.currentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list current film: %w", err)
	}

	fc := &FilmComparison{
		Differences: make(map[string]float64),
		Tolerance:   ss.tolerance * 100,
	}
	inCurrent := make(map[string]bool, len(current))
	for _, name := range current {
		inCurrent[name] = true
	}
	inBaseline := make(map[string]bool, len(baseline))

	for _, name := range baseline {
		inBaseline[name] = true
		if !inCurrent[name] {
			fc.Missing = append(fc.Missing, name)
			continue
		}
		difference, err := ss.compare(name)
		if err != nil {
			return fc, err
		}
		fc.Frames++
		fc.Differences[name] = difference * 100
		if difference*100 > fc.MaxDifference {
			fc.MaxDifference = difference * 100
		}
		if difference > ss.tolerance {
			fc.Failed = append(fc.Failed, name)
		}
	}
	for _, name := range current {
		if !inBaseline[name] {
			fc.Extra = append(fc.Extra, name)
		}
	}

	if !fc.Passed() {
		return fc, fmt.Errorf("visual regression detected: %d of %d stills over %.2f%%, %d missing",
			len(fc.Failed), fc.Frames, fc.Tolerance, len(fc.Missing))
	}
	return fc, nil
}

// compare returns the share of differing pixels of one still and writes a
// diff image when it exceeds the tolerance.
func (ss *ScriptSupervisor) compare(file string) (float64, error) {
	baseline, err := ss.loadImage(filepath.Join(ss.baselineDir, file))
	if err != nil {
		return 0, fmt.Errorf("failed to load baseline: %w", err)
	}
	current, err := ss.loadImage(filepath.Join(ss.currentDir, file))
	if err != nil {
		return 0, fmt.Errorf("failed to load current: %w", err)
	}

	difference := ss.calculateDifference(baseline, current)
	if difference > ss.tolerance && baseline.Bounds() == current.Bounds() {
		diffPath := filepath.Join(ss.currentDir, strings.TrimSuffix(file, ".png")+"_diff.png")
		if err := ss.generateDiffImage(baseline, current, diffPath); err != nil {
			return difference, fmt.Errorf("failed to write diff image: %w", err)
		}
	}
	return difference, nil
}

func (ss *ScriptSupervisor) loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}

// calculateDifference returns the fraction of pixels whose colors are
// perceptibly different. Images of different sizes are fully different.
func (ss *ScriptSupervisor) calculateDifference(img1, img2 image.Image) float64 {
	bounds := img1.Bounds()
	if bounds != img2.Bounds() {
		return 1.0
	}

	totalPixels := bounds.Dx() * bounds.Dy()
	if totalPixels == 0 {
		return 0
	}
	differentPixels := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if pixelsDiffer(img1.At(x, y), img2.At(x, y)) {
				differentPixels++
			}
		}
	}
	return float64(differentPixels) / float64(totalPixels)
}

func pixelsDiffer(a, b color.Color) bool {
	ca, okA := colorful.MakeColor(a)
	cb, okB := colorful.MakeColor(b)
	if !okA || !okB {
		return okA != okB
	}
	return ca.DistanceLab(cb) > pixelThreshold
}

// generateDiffImage paints differing pixels red over a dimmed baseline.
func (ss *ScriptSupervisor) generateDiffImage(baseline, current image.Image, outputPath string) error {
	bounds := baseline.Bounds()
	diff := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			baseColor := baseline.At(x, y)
			if pixelsDiffer(baseColor, current.At(x, y)) {
				diff.Set(x, y, color.RGBA{255, 0, 0, 255})
				continue
			}
			r, g, b, a := baseColor.RGBA()
			diff.Set(x, y, color.RGBA{
				uint8(r >> 9),
				uint8(g >> 9),
				uint8(b >> 9),
				uint8(a >> 8),
			})
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, diff)
}

// SetBaseline stores one still as the baseline name.png.
func (ss *ScriptSupervisor) SetBaseline(name, stillPath string) error {
	if err := os.MkdirAll(ss.baselineDir, 0755); err != nil {
		return fmt.Errorf("failed to create baseline directory: %w", err)
	}
	return copyFile(stillPath, filepath.Join(ss.baselineDir, name+".png"))
}

// SetBaselineFilm replaces the baseline with every still of the current
// film.
func (ss *ScriptSupervisor) SetBaselineFilm() (int, error) {
	stills, err := listStills(ss.currentDir)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(ss.baselineDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create baseline directory: %w", err)
	}
	old, err := listStills(ss.baselineDir)
	if err != nil {
		return 0, err
	}
	for _, name := range old {
		if err := os.Remove(filepath.Join(ss.baselineDir, name)); err != nil {
			return 0, err
		}
	}
	for _, name := range stills {
		if err := copyFile(filepath.Join(ss.currentDir, name), filepath.Join(ss.baselineDir, name)); err != nil {
			return 0, err
		}
	}
	return len(stills), nil
}

// listStills returns the PNG stills of dir in name order, skipping diffs.
func listStills(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".png") || strings.HasSuffix(name, "_diff.png") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func copyFile(from, to string) error {
	input, err := os.Open(from)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := output.ReadFrom(input); err != nil {
		output.Close()
		return err
	}
	return output.Close()
}
