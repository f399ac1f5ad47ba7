package snowcam

import (
	"context"
	"image/color"
	"testing"

	"github.com/teranos/snowcam/scene"
)

// BenchmarkDirectorLoop measures the per-frame overhead of the director
// without any rendering or pacing.
func BenchmarkDirectorLoop(b *testing.B) {
	a := newTestActor(b, "bench")
	director := newTestDirector(RedrawFunc(func() error { return nil }))
	seq := Sequence{RotateStage("spin", a, scene.AxisZ, 1, 100, 0)}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := director.Run(context.Background(), seq); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(director.Redraws()), "redraws/run")
}

// BenchmarkDirectorRasterized drives a real render window, the way the
// snowman takes run.
func BenchmarkDirectorRasterized(b *testing.B) {
	window, err := scene.NewRenderWindow(200, 200)
	if err != nil {
		b.Fatal(err)
	}
	renderer := scene.NewRenderer()
	window.AddRenderer(renderer)
	a := newTestActor(b, "ball")
	renderer.AddActor(a)
	renderer.ActiveCamera().SetPosition(0, 0, 6)

	director := newTestDirector(window)
	seq := Sequence{RotateStage("spin", a, scene.AxisY, 3, 30, 0)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := director.Run(context.Background(), seq); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkObserverFanout measures notification cost with several
// observers attached.
func BenchmarkObserverFanout(b *testing.B) {
	a := newTestActor(b, "bench")
	director := newTestDirector(&countingRedrawer{frame: solidFrame(64, 64, color.RGBA{0, 0, 0, 255})})

	var seen int
	for i := 0; i < 8; i++ {
		director.WithObserver(ObserverFunc(func(info FrameInfo) error {
			seen++
			return nil
		}))
	}
	seq := Sequence{RotateStage("spin", a, scene.AxisZ, 1, 100, 0)}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := director.Run(context.Background(), seq); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(seen)/float64(b.N), "notifications/run")
}

// BenchmarkOperatorFilm measures filming every frame on the worker pool.
func BenchmarkOperatorFilm(b *testing.B) {
	op := NewOperator(b.TempDir(), 1)
	defer op.Close()
	frame := solidFrame(128, 128, color.RGBA{30, 60, 120, 255})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := op.OnFrame(FrameInfo{Index: i, Stage: "bench", Frame: i, Frames: b.N, Image: frame}); err != nil {
			b.Fatal(err)
		}
	}
	if err := op.Flush(); err != nil {
		b.Fatal(err)
	}
}

func BenchmarkFrameToANSI(b *testing.B) {
	frame := solidFrame(500, 500, color.RGBA{25, 51, 102, 255})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = FrameToANSI(frame, 80)
	}
}

func BenchmarkScriptMutation(b *testing.B) {
	a := newTestActor(b, "bench")
	m, err := ScriptMutation(`rotate_z(frame % 3 - 1)`, 90)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m(a, i%90); err != nil {
			b.Fatal(err)
		}
	}
}
