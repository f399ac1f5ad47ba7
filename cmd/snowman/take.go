package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/teranos/snowcam"
	"github.com/teranos/snowcam/operators"
	"github.com/teranos/snowcam/snowman"
)

const takeName = "snowman"

// surface is an output that has to own the main goroutine while the
// director runs elsewhere.
type surface interface {
	snowcam.Observer
	Run() error
	Close()
}

func dialMQTT(cfg snowcam.MQTTConfig) (mqtt.Client, error) {
	client, err := operators.DialMQTT(cfg, 5*time.Second)
	if err != nil {
		return nil, err
	}
	log.Printf("📡 streaming %dx%d frames to %s on %s", cfg.Width, cfg.Height, cfg.URL, cfg.Topic)
	return client, nil
}

// take builds a fresh snowman, plays the timing table once and writes the
// film, comparison and report the config asks for.
func take(ctx context.Context, cfg snowcam.Config, o options, client mqtt.Client) error {
	s, err := snowman.Build(snowman.Options{
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Background: cfg.Background.Color,
	})
	if err != nil {
		return err
	}

	table := snowman.DefaultTimingTable()
	if cfg.Timing != "" {
		if table, err = snowcam.ReadTimingFile(cfg.Timing); err != nil {
			return err
		}
	}
	seq, err := snowman.Sequence(s, table)
	if err != nil {
		return err
	}

	pacer, err := snowcam.PacerFor(cfg.Pacing)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var view surface
	switch {
	case cfg.Terminal.Enabled:
		view = operators.NewTeaOperator(cfg.Terminal.Width, cancel)
	case cfg.Display.Enabled:
		if view, err = newWindow("snowcam - "+takeName, cfg.Window.Width, cfg.Window.Height, cfg.Display.Scale); err != nil {
			return err
		}
	}

	stageConfig := snowcam.DefaultStageConfig()
	stageConfig.Name = takeName
	director := snowcam.NewDirector(s, stageConfig).
		WithPacer(pacer).
		WithLogger(log.New(os.Stderr, "", log.LstdFlags))

	var film *snowcam.Operator
	if cfg.Film.Dir != "" {
		if err := os.RemoveAll(cfg.Film.Dir); err != nil {
			return fmt.Errorf("clear film: %w", err)
		}
		film = snowcam.NewOperator(cfg.Film.Dir, cfg.Film.Every).
			WithWorkers(cfg.Film.Workers).
			WithConfig(snowcam.RenderConfig{
				Caption:    cfg.Film.Caption,
				Background: color.RGBA{0, 0, 0, 255},
				Foreground: color.RGBA{255, 255, 255, 255},
				Scale:      cfg.Film.Scale,
			})
		defer film.Close()
		director.WithObserver(film)
	}

	if view != nil {
		director.WithObserver(view)
	}

	var stream *operators.MQTTOperator
	if client != nil {
		stream = operators.NewMQTTOperator(client, cfg.MQTT).WithEvery(cfg.Film.Every)
		director.WithObserver(stream)
	}

	log.Printf("🎬 %s: %d stages, %d frames, %s of delays", takeName, len(seq), seq.TotalFrames(), seq.Duration())
	result, runErr := play(ctx, cancel, director, seq, view)

	if film != nil {
		if err := film.Close(); err != nil {
			log.Printf("⚠️  film: %v", err)
		}
	}
	if stream != nil {
		log.Printf("📡 %d frames published", stream.Sent())
	}

	var comparison *snowcam.FilmComparison
	if film != nil && cfg.Report.Baseline != "" {
		supervisor := snowcam.NewScriptSupervisor(cfg.Report.Baseline, cfg.Film.Dir).
			WithTolerance(cfg.Report.Tolerance)
		if o.setBaseline {
			n, err := supervisor.SetBaselineFilm()
			if err != nil {
				return err
			}
			log.Printf("📌 baseline %s set from %d stills", cfg.Report.Baseline, n)
		} else if comparison, err = supervisor.ValidateFilm(); err != nil {
			log.Printf("⚠️  comparison: %v", err)
		} else {
			logComparison(comparison)
		}
	}

	if cfg.Report.Dir != "" {
		if err := writeReport(cfg, result, film, comparison, s.Frame()); err != nil {
			log.Printf("⚠️  report: %v", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if comparison != nil && !comparison.Passed() {
		return fmt.Errorf("film differs from baseline in %d stills (%d missing)", len(comparison.Failed), len(comparison.Missing))
	}
	log.Printf("✅ %s finished: %d redraws in %s", takeName, result.Redraws, result.Duration.Round(time.Millisecond))
	return nil
}

// play runs the director. With a view the director moves to a goroutine
// and the view keeps the calling one; closing the view cancels the take.
func play(ctx context.Context, cancel context.CancelFunc, director *snowcam.Director, seq snowcam.Sequence, view surface) (*snowcam.StageResult, error) {
	if view == nil {
		return director.Run(ctx, seq)
	}

	type outcome struct {
		result *snowcam.StageResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := director.Run(ctx, seq)
		view.Close()
		done <- outcome{result, err}
	}()

	if err := view.Run(); err != nil {
		log.Printf("⚠️  view: %v", err)
	}
	cancel()
	out := <-done
	return out.result, out.err
}

func logComparison(c *snowcam.FilmComparison) {
	if c.Passed() {
		log.Printf("🎞️  film matches baseline: %d stills, max difference %.2f%%", c.Frames, c.MaxDifference)
		return
	}
	for _, name := range c.Failed {
		log.Printf("❌ %s differs by %.2f%% (tolerance %.2f%%)", name, c.Differences[name], c.Tolerance)
	}
	for _, name := range c.Missing {
		log.Printf("❌ %s missing from film", name)
	}
}

func writeReport(cfg snowcam.Config, result *snowcam.StageResult, film *snowcam.Operator, comparison *snowcam.FilmComparison, final *image.RGBA) error {
	if result == nil {
		return errors.New("no result to report")
	}

	var shots []snowcam.Shot
	if film != nil {
		shots = film.Shots()
	}
	filmDir, err := filepath.Abs(cfg.Film.Dir)
	if err != nil {
		return err
	}
	report := snowcam.NewTakeReport(result, shots, filmDir)
	report.Comparison = comparison
	if final != nil {
		report.FinalFrame = image.NewRGBA(final.Bounds())
		copy(report.FinalFrame.Pix, final.Pix)
	}
	report.Metadata["window"] = fmt.Sprintf("%dx%d", cfg.Window.Width, cfg.Window.Height)
	report.Metadata["pacing"] = cfg.Pacing.Mode
	if cfg.Timing != "" {
		report.Metadata["timing"] = cfg.Timing
	}

	dir := snowcam.ReportDir(cfg.Report.Dir, takeName, time.Now())
	if err := snowcam.NewHTMLReportGenerator(dir).GenerateReport(report); err != nil {
		return err
	}
	log.Printf("📝 report written to %s", filepath.Join(dir, "index.html"))
	return snowcam.GenerateDashboard(cfg.Report.Dir)
}
