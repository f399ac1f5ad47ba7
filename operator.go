package snowcam

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"golang.org/x/image/draw"
)

// ErrNoFrame is returned by observers that need FrameInfo.Image when the
// director was not configured to capture frames.
var ErrNoFrame = errors.New("frame image not captured")

// Shot is one filmed frame.
type Shot struct {
	Path      string // file name relative to the film directory
	Index     int    // frame index across the run, -1 for tracking shots
	Stage     string
	Frame     int
	Caption   string
	Timestamp time.Time
}

// Operator films a run. It observes the director, copies every Nth frame
// (plus the last frame of each stage) and encodes it to PNG on a worker
// pool so the take is not slowed by disk writes.
//
// Encoding failures surface as errors from the next OnFrame call and from
// Flush, so the director records them as stumbles.
type Operator struct {
	renderingStage *RenderingStage
	filmDir        string
	every          int
	workers        int

	pool   worker.DynamicWorkerPool
	wg     sync.WaitGroup
	taskID int

	mu        sync.Mutex
	shots     []Shot
	pending   []error
	finishErr error
	tracking  int
}

// NewOperator creates an operator writing to filmDir. every < 1 films
// every frame.
func NewOperator(filmDir string, every int) *Operator {
	if every < 1 {
		every = 1
	}
	return &Operator{
		renderingStage: NewRenderingStage(DefaultRenderConfig(filmDir)),
		filmDir:        filmDir,
		every:          every,
		workers:        4,
	}
}

// WithConfig customizes how stills look. The output directory of config
// replaces the film directory when set.
func (op *Operator) WithConfig(config RenderConfig) *Operator {
	if config.OutputDir == "" {
		config.OutputDir = op.filmDir
	}
	op.renderingStage = NewRenderingStage(config)
	op.filmDir = config.OutputDir
	return op
}

// WithWorkers sets the size of the encoding pool. Must be called before
// the first frame.
func (op *Operator) WithWorkers(n int) *Operator {
	if n > 0 {
		op.workers = n
	}
	return op
}

// FilmDir returns the directory stills are written to.
func (op *Operator) FilmDir() string {
	return op.filmDir
}

// OnFrame implements Observer.
func (op *Operator) OnFrame(info FrameInfo) error {
	pending := op.takePending()

	if info.Index%op.every != 0 && info.Frame != info.Frames-1 {
		return pending
	}
	if info.Image == nil {
		return errors.Join(pending, ErrNoFrame)
	}

	shot := Shot{
		Path:      fmt.Sprintf("frame_%05d_%s_%03d.png", info.Index, info.Stage, info.Frame),
		Index:     info.Index,
		Stage:     info.Stage,
		Frame:     info.Frame,
		Caption:   Caption(info),
		Timestamp: info.Timestamp,
	}
	op.film(copyFrame(info.Image), shot)
	return pending
}

// OnFinish implements Finisher; it waits for outstanding stills.
func (op *Operator) OnFinish(result *StageResult) {
	err := op.Flush()
	op.mu.Lock()
	op.finishErr = err
	op.mu.Unlock()
}

// Err returns encoding failures that were still pending when the run
// finished.
func (op *Operator) Err() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.finishErr
}

// CaptureTrackingShot synchronously writes img as shot_<n>_<label>.png.
func (op *Operator) CaptureTrackingShot(img *image.RGBA, label string) error {
	op.mu.Lock()
	n := op.tracking
	op.tracking++
	op.mu.Unlock()

	shot := Shot{
		Path:      fmt.Sprintf("shot_%03d_%s.png", n, label),
		Index:     -1,
		Stage:     label,
		Caption:   label,
		Timestamp: time.Now(),
	}
	still := op.renderingStage.RenderFrame(img, shot.Caption)
	if err := op.renderingStage.CaptureFrame(still, shot.Path); err != nil {
		return fmt.Errorf("capture tracking shot %s: %w", label, err)
	}
	op.addShot(shot)
	return nil
}

// Flush blocks until every submitted still is written and returns the
// failures not yet reported.
func (op *Operator) Flush() error {
	op.wg.Wait()
	return op.takePending()
}

// Shots returns the written stills ordered by frame index.
func (op *Operator) Shots() []Shot {
	op.mu.Lock()
	shots := make([]Shot, len(op.shots))
	copy(shots, op.shots)
	op.mu.Unlock()

	sort.SliceStable(shots, func(i, j int) bool {
		return shots[i].Index < shots[j].Index
	})
	return shots
}

// Close flushes and releases the worker pool.
func (op *Operator) Close() error {
	err := op.Flush()
	if op.pool != nil {
		op.pool.Stop()
		op.pool = nil
	}
	return err
}

func (op *Operator) film(img *image.RGBA, shot Shot) {
	if op.pool == nil {
		op.pool = worker.NewDynamicWorkerPool(op.workers, 256, 1*time.Second)
	}

	op.wg.Add(1)
	id := op.taskID
	op.taskID++
	op.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (result any, err error) {
			defer op.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("encoding %s panicked: %v", shot.Path, r)
				}
				if err != nil {
					op.fail(err)
				}
			}()

			still := op.renderingStage.RenderFrame(img, shot.Caption)
			if err := op.renderingStage.CaptureFrame(still, shot.Path); err != nil {
				return nil, err
			}
			op.addShot(shot)
			return shot.Path, nil
		},
	})
}

func (op *Operator) addShot(shot Shot) {
	op.mu.Lock()
	op.shots = append(op.shots, shot)
	op.mu.Unlock()
}

func (op *Operator) fail(err error) {
	op.mu.Lock()
	op.pending = append(op.pending, err)
	op.mu.Unlock()
}

func (op *Operator) takePending() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	if len(op.pending) == 0 {
		return nil
	}
	err := errors.Join(op.pending...)
	op.pending = nil
	return err
}

// copyFrame detaches a frame from the redrawer's reused buffer.
func copyFrame(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
