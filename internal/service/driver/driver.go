// Package driver runs the detection cycle: on every tick it takes the latest
// camera frame, detects faces, maps them on screen, tracks them and publishes
// the resulting overlays.
package driver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"lyricmirror/internal/dto"
	"lyricmirror/internal/geometry"
	"lyricmirror/internal/logger"
	"lyricmirror/internal/model"
	"lyricmirror/internal/tracker"
)

// FrameSource is the live video. ok is false while it is not ready.
type FrameSource interface {
	Grab() (dto.Frame, bool)
}

// FaceDetector loads its model once and then finds faces in frames.
type FaceDetector interface {
	Load(ctx context.Context) error
	Detect(ctx context.Context, frame dto.Frame) ([]geometry.Box, error)
}

// Publisher delivers overlays and status to the display.
type Publisher interface {
	PublishFaces(msg dto.FacesMessage)
	PublishStatus(msg dto.StatusMessage)
	// Viewport is the size of the rendered video element; zero until reported.
	Viewport() geometry.Size
}

// Recorder receives faces that were given new content.
type Recorder interface {
	Record(faces []model.TrackedFace)
}

// Options configures a Driver.
type Options struct {
	Interval  time.Duration
	Mirror    bool
	Source    FrameSource
	Detector  FaceDetector
	Tracker   *tracker.Tracker
	Publisher Publisher
	Recorder  Recorder // optional
	Logger    *logger.Logger
}

type detection struct {
	fit   geometry.CoverFit
	boxes []geometry.Box
	err   error
}

// Driver owns the tracked face list. The list is only touched on the run
// goroutine; detection runs on a worker with at most one call in flight.
type Driver struct {
	opts Options

	mu       sync.RWMutex
	state    State
	loadErr  error
	snapshot []model.TrackedFace

	faces    []model.TrackedFace
	inFlight atomic.Bool
	results  chan detection
	loaded   chan error

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a driver in the Uninitialized state.
func New(opts Options) *Driver {
	return &Driver{
		opts:    opts,
		state:   Uninitialized,
		results: make(chan detection, 1),
		loaded:  make(chan error, 1),
	}
}

// Start begins loading the detector model and starts the polling ticker.
// Ticks do no work until the model has loaded.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	if d.state != Uninitialized {
		d.mu.Unlock()
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.mu.Unlock()

	d.setState(ModelsLoading, nil)

	go func() {
		d.loaded <- d.opts.Detector.Load(ctx)
	}()
	go d.run(ctx)
}

// Stop halts the ticker and waits for the run loop to exit. A detection
// already in flight is left to finish and its result is discarded.
func (d *Driver) Stop() {
	d.mu.RLock()
	cancel, done := d.cancel, d.done
	d.mu.RUnlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// State returns the current lifecycle state and, when Failed, the load error.
func (d *Driver) State() (State, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state, d.loadErr
}

// Faces returns a copy of the last published face list.
func (d *Driver) Faces() []model.TrackedFace {
	d.mu.RLock()
	defer d.mu.RUnlock()
	faces := make([]model.TrackedFace, len(d.snapshot))
	copy(faces, d.snapshot)
	return faces
}

func (d *Driver) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-d.loaded:
			if err != nil {
				d.opts.Logger.Error("Failed to load face detection model: %v", err)
				d.setState(Failed, err)
				continue
			}
			d.opts.Logger.Info("🎬 Render driver ready, polling every %v", d.opts.Interval)
			d.setState(Ready, nil)

		case <-ticker.C:
			d.tick(ctx)

		case res := <-d.results:
			d.inFlight.Store(false)
			d.complete(res)
		}
	}
}

// tick dispatches one detection if the models, camera and viewport are ready.
func (d *Driver) tick(ctx context.Context) {
	if state, _ := d.State(); state != Ready {
		return
	}
	if d.inFlight.Load() {
		return
	}

	frame, ok := d.opts.Source.Grab()
	if !ok {
		return
	}

	video := geometry.Size{Width: float64(frame.Width), Height: float64(frame.Height)}
	fit, ok := geometry.NewCoverFit(video, d.opts.Publisher.Viewport())
	if !ok {
		return
	}

	d.inFlight.Store(true)
	go func() {
		boxes, err := d.opts.Detector.Detect(ctx, frame)
		d.results <- detection{fit: fit, boxes: boxes, err: err}
	}()
}

// complete runs mapping, tracking and publishing for a finished detection.
func (d *Driver) complete(res detection) {
	if res.err != nil {
		d.opts.Logger.Warning("Face detection failed: %v", res.err)
		return
	}

	rects := res.fit.MapAll(res.boxes, d.opts.Mirror)
	result := d.opts.Tracker.Update(d.faces, rects)
	d.faces = result.Faces

	d.mu.Lock()
	d.snapshot = result.Faces
	d.mu.Unlock()

	d.opts.Publisher.PublishFaces(FacesMessage(result.Faces))

	if d.opts.Recorder != nil && len(result.Assigned) > 0 {
		d.opts.Recorder.Record(result.Assigned)
	}
}

func (d *Driver) setState(state State, err error) {
	d.mu.Lock()
	d.state = state
	d.loadErr = err
	d.mu.Unlock()

	d.opts.Publisher.PublishStatus(StatusMessage(state, err))
}

// FacesMessage converts tracked faces to their wire form.
func FacesMessage(faces []model.TrackedFace) dto.FacesMessage {
	msg := dto.FacesMessage{Type: dto.TypeFaces, Faces: make([]dto.FaceMessage, 0, len(faces))}
	for _, f := range faces {
		msg.Faces = append(msg.Faces, dto.FaceMessage{
			ID:        f.ID,
			Box:       f.DisplayBox,
			LyricText: f.LyricText,
			SongInfo:  f.SongInfo,
			Color:     f.Color,
		})
	}
	return msg
}

// StatusMessage builds the status broadcast for a state.
func StatusMessage(state State, err error) dto.StatusMessage {
	msg := dto.StatusMessage{Type: dto.TypeStatus, State: state.String()}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}
