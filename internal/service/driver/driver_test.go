package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lyricmirror/internal/dto"
	"lyricmirror/internal/geometry"
	"lyricmirror/internal/logger"
	"lyricmirror/internal/lyrics"
	"lyricmirror/internal/model"
	"lyricmirror/internal/tracker"
)

const testInterval = 5 * time.Millisecond

type fakeSource struct {
	mu    sync.Mutex
	frame dto.Frame
	ready bool
}

func (s *fakeSource) Grab() (dto.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.ready
}

type fakeDetector struct {
	loadErr  error
	release  chan struct{} // closed to let Load return; nil returns at once
	block    chan struct{} // when set, Detect waits on it
	boxes    []geometry.Box
	detected atomic.Int32
}

func (d *fakeDetector) Load(ctx context.Context) error {
	if d.release != nil {
		select {
		case <-d.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return d.loadErr
}

func (d *fakeDetector) Detect(ctx context.Context, frame dto.Frame) ([]geometry.Box, error) {
	d.detected.Add(1)
	if d.block != nil {
		<-d.block
	}
	return d.boxes, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	viewport geometry.Size
	faces    []dto.FacesMessage
	statuses []dto.StatusMessage
}

func (p *fakePublisher) PublishFaces(msg dto.FacesMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faces = append(p.faces, msg)
}

func (p *fakePublisher) PublishStatus(msg dto.StatusMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, msg)
}

func (p *fakePublisher) Viewport() geometry.Size {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport
}

func (p *fakePublisher) facesCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.faces)
}

func (p *fakePublisher) lastFaces() dto.FacesMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.faces[len(p.faces)-1]
}

func (p *fakePublisher) lastStatus() dto.StatusMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statuses[len(p.statuses)-1]
}

type fakeRecorder struct {
	mu    sync.Mutex
	faces []model.TrackedFace
}

func (r *fakeRecorder) Record(faces []model.TrackedFace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faces = append(r.faces, faces...)
}

type fixedAssigner struct{}

func (fixedAssigner) Assign() lyrics.Assignment {
	lyric := "lyric"
	return lyrics.Assignment{LyricText: &lyric, Color: "hsl(0.00, 100%, 60%)"}
}

type harness struct {
	driver    *Driver
	source    *fakeSource
	detector  *fakeDetector
	publisher *fakePublisher
	recorder  *fakeRecorder
}

func newHarness(t *testing.T, detector *fakeDetector) *harness {
	t.Helper()

	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("face-%d", n)
	}

	h := &harness{
		source:    &fakeSource{frame: dto.Frame{Width: 1600, Height: 900}, ready: true},
		detector:  detector,
		publisher: &fakePublisher{viewport: geometry.Size{Width: 800, Height: 600}},
		recorder:  &fakeRecorder{},
	}
	h.driver = New(Options{
		Interval:  testInterval,
		Mirror:    true,
		Source:    h.source,
		Detector:  detector,
		Tracker:   tracker.New(tracker.DefaultConfig(), fixedAssigner{}, ids),
		Publisher: h.publisher,
		Recorder:  h.recorder,
		Logger:    logger.New(io.Discard),
	})
	t.Cleanup(h.driver.Stop)
	return h
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDriver_NoDetectionBeforeReady(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, &fakeDetector{release: release})
	h.driver.Start(context.Background())

	time.Sleep(10 * testInterval)
	if state, _ := h.driver.State(); state != ModelsLoading {
		t.Fatalf("state = %v, expected loading", state)
	}
	if h.detector.detected.Load() != 0 {
		t.Fatal("detection ran before models were loaded")
	}
	if got := h.publisher.lastStatus().State; got != "loading" {
		t.Errorf("published status %q, expected loading", got)
	}

	close(release)
	eventually(t, "ready state", func() bool {
		state, _ := h.driver.State()
		return state == Ready
	})
	eventually(t, "first detection", func() bool { return h.detector.detected.Load() > 0 })
}

func TestDriver_PublishesMappedFaces(t *testing.T) {
	h := newHarness(t, &fakeDetector{boxes: []geometry.Box{{X: 700, Y: 400, Width: 200, Height: 200}}})
	h.driver.Start(context.Background())

	eventually(t, "faces published", func() bool { return h.publisher.facesCount() > 0 })

	msg := h.publisher.lastFaces()
	if msg.Type != dto.TypeFaces || len(msg.Faces) != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	face := msg.Faces[0]
	if face.LyricText == nil || *face.LyricText != "lyric" {
		t.Errorf("expected assigned lyric, got %v", face.LyricText)
	}
	if face.Box.Left < 333 || face.Box.Left > 334 || face.Box.Top < 266 || face.Box.Top > 267 {
		t.Errorf("unexpected box %+v", face.Box)
	}

	eventually(t, "several cycles", func() bool { return h.publisher.facesCount() > 3 })
	if id := h.publisher.lastFaces().Faces[0].ID; id != face.ID {
		t.Errorf("stationary face changed id from %q to %q", face.ID, id)
	}

	h.recorder.mu.Lock()
	recorded := len(h.recorder.faces)
	h.recorder.mu.Unlock()
	if recorded != 1 {
		t.Errorf("expected one recorded assignment, got %d", recorded)
	}

	if faces := h.driver.Faces(); len(faces) != 1 || faces[0].ID != face.ID {
		t.Errorf("Faces() = %+v", faces)
	}
}

func TestDriver_EmptyDetectionsClearOverlays(t *testing.T) {
	h := newHarness(t, &fakeDetector{})
	h.driver.Start(context.Background())

	eventually(t, "faces published", func() bool { return h.publisher.facesCount() > 0 })
	msg := h.publisher.lastFaces()
	if msg.Faces == nil || len(msg.Faces) != 0 {
		t.Errorf("expected empty non-nil face list, got %+v", msg.Faces)
	}
}

func TestDriver_LoadFailure(t *testing.T) {
	h := newHarness(t, &fakeDetector{loadErr: errors.New("model missing")})
	h.driver.Start(context.Background())

	eventually(t, "failed state", func() bool {
		state, _ := h.driver.State()
		return state == Failed
	})

	_, err := h.driver.State()
	if err == nil || err.Error() != "model missing" {
		t.Errorf("load error = %v", err)
	}
	status := h.publisher.lastStatus()
	if status.State != "failed" || status.Error != "model missing" {
		t.Errorf("status = %+v", status)
	}

	time.Sleep(10 * testInterval)
	if h.detector.detected.Load() != 0 {
		t.Error("no detection should run after a load failure")
	}
}

func TestDriver_SkipsWhenVideoNotReady(t *testing.T) {
	h := newHarness(t, &fakeDetector{})
	h.source.ready = false
	h.driver.Start(context.Background())

	eventually(t, "ready state", func() bool {
		state, _ := h.driver.State()
		return state == Ready
	})
	time.Sleep(10 * testInterval)

	if h.detector.detected.Load() != 0 || h.publisher.facesCount() != 0 {
		t.Error("cycle should be skipped while the video is not ready")
	}
}

func TestDriver_SkipsWithoutViewport(t *testing.T) {
	h := newHarness(t, &fakeDetector{})
	h.publisher.viewport = geometry.Size{}
	h.driver.Start(context.Background())

	eventually(t, "ready state", func() bool {
		state, _ := h.driver.State()
		return state == Ready
	})
	time.Sleep(10 * testInterval)

	if h.detector.detected.Load() != 0 {
		t.Error("cycle should be skipped with a zero viewport")
	}
}

func TestDriver_AtMostOneDetectionInFlight(t *testing.T) {
	block := make(chan struct{})
	h := newHarness(t, &fakeDetector{block: block})
	h.driver.Start(context.Background())

	eventually(t, "first detection", func() bool { return h.detector.detected.Load() == 1 })
	time.Sleep(20 * testInterval)

	if n := h.detector.detected.Load(); n != 1 {
		t.Fatalf("expected 1 detection in flight, got %d", n)
	}

	close(block)
	eventually(t, "next detection", func() bool { return h.detector.detected.Load() > 1 })
}

func TestDriver_StartTwiceAndStop(t *testing.T) {
	h := newHarness(t, &fakeDetector{})
	h.driver.Start(context.Background())
	h.driver.Start(context.Background())

	eventually(t, "faces published", func() bool { return h.publisher.facesCount() > 0 })
	h.driver.Stop()

	count := h.publisher.facesCount()
	time.Sleep(10 * testInterval)
	if h.publisher.facesCount() != count {
		t.Error("no cycles should run after Stop")
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		Uninitialized: "uninitialized",
		ModelsLoading: "loading",
		Ready:         "ready",
		Failed:        "failed",
		State(42):     "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, expected %q", state, got, want)
		}
	}
}
