package tracker

import (
	"fmt"
	"math"
	"testing"

	"lyricmirror/internal/geometry"
	"lyricmirror/internal/lyrics"
	"lyricmirror/internal/model"
)

// sequenceAssigner hands out numbered lyrics so every draw is distinguishable.
type sequenceAssigner struct {
	draws int
}

func (s *sequenceAssigner) Assign() lyrics.Assignment {
	s.draws++
	lyric := fmt.Sprintf("lyric-%d", s.draws)
	info := fmt.Sprintf("song-%d", s.draws)
	return lyrics.Assignment{LyricText: &lyric, SongInfo: &info, Color: fmt.Sprintf("color-%d", s.draws)}
}

func counterIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("face-%03d", n)
	}
}

func newTestTracker(cfg Config) (*Tracker, *sequenceAssigner) {
	assigner := &sequenceAssigner{}
	return New(cfg, assigner, counterIDs()), assigner
}

// rectAt returns a 100x100 rectangle centered on (x, y).
func rectAt(x, y float64) geometry.Rect {
	return geometry.Rect{Left: x - 50, Top: y - 50, Width: 100, Height: 100}
}

func TestUpdate_NewFaceGetsIDAndContent(t *testing.T) {
	tr, assigner := newTestTracker(DefaultConfig())

	result := tr.Update(nil, []geometry.Rect{rectAt(200, 200)})

	if len(result.Faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(result.Faces))
	}
	face := result.Faces[0]
	if face.ID != "face-001" {
		t.Errorf("id = %q, expected face-001", face.ID)
	}
	if face.LyricText == nil || *face.LyricText != "lyric-1" {
		t.Errorf("expected lyric-1, got %v", face.LyricText)
	}
	if face.Center != (geometry.Point{X: 200, Y: 200}) {
		t.Errorf("center = %v", face.Center)
	}
	if len(result.Assigned) != 1 || assigner.draws != 1 {
		t.Errorf("expected exactly one assignment, got %d (draws %d)", len(result.Assigned), assigner.draws)
	}
}

func TestUpdate_StationaryFaceKeepsContent(t *testing.T) {
	tr, assigner := newTestTracker(DefaultConfig())

	faces := tr.Update(nil, []geometry.Rect{rectAt(300, 300)}).Faces
	first := faces[0]

	for i := 0; i < 20; i++ {
		// small jitter, always well inside the match radius
		jitter := float64(i%5) * 10
		result := tr.Update(faces, []geometry.Rect{rectAt(300+jitter, 300-jitter)})
		faces = result.Faces

		if len(result.Assigned) != 0 {
			t.Fatalf("cycle %d: unexpected reassignment", i)
		}
		got := faces[0]
		if got.ID != first.ID || got.LyricText != first.LyricText || got.SongInfo != first.SongInfo || got.Color != first.Color {
			t.Fatalf("cycle %d: face content changed: %+v vs %+v", i, got, first)
		}
	}

	if assigner.draws != 1 {
		t.Errorf("expected a single draw, got %d", assigner.draws)
	}
}

func TestUpdate_UpdatesCenterAndBox(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoxPadding = 4
	tr, _ := newTestTracker(cfg)

	faces := tr.Update(nil, []geometry.Rect{rectAt(100, 100)}).Faces
	faces = tr.Update(faces, []geometry.Rect{rectAt(130, 140)}).Faces

	if faces[0].Center != (geometry.Point{X: 130, Y: 140}) {
		t.Errorf("center not updated: %v", faces[0].Center)
	}
	expectedBox := rectAt(130, 140).Pad(4)
	if faces[0].DisplayBox != expectedBox {
		t.Errorf("display box = %+v, expected %+v", faces[0].DisplayBox, expectedBox)
	}
}

func TestUpdate_MatchRadiusIsInclusive(t *testing.T) {
	tests := []struct {
		name   string
		dx     float64
		sameID bool
	}{
		{"inside radius", DefaultMatchRadius - 1, true},
		{"exactly on radius", DefaultMatchRadius, true},
		{"just outside radius", DefaultMatchRadius + 0.001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTracker(DefaultConfig())
			faces := tr.Update(nil, []geometry.Rect{rectAt(400, 400)}).Faces
			next := tr.Update(faces, []geometry.Rect{rectAt(400+tt.dx, 400)}).Faces

			if (next[0].ID == faces[0].ID) != tt.sameID {
				t.Errorf("dx=%f: same id = %v, expected %v", tt.dx, next[0].ID == faces[0].ID, tt.sameID)
			}
		})
	}
}

func TestUpdate_ReassignThresholdIsExclusive(t *testing.T) {
	cfg := Config{MatchRadius: 1000, ReassignThreshold: 250, MaxFaces: 3}

	tests := []struct {
		name     string
		dx       float64
		reassign bool
	}{
		{"below threshold", 249, false},
		{"at threshold", 250, false},
		{"above threshold", 251, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTracker(cfg)
			faces := tr.Update(nil, []geometry.Rect{rectAt(100, 100)}).Faces
			result := tr.Update(faces, []geometry.Rect{rectAt(100+tt.dx, 100)})

			if result.Faces[0].ID != faces[0].ID {
				t.Fatal("face should keep its id when matched")
			}
			changed := *result.Faces[0].LyricText != *faces[0].LyricText
			if changed != tt.reassign {
				t.Errorf("content changed = %v, expected %v", changed, tt.reassign)
			}
			if (len(result.Assigned) == 1) != tt.reassign {
				t.Errorf("assigned = %d", len(result.Assigned))
			}
		})
	}
}

func TestUpdate_CapsAtMaxFacesInInputOrder(t *testing.T) {
	tr, _ := newTestTracker(DefaultConfig())

	detections := []geometry.Rect{rectAt(100, 100), rectAt(500, 100), rectAt(900, 100), rectAt(1300, 100)}
	faces := tr.Update(nil, detections).Faces

	if len(faces) != 3 {
		t.Fatalf("expected 3 faces, got %d", len(faces))
	}
	for i, f := range faces {
		if f.Center != detections[i].Center() {
			t.Errorf("face %d center = %v, expected %v", i, f.Center, detections[i].Center())
		}
	}
}

func TestUpdate_DroppedDetectionDoesNotClaimFace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFaces = 1
	tr, _ := newTestTracker(cfg)

	faces := tr.Update(nil, []geometry.Rect{rectAt(100, 100)}).Faces
	// the second detection is beyond the cap and must not affect the first
	next := tr.Update(faces, []geometry.Rect{rectAt(800, 800), rectAt(100, 100)}).Faces

	if len(next) != 1 {
		t.Fatalf("expected 1 face, got %d", len(next))
	}
	if next[0].ID == faces[0].ID {
		t.Error("face at (800,800) should be new, not the capped detection's face")
	}
}

func TestUpdate_DistantFacesGetDistinctIDs(t *testing.T) {
	tr, _ := newTestTracker(DefaultConfig())

	faces := tr.Update(nil, []geometry.Rect{rectAt(100, 100), rectAt(400, 100)}).Faces
	if faces[0].ID == faces[1].ID {
		t.Fatal("two faces in one cycle must have different ids")
	}

	next := tr.Update(faces, []geometry.Rect{rectAt(110, 100), rectAt(390, 100)}).Faces
	if next[0].ID != faces[0].ID || next[1].ID != faces[1].ID {
		t.Errorf("ids swapped or lost: %q,%q -> %q,%q", faces[0].ID, faces[1].ID, next[0].ID, next[1].ID)
	}
}

func TestUpdate_PreviousFaceClaimedOnce(t *testing.T) {
	tr, _ := newTestTracker(DefaultConfig())

	faces := tr.Update(nil, []geometry.Rect{rectAt(200, 200)}).Faces
	next := tr.Update(faces, []geometry.Rect{rectAt(210, 200), rectAt(190, 200)}).Faces

	if len(next) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(next))
	}
	if next[0].ID != faces[0].ID {
		t.Error("first detection should claim the existing face")
	}
	if next[1].ID == faces[0].ID {
		t.Error("an existing face must not be claimed twice")
	}
}

func TestUpdate_NearestWinsOverFirst(t *testing.T) {
	tr, _ := newTestTracker(DefaultConfig())

	previous := []model.TrackedFace{
		{ID: "far", Center: geometry.Point{X: 100, Y: 100}},
		{ID: "near", Center: geometry.Point{X: 200, Y: 100}},
	}
	next := tr.Update(previous, []geometry.Rect{rectAt(190, 100)}).Faces

	if next[0].ID != "near" {
		t.Errorf("matched %q, expected nearest face", next[0].ID)
	}
}

func TestUpdate_TieBreaksOnLowestID(t *testing.T) {
	tr, _ := newTestTracker(DefaultConfig())

	previous := []model.TrackedFace{
		{ID: "b", Center: geometry.Point{X: 90, Y: 100}},
		{ID: "a", Center: geometry.Point{X: 110, Y: 100}},
	}
	next := tr.Update(previous, []geometry.Rect{rectAt(100, 100)}).Faces

	if next[0].ID != "a" {
		t.Errorf("matched %q, expected lowest id 'a'", next[0].ID)
	}
}

func TestUpdate_NoDetectionsClearsFaces(t *testing.T) {
	tr, _ := newTestTracker(DefaultConfig())

	faces := tr.Update(nil, []geometry.Rect{rectAt(100, 100)}).Faces
	result := tr.Update(faces, nil)

	if len(result.Faces) != 0 {
		t.Errorf("expected no faces, got %d", len(result.Faces))
	}
}

func TestUpdate_GapGivesNewID(t *testing.T) {
	tr, _ := newTestTracker(DefaultConfig())

	faces := tr.Update(nil, []geometry.Rect{rectAt(100, 100)}).Faces
	gap := tr.Update(faces, nil).Faces
	back := tr.Update(gap, []geometry.Rect{rectAt(100, 100)}).Faces

	if back[0].ID == faces[0].ID {
		t.Error("face reappearing after a gap should get a new id")
	}
}

func TestSingleFaceConfig(t *testing.T) {
	tr, _ := newTestTracker(SingleFaceConfig())

	faces := tr.Update(nil, []geometry.Rect{rectAt(100, 100), rectAt(600, 100)}).Faces
	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}

	// any jump keeps the id; a jump over 120 redraws the lyric
	moved := tr.Update(faces, []geometry.Rect{rectAt(500, 100)})
	if moved.Faces[0].ID != faces[0].ID {
		t.Error("single face should keep its id")
	}
	if len(moved.Assigned) != 1 {
		t.Error("expected reassignment after moving 400px")
	}

	small := tr.Update(moved.Faces, []geometry.Rect{rectAt(560, 100)})
	if len(small.Assigned) != 0 {
		t.Error("60px move should not reassign")
	}
}

func TestNew_DefaultIDGenerator(t *testing.T) {
	tr := New(DefaultConfig(), &sequenceAssigner{}, nil)
	faces := tr.Update(nil, []geometry.Rect{rectAt(100, 100), rectAt(600, 100)}).Faces

	if len(faces[0].ID) != 36 || faces[0].ID == faces[1].ID {
		t.Errorf("expected distinct uuid ids, got %q and %q", faces[0].ID, faces[1].ID)
	}
	if !math.IsInf(SingleFaceConfig().MatchRadius, 1) {
		t.Error("single face config should match at any distance")
	}
}
