// Package tracker keeps face identities stable across detection cycles by
// matching each new detection to the nearest face seen in the previous cycle.
package tracker

import (
	"math"

	"lyricmirror/internal/geometry"
	"lyricmirror/internal/lyrics"
	"lyricmirror/internal/model"

	"github.com/google/uuid"
)

const (
	// DefaultMatchRadius is the largest center distance still treated as the same face.
	DefaultMatchRadius = 150
	// DefaultReassignThreshold is the move distance above which a face gets new content.
	DefaultReassignThreshold = 250
	// DefaultMaxFaces caps how many faces are published per cycle.
	DefaultMaxFaces = 3
)

// Config holds the tracking distances in on-screen pixels.
type Config struct {
	MatchRadius       float64
	ReassignThreshold float64
	MaxFaces          int // <= 0 disables the cap
	BoxPadding        float64
}

// DefaultConfig is the multi-face setup.
func DefaultConfig() Config {
	return Config{
		MatchRadius:       DefaultMatchRadius,
		ReassignThreshold: DefaultReassignThreshold,
		MaxFaces:          DefaultMaxFaces,
	}
}

// SingleFaceConfig follows one face: any detection continues the current
// face, and content changes once it jumps more than 120 pixels.
func SingleFaceConfig() Config {
	return Config{
		MatchRadius:       math.Inf(1),
		ReassignThreshold: 120,
		MaxFaces:          1,
	}
}

// Assigner draws content for new or moved faces.
type Assigner interface {
	Assign() lyrics.Assignment
}

// IDGenerator returns a fresh face id.
type IDGenerator func() string

// Result is the outcome of one tracking step.
type Result struct {
	// Faces replaces the previous tracked list, in detection order.
	Faces []model.TrackedFace
	// Assigned are the faces that received freshly drawn content this cycle.
	Assigned []model.TrackedFace
}

// Tracker is stateless between calls; the caller owns the face list.
type Tracker struct {
	cfg      Config
	assigner Assigner
	newID    IDGenerator
}

// New creates a Tracker. A nil newID uses random UUIDv4 strings
// (122 random bits, so a collision among n ids has probability about n²/2¹²³).
func New(cfg Config, assigner Assigner, newID IDGenerator) *Tracker {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Tracker{cfg: cfg, assigner: assigner, newID: newID}
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config {
	return t.cfg
}

// Update matches detections against previous and returns the next face list.
//
// Detections past MaxFaces are dropped before matching. Each previous face
// can be claimed once; a detection takes the nearest unclaimed face whose
// center is within MatchRadius (inclusive), ties going to the lowest id.
// Previous faces that nothing matched are dropped.
func (t *Tracker) Update(previous []model.TrackedFace, detections []geometry.Rect) Result {
	if t.cfg.MaxFaces > 0 && len(detections) > t.cfg.MaxFaces {
		detections = detections[:t.cfg.MaxFaces]
	}

	result := Result{Faces: make([]model.TrackedFace, 0, len(detections))}
	claimed := make([]bool, len(previous))

	for _, rect := range detections {
		center := rect.Center()
		face := model.TrackedFace{
			Center:     center,
			DisplayBox: rect.Pad(t.cfg.BoxPadding),
		}

		match := t.nearest(previous, claimed, center)
		if match < 0 {
			face.ID = t.newID()
			t.assign(&face)
			result.Assigned = append(result.Assigned, face)
			result.Faces = append(result.Faces, face)
			continue
		}

		claimed[match] = true
		prev := previous[match]
		face.ID = prev.ID

		if center.Distance(prev.Center) > t.cfg.ReassignThreshold {
			t.assign(&face)
			result.Assigned = append(result.Assigned, face)
		} else {
			face.LyricText = prev.LyricText
			face.SongInfo = prev.SongInfo
			face.Color = prev.Color
		}
		result.Faces = append(result.Faces, face)
	}

	return result
}

func (t *Tracker) nearest(previous []model.TrackedFace, claimed []bool, center geometry.Point) int {
	best := -1
	bestDist := 0.0

	for i, prev := range previous {
		if claimed[i] {
			continue
		}
		d := center.Distance(prev.Center)
		if d > t.cfg.MatchRadius {
			continue
		}
		if best < 0 || d < bestDist || (d == bestDist && prev.ID < previous[best].ID) {
			best = i
			bestDist = d
		}
	}
	return best
}

func (t *Tracker) assign(face *model.TrackedFace) {
	a := t.assigner.Assign()
	face.LyricText = a.LyricText
	face.SongInfo = a.SongInfo
	face.Color = a.Color
}
