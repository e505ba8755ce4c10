// Package geometry maps detector boxes from native video pixels onto the
// display container the kiosk page renders the video in.
package geometry

import "math"

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Aspect returns width divided by height.
func (s Size) Aspect() float64 {
	return s.Width / s.Height
}

// Point is a position in on-screen coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Box is a raw detection in native video pixel space.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Rect is an on-screen rectangle.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

// Pad grows the rectangle by p on every side.
func (r Rect) Pad(p float64) Rect {
	if p == 0 {
		return r
	}
	return Rect{
		Left:   r.Left - p,
		Top:    r.Top - p,
		Width:  r.Width + 2*p,
		Height: r.Height + 2*p,
	}
}

// CoverFit describes how a video is scaled and cropped to fill a container
// while keeping its aspect ratio (CSS object-fit: cover).
type CoverFit struct {
	Scale     float64
	OffsetX   float64
	OffsetY   float64
	Container Size
}

// NewCoverFit computes the cover transform. ok is false when either size has
// a zero or negative dimension; callers skip the cycle in that case.
func NewCoverFit(video, container Size) (CoverFit, bool) {
	if !video.Valid() || !container.Valid() {
		return CoverFit{}, false
	}

	fit := CoverFit{Container: container}
	if video.Aspect() > container.Aspect() {
		// wider than the container: cropped left/right
		fit.Scale = container.Height / video.Height
		fit.OffsetX = (container.Width - video.Width*fit.Scale) / 2
	} else {
		// taller than the container: cropped top/bottom
		fit.Scale = container.Width / video.Width
		fit.OffsetY = (container.Height - video.Height*fit.Scale) / 2
	}
	return fit, true
}

// Map converts a detector box into an on-screen rectangle. With mirror set
// the horizontal position is flipped, matching a mirrored video element.
func (f CoverFit) Map(box Box, mirror bool) Rect {
	x := box.X*f.Scale + f.OffsetX
	y := box.Y*f.Scale + f.OffsetY
	w := box.Width * f.Scale
	h := box.Height * f.Scale

	if mirror {
		x = f.Container.Width - x - w
	}
	return Rect{Left: x, Top: y, Width: w, Height: h}
}

// MapAll maps every box with the same transform, keeping input order.
func (f CoverFit) MapAll(boxes []Box, mirror bool) []Rect {
	rects := make([]Rect, 0, len(boxes))
	for _, b := range boxes {
		rects = append(rects, f.Map(b, mirror))
	}
	return rects
}
