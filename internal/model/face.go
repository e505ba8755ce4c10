package model

import "lyricmirror/internal/geometry"

// TrackedFace is a face kept across detection cycles while it keeps matching.
type TrackedFace struct {
	ID         string
	Center     geometry.Point
	DisplayBox geometry.Rect
	LyricText  *string
	SongInfo   *string
	Color      string
}
