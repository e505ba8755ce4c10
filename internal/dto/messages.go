package dto

import "lyricmirror/internal/geometry"

// Message types exchanged on the viewer websocket.
const (
	TypeFrame    = "frame"
	TypeFaces    = "faces"
	TypeStatus   = "status"
	TypeViewport = "viewport"
)

// FaceMessage is one overlay the page draws.
type FaceMessage struct {
	ID        string        `json:"id"`
	Box       geometry.Rect `json:"box"`
	LyricText *string       `json:"lyricText"`
	SongInfo  *string       `json:"songInfo"`
	Color     string        `json:"color"`
}

// FacesMessage replaces every overlay on the page; an empty list clears them.
type FacesMessage struct {
	Type  string        `json:"type"`
	Faces []FaceMessage `json:"faces"`
}

// FrameMessage carries a base64 JPEG frame for the page's video.
type FrameMessage struct {
	Type   string `json:"type"`
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// StatusMessage reports the render driver state.
type StatusMessage struct {
	Type  string `json:"type"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// ViewportMessage is sent by the page with the rendered video element's size.
type ViewportMessage struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Status is the /api/status payload.
type Status struct {
	State    string        `json:"state"`
	Error    string        `json:"error,omitempty"`
	Faces    []FaceMessage `json:"faces"`
	Viewers  int           `json:"viewers"`
	Viewport geometry.Size `json:"viewport"`
}
