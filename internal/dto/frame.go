package dto

// Frame is one captured camera frame, JPEG encoded, with its native size.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}
