package ai

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"lyricmirror/internal/config"
	"lyricmirror/internal/dto"
	"lyricmirror/internal/geometry"
	"lyricmirror/internal/logger"

	"gocv.io/x/gocv"
)

const (
	// NMSThreshold suppresses overlapping face boxes.
	NMSThreshold = 0.3
	// TopK bounds candidate boxes before NMS.
	TopK = 5000
)

var (
	ErrModelNotFound = errors.New("face detection model not found")
	ErrNotLoaded     = errors.New("face detection model not loaded")
)

// DetectorService finds faces with OpenCV's YuNet FaceDetectorYN.
type DetectorService struct {
	detector       gocv.FaceDetectorYN
	loaded         bool
	modelPath      string
	scoreThreshold float32
	mu             sync.Mutex
	logger         *logger.Logger
}

// NewDetectorService creates a detector; the model is read by Load.
func NewDetectorService(config *config.Config, logger *logger.Logger) *DetectorService {
	return &DetectorService{
		modelPath:      config.ModelPath,
		scoreThreshold: float32(config.ScoreThreshold),
		logger:         logger,
	}
}

// Load reads the ONNX model. It is safe to call from a background goroutine.
func (s *DetectorService) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(s.modelPath); err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, s.modelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		s.modelPath,
		"",
		image.Pt(320, 320), // replaced per frame
		s.scoreThreshold,
		NMSThreshold,
		TopK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	s.mu.Lock()
	s.detector = detector
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("Face detection model loaded: %s", s.modelPath)
	return nil
}

// Detect returns face boxes in the frame's native pixel space.
func (s *DetectorService) Detect(ctx context.Context, frame dto.Frame) ([]geometry.Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, ErrNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded frame is empty")
	}

	s.detector.SetInputSize(image.Pt(mat.Cols(), mat.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	s.detector.Detect(mat, &faces)

	// rows: x, y, w, h, 5 landmark pairs, score
	boxes := make([]geometry.Box, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		boxes = append(boxes, geometry.Box{
			X:      float64(faces.GetFloatAt(r, 0)),
			Y:      float64(faces.GetFloatAt(r, 1)),
			Width:  float64(faces.GetFloatAt(r, 2)),
			Height: float64(faces.GetFloatAt(r, 3)),
		})
	}

	return boxes, nil
}

// Close releases the model.
func (s *DetectorService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		s.detector.Close()
		s.loaded = false
	}
}
