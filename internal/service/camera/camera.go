package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lyricmirror/internal/config"
	"lyricmirror/internal/dto"
	"lyricmirror/internal/logger"

	"gocv.io/x/gocv"
)

// readRetryDelay is how long Run waits after a failed read before trying again.
const readRetryDelay = 500 * time.Millisecond

// Service reads the webcam continuously and keeps the latest JPEG frame.
type Service struct {
	device  string
	capture *gocv.VideoCapture
	latest  dto.Frame
	ready   bool
	mu      sync.RWMutex
	logger  *logger.Logger
}

// NewService creates a camera service for the configured device.
func NewService(config *config.Config, logger *logger.Logger) *Service {
	return &Service{
		device: config.CameraDevice,
		logger: logger,
	}
}

// Open opens the capture device. A numeric device string selects a local
// camera index, anything else is treated as a file or stream URL.
func (s *Service) Open() error {
	capture, err := gocv.OpenVideoCapture(s.device)
	if err != nil {
		return fmt.Errorf("failed to open camera %s: %w", s.device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("camera %s is not available", s.device)
	}

	s.capture = capture
	s.logger.Info("📷 Camera %s opened", s.device)
	return nil
}

// Run reads frames until ctx is done, handing each encoded frame to onFrame.
func (s *Service) Run(ctx context.Context, onFrame func(dto.Frame)) {
	mat := gocv.NewMat()
	defer mat.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ok := s.capture.Read(&mat); !ok || mat.Empty() {
			s.setReady(false)
			s.logger.Warning("Camera %s returned no frame", s.device)
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		frame, err := encodeFrame(mat)
		if err != nil {
			s.logger.Error("Failed to encode frame: %v", err)
			continue
		}

		s.mu.Lock()
		s.latest = frame
		s.ready = frame.Width > 0 && frame.Height > 0
		s.mu.Unlock()

		if onFrame != nil {
			onFrame(frame)
		}
	}
}

// Grab returns the most recent frame. ok is false until the camera has
// produced a frame with a non-zero size, or after it stops delivering.
func (s *Service) Grab() (dto.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.ready
}

// Close releases the capture device.
func (s *Service) Close() error {
	s.setReady(false)
	if s.capture == nil {
		return nil
	}
	return s.capture.Close()
}

func (s *Service) setReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

func encodeFrame(mat gocv.Mat) (dto.Frame, error) {
	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return dto.Frame{}, err
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	return dto.Frame{Data: data, Width: mat.Cols(), Height: mat.Rows()}, nil
}
