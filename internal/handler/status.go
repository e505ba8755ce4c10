package handler

import (
	"encoding/json"
	"net/http"

	"lyricmirror/internal/dto"
	"lyricmirror/internal/geometry"
	"lyricmirror/internal/logger"
	"lyricmirror/internal/model"
	"lyricmirror/internal/service/driver"
)

// StatusSource reports the render driver state.
type StatusSource interface {
	State() (driver.State, error)
	Faces() []model.TrackedFace
}

// DisplayInfo reports connected viewers.
type DisplayInfo interface {
	GetClientCount() int
	Viewport() geometry.Size
}

// StatusHandler serves GET /api/status.
func StatusHandler(source StatusSource, display DisplayInfo, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		state, loadErr := source.State()
		status := dto.Status{
			State:    state.String(),
			Faces:    driver.FacesMessage(source.Faces()).Faces,
			Viewers:  display.GetClientCount(),
			Viewport: display.Viewport(),
		}
		if loadErr != nil {
			status.Error = loadErr.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}
