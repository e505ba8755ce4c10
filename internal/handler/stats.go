package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"lyricmirror/internal/logger"
	"lyricmirror/internal/repository"
)

// StatsHandler serves GET /api/stats?top=N with the lyric play history.
func StatsHandler(repo repository.AssignmentRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		top := atoiDefault(r.URL.Query().Get("top"), 10)

		stats, err := repo.GetStats(top)
		if err != nil {
			logger.Error("Error loading stats: %v", err)
			http.Error(w, "Unable to load stats", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ClearStatsHandler handles POST /api/stats/clear.
func ClearStatsHandler(repo repository.AssignmentRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := repo.DeleteAll(); err != nil {
			logger.Error("Error clearing stats: %v", err)
			http.Error(w, "Unable to clear stats", http.StatusInternalServerError)
			return
		}

		logger.Info("Play history cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

// atoiDefault parses a positive integer, falling back to def.
func atoiDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
