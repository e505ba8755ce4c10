package repository

import (
	"time"

	"lyricmirror/internal/model"
)

// AssignmentRepository stores lyric assignment events for play statistics.
type AssignmentRepository interface {
	// Create operations
	InsertBatch(assignments []model.Assignment) error

	// Read operations
	GetStats(topN int) (*model.AssignmentStats, error)

	// Delete operations
	DeleteAll() error
	DeleteBefore(cutoff time.Time) (int64, error)
}
