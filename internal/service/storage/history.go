package storage

import (
	"context"
	"sync"
	"time"

	"lyricmirror/internal/config"
	"lyricmirror/internal/logger"
	"lyricmirror/internal/model"
	"lyricmirror/internal/repository"
)

const pruneInterval = time.Hour

// HistoryService buffers lyric assignments in memory and periodically
// flushes them to the repository, keeping database writes off the render loop.
type HistoryService struct {
	pending     []model.Assignment
	bufferLimit int
	retention   time.Duration
	dropped     int
	repo        repository.AssignmentRepository
	now         func() time.Time
	mu          sync.Mutex
	logger      *logger.Logger
}

// NewHistoryService creates a HistoryService writing to repo.
func NewHistoryService(config *config.Config, logger *logger.Logger, repo repository.AssignmentRepository) *HistoryService {
	return &HistoryService{
		pending:     make([]model.Assignment, 0),
		bufferLimit: config.HistoryBufferLimit,
		retention:   config.HistoryRetention,
		repo:        repo,
		now:         time.Now,
		logger:      logger,
	}
}

// Run flushes on every interval tick and once more when ctx is done.
// Expired history is pruned at start and then hourly.
func (s *HistoryService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Prune()
	lastPrune := s.now()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
			if s.now().Sub(lastPrune) >= pruneInterval {
				s.Prune()
				lastPrune = s.now()
			}
		}
	}
}

// Prune deletes history older than the retention period.
func (s *HistoryService) Prune() {
	if s.retention <= 0 {
		return
	}

	removed, err := s.repo.DeleteBefore(s.now().Add(-s.retention))
	if err != nil {
		s.logger.Error("Error pruning assignment history: %v", err)
		return
	}
	if removed > 0 {
		s.logger.Info("Pruned %d assignments older than %v", removed, s.retention)
	}
}

// Record buffers faces that just received a lyric. Faces past the buffer
// limit are counted and dropped until the next flush.
func (s *HistoryService) Record(faces []model.TrackedFace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	for _, face := range faces {
		if s.bufferLimit > 0 && len(s.pending) >= s.bufferLimit {
			s.dropped++
			continue
		}
		s.pending = append(s.pending, toAssignment(face, at))
	}
}

// Flush writes buffered assignments. On failure they stay buffered for the next attempt.
func (s *HistoryService) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped > 0 {
		s.logger.Warning("History buffer full, dropped %d assignments", s.dropped)
		s.dropped = 0
	}
	if len(s.pending) == 0 {
		return
	}

	if err := s.repo.InsertBatch(s.pending); err != nil {
		s.logger.Error("Error saving assignment history: %v", err)
		return
	}

	s.logger.Info("Flushed %d assignments to history", len(s.pending))
	s.pending = s.pending[:0]
}

// Pending returns the number of buffered assignments.
func (s *HistoryService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func toAssignment(face model.TrackedFace, at time.Time) model.Assignment {
	a := model.Assignment{
		FaceID:     face.ID,
		Color:      face.Color,
		AssignedAt: at,
	}
	if face.LyricText != nil {
		a.LyricText = *face.LyricText
	}
	if face.SongInfo != nil {
		a.SongInfo = *face.SongInfo
	}
	return a
}
