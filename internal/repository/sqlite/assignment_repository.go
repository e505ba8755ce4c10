package sqlite

import (
	"fmt"
	"time"

	"lyricmirror/internal/model"
)

// AssignmentRepository implements repository.AssignmentRepository for SQLite.
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new SQLite assignment repository.
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// InsertBatch adds multiple assignments in a single transaction.
func (r *AssignmentRepository) InsertBatch(assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO assignments (face_id, lyric_text, song_info, color, assigned_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		if _, err := stmt.Exec(a.FaceID, a.LyricText, a.SongInfo, a.Color, a.AssignedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	return tx.Commit()
}

// GetStats returns totals and the topN most shown lyrics.
func (r *AssignmentRepository) GetStats(topN int) (*model.AssignmentStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.AssignmentStats{TopLyrics: []model.LyricCount{}}

	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT face_id) FROM assignments
	`).Scan(&stats.TotalAssignments, &stats.DistinctFaces)
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}

	rows, err := r.db.Conn().Query(`
		SELECT lyric_text, song_info, COUNT(*) AS shown
		FROM assignments
		GROUP BY lyric_text, song_info
		ORDER BY shown DESC, lyric_text ASC
		LIMIT ?
	`, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to query lyric counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lc model.LyricCount
		if err := rows.Scan(&lc.LyricText, &lc.SongInfo, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan lyric count: %w", err)
		}
		stats.TopLyrics = append(stats.TopLyrics, lc)
	}

	return stats, rows.Err()
}

// DeleteBefore removes assignments older than cutoff and returns how many went.
// Times are stored in UTC so the text comparison in SQLite orders correctly.
func (r *AssignmentRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM assignments WHERE assigned_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune assignments: %w", err)
	}
	return result.RowsAffected()
}

// DeleteAll removes the whole history.
func (r *AssignmentRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM assignments`); err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}
	return nil
}
