package model

import "time"

// Assignment records a lyric being drawn for a face. Stored for play
// statistics only; face ids are random per appearance.
type Assignment struct {
	ID         int64     `json:"id"`
	FaceID     string    `json:"face_id"`
	LyricText  string    `json:"lyric_text"`
	SongInfo   string    `json:"song_info"`
	Color      string    `json:"color"`
	AssignedAt time.Time `json:"assigned_at"`
}

// LyricCount is how often a lyric was shown.
type LyricCount struct {
	LyricText string `json:"lyric_text"`
	SongInfo  string `json:"song_info"`
	Count     int    `json:"count"`
}

// AssignmentStats summarizes the play history.
type AssignmentStats struct {
	TotalAssignments int          `json:"total_assignments"`
	DistinctFaces    int          `json:"distinct_faces"`
	TopLyrics        []LyricCount `json:"top_lyrics"`
}
