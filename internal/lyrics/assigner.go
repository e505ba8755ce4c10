// Package lyrics holds the lyric catalog and draws the lyric and color
// shown above each tracked face.
package lyrics

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Assignment is the content drawn for a face.
type Assignment struct {
	LyricText *string
	SongInfo  *string
	Color     string
}

// Assigner draws uniformly random catalog entries and colors.
// It is not safe for concurrent use; the render driver owns it.
type Assigner struct {
	catalog *Catalog
	rng     *rand.Rand
}

// NewAssigner creates an assigner over catalog. A nil rng uses a randomly seeded source.
func NewAssigner(catalog *Catalog, rng *rand.Rand) *Assigner {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Assigner{catalog: catalog, rng: rng}
}

// Assign draws a new (lyric, song info, color) triple. Draws are independent,
// so the same lyric may come up twice in a row.
func (a *Assigner) Assign() Assignment {
	entry := a.catalog.Entry(a.rng.IntN(a.catalog.Len()))
	lyric := entry.Lyric

	return Assignment{
		LyricText: &lyric,
		SongInfo:  entry.SongInfo,
		Color:     Color(a.rng.Float64() * 360),
	}
}

// Color formats a fully saturated, 60% lightness HSL color for hue in [0, 360).
func Color(hue float64) string {
	// truncate so formatting never rounds up to 360
	hue = math.Floor(hue*100) / 100
	return fmt.Sprintf("hsl(%.2f, 100%%, 60%%)", hue)
}
