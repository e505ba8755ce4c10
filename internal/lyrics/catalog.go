package lyrics

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Separator splits a catalog line into lyric and song info.
const Separator = " | "

// ErrEmptyCatalog is returned when a catalog holds no usable entries.
var ErrEmptyCatalog = errors.New("lyric catalog is empty")

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Entry is one parsed catalog line. SongInfo is nil when the line has no separator.
type Entry struct {
	Lyric    string
	SongInfo *string
}

// ParseEntry splits "<lyric> | <songInfo>" on the first separator.
func ParseEntry(line string) Entry {
	lyric, info, found := strings.Cut(line, Separator)
	if !found {
		return Entry{Lyric: line}
	}
	return Entry{Lyric: lyric, SongInfo: &info}
}

// Catalog is the fixed list of raw lyric lines faces draw from.
type Catalog struct {
	Lyrics []string `yaml:"lyrics"`
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.Lyrics)
}

// Entry parses the i-th line.
func (c *Catalog) Entry(i int) Entry {
	return ParseEntry(c.Lyrics[i])
}

// Parse decodes a YAML catalog and drops blank lines.
func Parse(data []byte) (*Catalog, error) {
	var raw Catalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	catalog := &Catalog{Lyrics: make([]string, 0, len(raw.Lyrics))}
	for _, line := range raw.Lyrics {
		if strings.TrimSpace(line) == "" {
			continue
		}
		catalog.Lyrics = append(catalog.Lyrics, line)
	}

	if catalog.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	return catalog, nil
}

// Load reads a catalog from path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}
