package index

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Genre is one entry of the catalog's genre taxonomy.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreIndex provides in-memory lookup of genre names for the current locale.
// Reads never block on the catalog: a reload swaps the whole table.
type GenreIndex struct {
	mu         sync.RWMutex
	names      map[int]string // ID -> Name
	locale     string         // locale of the loaded names
	lastReload time.Time      // Timestamp of last reload
}

// NewGenreIndex creates an empty genre index
func NewGenreIndex() *GenreIndex {
	return &GenreIndex{
		names: make(map[int]string),
	}
}

// Update replaces all genres in the index
func (idx *GenreIndex) Update(locale string, names map[int]string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Clear and rebuild
	idx.names = make(map[int]string, len(names))
	for id, name := range names {
		idx.names[id] = name
	}
	idx.locale = locale
	idx.lastReload = time.Now()
}

// Name returns the genre name, or "" when unknown. Safe to pass as a lookup func.
func (idx *GenreIndex) Name(id int) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.names[id]
}

// Names resolves a list of ids, skipping unknown ones.
func (idx *GenreIndex) Names(ids []int) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := idx.names[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

// All returns every genre sorted by name
func (idx *GenreIndex) All() []Genre {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	genres := make([]Genre, 0, len(idx.names))
	for id, name := range idx.names {
		genres = append(genres, Genre{ID: id, Name: name})
	}
	slices.SortFunc(genres, func(a, b Genre) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return genres
}

// Count returns the number of genres in the index
func (idx *GenreIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.names)
}

// Locale returns the locale of the loaded names
func (idx *GenreIndex) Locale() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.locale
}

// GetLastReload returns the timestamp of the last reload
func (idx *GenreIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
