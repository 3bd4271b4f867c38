package domain

import "time"

// Item is a catalog entry as returned by the catalog client.
// Items are never mutated after they are fetched.
type Item struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
	GenreIDs    []int   `json:"genre_ids"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
}

// MinimalItem is the projection of an Item kept in the profile document.
type MinimalItem struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	GenreIDs    []int   `json:"genre_ids"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average"`
}

// Bookmark is a MinimalItem saved for later.
type Bookmark struct {
	MinimalItem
	BookmarkedAt time.Time `json:"bookmarkedAt"`
}

// Minimal projects the item to the fields persisted after a decision.
func (it Item) Minimal() MinimalItem {
	return MinimalItem{
		ID:          it.ID,
		Title:       it.Title,
		PosterPath:  it.PosterPath,
		GenreIDs:    append([]int(nil), it.GenreIDs...),
		ReleaseDate: it.ReleaseDate,
		VoteAverage: it.VoteAverage,
	}
}

// Item widens a persisted entry back to an Item. Overview and popularity are lost.
func (m MinimalItem) Item() Item {
	return Item{
		ID:          m.ID,
		Title:       m.Title,
		PosterPath:  m.PosterPath,
		GenreIDs:    append([]int(nil), m.GenreIDs...),
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
	}
}

// Year returns the release year or "" when the date is unknown.
func (it Item) Year() string {
	if len(it.ReleaseDate) < 4 {
		return ""
	}
	return it.ReleaseDate[:4]
}

// DedupeItems keeps the first occurrence of every id, preserving order.
func DedupeItems(items []Item) []Item {
	seen := make(map[int]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
