package session

import (
	"time"

	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/enrich"
	"github.com/tofixx/mymovieflip/internal/settings"
)

// StateView summarizes the session for the status bar.
type StateView struct {
	SessionID        string               `json:"sessionId"`
	Ready            bool                 `json:"ready"`
	Flips            int                  `json:"flips"`
	MinFlips         int                  `json:"minFlips"`
	RecsUnlocked     bool                 `json:"recommendationsUnlocked"`
	Likes            int                  `json:"likes"`
	Dislikes         int                  `json:"dislikes"`
	Watched          int                  `json:"watched"`
	Bookmarks        int                  `json:"bookmarks"`
	Decision         string               `json:"decisionState"`
	CanGoBack        bool                 `json:"canGoBack"`
	Buffered         int                  `json:"buffered"`
	IntentPromptDone bool                 `json:"intentPromptDone"`
	Settings         settings.Preferences `json:"settings"`
}

// CardView is the item on screen plus its enrichment.
type CardView struct {
	Item      domain.Item    `json:"item"`
	Year      string         `json:"year,omitempty"`
	Genres    []string       `json:"genres"`
	PosterURL string         `json:"posterUrl,omitempty"`
	Details   enrich.Details `json:"details"`
	CanGoBack bool           `json:"canGoBack"`
}

// RecView is one ranked recommendation.
type RecView struct {
	Item      domain.Item `json:"item"`
	Score     float64     `json:"score"`
	Year      string      `json:"year,omitempty"`
	Genres    []string    `json:"genres"`
	PosterURL string      `json:"posterUrl,omitempty"`
}

// RecommendationsView is the ranked list or the gate that hides it.
type RecommendationsView struct {
	Unlocked  bool      `json:"unlocked"`
	Flips     int       `json:"flips"`
	MinFlips  int       `json:"minFlips"`
	Items     []RecView `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LibraryEntry is one stored decision.
type LibraryEntry struct {
	domain.MinimalItem
	Rating       int        `json:"rating,omitempty"`
	BookmarkedAt *time.Time `json:"bookmarkedAt,omitempty"`
	Genres       []string   `json:"genres"`
	PosterURL    string     `json:"posterUrl,omitempty"`
}

// IntentView is the intent prompt state and the choices it offers.
type IntentView struct {
	Prompt     bool           `json:"prompt"`
	Current    *domain.Intent `json:"current,omitempty"`
	Categories []string       `json:"categories"`
	Audiences  []string       `json:"audiences"`
}

// SearchResult is a catalog hit annotated with the list it is stored in.
type SearchResult struct {
	Item      domain.Item `json:"item"`
	Year      string      `json:"year,omitempty"`
	Genres    []string    `json:"genres"`
	PosterURL string      `json:"posterUrl,omitempty"`
	In        string      `json:"in,omitempty"`
}

func (s *Session) posterURL(path string) string {
	if path == "" {
		return ""
	}
	return s.opts.ImageBase + path
}

func (s *Session) recView(c domain.Candidate) RecView {
	return RecView{
		Item:      c.Item,
		Score:     c.Score,
		Year:      c.Item.Year(),
		Genres:    s.genres.Names(c.Item.GenreIDs),
		PosterURL: s.posterURL(c.Item.PosterPath),
	}
}
