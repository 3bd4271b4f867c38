package session

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/settings"
)

// Library lists one profile view. Bookmarks follow the stored sort order;
// the other views keep decision order.
func (s *Session) Library(view domain.View) ([]LibraryEntry, error) {
	if !view.Valid() {
		return nil, ErrInvalidView
	}
	p := s.model.Snapshot()

	var out []LibraryEntry
	switch view {
	case domain.ViewLikes:
		out = s.entries(p.Likes)
	case domain.ViewDislikes:
		out = s.entries(p.Dislikes)
	case domain.ViewWatched:
		out = s.entries(p.Watched)
		for i := range out {
			out[i].Rating = p.Rating(out[i].ID)
		}
	case domain.ViewBookmarks:
		out = make([]LibraryEntry, 0, len(p.Bookmarks))
		for _, b := range p.Bookmarks {
			at := b.BookmarkedAt
			e := s.entry(b.MinimalItem)
			e.BookmarkedAt = &at
			out = append(out, e)
		}
		sortBookmarks(out, s.settings.Get().BookmarkSort)
	}
	return out, nil
}

func (s *Session) entries(list []domain.MinimalItem) []LibraryEntry {
	out := make([]LibraryEntry, 0, len(list))
	for _, m := range list {
		out = append(out, s.entry(m))
	}
	return out
}

func (s *Session) entry(m domain.MinimalItem) LibraryEntry {
	return LibraryEntry{
		MinimalItem: m,
		Genres:      s.genres.Names(m.GenreIDs),
		PosterURL:   s.posterURL(m.PosterPath),
	}
}

func sortBookmarks(entries []LibraryEntry, order string) {
	slices.SortStableFunc(entries, func(a, b LibraryEntry) int {
		switch order {
		case settings.SortOldest:
			return a.BookmarkedAt.Compare(*b.BookmarkedAt)
		case settings.SortTitle:
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		default:
			return b.BookmarkedAt.Compare(*a.BookmarkedAt)
		}
	})
}

// RemoveItem deletes id from a view. The id stays seen.
func (s *Session) RemoveItem(ctx context.Context, view domain.View, id int) (bool, error) {
	if !view.Valid() {
		return false, ErrInvalidView
	}
	removed := s.model.RemoveItem(ctx, view, id)
	if removed && view != domain.ViewBookmarks {
		s.refreshAsync(false)
	}
	return removed, nil
}

// ClearView empties a view. Its ids stay seen.
func (s *Session) ClearView(ctx context.Context, view domain.View) (bool, error) {
	if !view.Valid() {
		return false, ErrInvalidView
	}
	cleared := s.model.ClearView(ctx, view)
	if cleared && view != domain.ViewBookmarks {
		s.refreshAsync(false)
	}
	return cleared, nil
}

// MoveToWatched turns a bookmark into a watched entry with the default rating.
func (s *Session) MoveToWatched(ctx context.Context, id int) bool {
	moved := s.model.MoveToWatched(ctx, id)
	if moved {
		s.refreshAsync(false)
	}
	return moved
}

// SetRating rates a watched id and re-ranks regardless of the flip gate.
func (s *Session) SetRating(ctx context.Context, id, score int) bool {
	ok := s.model.SetRating(ctx, id, score)
	if ok {
		s.refreshAsync(true)
	}
	return ok
}

// Search looks titles up in the catalog and tags those already stored.
func (s *Session) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if !s.hasToken() {
		return nil, ErrNotReady
	}
	items, err := s.catalog.Search(ctx, query, s.settings.Get().Language)
	if err != nil {
		return nil, err
	}

	p := s.model.Snapshot()
	out := make([]SearchResult, 0, len(items))
	for _, it := range items {
		r := SearchResult{
			Item:      it,
			Year:      it.Year(),
			Genres:    s.genres.Names(it.GenreIDs),
			PosterURL: s.posterURL(it.PosterPath),
		}
		for _, v := range domain.Views {
			if p.Has(v, it.ID) {
				r.In = string(v)
				break
			}
		}
		out = append(out, r)
	}
	return out, nil
}
