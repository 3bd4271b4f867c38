package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
)

type ratingRequest struct {
	Rating int `json:"rating"`
}

type changedResponse struct {
	Changed bool `json:"changed"`
}

func viewParam(r *http.Request) domain.View {
	return domain.View(strings.ToLower(chi.URLParam(r, "view")))
}

func Library(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := d.Session.Library(viewParam(r))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func ClearLibrary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed, err := d.Session.ClearView(r.Context(), viewParam(r))
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, changedResponse{Changed: changed})
	}
}

func RemoveLibraryItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		changed, err := d.Session.RemoveItem(r.Context(), viewParam(r), id)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, changedResponse{Changed: changed})
	}
}

// MoveToWatched turns a bookmark into a watched entry.
func MoveToWatched(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		if !d.Session.MoveToWatched(r.Context(), id) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not bookmarked"})
			return
		}
		writeJSON(w, http.StatusOK, changedResponse{Changed: true})
	}
}

// SetRating rates a watched item from 1 to 5.
func SetRating(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		var req ratingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}
		if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "rating out of range"})
			return
		}
		if !d.Session.SetRating(r.Context(), id, req.Rating) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not watched"})
			return
		}
		writeJSON(w, http.StatusOK, changedResponse{Changed: true})
	}
}
