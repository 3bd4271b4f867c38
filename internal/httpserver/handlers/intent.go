package handlers

import (
	"net/http"

	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
)

type intentRequest struct {
	Who        string   `json:"who"`
	Categories []string `json:"categories"`
}

func Intent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Session.Intent())
	}
}

// SetIntent stores who is watching and the wanted moods. Unknown categories
// contribute no keywords.
func SetIntent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req intentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d.Session.SetIntent(r.Context(), req.Who, req.Categories))
	}
}

func SkipIntent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Session.SkipIntent(r.Context()))
	}
}
