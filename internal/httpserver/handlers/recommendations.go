package handlers

import (
	"net/http"
	"strconv"

	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
)

func Recommendations(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
		view, err := d.Session.Recommendations(r.Context(), force)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// DecideRecommendation records a decision on a listed recommendation and
// answers with the re-ranked list.
func DecideRecommendation(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		var req decisionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}

		view, err := d.Session.DecideRecommendation(r.Context(), id, req.Type)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
