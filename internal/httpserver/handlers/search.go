package handlers

import (
	"net/http"
	"strings"

	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/session"
)

const maxQueryLen = 200

func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSON(w, http.StatusOK, []session.SearchResult{})
			return
		}
		if len(query) > maxQueryLen {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query too long"})
			return
		}

		d.Logger.Debug("search request", logger.String("query", query))

		results, err := d.Session.Search(r.Context(), query)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}
