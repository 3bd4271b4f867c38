package handlers

import (
	"net/http"

	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
	"github.com/tofixx/mymovieflip/internal/logger"
)

// settingsRequest is a partial update: absent fields are left unchanged.
type settingsRequest struct {
	Token        *string `json:"token"`
	Language     *string `json:"language"`
	Providers    *[]int  `json:"providers"`
	BookmarkSort *string `json:"bookmarkSort"`
	Audience     *string `json:"audience"`
}

func Settings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Session.Settings())
	}
}

// UpdateSettings applies the fields present in the body. The token goes
// first so that a new bearer and a new language can be set in one call.
func UpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}
		ctx := r.Context()

		if req.Token != nil {
			if err := d.Session.SetToken(ctx, *req.Token); err != nil {
				// the token is stored; the session reports not ready until the catalog answers
				d.Logger.Warn("bootstrap after token change failed", logger.Error(err))
			}
		}
		if req.Language != nil {
			if err := d.Session.SetLanguage(ctx, *req.Language); err != nil {
				writeError(w, d, r, err)
				return
			}
		}
		if req.Providers != nil {
			if err := d.Session.SetProviders(ctx, *req.Providers); err != nil {
				writeError(w, d, r, err)
				return
			}
		}
		if req.BookmarkSort != nil {
			if err := d.Session.SetBookmarkSort(ctx, *req.BookmarkSort); err != nil {
				writeError(w, d, r, err)
				return
			}
		}
		if req.Audience != nil {
			if err := d.Session.SetAudience(ctx, *req.Audience); err != nil {
				writeError(w, d, r, err)
				return
			}
		}

		writeJSON(w, http.StatusOK, d.Session.Settings())
	}
}

// Providers lists the streaming services selectable in the configured region.
func Providers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Session.Providers(r.Context())
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
