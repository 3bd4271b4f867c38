package handlers

import (
	"net/http"

	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
)

type decisionRequest struct {
	Type domain.DecisionType `json:"type"`
}

type backResponse struct {
	Undone bool `json:"undone"`
}

func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Session.State())
	}
}

func Card(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := d.Session.Card(r.Context())
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

// Decide records a decision on the current card and answers with the next one.
func Decide(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req decisionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, r, err)
			return
		}
		if err := d.Session.Decide(r.Context(), req.Type); err != nil {
			writeError(w, d, r, err)
			return
		}
		Card(d)(w, r)
	}
}

func Skip(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Session.Skip(r.Context()); err != nil {
			writeError(w, d, r, err)
			return
		}
		Card(d)(w, r)
	}
}

// Back undoes the last decision. Nothing to undo is not an error.
func Back(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, backResponse{Undone: d.Session.Back(r.Context())})
	}
}
