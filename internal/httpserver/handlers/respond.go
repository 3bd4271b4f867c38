package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/queue"
	"github.com/tofixx/mymovieflip/internal/session"
	"github.com/tofixx/mymovieflip/internal/settings"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("malformed request")

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP statuses. Anything not recognized
// comes from the catalog.
func writeError(w http.ResponseWriter, d deps.Deps, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		d.Logger.Warn("request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, session.ErrInvalidDecision),
		errors.Is(err, session.ErrInvalidView),
		errors.Is(err, settings.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, queue.ErrNoCandidates),
		errors.Is(err, session.ErrNoCard),
		errors.Is(err, session.ErrUnknownItem),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// not ready, unauthorized, breaker open, transport failures
		return http.StatusServiceUnavailable
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func idParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, errBadRequest
	}
	return id, nil
}
