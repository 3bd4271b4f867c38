package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
)

type componentStatus struct {
	OK           bool   `json:"ok"`
	Backend      string `json:"backend,omitempty"`
	GenresLoaded *int   `json:"genres_loaded,omitempty"`
	Locale       string `json:"locale,omitempty"`
	LastReload   string `json:"last_reload,omitempty"`
	Error        string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports whether the store answers and the session can serve cards.
// A session without a catalog token is not ready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store":   checkStore(r.Context(), d),
			"catalog": checkCatalog(d),
		}

		ready := true
		for _, c := range components {
			ready = ready && c.OK
		}
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{Ready: ready, Components: components})
	}
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "store not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Backend: d.StoreBackend, Error: err.Error()}
	}
	return componentStatus{OK: true, Backend: d.StoreBackend}
}

func checkCatalog(d deps.Deps) componentStatus {
	if d.Session == nil {
		return componentStatus{OK: false, Error: "session not initialized"}
	}

	genres := d.Session.Genres()
	count := genres.Count()
	lastReload := "never"
	if at := genres.GetLastReload(); !at.IsZero() {
		lastReload = at.Format("2006-01-02 15:04:05")
	}

	st := componentStatus{
		OK:           d.Session.Ready(),
		GenresLoaded: &count,
		Locale:       genres.Locale(),
		LastReload:   lastReload,
	}
	if !st.OK {
		st.Error = "no catalog token or first card not loaded"
	}
	return st
}
