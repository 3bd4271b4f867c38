package handlers

import (
	"net/http"
	"time"

	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	SessionID     string  `json:"session_id,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz reports liveness only; it never touches the store or the catalog.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: now().Sub(start).Seconds(),
		}
		if d.Session != nil {
			resp.SessionID = d.Session.ID()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
