package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
	"github.com/tofixx/mymovieflip/internal/httpserver/handlers"
	"github.com/tofixx/mymovieflip/internal/httpserver/mw"
)

func init() { Register("infra", registerInfra) }

// registerInfra mounts the operational endpoints. Only liveness is public.
func registerInfra(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Get("/readyz", handlers.Readyz(d))
	restricted.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))
	if d.MetricsEnabled {
		restricted.Handle("/metrics", promhttp.Handler())
	}
}
