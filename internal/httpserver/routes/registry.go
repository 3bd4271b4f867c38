package routes

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
	"github.com/tofixx/mymovieflip/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	group string
	reg   Registrar
	mws   []Middleware
}

var registry []entry

// Register adds a route group, called from init. mws wrap every route of the group.
func Register(group string, reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{group: group, reg: reg, mws: mws})
}

// RegisterAll mounts every group in name order. Called once per router.
func RegisterAll(r chi.Router, d deps.Deps) {
	entries := slices.Clone(registry)
	slices.SortStableFunc(entries, func(a, b entry) int { return cmp.Compare(a.group, b.group) })

	for _, e := range entries {
		if len(e.mws) == 0 {
			e.reg(r, d)
		} else {
			e.reg(r.With(e.mws...), d)
		}
		d.Logger.Debug("route group registered", logger.String("group", e.group))
	}
}
