package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tofixx/mymovieflip/internal/httpserver/deps"
	"github.com/tofixx/mymovieflip/internal/httpserver/handlers"
	"github.com/tofixx/mymovieflip/internal/httpserver/mw"
)

func init() { Register("api", registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Requests:   d.APIRateLimit,
			Window:     d.APIRateWindow,
			TrustProxy: d.TrustProxy,
		}))

		api.Get("/state", handlers.State(d))
		api.Get("/card", handlers.Card(d))
		api.Post("/decisions", handlers.Decide(d))
		api.Post("/skip", handlers.Skip(d))
		api.Post("/back", handlers.Back(d))

		api.Get("/recommendations", handlers.Recommendations(d))
		api.Post("/recommendations/{id}/decisions", handlers.DecideRecommendation(d))

		api.Get("/library/{view}", handlers.Library(d))
		api.Delete("/library/{view}", handlers.ClearLibrary(d))
		api.Delete("/library/{view}/{id}", handlers.RemoveLibraryItem(d))
		api.Post("/library/bookmarks/{id}/watched", handlers.MoveToWatched(d))
		api.Put("/ratings/{id}", handlers.SetRating(d))

		api.Get("/intent", handlers.Intent(d))
		api.Put("/intent", handlers.SetIntent(d))
		api.Post("/intent/skip", handlers.SkipIntent(d))

		api.Get("/settings", handlers.Settings(d))
		api.Put("/settings", handlers.UpdateSettings(d))
		api.Get("/providers", handlers.Providers(d))

		api.Get("/search", handlers.Search(d))
	})
}
